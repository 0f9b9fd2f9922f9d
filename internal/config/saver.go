package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// saveConfig is the JSON-marshaling intermediary that uses string durations.
type saveConfig struct {
	Browser BrowserConfig     `json:"browser"`
	Session SessionConfig     `json:"session"`
	Preview savePreviewConfig `json:"preview"`
	Keymap  KeymapConfig      `json:"keymap"`
	UI      UIConfig          `json:"ui"`
}

type savePreviewConfig struct {
	Helper   []string `json:"helper,omitempty"`
	MaxBytes int      `json:"maxBytes,omitempty"`
	Debounce string   `json:"debounce,omitempty"`
}

// toSaveConfig converts Config to the JSON-serializable format.
func toSaveConfig(cfg *Config) saveConfig {
	return saveConfig{
		Browser: cfg.Browser,
		Session: cfg.Session,
		Preview: savePreviewConfig{
			Helper:   cfg.Preview.Helper,
			MaxBytes: cfg.Preview.MaxBytes,
			Debounce: cfg.Preview.Debounce.String(),
		},
		Keymap: cfg.Keymap,
		UI:     cfg.UI,
	}
}

// Save writes the config to ~/.config/sidetree/config.json.
func Save(cfg *Config) error {
	return SaveTo(ConfigPath(), cfg)
}

// SaveTo writes the config to path. Top-level keys in an existing file
// that the config does not manage are kept.
func SaveTo(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	merged := make(map[string]json.RawMessage)
	if data, err := os.ReadFile(path); err == nil {
		// An unreadable existing file is replaced rather than merged.
		_ = json.Unmarshal(data, &merged)
	}

	data, err := json.Marshal(toSaveConfig(cfg))
	if err != nil {
		return err
	}
	var managed map[string]json.RawMessage
	if err := json.Unmarshal(data, &managed); err != nil {
		return err
	}
	for k, v := range managed {
		merged[k] = v
	}

	out, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0644)
}
