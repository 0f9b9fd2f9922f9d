package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/sidetree/internal/app"
	"github.com/marcus/sidetree/internal/config"
	"github.com/marcus/sidetree/internal/keymap"
	"github.com/marcus/sidetree/internal/preview"
	"github.com/marcus/sidetree/internal/session"
	"github.com/marcus/sidetree/internal/state"
	"github.com/marcus/sidetree/internal/styles"
	"github.com/marcus/sidetree/internal/version"
	"github.com/marcus/sidetree/internal/view"
	"github.com/marcus/sidetree/internal/watcher"
)

// Version is set at build time via ldflags
var Version = ""

var (
	configPath   = flag.String("config", "", "path to config file")
	debugFlag    = flag.Bool("debug", false, "enable debug logging")
	logPath      = flag.String("log", "", "write logs to this file")
	versionFlag  = flag.Bool("version", false, "print version and exit")
	shortVersion = flag.Bool("v", false, "print version and exit (short)")
	sortFlag     = flag.String("sort", "", "sort method, e.g. filename, time, extension:Size")
	showIgnored  = flag.Bool("show-ignored", false, "show files matching the ignored globs")
	bufferName   = flag.String("buffer-name", "", "name of the view to open")
	newBuffer    = flag.Bool("new", false, "always open a new view")
	sessionFile  = flag.String("session", "", "session file")
)

func main() {
	flag.Parse()

	if *versionFlag || *shortVersion {
		fmt.Printf("sidetree version %s\n", version.Effective(Version))
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "sidetree: %v\n", err)
		os.Exit(1)
	}
}

// run owns every resource so its deferred cleanup happens before main
// exits.
func run() error {
	logger, closeLog, err := setupLogger(*logPath, *debugFlag)
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer closeLog()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	// Persistent UI state is optional.
	if err := state.Init(); err != nil {
		logger.Warn("state load failed", "err", err)
	}

	sessions := session.NewStore(cfg.Session.File)
	if err := sessions.Load(); err != nil {
		logger.Warn("session load failed", "file", cfg.Session.File, "err", err)
	}
	history := openHistory(cfg.Session.HistoryDB, logger)
	defer func() { _ = history.Close() }()

	w, err := watcher.New(cfg.Preview.Debounce, logger)
	if err != nil {
		logger.Warn("file watching disabled", "err", err)
	} else {
		defer func() { _ = w.Close() }()
	}

	mgr := view.NewManager(view.Options{
		Logger:         logger,
		SortMethod:     cfg.Browser.Sort,
		IgnoredGlobs:   cfg.Browser.IgnoredGlobs,
		ShowIgnored:    cfg.Browser.ShowIgnoredFiles,
		Columns:        cfg.Browser.Columns,
		RecursiveDepth: cfg.Browser.RecursiveDepth,
		PreviewHelper:  cfg.Preview.Helper,
		Sessions:       sessions,
		History:        history,
	})
	defer func() {
		for _, name := range mgr.Names() {
			mgr.Close(name)
		}
	}()

	profile := styles.ApplyColorProfile()
	renderer := preview.New(cfg.UI.SyntaxTheme, styles.MarkdownStyle(cfg.UI.MarkdownStyle), cfg.Preview.MaxBytes)
	renderer.SetFormatter(styles.ChromaFormatter(profile))

	var p *tea.Program
	opts := app.Options{
		Config:  cfg,
		Manager: mgr,
		Preview: renderer,
		Keymap:  keymap.NewRegistry(cfg.Keymap.Overrides),
		Watcher: w,
		Logger:  logger,
		Paths:   flag.Args(),
		Send:    func(msg tea.Msg) { p.Send(msg) },
	}
	model, err := app.New(opts)
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}

	p = tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running application: %w", err)
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

// applyFlags lets explicitly set flags override the config file.
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "sort":
			cfg.Browser.Sort = *sortFlag
		case "show-ignored":
			cfg.Browser.ShowIgnoredFiles = *showIgnored
		case "buffer-name":
			cfg.Browser.BufferName = *bufferName
		case "new":
			cfg.Browser.NewBuffer = *newBuffer
		case "session":
			cfg.Session.File = config.ExpandPath(*sessionFile)
		}
	})
}

// setupLogger logs to path, or nowhere: stderr belongs to the alt screen.
func setupLogger(path string, debug bool) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	var out io.Writer = io.Discard
	closeFn := func() {}
	if path != "" {
		f, err := os.OpenFile(config.ExpandPath(path), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, err
		}
		out = f
		closeFn = func() { _ = f.Close() }
	}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	return logger, closeFn, nil
}

// openHistory opens the SQLite history, falling back to memory.
func openHistory(path string, logger *slog.Logger) session.History {
	if path == "" {
		return session.NewMemoryHistory(0)
	}
	h, err := session.OpenSQLiteHistory(path)
	if err != nil {
		logger.Warn("history database unavailable, keeping history in memory", "path", path, "err", err)
		return session.NewMemoryHistory(0)
	}
	return h
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: sidetree [options] [path ...]\n\n")
		fmt.Fprintf(os.Stderr, "A tree file browser for the terminal.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
}
