package keymap

import (
	"slices"
	"testing"
)

func TestHandle(t *testing.T) {
	r := NewRegistry(nil)

	tests := []struct {
		name string
		keys []string
		want string
	}{
		{"single key", []string{"j"}, "cursor-down"},
		{"sequence", []string{"g", "g"}, "cursor-top"},
		{"action", []string{"o"}, "action:open_tree toggle"},
		{"broken sequence retries last key", []string{"g", "j"}, "cursor-down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r.Reset()
			var got Binding
			var ok bool
			for _, k := range tt.keys {
				got, ok = r.Handle(k)
			}
			if !ok || got.Command != tt.want {
				t.Errorf("Handle(%v) = %q, %v; want %q", tt.keys, got.Command, ok, tt.want)
			}
		})
	}
}

func TestHandle_Pending(t *testing.T) {
	r := NewRegistry(nil)
	if _, ok := r.Handle("g"); ok {
		t.Fatal("g alone should wait for the sequence")
	}
	if r.Pending() != "g" {
		t.Errorf("Pending() = %q", r.Pending())
	}
	if _, ok := r.Handle("unbound"); ok {
		t.Error("unbound key resolved")
	}
	if r.Pending() != "" {
		t.Errorf("Pending() after miss = %q", r.Pending())
	}
}

func TestOverrides(t *testing.T) {
	r := NewRegistry(map[string]string{
		"j":      "",
		"ctrl+o": "action:open_tree recursive:3",
	})
	if _, ok := r.Handle("j"); ok {
		t.Error("j should be unbound")
	}
	b, ok := r.Handle("ctrl+o")
	if !ok {
		t.Fatal("ctrl+o not bound")
	}
	verb, args := b.Action()
	if !b.IsAction() || verb != "open_tree" || !slices.Equal(args, []string{"recursive:3"}) {
		t.Errorf("Action() = %q %v", verb, args)
	}
}

func TestIsAction(t *testing.T) {
	tests := []struct {
		cmd  string
		want bool
	}{
		{"action:open", true},
		{"open_tree recursive", true},
		{"cursor-down", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := (Binding{Command: tt.cmd}).IsAction(); got != tt.want {
			t.Errorf("IsAction(%q) = %v, want %v", tt.cmd, got, tt.want)
		}
	}
}

func TestDefaultBindings_UICommandsKnown(t *testing.T) {
	for _, b := range DefaultBindings() {
		if b.IsAction() {
			continue
		}
		if _, ok := UICommands[b.Command]; !ok {
			t.Errorf("binding %q uses unknown command %q", b.Key, b.Command)
		}
	}
}

func TestBindings_Sorted(t *testing.T) {
	bs := NewRegistry(nil).Bindings()
	for i := 1; i < len(bs); i++ {
		if bs[i-1].Key > bs[i].Key {
			t.Fatalf("bindings not sorted at %d: %q > %q", i, bs[i-1].Key, bs[i].Key)
		}
	}
}
