package keymap

// DefaultBindings returns the default key bindings.
func DefaultBindings() []Binding {
	return []Binding{
		// Cursor and panes
		{Key: "j", Command: "cursor-down"},
		{Key: "down", Command: "cursor-down"},
		{Key: "k", Command: "cursor-up"},
		{Key: "up", Command: "cursor-up"},
		{Key: "g g", Command: "cursor-top"},
		{Key: "G", Command: "cursor-bottom"},
		{Key: "ctrl+d", Command: "page-down"},
		{Key: "ctrl+u", Command: "page-up"},
		{Key: "V", Command: "visual"},
		{Key: "tab", Command: "next-view"},
		{Key: "ctrl+n", Command: "new-view"},
		{Key: "ctrl+w", Command: "close-view"},
		{Key: "P", Command: "toggle-preview"},
		{Key: "<", Command: "shrink-tree"},
		{Key: ">", Command: "grow-tree"},
		{Key: "?", Command: "help"},
		{Key: "ctrl+c", Command: "quit"},

		// Tree verbs
		{Key: "enter", Command: "action:open"},
		{Key: "l", Command: "action:open_or_close_tree"},
		{Key: "o", Command: "action:open_tree toggle"},
		{Key: "O", Command: "action:open_tree recursive"},
		{Key: "h", Command: "action:cd .."},
		{Key: "backspace", Command: "action:cd .."},
		{Key: "~", Command: "action:cd"},
		{Key: "x", Command: "action:close_tree"},
		{Key: "ctrl+l", Command: "action:redraw"},
		{Key: "ctrl+g", Command: "action:print"},
		{Key: "v", Command: "action:preview"},
		{Key: "E", Command: "action:open vsplit"},

		// Selection
		{Key: " ", Command: "action:toggle_select"},
		{Key: "*", Command: "action:toggle_select_all"},
		{Key: "esc", Command: "action:clear_select_all"},

		// File operations
		{Key: "c", Command: "action:copy"},
		{Key: "m", Command: "action:move"},
		{Key: "p", Command: "action:paste"},
		{Key: "L", Command: "action:link"},
		{Key: "d", Command: "action:remove_trash"},
		{Key: "D", Command: "action:remove"},
		{Key: "r", Command: "action:rename"},
		{Key: "N", Command: "action:new_file"},
		{Key: "K", Command: "action:new_directory"},
		{Key: "M", Command: "action:new_multiple_files"},
		{Key: "y", Command: "action:yank_path"},
		{Key: "!", Command: "action:execute_command"},
		{Key: "X", Command: "action:execute_system"},

		// View settings
		{Key: "S", Command: "action:toggle_sort time"},
		{Key: ".", Command: "action:toggle_ignored_files"},
		{Key: "I", Command: "action:change_ignored_files"},
		{Key: "F", Command: "action:change_filtered_files"},
		{Key: "C", Command: "action:toggle_columns mark:indent:icon:filename:type:size:time"},
		{Key: "@", Command: "action:add_session"},
		{Key: "s", Command: "action:sessions"},
		{Key: "H", Command: "action:history"},
		{Key: "z", Command: "action:repeat"},
		{Key: "q", Command: "action:quit"},
	}
}
