// Package keys contains keybinding definitions.
package keys

import "github.com/charmbracelet/bubbles/key"

// GlobalKeys apply everywhere unless a dialog is open.
type GlobalKeys struct {
	NextPanel key.Binding
	PrevPanel key.Binding
	Workspace key.Binding
	Logs      key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// ListKeys drive selectable lists: context sections and workspace lists.
type ListKeys struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Activate key.Binding
	New      key.Binding
	Filter   key.Binding
	Refresh  key.Binding
	Clear    key.Binding
}

// FormKeys drive the workspace edit, events and files views.
type FormKeys struct {
	NextField key.Binding
	PrevField key.Binding
	Save      key.Binding
	Delete    key.Binding
	Events    key.Binding
	Files     key.Binding
	AddFile   key.Binding
	Back      key.Binding
}

// SourcesKeys drive the data sources panel.
type SourcesKeys struct {
	Tab    key.Binding
	Verify key.Binding
}

// ChatKeys drive the chat panel.
type ChatKeys struct {
	Send        key.Binding
	NextChannel key.Binding
	PrevChannel key.Binding
	Sources     key.Binding
	ScrollUp    key.Binding
	ScrollDown  key.Binding
}

// Global is the application-wide keymap.
var Global = GlobalKeys{
	NextPanel: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "następny panel")),
	PrevPanel: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "poprzedni panel")),
	Workspace: key.NewBinding(key.WithKeys("ctrl+w"), key.WithHelp("ctrl+w", "dokumenty/projekty/źródła")),
	Logs:      key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "logi")),
	Help:      key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "pomoc")),
	Quit:      key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "wyjście")),
}

// List is the keymap for list panels.
var List = ListKeys{
	Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "w górę")),
	Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "w dół")),
	Left:     key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "poprzednia sekcja")),
	Right:    key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "następna sekcja")),
	Activate: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "wybierz")),
	New:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "nowy")),
	Filter:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filtr")),
	Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "odśwież")),
	Clear:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "wyczyść wybór")),
}

// Form is the keymap for the workspace editor.
var Form = FormKeys{
	NextField: key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "następne pole")),
	PrevField: key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "poprzednie pole")),
	Save:      key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "zapisz")),
	Delete:    key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "usuń")),
	Events:    key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("ctrl+e", "historia zdarzeń")),
	Files:     key.NewBinding(key.WithKeys("ctrl+f"), key.WithHelp("ctrl+f", "pliki")),
	AddFile:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "dodaj plik")),
	Back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "wróć")),
}

// Sources is the keymap for the data sources panel.
var Sources = SourcesKeys{
	Tab:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "źródła/akty prawne")),
	Verify: key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "weryfikuj podmiot")),
}

// Chat is the keymap for the chat panel.
var Chat = ChatKeys{
	Send:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "wyślij")),
	NextChannel: key.NewBinding(key.WithKeys("ctrl+right", "alt+]"), key.WithHelp("ctrl+→", "następny kanał")),
	PrevChannel: key.NewBinding(key.WithKeys("ctrl+left", "alt+["), key.WithHelp("ctrl+←", "poprzedni kanał")),
	Sources:     key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "źródła")),
	ScrollUp:    key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "przewiń w górę")),
	ScrollDown:  key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "przewiń w dół")),
}

// ShortHelp returns the bindings shown in the footer.
func (k GlobalKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.NextPanel, k.Workspace, k.Logs, k.Help, k.Quit}
}

// FullHelp returns every binding grouped for the help overlay.
func FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{Global.NextPanel, Global.PrevPanel, Global.Workspace, Global.Logs, Global.Quit},
		{List.Up, List.Down, List.Left, List.Right, List.Activate, List.New, List.Filter, List.Refresh, List.Clear},
		{Form.NextField, Form.PrevField, Form.Save, Form.Delete, Form.Events, Form.Files, Form.AddFile, Form.Back},
		{Sources.Tab, Sources.Verify},
		{Chat.Send, Chat.NextChannel, Chat.PrevChannel, Chat.Sources, Chat.ScrollUp, Chat.ScrollDown},
	}
}
