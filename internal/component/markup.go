// Package component implements the panel lifecycle shared by every part of
// the detax screen.
//
// A component renders Markup into a MountPoint it looks up by name on a
// Surface. Handlers are attached to (section, action) pairs of the mounted
// markup and are dropped whenever the markup they belong to is replaced,
// so re-rendering never stacks duplicate handlers. Bus subscriptions are
// owned by the component's Base and released on Destroy.
package component

import tea "github.com/charmbracelet/bubbletea"

// Item is one actionable entry of a section: a list row, a button, a tab.
type Item struct {
	Action   string // handler name within the section
	Arg      string // passed to the handler
	Label    string
	Active   bool // currently selected
	Disabled bool // rendered but not focusable
}

// Section is an independently replaceable block of a mount point.
type Section struct {
	ID    string
	Title string
	// Body is static text rendered above the items.
	Body string
	// Live, when set, is rendered on every frame after Body. It carries
	// parts that change without a re-render, such as an input's cursor.
	Live  func() string
	Items []Item
	// Empty is shown when the section has no items and no body.
	Empty string
}

// Markup is what Render produces: the sections of a mount point in order.
type Markup []Section

// Handler runs when an item is activated.
type Handler func(arg string) tea.Cmd

type handlerKey struct {
	section string
	action  string
}
