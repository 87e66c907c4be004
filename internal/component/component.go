package component

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/detax-ai/detax/internal/domain"
	"github.com/detax-ai/detax/internal/log"
	"github.com/detax-ai/detax/internal/pubsub"
)

// Component is implemented by every panel.
//
// Mount drives the lifecycle in a fixed order: Render, attach the markup,
// AfterMount, BindEvents. AfterMount starts the initial loads and returns
// them as a command, which the event loop runs and delivers back as
// messages. BindEvents attaches item handlers to the freshly mounted markup.
type Component interface {
	Core() *Base
	Render() Markup
	AfterMount() tea.Cmd
	BindEvents()
}

// Surface holds the mount points of one screen.
type Surface struct {
	points map[string]*MountPoint
}

// NewSurface creates a surface with the given mount points.
func NewSurface(names ...string) *Surface {
	s := &Surface{points: make(map[string]*MountPoint, len(names))}
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Add creates a mount point, or returns the existing one.
func (s *Surface) Add(name string) *MountPoint {
	if mp, ok := s.points[name]; ok {
		return mp
	}
	mp := newMountPoint(name)
	s.points[name] = mp
	return mp
}

// Remove deletes a mount point.
func (s *Surface) Remove(name string) {
	delete(s.points, name)
}

// Lookup returns the mount point, or nil when absent.
func (s *Surface) Lookup(name string) *MountPoint {
	return s.points[name]
}

// Base carries the shared state of a component: where it mounts, the bus,
// its subscriptions and the cancellation token for its in-flight work.
type Base struct {
	name    string
	mountID string
	surface *Surface
	bus     *pubsub.Bus
	parent  context.Context

	mount   *MountPoint
	ctx     context.Context
	cancel  context.CancelFunc
	subs    []pubsub.Subscription
	mounted bool
}

// NewBase builds the shared state. name labels log lines; mountID names
// the mount point looked up at Mount time.
func NewBase(name, mountID string, surface *Surface, bus *pubsub.Bus) Base {
	return Base{
		name:    name,
		mountID: mountID,
		surface: surface,
		bus:     bus,
		parent:  context.Background(),
	}
}

// WithParent derives the component's token from ctx instead of
// context.Background.
func (b *Base) WithParent(ctx context.Context) {
	b.parent = ctx
}

// Name returns the component name.
func (b *Base) Name() string { return b.name }

// Core returns b, letting structs that embed Base satisfy Component.
func (b *Base) Core() *Base { return b }

// MountPoint returns the attached mount point, nil before Mount.
func (b *Base) MountPoint() *MountPoint { return b.mount }

// Mounted reports whether the component is attached.
func (b *Base) Mounted() bool { return b.mounted }

// Alive reports whether results of in-flight work may still be applied.
// It turns false on Destroy.
func (b *Base) Alive() bool {
	return b.mounted && b.ctx != nil && b.ctx.Err() == nil
}

// Context returns the cancellation token of the current mount.
func (b *Base) Context() context.Context {
	if b.ctx == nil {
		return b.parent
	}
	return b.ctx
}

// Async wraps blocking work in a command bound to the component token.
// A result produced after Destroy is discarded.
func (b *Base) Async(fn func(ctx context.Context) tea.Msg) tea.Cmd {
	ctx := b.Context()
	return func() tea.Msg {
		msg := fn(ctx)
		if ctx.Err() != nil {
			return nil
		}
		return msg
	}
}

// On subscribes to a bus topic for the lifetime of the mount.
func (b *Base) On(topic string, h pubsub.Handler) {
	if b.bus == nil {
		return
	}
	b.subs = append(b.subs, b.bus.On(topic, h))
}

// Emit publishes on the bus.
func (b *Base) Emit(topic string, payload any) tea.Cmd {
	if b.bus == nil {
		return nil
	}
	return b.bus.Emit(topic, payload)
}

// Alert emits a user-visible alert.
func (b *Base) Alert(level domain.AlertLevel, text string) tea.Cmd {
	return b.Emit(domain.TopicAlert, domain.Alert{Level: level, Text: text})
}

// Bind attaches an item handler on the mounted markup.
func (b *Base) Bind(section, action string, h Handler) {
	if b.mount == nil {
		return
	}
	b.mount.Bind(section, action, h)
}

// Replace swaps one section of the mounted markup. The section's handlers
// are dropped and must be bound again.
func (b *Base) Replace(s Section) {
	if b.mount == nil {
		return
	}
	b.mount.ReplaceSection(s)
}

// Subscriptions returns the number of live bus subscriptions.
func (b *Base) Subscriptions() int { return len(b.subs) }

// Mount attaches c to its mount point and runs its lifecycle. A missing
// mount point makes Mount a no-op. Mounting an attached component
// destroys the previous mount first.
func Mount(c Component) tea.Cmd {
	b := c.Core()
	mp := b.surface.Lookup(b.mountID)
	if mp == nil {
		log.Warn(log.CatUI, "Mount point not found", "component", b.name, "mount", b.mountID)
		return nil
	}
	if b.mounted {
		Destroy(c)
	}

	b.mount = mp
	b.ctx, b.cancel = context.WithCancel(b.parent)
	mp.SetContent(c.Render())
	b.mounted = true

	cmd := c.AfterMount()
	c.BindEvents()
	log.Debug(log.CatUI, "Mounted", "component", b.name, "mount", b.mountID)
	return cmd
}

// Destroy detaches c: clears its mount point, cancels in-flight work and
// releases its bus subscriptions.
func Destroy(c Component) {
	b := c.Core()
	if !b.mounted {
		return
	}
	if b.mount != nil {
		b.mount.Clear()
	}
	if b.cancel != nil {
		b.cancel()
	}
	for _, sub := range b.subs {
		b.bus.Off(sub)
	}
	b.subs = nil
	b.mounted = false
	log.Debug(log.CatUI, "Destroyed", "component", b.name)
}
