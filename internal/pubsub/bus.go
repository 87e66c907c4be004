package pubsub

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// Handler reacts to a bus notification. The returned command (may be nil)
// is batched with the commands of the other handlers.
type Handler func(payload any) tea.Cmd

// Subscription identifies one registration made with Bus.On.
// Go funcs are not comparable, so Off works on this handle instead of the
// handler value.
type Subscription struct {
	topic string
	id    uint64
}

// Topic returns the topic the subscription was registered on.
func (s Subscription) Topic() string { return s.topic }

// Valid reports whether the subscription came from On.
func (s Subscription) Valid() bool { return s.id != 0 }

type registration struct {
	id uint64
	fn Handler
}

// Bus is a synchronous, in-process notification channel between panels.
//
// Emit runs every handler registered for the topic on the caller's
// goroutine, in registration order, before it returns. Handler panics are
// not recovered. Emit iterates over a snapshot of the handler list taken
// when it starts, so handlers registered or removed during an emit take
// effect from the next emit.
type Bus struct {
	mu       sync.Mutex
	nextID   uint64
	handlers map[string][]registration
	observer func(topic string, handlers int)
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]registration)}
}

// SetObserver installs a hook called once per Emit with the topic and the
// number of handlers invoked. Used for metrics and debug logging.
func (b *Bus) SetObserver(fn func(topic string, handlers int)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observer = fn
}

// On registers fn for topic and returns a handle for Off.
func (b *Bus) On(topic string, fn Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.handlers[topic] = append(b.handlers[topic], registration{id: b.nextID, fn: fn})
	return Subscription{topic: topic, id: b.nextID}
}

// Off removes a registration. Returns false if it was already removed.
func (b *Bus) Off(sub Subscription) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	regs := b.handlers[sub.topic]
	for i, r := range regs {
		if r.id != sub.id {
			continue
		}
		next := make([]registration, 0, len(regs)-1)
		next = append(next, regs[:i]...)
		next = append(next, regs[i+1:]...)
		if len(next) == 0 {
			delete(b.handlers, sub.topic)
		} else {
			b.handlers[sub.topic] = next
		}
		return true
	}
	return false
}

// Emit invokes every handler registered for topic with payload and
// returns their commands batched together.
func (b *Bus) Emit(topic string, payload any) tea.Cmd {
	b.mu.Lock()
	regs := b.handlers[topic]
	observer := b.observer
	b.mu.Unlock()

	if observer != nil {
		observer(topic, len(regs))
	}

	var cmds []tea.Cmd
	for _, r := range regs {
		if cmd := r.fn(payload); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return tea.Batch(cmds...)
}

// HandlerCount returns the number of handlers registered for topic.
func (b *Bus) HandlerCount(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers[topic])
}
