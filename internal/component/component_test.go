package component

import (
	"context"
	"os"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"github.com/stretchr/testify/require"

	"github.com/detax-ai/detax/internal/pubsub"
)

func TestMain(m *testing.M) {
	zone.NewGlobal()
	os.Exit(m.Run())
}

type doneMsg struct{}

// tracked records lifecycle calls in order.
type tracked struct {
	Base
	calls   []string
	clicked []string
}

func newTracked(surface *Surface, bus *pubsub.Bus, mount string) *tracked {
	return &tracked{Base: NewBase("tracked", mount, surface, bus)}
}

func (p *tracked) Render() Markup {
	p.calls = append(p.calls, "render")
	return Markup{
		{ID: "list", Title: "Lista", Items: []Item{
			{Action: "pick", Arg: "a", Label: "A"},
			{Action: "pick", Arg: "b", Label: "B"},
		}},
		{ID: "buttons", Items: []Item{{Action: "save", Label: "Zapisz"}}},
	}
}

func (p *tracked) AfterMount() tea.Cmd {
	p.calls = append(p.calls, "afterMount")
	return func() tea.Msg { return doneMsg{} }
}

func (p *tracked) BindEvents() {
	p.calls = append(p.calls, "bindEvents")
	p.Bind("list", "pick", func(arg string) tea.Cmd {
		p.clicked = append(p.clicked, arg)
		return nil
	})
	p.Bind("buttons", "save", func(string) tea.Cmd {
		p.clicked = append(p.clicked, "save")
		return nil
	})
	p.On("topic", func(any) tea.Cmd { return nil })
}

func TestMount_LifecycleOrder(t *testing.T) {
	s := NewSurface("main")
	p := newTracked(s, pubsub.NewBus(), "main")

	cmd := Mount(p)
	require.Equal(t, []string{"render", "afterMount", "bindEvents"}, p.calls)
	require.True(t, p.Mounted())
	require.True(t, p.Alive())
	require.Equal(t, doneMsg{}, cmd())
	require.Equal(t, 2, s.Lookup("main").HandlerCount())
}

func TestMount_MissingMountPointIsNoOp(t *testing.T) {
	p := newTracked(NewSurface(), pubsub.NewBus(), "absent")

	require.Nil(t, Mount(p))
	require.Empty(t, p.calls)
	require.False(t, p.Mounted())
}

func TestDestroy_ReleasesEverything(t *testing.T) {
	s := NewSurface("main")
	bus := pubsub.NewBus()
	p := newTracked(s, bus, "main")
	Mount(p)
	require.Equal(t, 1, bus.HandlerCount("topic"))

	ctx := p.Context()
	Destroy(p)

	require.False(t, p.Alive())
	require.ErrorIs(t, ctx.Err(), context.Canceled)
	require.Zero(t, bus.HandlerCount("topic"))
	require.True(t, s.Lookup("main").Empty())
	require.Zero(t, s.Lookup("main").HandlerCount())

	Destroy(p) // idempotent
}

func TestRemount_DoesNotDuplicateHandlers(t *testing.T) {
	s := NewSurface("main")
	bus := pubsub.NewBus()
	p := newTracked(s, bus, "main")

	Mount(p)
	Mount(p)
	Mount(p)

	require.Equal(t, 1, bus.HandlerCount("topic"))
	require.Equal(t, 2, s.Lookup("main").HandlerCount())

	_, ok := s.Lookup("main").Dispatch("list", "pick", "a")
	require.True(t, ok)
	require.Equal(t, []string{"a"}, p.clicked)
}

func TestAsync_DiscardsAfterDestroy(t *testing.T) {
	s := NewSurface("main")
	p := newTracked(s, pubsub.NewBus(), "main")
	Mount(p)

	release := make(chan struct{})
	cmd := p.Async(func(ctx context.Context) tea.Msg {
		<-release
		return doneMsg{}
	})
	result := make(chan tea.Msg, 1)
	go func() { result <- cmd() }()

	Destroy(p)
	close(release)
	require.Nil(t, <-result)
}

func TestAsync_DeliversWhileAlive(t *testing.T) {
	s := NewSurface("main")
	p := newTracked(s, pubsub.NewBus(), "main")
	Mount(p)

	cmd := p.Async(func(ctx context.Context) tea.Msg {
		require.NoError(t, ctx.Err())
		return doneMsg{}
	})
	require.Equal(t, doneMsg{}, cmd())
}

func TestReplace_DropsOnlySectionHandlers(t *testing.T) {
	s := NewSurface("main")
	p := newTracked(s, pubsub.NewBus(), "main")
	Mount(p)

	p.Replace(Section{ID: "list", Items: []Item{{Action: "pick", Arg: "c", Label: "C"}}})
	mp := s.Lookup("main")
	require.Equal(t, 1, mp.HandlerCount())

	_, ok := mp.Dispatch("list", "pick", "c")
	require.False(t, ok)
	_, ok = mp.Dispatch("buttons", "save", "")
	require.True(t, ok)
}

func TestEmit_NilBus(t *testing.T) {
	p := newTracked(NewSurface("main"), nil, "main")
	require.NotPanics(t, func() {
		Mount(p)
		require.Nil(t, p.Emit("x", nil))
		Destroy(p)
	})
}
