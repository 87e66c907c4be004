package header

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"
	"time"

	zone "github.com/lrstanley/bubblezone"
	"github.com/stretchr/testify/require"

	"github.com/detax-ai/detax/internal/api"
	"github.com/detax-ai/detax/internal/component"
	"github.com/detax-ai/detax/internal/domain"
	"github.com/detax-ai/detax/internal/pubsub"
	"github.com/detax-ai/detax/internal/testutil"
)

func TestMain(m *testing.M) {
	zone.NewGlobal()
	os.Exit(m.Run())
}

type healthFunc func(ctx context.Context) (domain.Health, error)

func (f healthFunc) Health(ctx context.Context) (domain.Health, error) { return f(ctx) }

func newPanel(t *testing.T, client Client, interval time.Duration) (*Panel, *component.Surface) {
	t.Helper()
	s := component.NewSurface("header")
	p, err := New(Config{MountID: "header", Interval: interval}, client, s, pubsub.NewBus())
	require.NoError(t, err)
	return p, s
}

func TestNew_Validates(t *testing.T) {
	_, err := New(Config{MountID: "h", Interval: -time.Second}, healthFunc(nil), component.NewSurface(), nil)
	require.Error(t, err)

	_, err = New(Config{MountID: "h", Timeout: -time.Second}, healthFunc(nil), component.NewSurface(), nil)
	require.Error(t, err)

	_, err = New(Config{}, healthFunc(nil), component.NewSurface(), nil)
	require.Error(t, err)

	_, err = New(Config{MountID: "h"}, nil, component.NewSurface(), nil)
	require.Error(t, err)
}

func TestHealthStates(t *testing.T) {
	tests := []struct {
		name   string
		health domain.Health
		err    error
		state  State
		text   string
	}{
		{"healthy", domain.Health{Status: domain.HealthHealthy}, nil, StateHealthy, TextHealthy},
		{"degraded", domain.Health{Status: domain.HealthDegraded, Services: map[string]string{"model": "ok"}}, nil, StateDegraded, TextDegraded},
		{"model loading", domain.Health{Status: domain.HealthDegraded, Services: map[string]string{"model": "not_loaded"}}, nil, StateDegraded, TextModelLoading},
		{"unhealthy", domain.Health{Status: domain.HealthUnhealthy}, nil, StateUnhealthy, TextUnhealthy},
		{"offline", domain.Health{}, errors.New("dial tcp: refused"), StateUnhealthy, TextOffline},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, s := newPanel(t, healthFunc(func(context.Context) (domain.Health, error) {
				return tt.health, tt.err
			}), 0)

			cmd := component.Mount(p)
			require.Equal(t, StateChecking, p.State())
			require.Contains(t, zone.Scan(s.Lookup("header").View(80, false)), TextChecking)

			testutil.Pump(p.Update, cmd)
			require.Equal(t, tt.state, p.State())
			require.Equal(t, tt.text, p.Text())
			require.Contains(t, zone.Scan(s.Lookup("header").View(80, false)), tt.text)
		})
	}
}

func TestPolling_SchedulesNextCheck(t *testing.T) {
	p, _ := newPanel(t, healthFunc(func(context.Context) (domain.Health, error) {
		return domain.Health{Status: domain.HealthHealthy}, nil
	}), 30*time.Second)

	msgs := testutil.Drain(component.Mount(p))
	require.Len(t, msgs, 1)

	next := p.Update(msgs[0])
	require.NotNil(t, next, "a healthy result schedules the next tick")

	// Ticks are delivered by the runtime; feed one by hand.
	cmd := p.Update(tickMsg{poll: p.poll})
	require.NotNil(t, cmd)
	require.IsType(t, healthMsg{}, cmd())
}

func TestPolling_HungCheckTimesOutAndReschedules(t *testing.T) {
	s := component.NewSurface("header")
	p, err := New(Config{MountID: "header", Interval: 30 * time.Second, Timeout: 20 * time.Millisecond},
		healthFunc(func(ctx context.Context) (domain.Health, error) {
			<-ctx.Done()
			return domain.Health{}, ctx.Err()
		}), s, pubsub.NewBus())
	require.NoError(t, err)

	msgs := testutil.Drain(component.Mount(p))
	require.Len(t, msgs, 1)
	require.ErrorIs(t, msgs[0].(healthMsg).err, context.DeadlineExceeded)

	next := p.Update(msgs[0])
	require.Equal(t, StateUnhealthy, p.State())
	require.Equal(t, TextOffline, p.Text())
	require.NotNil(t, next, "polling continues after a timed out check")
}

func TestPolling_StopsAfterDestroy(t *testing.T) {
	p, _ := newPanel(t, healthFunc(func(context.Context) (domain.Health, error) {
		return domain.Health{Status: domain.HealthHealthy}, nil
	}), time.Second)

	component.Mount(p)
	poll := p.poll
	component.Destroy(p)

	require.Nil(t, p.Update(tickMsg{poll: poll}))
	require.Nil(t, p.Update(healthMsg{poll: poll}))
	require.Equal(t, StateChecking, p.State())
}

func TestPolling_RemountSupersedesOldLoop(t *testing.T) {
	p, _ := newPanel(t, healthFunc(func(context.Context) (domain.Health, error) {
		return domain.Health{Status: domain.HealthHealthy}, nil
	}), time.Second)

	component.Mount(p)
	old := p.poll
	component.Mount(p)

	require.Nil(t, p.Update(tickMsg{poll: old}))
	require.NotNil(t, p.Update(tickMsg{poll: p.poll}))
}

func TestHealth_AgainstServer(t *testing.T) {
	srv := testutil.NewStandardServer(t)
	srv.SetHealth(domain.Health{Status: domain.HealthDegraded, Services: map[string]string{"model": "not_loaded"}})
	client, err := api.New(api.Config{BaseURL: srv.URL(), Prefix: testutil.Prefix})
	require.NoError(t, err)

	p, _ := newPanel(t, client, 0)
	testutil.Pump(p.Update, component.Mount(p))

	require.Equal(t, TextModelLoading, p.Text())
	require.Equal(t, 1, srv.RequestCount(http.MethodGet, "/health"))
}
