package cachemanager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type renderKey string

func TestMemory_SetGetDelete(t *testing.T) {
	c := NewMemory[renderKey, string]("markdown", DefaultExpiration, DefaultCleanupInterval)

	_, ok := c.Get("a")
	require.False(t, ok)

	c.Set("a", "rendered", 0)
	got, ok := c.Get("a")
	require.True(t, ok)
	require.Equal(t, "rendered", got)
	require.Equal(t, 1, c.Len())

	c.Delete("a")
	_, ok = c.Get("a")
	require.False(t, ok)
}

func TestMemory_Expiry(t *testing.T) {
	c := NewMemory[renderKey, string]("markdown", DefaultExpiration, DefaultCleanupInterval)
	c.Set("a", "x", time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get("a")
	require.False(t, ok)
}

func TestMemory_Flush(t *testing.T) {
	c := NewMemory[renderKey, int]("counts", DefaultExpiration, DefaultCleanupInterval)
	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	c.Flush()
	require.Zero(t, c.Len())
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(key renderKey) (string, bool) {
	args := m.Called(key)
	return args.String(0), args.Bool(1)
}

func (m *mockCache) Set(key renderKey, value string, ttl time.Duration) {
	m.Called(key, value, ttl)
}

func (m *mockCache) Delete(keys ...renderKey) { m.Called(keys) }
func (m *mockCache) Flush()                   { m.Called() }
func (m *mockCache) Len() int                 { return m.Called().Int(0) }

func upper(_ context.Context, in string) (string, error) {
	return "<" + in + ">", nil
}

func TestReadThrough_Bypass(t *testing.T) {
	c := &mockCache{}
	rt := NewReadThrough[renderKey, string, string](c, upper, time.Minute, true)

	got, err := rt.Get(context.Background(), "k", "hi")
	require.NoError(t, err)
	require.Equal(t, "<hi>", got)
	c.AssertNotCalled(t, "Get", mock.Anything)
}

func TestReadThrough_HitSkipsLoader(t *testing.T) {
	c := &mockCache{}
	c.On("Get", renderKey("k")).Return("cached", true)

	calls := 0
	rt := NewReadThrough[renderKey, string, string](c, func(context.Context, string) (string, error) {
		calls++
		return "", nil
	}, time.Minute, false)

	got, err := rt.Get(context.Background(), "k", "hi")
	require.NoError(t, err)
	require.Equal(t, "cached", got)
	require.Zero(t, calls)
	c.AssertExpectations(t)
}

func TestReadThrough_MissStores(t *testing.T) {
	c := &mockCache{}
	c.On("Get", renderKey("k")).Return("", false)
	c.On("Set", renderKey("k"), "<hi>", time.Minute).Return()

	rt := NewReadThrough[renderKey, string, string](c, upper, time.Minute, false)
	got, err := rt.Get(context.Background(), "k", "hi")
	require.NoError(t, err)
	require.Equal(t, "<hi>", got)
	c.AssertExpectations(t)
}

func TestReadThrough_ErrorNotCached(t *testing.T) {
	c := NewMemory[renderKey, string]("markdown", DefaultExpiration, DefaultCleanupInterval)
	boom := errors.New("boom")
	rt := NewReadThrough[renderKey, string, string](c, func(context.Context, string) (string, error) {
		return "", boom
	}, time.Minute, false)

	_, err := rt.Get(context.Background(), "k", "hi")
	require.ErrorIs(t, err, boom)
	require.Zero(t, c.Len())
}

func TestReadThrough_Invalidate(t *testing.T) {
	c := NewMemory[renderKey, string]("markdown", DefaultExpiration, DefaultCleanupInterval)
	rt := NewReadThrough[renderKey, string, string](c, upper, time.Minute, false)

	_, err := rt.Get(context.Background(), "k", "hi")
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())
	rt.Invalidate()
	require.Zero(t, c.Len())
}
