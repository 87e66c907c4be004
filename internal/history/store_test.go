package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T, limit int) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	s, err := Open(Config{Path: path, Limit: limit})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestOpen_CreatesDirectoryAndFile(t *testing.T) {
	_, path := openTemp(t, 0)

	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	require.True(t, info.IsDir())
	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0o700), info.Mode().Perm())
	}

	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestOpen_RunsMigrations(t *testing.T) {
	s, _ := openTemp(t, 0)

	var name string
	err := s.db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='history'`).Scan(&name)
	require.NoError(t, err)
	require.Equal(t, "history", name)
	require.Equal(t, DefaultLimit, s.Limit())
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	s1, err := Open(Config{Path: path})
	require.NoError(t, err)
	require.NoError(t, s1.Record(context.Background(), Entry{Module: "vat", Question: "Q", Answer: "A"}))
	require.NoError(t, s1.Close())

	s2, err := Open(Config{Path: path})
	require.NoError(t, err)
	defer s2.Close()

	n, err := s2.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestOpen_InMemory(t *testing.T) {
	s, err := Open(Config{Path: ":memory:"})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Record(context.Background(), Entry{Module: "zus", Question: "Q", Answer: "A"}))
	n, err := s.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestConfig_Validate(t *testing.T) {
	require.Error(t, Config{}.Validate())
	require.Error(t, Config{Path: "x.db", Limit: -1}.Validate())
	require.NoError(t, Config{Path: "x.db"}.Validate())
}

func TestRecord_FillsDefaultsAndTruncates(t *testing.T) {
	s, _ := openTemp(t, 0)
	ctx := context.Background()
	long := strings.Repeat("ż", AnswerLimit+20)

	before := time.Now().Add(-time.Second)
	require.NoError(t, s.Record(ctx, Entry{Module: "ksef", Question: "Kiedy KSeF?", Answer: long}))

	entries, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	e := entries[0]
	require.NotEmpty(t, e.ID)
	require.Equal(t, "ksef", e.Module)
	require.Equal(t, AnswerLimit, len([]rune(e.Answer)))
	require.True(t, e.CreatedAt.After(before))
}

func TestRecord_KeepsOnlyLimit(t *testing.T) {
	s, _ := openTemp(t, 5)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		require.NoError(t, s.Record(ctx, Entry{Module: "vat", Question: fmt.Sprintf("q%d", i), Answer: "a"}))
	}

	n, err := s.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 5, n)

	entries, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	var questions []string
	for _, e := range entries {
		questions = append(questions, e.Question)
	}
	require.Equal(t, []string{"q3", "q4", "q5", "q6", "q7"}, questions)
}

func TestRecent_ReturnsNewestOldestFirst(t *testing.T) {
	s, _ := openTemp(t, 0)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		require.NoError(t, s.Record(ctx, Entry{Module: "b2b", Question: fmt.Sprintf("q%d", i), Answer: "a"}))
	}

	entries, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "q2", entries[0].Question)
	require.Equal(t, "q3", entries[1].Question)
}

func TestRecord_DuplicateIDFails(t *testing.T) {
	s, _ := openTemp(t, 0)
	ctx := context.Background()
	e := Entry{ID: "fixed", Module: "vat", Question: "Q", Answer: "A"}

	require.NoError(t, s.Record(ctx, e))
	require.Error(t, s.Record(ctx, e))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestClear(t *testing.T) {
	s, _ := openTemp(t, 0)
	ctx := context.Background()
	require.NoError(t, s.Record(ctx, Entry{Module: "vat", Question: "Q", Answer: "A"}))

	require.NoError(t, s.Clear(ctx))
	entries, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestClose(t *testing.T) {
	s, err := Open(Config{Path: filepath.Join(t.TempDir(), "h.db")})
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.Error(t, s.db.Ping())
}
