package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/detax-ai/detax/internal/log"
)

// AnswerLimit caps the stored answer length, in runes.
const AnswerLimit = 500

// Entry is one recorded exchange.
type Entry struct {
	ID        string
	Module    string
	Question  string
	Answer    string
	CreatedAt time.Time
}

// entryModel is the row shape of the history table.
type entryModel struct {
	ID        string
	Module    string
	Question  string
	Answer    string
	CreatedAt int64 // Unix timestamp
}

func toModel(e Entry) entryModel {
	return entryModel{
		ID:        e.ID,
		Module:    e.Module,
		Question:  e.Question,
		Answer:    truncate(e.Answer, AnswerLimit),
		CreatedAt: e.CreatedAt.Unix(),
	}
}

func (m entryModel) toEntry() Entry {
	return Entry{
		ID:        m.ID,
		Module:    m.Module,
		Question:  m.Question,
		Answer:    m.Answer,
		CreatedAt: time.Unix(m.CreatedAt, 0),
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Store is the SQLite-backed history.
type Store struct {
	db    *sql.DB
	limit int
}

// Limit returns how many entries are kept.
func (s *Store) Limit() int { return s.limit }

// Record appends an entry and drops the oldest ones beyond the limit.
// A missing ID or timestamp is filled in.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	m := toModel(e)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin history transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO history (id, module, question, answer, created_at) VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.Module, m.Question, m.Answer, m.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM history WHERE seq NOT IN (SELECT seq FROM history ORDER BY seq DESC LIMIT ?)`,
		s.limit,
	); err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit history entry: %w", err)
	}
	log.Debug(log.CatHistory, "Recorded exchange", "id", m.ID, "module", m.Module)
	return nil
}

// Recent returns up to n of the newest entries, oldest first.
// n <= 0 returns every kept entry.
func (s *Store) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = s.limit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, module, question, answer, created_at FROM (
			SELECT seq, id, module, question, answer, created_at
			FROM history ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var m entryModel
		if err := rows.Scan(&m.ID, &m.Module, &m.Question, &m.Answer, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, m.toEntry())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return entries, nil
}

// Count returns the number of kept entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM history`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return n, nil
}

// Clear removes every entry.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM history`); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	log.Info(log.CatHistory, "History cleared")
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
