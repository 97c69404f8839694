// Package history persists chat conversations in a local SQLite database so
// past answers survive between runs of the client.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/papercomputeco/superbiz/pkg/utils"
)

// titleLen is the rune length of a conversation title.
const titleLen = 60

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Conversation is a stored chat, keyed by its backend session id.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary is a conversation without its messages.
type Summary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Count     int       `json:"count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ErrNotFound is returned when no conversation has the requested id.
type ErrNotFound struct {
	ID string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("conversation not found: %s", e.ID)
}

// IsNotFound reports whether err is an ErrNotFound.
func IsNotFound(err error) bool {
	var nf ErrNotFound
	return errors.As(err, &nf)
}

// Title derives a title from the first user message of msgs.
func Title(msgs []Message) string {
	for _, m := range msgs {
		if m.Role != RoleUser {
			continue
		}
		if line := utils.FirstLine(m.Content); line != "" {
			return utils.Truncate(line, titleLen)
		}
	}
	return "New conversation"
}

// Store is a SQLite-backed conversation store.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path.
// The path can be a file path or ":memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to ":memory:" is its own database.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: time.Now}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, seq);

	PRAGMA foreign_keys = ON;
	`

	_, err := s.db.Exec(schema)
	return err
}

// Save replaces the stored conversation with conv. An empty title is
// derived from the messages and a zero UpdatedAt is set to now.
func (s *Store) Save(ctx context.Context, conv *Conversation) error {
	if conv == nil {
		return errors.New("cannot save nil conversation")
	}
	if strings.TrimSpace(conv.ID) == "" {
		return errors.New("conversation id is required")
	}

	if conv.Title == "" {
		conv.Title = Title(conv.Messages)
	}
	if conv.UpdatedAt.IsZero() {
		conv.UpdatedAt = s.now()
	}

	return s.tx(ctx, func(tx *sql.Tx) error {
		if err := upsert(ctx, tx, conv.ID, conv.Title, conv.UpdatedAt); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = ?`, conv.ID); err != nil {
			return fmt.Errorf("failed to replace messages: %w", err)
		}

		return insertMessages(ctx, tx, conv.ID, conv.Messages)
	})
}

// Append adds messages to the conversation id, creating it when needed.
// Messages without a timestamp are stamped now.
func (s *Store) Append(ctx context.Context, id string, msgs ...Message) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("conversation id is required")
	}

	now := s.now()
	for i := range msgs {
		if msgs[i].CreatedAt.IsZero() {
			msgs[i].CreatedAt = now
		}
	}

	return s.tx(ctx, func(tx *sql.Tx) error {
		var title string
		err := tx.QueryRowContext(ctx, `SELECT title FROM conversations WHERE id = ?`, id).Scan(&title)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			title = Title(msgs)
		case err != nil:
			return fmt.Errorf("failed to read conversation: %w", err)
		}

		if err := upsert(ctx, tx, id, title, now); err != nil {
			return err
		}
		return insertMessages(ctx, tx, id, msgs)
	})
}

// Get returns the conversation with its messages in order.
func (s *Store) Get(ctx context.Context, id string) (*Conversation, error) {
	conv := Conversation{ID: id}
	var updated int64

	err := s.db.QueryRowContext(ctx,
		`SELECT title, updated_at FROM conversations WHERE id = ?`, id,
	).Scan(&conv.Title, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan conversation: %w", err)
	}
	conv.UpdatedAt = time.UnixMilli(updated)

	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content, created_at FROM messages WHERE conversation_id = ? ORDER BY seq`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			m       Message
			role    string
			created int64
		)
		if err := rows.Scan(&role, &m.Content, &created); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.Role = Role(role)
		m.CreatedAt = time.UnixMilli(created)
		conv.Messages = append(conv.Messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return &conv, nil
}

// List returns conversation summaries, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	query := `
		SELECT c.id, c.title, c.updated_at, COUNT(m.seq)
		FROM conversations c
		LEFT JOIN messages m ON m.conversation_id = c.id
		GROUP BY c.id
		ORDER BY c.updated_at DESC, c.id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum     Summary
			updated int64
		)
		if err := rows.Scan(&sum.ID, &sum.Title, &updated, &sum.Count); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		sum.UpdatedAt = time.UnixMilli(updated)
		out = append(out, sum)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversations: %w", err)
	}

	return out, nil
}

// Delete removes one conversation and its messages.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete messages: %w", err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete conversation: %w", err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to count deleted rows: %w", err)
		}
		if n == 0 {
			return ErrNotFound{ID: id}
		}
		return nil
	})
}

// Clear removes every conversation and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	var n int64
	err := s.tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM messages`); err != nil {
			return fmt.Errorf("failed to delete messages: %w", err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM conversations`)
		if err != nil {
			return fmt.Errorf("failed to delete conversations: %w", err)
		}

		n, err = res.RowsAffected()
		return err
	})
	return n, err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) tx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func upsert(ctx context.Context, tx *sql.Tx, id, title string, updated time.Time) error {
	query := `
		INSERT INTO conversations (id, title, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET title = excluded.title, updated_at = excluded.updated_at
	`
	if _, err := tx.ExecContext(ctx, query, id, title, updated.UnixMilli()); err != nil {
		return fmt.Errorf("failed to upsert conversation: %w", err)
	}
	return nil
}

func insertMessages(ctx context.Context, tx *sql.Tx, id string, msgs []Message) error {
	for _, m := range msgs {
		created := m.CreatedAt
		if created.IsZero() {
			created = time.Now()
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO messages (conversation_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
			id, string(m.Role), m.Content, created.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
	}
	return nil
}
