// Package store persists chat sessions and messages in SQLite using
// modernc.org/sqlite, a pure-Go driver.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// ErrNotConfigured is returned by every operation of a disabled store
var ErrNotConfigured = errors.New("database not configured")

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Session is one conversation
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is one turn of a conversation
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	ImagePath string    `json:"image_path,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatStore reads and writes chat history. A store opened without a path
// is disabled and returns ErrNotConfigured from every call.
type ChatStore struct {
	db     *sql.DB
	logger zerolog.Logger
	now    func() time.Time
}

// Disabled returns a store that persists nothing
func Disabled(logger zerolog.Logger) *ChatStore {
	logger.Warn().Msg("Database not configured; chat history will not be saved")
	return &ChatStore{logger: logger, now: time.Now}
}

// Open opens (creating if needed) the database at path and applies the schema
func Open(path string, logger zerolog.Logger) (*ChatStore, error) {
	logger = logger.With().Str("component", "store").Logger()

	if strings.TrimSpace(path) == "" {
		return Disabled(logger), nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, pkgerrors.Wrap(err, "create data directory")
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "open database")
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &ChatStore{db: db, logger: logger, now: time.Now}

	if err := s.initPragmas(); err != nil {
		db.Close()
		return nil, pkgerrors.Wrap(err, "initialize pragmas")
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, pkgerrors.Wrap(err, "run migrations")
	}

	logger.Info().Str("path", path).Msg("Chat store opened")
	return s, nil
}

// Enabled reports whether the store is backed by a database
func (s *ChatStore) Enabled() bool {
	return s != nil && s.db != nil
}

func (s *ChatStore) initPragmas() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return pkgerrors.Wrapf(err, "execute %s", pragma)
		}
	}
	return nil
}

func (s *ChatStore) migrate() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return pkgerrors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback()

	for i, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return pkgerrors.Wrapf(err, "execute statement %d", i+1)
		}
	}

	return tx.Commit()
}

// SaveChatSession inserts a session, assigning an ID and creation time when
// they are unset.
func (s *ChatStore) SaveChatSession(ctx context.Context, session Session) (Session, error) {
	if !s.Enabled() {
		return Session{}, ErrNotConfigured
	}

	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = s.now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (id, user_id, title, created_at) VALUES (?, ?, ?, ?)`,
		session.ID, session.UserID, session.Title, session.CreatedAt.UnixNano())
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", session.ID).Msg("Error saving chat session")
		return Session{}, pkgerrors.Wrap(err, "save chat session")
	}

	return session, nil
}

// EnsureSession creates the session with id unless it already exists
func (s *ChatStore) EnsureSession(ctx context.Context, id, userID string) error {
	if !s.Enabled() {
		return ErrNotConfigured
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO chat_sessions (id, user_id, created_at) VALUES (?, ?, ?)`,
		id, userID, s.now().UnixNano())
	return pkgerrors.Wrap(err, "ensure chat session")
}

// GetChatSessions lists sessions newest first. A non-empty userID limits
// the result to that user's sessions.
func (s *ChatStore) GetChatSessions(ctx context.Context, userID string) ([]Session, error) {
	if !s.Enabled() {
		return nil, ErrNotConfigured
	}

	query := `SELECT id, user_id, title, created_at FROM chat_sessions`
	var args []any
	if userID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "get chat sessions")
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var (
			sess    Session
			created int64
		)
		if err := rows.Scan(&sess.ID, &sess.UserID, &sess.Title, &created); err != nil {
			return nil, pkgerrors.Wrap(err, "scan chat session")
		}
		sess.CreatedAt = time.Unix(0, created)
		sessions = append(sessions, sess)
	}

	return sessions, pkgerrors.Wrap(rows.Err(), "iterate chat sessions")
}

// SaveChatMessage appends a message to its session
func (s *ChatStore) SaveChatMessage(ctx context.Context, msg Message) (Message, error) {
	if !s.Enabled() {
		return Message{}, ErrNotConfigured
	}

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (id, session_id, role, content, image_path, timestamp) VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.SessionID, msg.Role, msg.Content, msg.ImagePath, msg.Timestamp.UnixNano())
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", msg.SessionID).Msg("Error saving chat message")
		return Message{}, pkgerrors.Wrap(err, "save chat message")
	}

	return msg, nil
}

// GetChatMessages lists a session's messages oldest first
func (s *ChatStore) GetChatMessages(ctx context.Context, sessionID string) ([]Message, error) {
	if !s.Enabled() {
		return nil, ErrNotConfigured
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, image_path, timestamp
		 FROM chat_messages WHERE session_id = ? ORDER BY timestamp ASC, rowid ASC`, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "get chat messages")
	}
	defer rows.Close()

	messages := []Message{}
	for rows.Next() {
		var (
			msg Message
			ts  int64
		)
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &msg.ImagePath, &ts); err != nil {
			return nil, pkgerrors.Wrap(err, "scan chat message")
		}
		msg.Timestamp = time.Unix(0, ts)
		messages = append(messages, msg)
	}

	return messages, pkgerrors.Wrap(rows.Err(), "iterate chat messages")
}

// Health checks that the database answers queries
func (s *ChatStore) Health(ctx context.Context) error {
	if !s.Enabled() {
		return ErrNotConfigured
	}

	var one int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return pkgerrors.Wrap(err, "health check failed")
	}
	return nil
}

// Close checkpoints the WAL and closes the database
func (s *ChatStore) Close() error {
	if !s.Enabled() {
		return nil
	}

	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		s.logger.Warn().Err(err).Msg("WAL checkpoint failed")
	}
	return pkgerrors.Wrap(s.db.Close(), "close database")
}
