package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"simonchat/internal/apperr"
	"simonchat/internal/models"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// SQLStore persists conversations in a relational database. Both sqlite3 and
// mysql are supported through the same statements.
type SQLStore struct {
	db *sql.DB
}

// OpenSQL connects to the configured database and returns a ready store.
func OpenSQL(driver, dsn string) (*SQLStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("sql dsn must be provided")
	}

	var (
		db  *sql.DB
		err error
	)
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		db, err = sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite database: %w", err)
		}
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
		}
	case "mysql":
		db, err = sql.Open("mysql", dsn)
		if err != nil {
			return nil, fmt.Errorf("open mysql database: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := migrate(db, driver); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLStore) Close() error { return s.db.Close() }

// migrate ensures the required tables are present.
func migrate(db *sql.DB, driver string) error {
	var stmts []string
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS conversations (
				id TEXT PRIMARY KEY,
				title TEXT NOT NULL,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS messages (
				seq INTEGER PRIMARY KEY AUTOINCREMENT,
				id TEXT NOT NULL UNIQUE,
				conversation_id TEXT NOT NULL,
				content TEXT NOT NULL,
				is_user BOOLEAN NOT NULL,
				created_at DATETIME NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id)`,
			`CREATE INDEX IF NOT EXISTS idx_conversations_updated_at ON conversations(updated_at DESC)`,
		}
	case "mysql":
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS conversations (
				id VARCHAR(36) NOT NULL,
				title VARCHAR(255) NOT NULL,
				created_at DATETIME(6) NOT NULL,
				updated_at DATETIME(6) NOT NULL,
				PRIMARY KEY (id)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS messages (
				seq BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
				id VARCHAR(36) NOT NULL UNIQUE,
				conversation_id VARCHAR(36) NOT NULL,
				content TEXT NOT NULL,
				is_user BOOLEAN NOT NULL,
				created_at DATETIME(6) NOT NULL,
				PRIMARY KEY (seq),
				INDEX idx_messages_conversation (conversation_id)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		}
	default:
		return fmt.Errorf("unsupported driver: %s", driver)
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *SQLStore) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, created_at, updated_at FROM conversations ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, &apperr.StoreFault{Op: "list conversations", Err: err}
	}
	defer rows.Close()

	conversations := make([]models.Conversation, 0)
	for rows.Next() {
		var c models.Conversation
		if err := rows.Scan(&c.ID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, &apperr.StoreFault{Op: "scan conversation", Err: err}
		}
		conversations = append(conversations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &apperr.StoreFault{Op: "list conversations", Err: err}
	}
	return conversations, nil
}

func (s *SQLStore) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	var c models.Conversation
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, created_at, updated_at FROM conversations WHERE id = ?`, id,
	).Scan(&c.ID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, &apperr.NotFoundError{Resource: "conversation", ID: id}
	}
	if err != nil {
		return nil, &apperr.StoreFault{Op: "get conversation", Err: err}
	}
	return &c, nil
}

func (s *SQLStore) CreateConversation(ctx context.Context, title string) (*models.Conversation, error) {
	now := time.Now().UTC()
	c := &models.Conversation{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.Title, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return nil, &apperr.StoreFault{Op: "create conversation", Err: err}
	}
	return c, nil
}

func (s *SQLStore) UpdateConversationTitle(ctx context.Context, id, title string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET title = ? WHERE id = ?`, title, id,
	)
	if err != nil {
		return &apperr.StoreFault{Op: "update conversation title", Err: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return &apperr.StoreFault{Op: "update conversation title", Err: err}
	}
	if affected == 0 {
		return &apperr.NotFoundError{Resource: "conversation", ID: id}
	}
	return nil
}

func (s *SQLStore) DeleteConversation(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &apperr.StoreFault{Op: "delete conversation", Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id); err != nil {
		return &apperr.StoreFault{Op: "delete conversation", Err: err}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = ?`, id); err != nil {
		return &apperr.StoreFault{Op: "delete messages", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &apperr.StoreFault{Op: "delete conversation", Err: err}
	}
	return nil
}

func (s *SQLStore) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, content, is_user, created_at FROM messages
		 WHERE conversation_id = ? ORDER BY created_at ASC, seq ASC`,
		conversationID,
	)
	if err != nil {
		return nil, &apperr.StoreFault{Op: "list messages", Err: err}
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Content, &m.IsUser, &m.CreatedAt); err != nil {
			return nil, &apperr.StoreFault{Op: "scan message", Err: err}
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, &apperr.StoreFault{Op: "list messages", Err: err}
	}
	return messages, nil
}

func (s *SQLStore) CreateMessage(ctx context.Context, conversationID, content string, isUser bool) (*models.Message, error) {
	now := time.Now().UTC()
	m := &models.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Content:        content,
		IsUser:         isUser,
		CreatedAt:      now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, content, is_user, created_at) VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.ConversationID, m.Content, m.IsUser, m.CreatedAt,
	)
	if err != nil {
		return nil, &apperr.StoreFault{Op: "insert message", Err: err}
	}
	// The parent may already be gone; skipping the bump mirrors the memory
	// backend.
	if _, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET updated_at = ? WHERE id = ?`, now, conversationID,
	); err != nil {
		return nil, &apperr.StoreFault{Op: "touch conversation", Err: err}
	}
	return m, nil
}
