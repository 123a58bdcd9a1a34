package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/liliang-cn/askpdf/internal/domain"
)

// SessionRepository handles chat session persistence
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create creates a new session
func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	now := time.Now()
	session.CreatedAt = now
	session.UpdatedAt = now

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO sessions (id, system_prompt, created_at, updated_at)
		VALUES (:id, :system_prompt, :created_at, :updated_at)
	`, session)
	return err
}

// Get retrieves a session by ID
func (r *SessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	session := &domain.Session{}
	err := r.db.GetContext(ctx, session, `
		SELECT id, system_prompt, created_at, updated_at
		FROM sessions WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: session %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// AppendMessages stores messages after the existing ones, in order
func (r *SessionRepository) AppendMessages(ctx context.Context, sessionID string, messages ...*domain.Message) error {
	if len(messages) == 0 {
		return nil
	}

	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		var next int
		if err := tx.GetContext(ctx, &next,
			`SELECT COALESCE(MAX(seq) + 1, 0) FROM messages WHERE session_id = ?`, sessionID); err != nil {
			return err
		}
		if err := insertMessages(ctx, tx, sessionID, next, messages); err != nil {
			return err
		}
		return touch(ctx, tx, sessionID)
	})
}

// Messages retrieves all messages for a session in conversation order
func (r *SessionRepository) Messages(ctx context.Context, sessionID string) ([]*domain.Message, error) {
	var messages []*domain.Message
	err := r.db.SelectContext(ctx, &messages, `
		SELECT id, session_id, seq, role, content, cost, created_at
		FROM messages WHERE session_id = ?
		ORDER BY seq ASC
	`, sessionID)
	return messages, err
}

// Reset replaces the whole history of a session with its system message
func (r *SessionRepository) Reset(ctx context.Context, sessionID string, system *domain.Message) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID); err != nil {
			return err
		}
		if err := insertMessages(ctx, tx, sessionID, 0, []*domain.Message{system}); err != nil {
			return err
		}
		return touch(ctx, tx, sessionID)
	})
}

// CountSessions returns the number of sessions ever created
func (r *SessionRepository) CountSessions(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM sessions`)
	return count, err
}

// CountChats returns the total number of user messages (chats)
func (r *SessionRepository) CountChats(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM messages WHERE role = ?`, domain.RoleUser)
	return count, err
}

func (r *SessionRepository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func insertMessages(ctx context.Context, tx *sqlx.Tx, sessionID string, seq int, messages []*domain.Message) error {
	now := time.Now()
	for i, m := range messages {
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		m.SessionID = sessionID
		m.Seq = seq + i
		m.CreatedAt = now

		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO messages (id, session_id, seq, role, content, cost, created_at)
			VALUES (:id, :session_id, :seq, :role, :content, :cost, :created_at)
		`, m); err != nil {
			return err
		}
	}
	return nil
}

func touch(ctx context.Context, tx *sqlx.Tx, sessionID string) error {
	res, err := tx.ExecContext(ctx, `UPDATE sessions SET updated_at = ? WHERE id = ?`, time.Now(), sessionID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: session %s", domain.ErrNotFound, sessionID)
	}
	return nil
}
