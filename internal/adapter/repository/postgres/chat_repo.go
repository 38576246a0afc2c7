package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finovo/bankcore/internal/domain"
)

// ChatRepository implements usecase.ChatRepository.
type ChatRepository struct {
	db DB
}

// NewChatRepository creates a new ChatRepository.
func NewChatRepository(pool *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{db: pool}
}

// CreateSession inserts an empty session.
func (r *ChatRepository) CreateSession(ctx context.Context, s *domain.ChatSession) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO chat_sessions (id, user_id, name, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		s.ID, s.UserID, s.Name, s.CreatedAt, s.UpdatedAt,
	)
	return err
}

// GetSession returns a session with its messages in order.
func (r *ChatRepository) GetSession(ctx context.Context, id string) (*domain.ChatSession, error) {
	var s domain.ChatSession
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, name, created_at, updated_at FROM chat_sessions WHERE id = $1`, id,
	).Scan(&s.ID, &s.UserID, &s.Name, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, role, content, created_at FROM chat_messages WHERE session_id = $1 ORDER BY seq`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var m domain.ChatMessage
		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &m.Timestamp); err != nil {
			return nil, err
		}
		s.Messages = append(s.Messages, m)
	}
	return &s, rows.Err()
}

// AppendMessages stores msgs after the existing ones and bumps the session's
// updated_at in a single statement.
func (r *ChatRepository) AppendMessages(ctx context.Context, sessionID string, msgs []domain.ChatMessage, updatedAt time.Time) error {
	ids := make([]string, len(msgs))
	roles := make([]string, len(msgs))
	contents := make([]string, len(msgs))
	times := make([]time.Time, len(msgs))
	for i, m := range msgs {
		ids[i] = m.ID
		roles[i] = string(m.Role)
		contents[i] = m.Content
		times[i] = m.Timestamp
	}

	query := `
		WITH inserted AS (
			INSERT INTO chat_messages (id, session_id, role, content, created_at)
			SELECT m.id, $1, m.role, m.content, m.created_at
			FROM unnest($2::text[], $3::text[], $4::text[], $5::timestamptz[])
				WITH ORDINALITY AS m(id, role, content, created_at, ord)
			ORDER BY m.ord
			RETURNING 1
		)
		UPDATE chat_sessions SET updated_at = $6 WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, sessionID, ids, roles, contents, times, updatedAt)
	if err != nil {
		return err
	}
	return rowsAffected(tag, domain.ErrSessionNotFound)
}

// ListSessions returns the user's sessions without messages, most recently active first.
func (r *ChatRepository) ListSessions(ctx context.Context, userID string) ([]*domain.ChatSession, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, name, created_at, updated_at FROM chat_sessions WHERE user_id = $1 ORDER BY updated_at DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*domain.ChatSession
	for rows.Next() {
		var s domain.ChatSession
		if err := rows.Scan(&s.ID, &s.UserID, &s.Name, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, &s)
	}
	return sessions, rows.Err()
}
