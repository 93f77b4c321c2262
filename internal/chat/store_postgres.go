package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// PostgresStore persists conversation history in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed message store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, message *Message) error {
	query := `
		INSERT INTO chat_messages (id, subject_id, role, content, requires_approval, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	id := message.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	_, err := s.db.ExecContext(ctx, query,
		id,
		message.SubjectID,
		message.Role,
		message.Content,
		message.RequiresApproval,
		message.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListBySubject(ctx context.Context, subjectID string) ([]*Message, error) {
	query := `
		SELECT id, subject_id, role, content, requires_approval, created_at
		FROM chat_messages
		WHERE subject_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SubjectID, &m.Role, &m.Content, &m.RequiresApproval, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		messages = append(messages, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat messages: %w", err)
	}
	return messages, nil
}

func (s *PostgresStore) LastUserMessage(ctx context.Context, subjectID string) (*Message, error) {
	query := `
		SELECT id, subject_id, role, content, requires_approval, created_at
		FROM chat_messages
		WHERE subject_id = $1 AND role = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	var m Message
	err := s.db.QueryRowContext(ctx, query, subjectID, RoleUser).
		Scan(&m.ID, &m.SubjectID, &m.Role, &m.Content, &m.RequiresApproval, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoMessages
	}
	if err != nil {
		return nil, fmt.Errorf("find last user message: %w", err)
	}
	return &m, nil
}
