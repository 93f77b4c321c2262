package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// PostgresStore persists decision records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed decision store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Append inserts a decision record. The conflict clause keeps retried appends
// idempotent on the decision ID.
func (s *PostgresStore) Append(ctx context.Context, decision Decision) error {
	query := `
		INSERT INTO approval_decisions (id, request_id, subject_id, action, decided_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`
	id := decision.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	_, err := s.db.ExecContext(ctx, query,
		id,
		decision.RequestID,
		decision.SubjectID,
		decision.Action,
		decision.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert approval decision: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListBySubject(ctx context.Context, subjectID string) ([]Decision, error) {
	query := `
		SELECT id, request_id, subject_id, action, decided_at
		FROM approval_decisions
		WHERE subject_id = $1
		ORDER BY decided_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list approval decisions: %w", err)
	}
	defer rows.Close()

	var decisions []Decision
	for rows.Next() {
		var d Decision
		if err := rows.Scan(&d.ID, &d.RequestID, &d.SubjectID, &d.Action, &d.Timestamp); err != nil {
			return nil, fmt.Errorf("scan approval decision: %w", err)
		}
		decisions = append(decisions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate approval decisions: %w", err)
	}
	return decisions, nil
}
