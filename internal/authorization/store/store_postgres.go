package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"approval-gateway/internal/authorization/models"
)

// PostgresStore persists authorization requests in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed request store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const requestColumns = `auth_req_id, subject_id, binding_message, scope, status, created_at, expires_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, request *models.Request) error {
	if request == nil {
		return fmt.Errorf("authorization request is required")
	}
	query := `
		INSERT INTO auth_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		request.AuthReqID,
		request.SubjectID,
		request.BindingMessage,
		request.Scope,
		string(request.Status),
		request.CreatedAt,
		request.ExpiresAt,
		request.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert authorization request: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindBySubject(ctx context.Context, authReqID uuid.UUID, subjectID string) (*models.Request, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM auth_requests
		WHERE auth_req_id = $1 AND subject_id = $2
	`
	row := s.db.QueryRowContext(ctx, query, authReqID, subjectID)
	request, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find authorization request: %w", err)
	}
	return request, nil
}

func (s *PostgresStore) ListPendingBySubject(ctx context.Context, subjectID string, now time.Time) ([]*models.Request, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM auth_requests
		WHERE subject_id = $1 AND status = 'pending' AND expires_at > $2
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, subjectID, now)
	if err != nil {
		return nil, fmt.Errorf("list pending authorization requests: %w", err)
	}
	defer rows.Close()

	var pending []*models.Request
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan authorization request: %w", err)
		}
		pending = append(pending, request)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate authorization requests: %w", err)
	}
	return pending, nil
}

// TransitionFromPending applies the conditional status update. The WHERE
// clause on status = 'pending' is the compare-and-set: RowsAffected
// distinguishes the CAS loser (row exists, no longer pending) from a missing
// row.
func (s *PostgresStore) TransitionFromPending(ctx context.Context, authReqID uuid.UUID, subjectID string, to models.Status, updatedAt time.Time) error {
	query := `
		UPDATE auth_requests
		SET status = $3, updated_at = $4
		WHERE auth_req_id = $1 AND subject_id = $2 AND status = 'pending'
	`
	res, err := s.db.ExecContext(ctx, query, authReqID, subjectID, string(to), updatedAt)
	if err != nil {
		return fmt.Errorf("transition authorization request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition authorization request rows: %w", err)
	}
	if affected == 0 {
		var exists bool
		probe := `SELECT EXISTS (SELECT 1 FROM auth_requests WHERE auth_req_id = $1 AND subject_id = $2)`
		if err := s.db.QueryRowContext(ctx, probe, authReqID, subjectID).Scan(&exists); err != nil {
			return fmt.Errorf("probe authorization request: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
		return ErrConflict
	}
	return nil
}

func (s *PostgresStore) ExpirePendingBefore(ctx context.Context, now time.Time) (int, error) {
	query := `
		UPDATE auth_requests
		SET status = 'expired', updated_at = $1
		WHERE status = 'pending' AND expires_at <= $1
	`
	res, err := s.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("expire pending authorization requests: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expire pending authorization requests rows: %w", err)
	}
	return int(affected), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*models.Request, error) {
	var request models.Request
	var status string
	if err := row.Scan(
		&request.AuthReqID,
		&request.SubjectID,
		&request.BindingMessage,
		&request.Scope,
		&status,
		&request.CreatedAt,
		&request.ExpiresAt,
		&request.UpdatedAt,
	); err != nil {
		return nil, err
	}
	request.Status = models.Status(status)
	return &request, nil
}
