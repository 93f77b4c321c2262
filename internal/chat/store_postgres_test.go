package chat

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgres(db), mock
}

func TestPostgresAppend(t *testing.T) {
	s, mock := newMockStore(t)
	message := &Message{
		ID:        uuid.New(),
		SubjectID: "auth0|alice",
		Role:      RoleUser,
		Content:   "what is my name",
		CreatedAt: time.Now(),
	}

	mock.ExpectExec("INSERT INTO chat_messages").
		WithArgs(message.ID, message.SubjectID, string(message.Role), message.Content, false, message.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Append(context.Background(), message))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListBySubject(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "subject_id", "role", "content", "requires_approval", "created_at"}).
		AddRow(uuid.New(), "auth0|alice", "user", "hi", false, now.Add(-time.Minute)).
		AddRow(uuid.New(), "auth0|alice", "assistant", "hello", false, now)

	mock.ExpectQuery("SELECT (.+) FROM chat_messages").
		WithArgs("auth0|alice").
		WillReturnRows(rows)

	messages, err := s.ListBySubject(context.Background(), "auth0|alice")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, RoleUser, messages[0].Role)
	assert.Equal(t, "hello", messages[1].Content)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLastUserMessage(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "subject_id", "role", "content", "requires_approval", "created_at"}).
		AddRow(uuid.New(), "auth0|alice", "user", "what is my email", false, now)

	mock.ExpectQuery("SELECT (.+) FROM chat_messages").
		WithArgs("auth0|alice", string(RoleUser)).
		WillReturnRows(rows)

	message, err := s.LastUserMessage(context.Background(), "auth0|alice")
	require.NoError(t, err)
	assert.Equal(t, "what is my email", message.Content)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLastUserMessageEmpty(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM chat_messages").
		WithArgs("auth0|alice", string(RoleUser)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.LastUserMessage(context.Background(), "auth0|alice")
	assert.ErrorIs(t, err, ErrNoMessages)
	require.NoError(t, mock.ExpectationsWereMet())
}
