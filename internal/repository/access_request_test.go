package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessRequestRepo_Approve(t *testing.T) {
	t.Run("updates a pending request", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewAccessRequestRepository(db)

		mock.ExpectExec(`UPDATE access_requests`).
			WithArgs("req-1", "admin-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		affected, err := repo.Approve(context.Background(), "req-1", "admin-1")

		require.NoError(t, err)
		assert.Equal(t, int64(1), affected)
	})

	t.Run("reports zero rows for a reviewed request", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewAccessRequestRepository(db)

		mock.ExpectExec(`UPDATE access_requests`).
			WithArgs("req-1", "admin-1").
			WillReturnResult(sqlmock.NewResult(0, 0))

		affected, err := repo.Approve(context.Background(), "req-1", "admin-1")

		require.NoError(t, err)
		assert.Equal(t, int64(0), affected)
	})
}

func TestAccessRequestRepo_BatchApprove(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccessRequestRepository(db)

	ids := []string{"req-1", "req-2", "req-3"}
	mock.ExpectExec(`UPDATE access_requests`).
		WithArgs(pq.Array(ids), "admin-1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	affected, err := repo.BatchApprove(context.Background(), ids, "admin-1")

	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccessRequestRepo_FindPendingByEmail_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccessRequestRepository(db)

	mock.ExpectQuery(`SELECT \* FROM access_requests`).
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	req, err := repo.FindPendingByEmail(context.Background(), "nobody@example.com")

	require.NoError(t, err)
	assert.Nil(t, req)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("plain error")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestUniqueViolationConstraint(t *testing.T) {
	err := &pq.Error{Code: "23505", Constraint: AccessCodeRequestConstraint}
	assert.Equal(t, AccessCodeRequestConstraint, UniqueViolationConstraint(err))
	assert.Empty(t, UniqueViolationConstraint(&pq.Error{Code: "23503", Constraint: "some_fk"}))
	assert.Empty(t, UniqueViolationConstraint(errors.New("plain error")))
	assert.Empty(t, UniqueViolationConstraint(nil))
}
