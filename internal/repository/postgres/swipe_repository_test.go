package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gdugdh24/matchmaker-backend/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice = "11111111-1111-4111-8111-111111111111"
	bob   = "22222222-2222-4222-8222-222222222222"
)

var (
	ownRowSQL        = regexp.QuoteMeta(`WITH own AS (`)
	reciprocalRowSQL = regexp.QuoteMeta(`UPDATE swipes SET mutual = TRUE, updated_at = CURRENT_TIMESTAMP`)
	reciprocalSQL    = regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM swipes WHERE actor_id = $1 AND candidate_id = $2)`)
)

func newMockSwipes(t *testing.T) (*swipeRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &swipeRepository{db: sqlx.NewDb(db, "postgres")}, mock
}

func TestMarkMutual_FlipsBothRows(t *testing.T) {
	repo, mock := newMockSwipes(t)

	mock.ExpectQuery(ownRowSQL).
		WithArgs(alice, bob).
		WillReturnRows(sqlmock.NewRows([]string{"mutual"}).AddRow(false))
	mock.ExpectExec(reciprocalRowSQL).
		WithArgs(bob, alice).
		WillReturnResult(sqlmock.NewResult(0, 1))

	res, err := repo.MarkMutual(context.Background(), alice, bob)
	require.NoError(t, err)
	assert.Equal(t, domain.MutualResult{Matched: true, OwnFlipped: true, ReciprocalFlipped: true}, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkMutual_AlreadyMutualIsNoop(t *testing.T) {
	repo, mock := newMockSwipes(t)

	mock.ExpectQuery(ownRowSQL).
		WithArgs(alice, bob).
		WillReturnRows(sqlmock.NewRows([]string{"mutual"}).AddRow(true))
	mock.ExpectExec(reciprocalRowSQL).
		WithArgs(bob, alice).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(reciprocalSQL).
		WithArgs(bob, alice).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	res, err := repo.MarkMutual(context.Background(), alice, bob)
	require.NoError(t, err)
	assert.Equal(t, domain.MutualResult{Matched: true}, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkMutual_NoReciprocalLike(t *testing.T) {
	repo, mock := newMockSwipes(t)

	// The conditional update matches nothing, so the reciprocal row is never touched.
	mock.ExpectQuery(ownRowSQL).
		WithArgs(alice, bob).
		WillReturnRows(sqlmock.NewRows([]string{"mutual"}))

	res, err := repo.MarkMutual(context.Background(), alice, bob)
	require.NoError(t, err)
	assert.Equal(t, domain.MutualResult{}, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkMutual_ReciprocalRowVanished(t *testing.T) {
	repo, mock := newMockSwipes(t)

	mock.ExpectQuery(ownRowSQL).
		WithArgs(alice, bob).
		WillReturnRows(sqlmock.NewRows([]string{"mutual"}).AddRow(false))
	mock.ExpectExec(reciprocalRowSQL).
		WithArgs(bob, alice).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(reciprocalSQL).
		WithArgs(bob, alice).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	res, err := repo.MarkMutual(context.Background(), alice, bob)
	assert.True(t, errors.Is(err, domain.ErrAsymmetricMutual))
	assert.True(t, res.Matched)
	assert.True(t, res.OwnFlipped)
	assert.False(t, res.ReciprocalFlipped)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkMutual_ConnectionLost(t *testing.T) {
	repo, mock := newMockSwipes(t)

	mock.ExpectQuery(ownRowSQL).
		WithArgs(alice, bob).
		WillReturnError(&pq.Error{Code: "08006"})

	_, err := repo.MarkMutual(context.Background(), alice, bob)
	assert.True(t, errors.Is(err, domain.ErrUnavailable))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkMutual_ReciprocalUpdateFails(t *testing.T) {
	repo, mock := newMockSwipes(t)

	mock.ExpectQuery(ownRowSQL).
		WithArgs(alice, bob).
		WillReturnRows(sqlmock.NewRows([]string{"mutual"}).AddRow(false))
	mock.ExpectExec(reciprocalRowSQL).
		WithArgs(bob, alice).
		WillReturnError(&pq.Error{Code: "57P01"})

	res, err := repo.MarkMutual(context.Background(), alice, bob)
	assert.True(t, errors.Is(err, domain.ErrUnavailable))
	assert.True(t, res.Matched)
	assert.NoError(t, mock.ExpectationsWereMet())
}
