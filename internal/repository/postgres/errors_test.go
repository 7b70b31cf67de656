package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/gdugdh24/matchmaker-backend/internal/domain"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	unavailable := []error{
		context.DeadlineExceeded,
		driver.ErrBadConn,
		fmt.Errorf("query: %w", &net.OpError{Op: "dial", Err: errors.New("connection refused")}),
		&pq.Error{Code: "08006"},
		&pq.Error{Code: "53300"},
		&pq.Error{Code: "57P01"},
	}
	for _, err := range unavailable {
		got := classify(err)
		assert.True(t, errors.Is(got, domain.ErrUnavailable), "%v", err)
		assert.True(t, errors.Is(got, err), "%v", err)
	}

	passthrough := []error{
		sql.ErrNoRows,
		&pq.Error{Code: "23505"},
		errors.New("boom"),
	}
	for _, err := range passthrough {
		assert.Same(t, err, classify(err))
	}
	assert.NoError(t, classify(nil))
}
