package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/gdugdh24/matchmaker-backend/internal/domain"
	"github.com/lib/pq"
)

// classify marks connection-level failures as domain.ErrUnavailable and
// returns every other error unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) {
		return domain.Unavailable(err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.Unavailable(err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case strings.HasPrefix(string(pqErr.Code), "08"), // connection_exception
			strings.HasPrefix(string(pqErr.Code), "53"), // insufficient_resources
			strings.HasPrefix(string(pqErr.Code), "57"): // operator_intervention
			return domain.Unavailable(err)
		}
	}
	return err
}
