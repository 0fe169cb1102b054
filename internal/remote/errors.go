package remote

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"net"

	"github.com/magnusfroste/notton/internal/domain"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

// wrapError tags err with op and classifies it as unreachable or rejected
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var re *domain.RemoteError
	if errors.As(err, &re) {
		return err
	}
	return &domain.RemoteError{Op: op, Unreachable: isUnreachable(err), Err: err}
}

// rejected marks err as a rejection by the remote store
func rejected(op string, err error) error {
	return &domain.RemoteError{Op: op, Err: err}
}

func isUnreachable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgerrcode.IsConnectionException(pgErr.Code) ||
			pgerrcode.IsOperatorIntervention(pgErr.Code)
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	if pgconn.Timeout(err) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
