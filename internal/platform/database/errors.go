package database

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"expense_tracker/internal/common"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Classify wraps a driver error with the matching domain sentinel so callers
// can branch with errors.Is. The driver error stays in the chain for logs.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrNotFound
	}
	if IsUniqueViolation(err) {
		return fmt.Errorf("%w: %w", common.ErrConflict, err)
	}
	if IsForeignKeyViolation(err) {
		return fmt.Errorf("%w: %w", common.ErrMissingReference, err)
	}
	if isConnectivity(err) {
		return fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}
	return err
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return true
	}
	var liteErr *sqlite.Error
	return errors.As(err, &liteErr) && liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
}

func isConnectivity(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var netErr *net.OpError
	return errors.As(err, &netErr)
}
