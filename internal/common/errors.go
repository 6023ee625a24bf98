package common

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors shared across services. Handlers translate these into the
// HTTP taxonomy: validation -> 400, not-found -> 404 (deliberately ambiguous
// across tenants), conflict/contention -> 409, locked -> 403.
var (
	ErrValidation     = errors.New("validation failed")
	ErrNotFound       = errors.New("record not found")
	ErrConflict       = errors.New("conflicting state")
	ErrLocked         = errors.New("record locked by export freeze")
	ErrHighContention = errors.New("could not complete due to high concurrency")
	ErrDuplicateKey   = errors.New("duplicate key")
)

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return errors.Is(err, ErrDuplicateKey)
}
