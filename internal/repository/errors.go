package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicateExternalTicket signals that a ticket with the same
// (integration_id, external_ticket_id) pair already exists. Callers recover
// by re-reading the winning row.
var ErrDuplicateExternalTicket = errors.New("ticket already materialized for external reference")

const uniqueViolationCode = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
