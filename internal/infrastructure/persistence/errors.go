package persistence

import (
	"errors"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes the repositories translate
const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
	pgSerialization      = "40001"
	pgDeadlockDetected   = "40P01"
)

// translateWriteError turns constraint violations raised by PostgreSQL into
// domain errors. Checks made under row locks catch the same conditions first;
// the constraints cover rows inserted concurrently, which cannot be locked.
func translateWriteError(err error, conflict *shared.DomainError) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation, pgExclusionViolation:
		if conflict != nil {
			return conflict
		}
		return shared.ErrAlreadyExists
	case pgSerialization, pgDeadlockDetected:
		return shared.ErrConcurrencyConflict
	}
	return err
}

var (
	errPeriodOverlap    = shared.NewDomainError("PERIOD_OVERLAP", "Accounting period overlaps an existing period")
	errAccountCodeTaken = shared.NewDomainError("ACCOUNT_CODE_EXISTS", "Account code already exists")
	errReferenceTaken   = shared.NewDomainError("ALREADY_EXISTS", "Journal entry reference number already exists")
	errInvoiceNumber    = shared.NewDomainError("ALREADY_EXISTS", "Invoice number already exists")
	errBankAccountTaken = shared.NewDomainError("ALREADY_EXISTS", "Bank account number already exists")
)
