package postgres

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/xy-planning-network/portfolio"
	"gorm.io/gorm"
)

var (
	// These errors originate from the std lib database/sql package.
	errSQLScan          = regexp.MustCompile(`sql: expected \d+ destination arguments in Scan, not \d+`)
	errSQLUnaddressable = regexp.MustCompile(`sql: Scan error on column index \d+, name "\w+": destination not a pointer`)

	// errSQLSyntax loosely gathers PostgreSQL syntax and datatype mismatch codes,
	// along with SQLite's syntax errors.
	//
	// Cf., https://www.postgresql.org/docs/current/errcodes-appendix.html
	errSQLSyntax = regexp.MustCompile(`SQLSTATE (42601|22P02|42703|42P01)|syntax error|no such (column|table)`)

	errFKViolation   = regexp.MustCompile(`SQLSTATE 23503|FOREIGN KEY constraint failed`)
	errNullViolation = regexp.MustCompile(`SQLSTATE 23502|NOT NULL constraint failed`)
	errUniqViolation = regexp.MustCompile(`SQLSTATE 23505|UNIQUE constraint failed`)
)

// translate wraps err from the database in the matching portfolio sentinel.
func translate(err error, msg string) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey), errUniqViolation.MatchString(err.Error()):
		return fmt.Errorf("%w: %s", portfolio.ErrExists, err)

	case errors.Is(err, gorm.ErrForeignKeyViolated), errFKViolation.MatchString(err.Error()):
		return fmt.Errorf("%w: %s", portfolio.ErrNotValid, err)

	case errNullViolation.MatchString(err.Error()):
		return fmt.Errorf("%w: %s", portfolio.ErrMissingData, err)

	case errSQLSyntax.MatchString(err.Error()):
		return fmt.Errorf("%w: %s", portfolio.ErrNotValid, err)

	default:
		return fmt.Errorf("%w: %s: %s", portfolio.ErrUnexpected, msg, err)
	}
}
