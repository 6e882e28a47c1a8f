package repo

import (
	"errors"
	"strings"

	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"obituary-service/internal/errs"
)

const (
	pgUniqueViolation = "23505"
	mysqlDuplicateKey = 1062
)

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var myErr *mysqldrv.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateKey
	}
	// drivers that wrap without exposing a typed error
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}

// translate maps driver errors onto the shared taxonomy.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errs.ErrNotFound
	case isDuplicateKey(err):
		return errs.ErrConflict
	default:
		return err
	}
}

// escapeLike quotes LIKE metacharacters for use with ESCAPE '!'.
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
