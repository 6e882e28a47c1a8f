package repo

import (
	"errors"
	"fmt"
	"testing"

	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"obituary-service/internal/errs"
)

func TestTranslate(t *testing.T) {
	t.Parallel()

	pgDup := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	myDup := fmt.Errorf("insert: %w", &mysqldrv.MySQLError{Number: 1062, Message: "Duplicate entry"})
	other := errors.New("connection reset")

	require.NoError(t, translate(nil))
	require.ErrorIs(t, translate(gorm.ErrRecordNotFound), errs.ErrNotFound)
	require.ErrorIs(t, translate(pgDup), errs.ErrConflict)
	require.ErrorIs(t, translate(myDup), errs.ErrConflict)
	require.ErrorIs(t, translate(gorm.ErrDuplicatedKey), errs.ErrConflict)
	require.Equal(t, other, translate(other))

	require.False(t, isDuplicateKey(&pgconn.PgError{Code: "23503"}))
	require.False(t, isDuplicateKey(&mysqldrv.MySQLError{Number: 1452}))
}

func TestEscapeLike(t *testing.T) {
	t.Parallel()

	require.Equal(t, "smith", escapeLike("smith"))
	require.Equal(t, "100!%", escapeLike("100%"))
	require.Equal(t, "a!_b", escapeLike("a_b"))
	require.Equal(t, "!!x", escapeLike("!x"))
}
