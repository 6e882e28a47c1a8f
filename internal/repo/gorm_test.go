package repo

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"obituary-service/internal/domain"
	"obituary-service/internal/errs"
	"obituary-service/internal/feature/account"
	"obituary-service/internal/feature/obituary"
)

// newTestDB opens a private in-memory sqlite database with the production schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps every query on the same in-memory database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&account.AccountModel{}, &account.RoleModel{}, &obituary.ObituaryModel{}))
	return db
}

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func TestAccountRepo_CreateFindAndRoles(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := NewAccountRepo(newTestDB(t))

	a := &domain.Account{ID: "a1", Email: " Ann@X.io ", Username: "ann", PasswordHash: "h", Roles: []string{"user"}}
	require.NoError(t, r.Create(ctx, a))
	require.False(t, a.CreatedAt.IsZero())

	got, err := r.FindByEmail(ctx, "ANN@x.io")
	require.NoError(t, err)
	require.Equal(t, "a1", got.ID)
	require.Equal(t, "ann@x.io", got.Email)
	require.Equal(t, []string{"user"}, got.Roles)

	require.ErrorIs(t, r.Create(ctx, &domain.Account{ID: "a2", Email: "ann@x.io", Username: "x", PasswordHash: "h"}), errs.ErrConflict)

	require.NoError(t, r.AddRole(ctx, "a1", "admin"))
	require.NoError(t, r.AddRole(ctx, "a1", "admin"))
	roles, err := r.GetRoles(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, []string{"admin", "user"}, roles)

	_, err = r.GetRoles(ctx, "missing")
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.ErrorIs(t, r.AddRole(ctx, "missing", "admin"), errs.ErrNotFound)
	_, err = r.FindByID(ctx, "missing")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestAccountRepo_SoftDeleteScoping(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := NewAccountRepo(newTestDB(t))
	for _, id := range []string{"a1", "b1", "c1"} {
		require.NoError(t, r.Create(ctx, &domain.Account{ID: id, Email: id + "@x.io", Username: id, PasswordHash: "h", Roles: []string{"user"}}))
	}

	require.NoError(t, r.SoftDelete(ctx, "a1"))
	require.ErrorIs(t, r.SoftDelete(ctx, "a1"), errs.ErrNotFound)

	_, err := r.FindByID(ctx, "a1")
	require.ErrorIs(t, err, errs.ErrNotFound)
	_, err = r.FindByEmail(ctx, "a1@x.io")
	require.ErrorIs(t, err, errs.ErrNotFound)

	emails, err := r.EmailsByID(ctx, []string{"a1", "b1", "zz"})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"b1": "b1@x.io"}, emails)

	list, total, err := r.List(ctx, "", 0, 10)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, list, 2)

	list, total, err = r.List(ctx, "C1@", 0, 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "c1", list[0].ID)
	require.Equal(t, []string{"user"}, list[0].Roles)

	// the unique index still covers the banned row
	require.ErrorIs(t, r.Create(ctx, &domain.Account{ID: "a2", Email: "a1@x.io", Username: "a2", PasswordHash: "h"}), errs.ErrConflict)

	require.NoError(t, r.Purge(ctx, "a1"))
	require.ErrorIs(t, r.Purge(ctx, "a1"), errs.ErrNotFound)
	require.NoError(t, r.Create(ctx, &domain.Account{ID: "a2", Email: "a1@x.io", Username: "a2", PasswordHash: "h"}))
}

func seedObituaries(t *testing.T, db *gorm.DB) *ObituaryRepo {
	t.Helper()
	ctx := context.Background()
	accs := NewAccountRepo(db)
	require.NoError(t, accs.Create(ctx, &domain.Account{ID: "live", Email: "l@x.io", Username: "l", PasswordHash: "h"}))
	require.NoError(t, accs.Create(ctx, &domain.Account{ID: "gone", Email: "g@x.io", Username: "g", PasswordHash: "h"}))
	require.NoError(t, accs.SoftDelete(ctx, "gone"))

	r := NewObituaryRepo(db)
	for i, o := range []domain.Obituary{
		{FullName: "Jane Smith", OwnerID: "live"},
		{FullName: "John Smithers", OwnerID: "gone"},
		{FullName: "Ada Byron", OwnerID: "live"},
		{FullName: "Orphan Smith", OwnerID: "never"},
		{FullName: "100% Smith_Jr", OwnerID: "live"},
		{FullName: "Kate SMITH", OwnerID: "live"},
	} {
		o.DateOfBirth = day(1940, 1, 1)
		o.DateOfDeath = day(2020, 1, 1+i/2)
		o.Biography = "long enough biography"
		require.NoError(t, r.Create(ctx, &o))
		require.EqualValues(t, i+1, o.ID)
	}
	return r
}

func names(recs []domain.Obituary) []string {
	out := make([]string, 0, len(recs))
	for _, o := range recs {
		out = append(out, o.FullName)
	}
	return out
}

func TestObituaryRepo_QueryExcludesOrphansAndEscapesLike(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := seedObituaries(t, newTestDB(t))

	all, total, err := r.Query(ctx, domain.ObituaryFilter{}, 0, 0)
	require.NoError(t, err)
	require.EqualValues(t, 6, total)
	require.Len(t, all, 6)

	live, total, err := r.Query(ctx, domain.ObituaryFilter{NameContains: " smith ", LiveOwnersOnly: true}, 0, 10)
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	// newest death first, ties by id
	require.Equal(t, []string{"100% Smith_Jr", "Kate SMITH", "Jane Smith"}, names(live))

	pct, total, err := r.Query(ctx, domain.ObituaryFilter{NameContains: "%"}, 0, 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, []string{"100% Smith_Jr"}, names(pct))

	under, _, err := r.Query(ctx, domain.ObituaryFilter{NameContains: "h_"}, 0, 10)
	require.NoError(t, err)
	require.Equal(t, []string{"100% Smith_Jr"}, names(under))
}

func TestObituaryRepo_QueryPages(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := seedObituaries(t, newTestDB(t))
	f := domain.ObituaryFilter{LiveOwnersOnly: true}

	var got []string
	for off := 0; off < 6; off += 2 {
		page, total, err := r.Query(ctx, f, off, 2)
		require.NoError(t, err)
		require.EqualValues(t, 4, total)
		got = append(got, names(page)...)
	}
	require.Equal(t, []string{"100% Smith_Jr", "Kate SMITH", "Ada Byron", "Jane Smith"}, got)

	past, total, err := r.Query(ctx, f, 40, 2)
	require.NoError(t, err)
	require.Empty(t, past)
	require.EqualValues(t, 4, total)
}

func TestObituaryRepo_UpdateAndDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := NewObituaryRepo(newTestDB(t))

	o := &domain.Obituary{
		FullName:    "Jane Smith",
		DateOfBirth: day(1960, 3, 22),
		DateOfDeath: day(2021, 2, 1),
		Biography:   "Jane enjoyed gardening.",
		PhotoRef:    "/uploads/a.png",
		OwnerID:     "u1",
	}
	require.NoError(t, r.Create(ctx, o))

	got, err := r.FindByID(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, "/uploads/a.png", got.PhotoRef)
	require.True(t, got.DateOfDeath.Equal(o.DateOfDeath))

	// an update that changes nothing still succeeds
	require.NoError(t, r.Update(ctx, got))
	got.PhotoRef = ""
	got.FullName = "Jane A. Smith"
	require.NoError(t, r.Update(ctx, got))
	again, err := r.FindByID(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, "Jane A. Smith", again.FullName)
	require.Empty(t, again.PhotoRef)

	require.ErrorIs(t, r.Update(ctx, &domain.Obituary{ID: 99, DateOfBirth: day(1, 1, 1), DateOfDeath: day(2, 1, 1)}), errs.ErrNotFound)

	n, err := r.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	require.NoError(t, r.Delete(ctx, o.ID))
	require.ErrorIs(t, r.Delete(ctx, o.ID), errs.ErrNotFound)
	_, err = r.FindByID(ctx, o.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)
}
