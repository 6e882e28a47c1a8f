package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"obituary-service/internal/domain"
	"obituary-service/internal/repo/memory"
)

func seedListing(t *testing.T) (*memory.Store, *ListingEngine) {
	t.Helper()
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, s.Accounts().Create(ctx, &domain.Account{ID: "u1", Email: "u1@x.io"}))
	require.NoError(t, s.Accounts().Create(ctx, &domain.Account{ID: "u2", Email: "u2@x.io"}))

	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	// 25 "Smith" records; consecutive pairs share a date of death.
	for i := range 25 {
		dod := base.AddDate(0, 0, i-i%2)
		owner := "u1"
		if i%3 == 0 {
			owner = "u2"
		}
		require.NoError(t, s.Obituaries().Create(ctx, &domain.Obituary{
			FullName:    fmt.Sprintf("Person %02d Smith", i),
			DateOfBirth: base.AddDate(-80, 0, 0),
			DateOfDeath: dod,
			Biography:   "biography text",
			OwnerID:     owner,
		}))
	}
	for i := range 3 {
		require.NoError(t, s.Obituaries().Create(ctx, &domain.Obituary{
			FullName:    fmt.Sprintf("Other %d Jones", i),
			DateOfBirth: base.AddDate(-70, 0, 0),
			DateOfDeath: base.AddDate(1, 0, i),
			OwnerID:     "u1",
		}))
	}
	return s, NewListingEngine(s.Obituaries(), s.Accounts(), zap.NewNop())
}

func TestListingEngine_PagesOfTwentyFive(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	_, eng := seedListing(t)

	var sizes []int
	for p := 1; p <= 3; p++ {
		res, err := eng.Query(ctx, domain.PageRequest{PageNumber: p, PageSize: 10, Search: "smith"})
		require.NoError(t, err)
		require.Equal(t, 25, res.TotalCount)
		require.Equal(t, 3, res.TotalPages)
		require.Equal(t, p, res.PageNumber)
		sizes = append(sizes, len(res.Items))
	}
	require.Equal(t, []int{10, 10, 5}, sizes)
}

func TestListingEngine_PastTheEnd(t *testing.T) {
	t.Parallel()
	_, eng := seedListing(t)

	res, err := eng.Query(context.Background(), domain.PageRequest{PageNumber: 99, PageSize: 10, Search: "SMITH"})
	require.NoError(t, err)
	require.NotNil(t, res.Items)
	require.Empty(t, res.Items)
	require.Equal(t, 25, res.TotalCount)
	require.Equal(t, 3, res.TotalPages)
}

func TestListingEngine_OrderIdempotenceAndCompleteness(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	_, eng := seedListing(t)

	collect := func() []domain.ObituaryView {
		var all []domain.ObituaryView
		first, err := eng.Query(ctx, domain.PageRequest{PageNumber: 1, PageSize: 4})
		require.NoError(t, err)
		for p := 1; p <= first.TotalPages; p++ {
			res, err := eng.Query(ctx, domain.PageRequest{PageNumber: p, PageSize: 4})
			require.NoError(t, err)
			all = append(all, res.Items...)
		}
		return all
	}
	a, b := collect(), collect()
	require.Equal(t, a, b)
	require.Len(t, a, 28)

	seen := map[int64]bool{}
	for i, v := range a {
		require.False(t, seen[v.ID], "duplicate id %d", v.ID)
		seen[v.ID] = true
		if i == 0 {
			continue
		}
		prev := a[i-1]
		require.False(t, v.DateOfDeath.After(prev.DateOfDeath), "not sorted by date of death")
		if v.DateOfDeath.Equal(prev.DateOfDeath) {
			require.Greater(t, v.ID, prev.ID)
		}
	}
	require.Equal(t, "Other 2 Jones", a[0].FullName)
}

func TestListingEngine_ExcludesOrphansAndResolvesEmails(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, eng := seedListing(t)
	require.NoError(t, s.Accounts().SoftDelete(ctx, "u2"))

	res, err := eng.Query(ctx, domain.PageRequest{PageNumber: 1, PageSize: 100, Search: " smith "})
	require.NoError(t, err)
	require.Equal(t, 16, res.TotalCount)
	require.Len(t, res.Items, 16)
	for _, v := range res.Items {
		require.Equal(t, "u1", v.OwnerID)
		require.Equal(t, "u1@x.io", v.OwnerEmail)
	}
}

func TestListingEngine_EmailLookupFailureDegrades(t *testing.T) {
	t.Parallel()
	s, _ := seedListing(t)
	eng := NewListingEngine(s.Obituaries(), brokenEmails{s.Accounts()}, zap.NewNop())

	res, err := eng.Query(context.Background(), domain.PageRequest{})
	require.NoError(t, err)
	require.Equal(t, 1, res.PageNumber)
	require.Equal(t, domain.DefaultPageSize, res.PageSize)
	require.Len(t, res.Items, 10)
	for _, v := range res.Items {
		require.Equal(t, "", v.OwnerEmail)
	}
}

func TestListingEngine_StorageFailureIsReported(t *testing.T) {
	t.Parallel()
	s, _ := seedListing(t)
	eng := NewListingEngine(&failingObits{ObituaryRepository: s.Obituaries(), queryErr: errBoom}, s.Accounts(), zap.NewNop())

	_, err := eng.Query(context.Background(), domain.PageRequest{})
	require.ErrorIs(t, err, errBoom)
}
