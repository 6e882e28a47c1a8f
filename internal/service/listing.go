// Package service holds the application services: the authentication gate,
// the listing engine, record orchestration, text rewriting and seeding.
package service

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"obituary-service/internal/domain"
)

// ListingEngine serves the public paginated feed.
type ListingEngine struct {
	obits    domain.ObituaryRepository
	accounts domain.AccountRepository
	log      *zap.Logger
}

func NewListingEngine(obits domain.ObituaryRepository, accounts domain.AccountRepository, log *zap.Logger) *ListingEngine {
	return &ListingEngine{obits: obits, accounts: accounts, log: log}
}

// Query returns one page of records whose owner still exists. Count, pages
// and items all come from one storage snapshot.
func (e *ListingEngine) Query(ctx context.Context, req domain.PageRequest) (domain.PageResult[domain.ObituaryView], error) {
	req = req.Normalize()
	filter := domain.ObituaryFilter{NameContains: req.Search, LiveOwnersOnly: true}

	page, total, err := e.obits.Query(ctx, filter, req.Offset(), req.PageSize)
	if err != nil {
		e.log.Error("listing query failed", zap.Error(err), zap.String("search", filter.Term()))
		return domain.PageResult[domain.ObituaryView]{}, fmt.Errorf("query obituaries: %w", err)
	}
	res := domain.PageResult[domain.ObituaryView]{
		Items:      make([]domain.ObituaryView, 0, len(page)),
		PageNumber: req.PageNumber,
		PageSize:   req.PageSize,
		TotalCount: int(total),
		TotalPages: domain.TotalPages(int(total), req.PageSize),
	}
	if len(page) == 0 {
		return res, nil
	}
	emails := e.ownerEmails(ctx, page)
	for _, o := range page {
		res.Items = append(res.Items, o.View(emails[o.OwnerID]))
	}
	return res, nil
}

// ownerEmails resolves emails for a page. A failed lookup degrades to empty
// emails instead of failing the page.
func (e *ListingEngine) ownerEmails(ctx context.Context, page []domain.Obituary) map[string]string {
	ids := make([]string, 0, len(page))
	for _, o := range page {
		ids = append(ids, o.OwnerID)
	}
	slices.Sort(ids)
	ids = slices.Compact(ids)
	emails, err := e.accounts.EmailsByID(ctx, ids)
	if err != nil {
		e.log.Warn("owner email lookup failed", zap.Error(err), zap.Int("owners", len(ids)))
		return map[string]string{}
	}
	return emails
}
