package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"obituary-service/internal/core/auth"
	"obituary-service/internal/domain"
	"obituary-service/internal/errs"
)

var knownRoles = []string{auth.RoleAdmin, auth.RoleUser}

// AccountAdmin backs the admin process.
type AccountAdmin struct {
	accounts domain.AccountRepository
	log      *zap.Logger
}

func NewAccountAdmin(accounts domain.AccountRepository, log *zap.Logger) *AccountAdmin {
	return &AccountAdmin{accounts: accounts, log: log}
}

type AccountPage struct {
	Items []domain.Account `json:"items"`
	Total int64            `json:"total"`
}

func (a *AccountAdmin) List(ctx context.Context, search string, offset, limit int) (AccountPage, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > domain.MaxPageSize {
		limit = domain.DefaultPageSize
	}
	items, total, err := a.accounts.List(ctx, search, offset, limit)
	if err != nil {
		a.log.Error("list accounts failed", zap.Error(err))
		return AccountPage{}, fmt.Errorf("list accounts: %w", errs.ErrInternal)
	}
	if items == nil {
		items = []domain.Account{}
	}
	return AccountPage{Items: items, Total: total}, nil
}

// Ban soft-deletes the account. Its records drop out of listings and its
// tokens stay valid until they expire.
func (a *AccountAdmin) Ban(ctx context.Context, by auth.ClaimSet, id string) error {
	if id == by.SubjectID {
		return errs.Invalid("id", "cannot ban yourself")
	}
	if err := a.accounts.SoftDelete(ctx, id); err != nil {
		return a.wrap("ban account", err)
	}
	a.log.Info("account banned", zap.String("account_id", id), zap.String("by", by.SubjectID))
	return nil
}

func (a *AccountAdmin) GrantRole(ctx context.Context, by auth.ClaimSet, id, role string) error {
	role = strings.ToLower(strings.TrimSpace(role))
	if !slices.Contains(knownRoles, role) {
		return errs.Invalid("role", "unknown role")
	}
	if err := a.accounts.AddRole(ctx, id, role); err != nil {
		return a.wrap("grant role", err)
	}
	a.log.Info("role granted", zap.String("account_id", id), zap.String("role", role), zap.String("by", by.SubjectID))
	return nil
}

func (a *AccountAdmin) wrap(op string, err error) error {
	if errors.Is(err, errs.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, errs.ErrNotFound)
	}
	a.log.Error(op+" failed", zap.Error(err))
	return fmt.Errorf("%s: %w", op, errs.ErrInternal)
}
