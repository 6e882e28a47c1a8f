package domain

import (
	"context"
	"time"
)

type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"createdAt"`
}

// AccountRepository is the identity collaborator. Soft-deleted (banned)
// accounts are invisible to every method. Misses return errs.ErrNotFound.
type AccountRepository interface {
	// Create inserts a with its Roles. Duplicate email yields errs.ErrConflict.
	Create(ctx context.Context, a *Account) error
	FindByID(ctx context.Context, id string) (*Account, error)
	// FindByEmail matches case-insensitively.
	FindByEmail(ctx context.Context, email string) (*Account, error)
	GetRoles(ctx context.Context, id string) ([]string, error)
	AddRole(ctx context.Context, id, role string) error
	// EmailsByID resolves live accounts only; unknown ids are absent from the map.
	EmailsByID(ctx context.Context, ids []string) (map[string]string, error)
	List(ctx context.Context, search string, offset, limit int) ([]Account, int64, error)
	SoftDelete(ctx context.Context, id string) error
	// Purge removes id and its roles for good, releasing its email. It is
	// reserved for undoing a registration that did not complete.
	Purge(ctx context.Context, id string) error
}
