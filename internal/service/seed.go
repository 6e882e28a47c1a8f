package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"obituary-service/internal/core/auth"
	"obituary-service/internal/domain"
	"obituary-service/internal/errs"
	"obituary-service/pkg/utils"
)

type SeedOptions struct {
	AdminEmail    string
	AdminPassword string
	UserEmail     string
	UserPassword  string
	Samples       bool
}

type sample struct {
	owner     string // "admin" or "user"
	name      string
	dob, dod  time.Time
	biography string
}

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

var samples = []sample{
	{"admin", "Admin User", date(1980, 1, 1), date(2023, 12, 31),
		"Admin User was a dedicated system administrator who managed the obituary platform with care and precision. Known for their attention to detail and commitment to preserving memories for families."},
	{"user", "Regular User", date(1985, 6, 15), date(2024, 1, 15),
		"Regular User was a valued member of the community who actively participated in the obituary system. They will be remembered for their kindness and dedication to preserving family histories."},
	{"admin", "John Doe", date(1950, 5, 12), date(2022, 9, 18),
		"John Doe was a beloved member of the community..."},
	{"user", "Jane Smith", date(1960, 3, 22), date(2021, 2, 1),
		"Jane Smith enjoyed gardening and spending time with family..."},
}

// Seeder creates the bootstrap accounts and sample records. Running it again
// changes nothing.
type Seeder struct {
	accounts domain.AccountRepository
	obits    domain.ObituaryRepository
	log      *zap.Logger
}

func NewSeeder(accounts domain.AccountRepository, obits domain.ObituaryRepository, log *zap.Logger) *Seeder {
	return &Seeder{accounts: accounts, obits: obits, log: log}
}

func (s *Seeder) Run(ctx context.Context, o SeedOptions) error {
	admin, err := s.ensureAccount(ctx, o.AdminEmail, o.AdminPassword, auth.RoleAdmin, auth.RoleUser)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	user, err := s.ensureAccount(ctx, o.UserEmail, o.UserPassword, auth.RoleUser)
	if err != nil {
		return fmt.Errorf("seed user: %w", err)
	}
	if !o.Samples {
		return nil
	}
	n, err := s.obits.Count(ctx)
	if err != nil {
		return fmt.Errorf("count obituaries: %w", err)
	}
	if n > 0 {
		return nil
	}
	owners := map[string]string{"admin": admin.ID, "user": user.ID}
	for _, sm := range samples {
		rec := &domain.Obituary{
			FullName:    sm.name,
			DateOfBirth: sm.dob,
			DateOfDeath: sm.dod,
			Biography:   sm.biography,
			OwnerID:     owners[sm.owner],
		}
		if err := s.obits.Create(ctx, rec); err != nil {
			return fmt.Errorf("seed obituary %q: %w", sm.name, err)
		}
	}
	s.log.Info("sample obituaries seeded", zap.Int("count", len(samples)))
	return nil
}

func (s *Seeder) ensureAccount(ctx context.Context, email, password string, roles ...string) (*domain.Account, error) {
	acc, err := s.accounts.FindByEmail(ctx, email)
	if errors.Is(err, errs.ErrNotFound) {
		hash, herr := utils.HashPassword(password)
		if herr != nil {
			return nil, herr
		}
		acc = &domain.Account{ID: utils.NewID(), Email: email, Username: email, PasswordHash: hash, Roles: roles}
		err = s.accounts.Create(ctx, acc)
		if err == nil {
			s.log.Info("seed account created", zap.String("email", email), zap.Strings("roles", roles))
			return acc, nil
		}
		if errors.Is(err, errs.ErrConflict) {
			acc, err = s.accounts.FindByEmail(ctx, email)
		}
	}
	if err != nil {
		return nil, err
	}
	for _, r := range roles {
		if err := s.accounts.AddRole(ctx, acc.ID, r); err != nil {
			return nil, err
		}
	}
	return acc, nil
}
