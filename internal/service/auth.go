package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"obituary-service/internal/core/auth"
	"obituary-service/internal/domain"
	"obituary-service/internal/errs"
	"obituary-service/pkg/utils"
)

// LoginResult is returned by both Login and Register.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiration"`
	SubjectID string    `json:"userId"`
	Email     string    `json:"email"`
	Roles     []string  `json:"roles"`
}

// Registration is a sign-up request. Obituary is created only when its
// FullName is set.
type Registration struct {
	Email           string               `json:"email" validate:"required,email"`
	Password        string               `json:"password" validate:"required,min=6,max=100"`
	ConfirmPassword string               `json:"confirmPassword" validate:"eqfield=Password"`
	Obituary        domain.ObituaryInput `json:"-" validate:"-"`
	Photo           *Photo               `json:"-" validate:"-"`
}

// AuthGate checks credentials against the account store and mints tokens.
type AuthGate struct {
	accounts domain.AccountRepository
	codec    *auth.Codec
	obits    *ObituaryService
	log      *zap.Logger
	now      func() time.Time
}

// NewAuthGate builds the gate. obits may be nil when registration never
// carries an initial record.
func NewAuthGate(accounts domain.AccountRepository, codec *auth.Codec, obits *ObituaryService, log *zap.Logger) *AuthGate {
	return &AuthGate{accounts: accounts, codec: codec, obits: obits, log: log, now: time.Now}
}

// Login never tells an unknown email apart from a wrong password.
func (g *AuthGate) Login(ctx context.Context, email, password string) (LoginResult, error) {
	acc, err := g.accounts.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		utils.BurnPasswordCheck(password)
		loginTotal.WithLabelValues("invalid").Inc()
		return LoginResult{}, errs.ErrInvalidCredentials
	case err != nil:
		loginTotal.WithLabelValues("error").Inc()
		g.log.Error("login lookup failed", zap.Error(err))
		return LoginResult{}, fmt.Errorf("login: %w", errs.ErrInternal)
	}
	if !utils.CheckPassword(password, acc.PasswordHash) {
		loginTotal.WithLabelValues("invalid").Inc()
		return LoginResult{}, errs.ErrInvalidCredentials
	}
	res, err := g.issue(ctx, acc)
	if err != nil {
		loginTotal.WithLabelValues("error").Inc()
		return LoginResult{}, err
	}
	loginTotal.WithLabelValues("ok").Inc()
	return res, nil
}

func (g *AuthGate) issue(ctx context.Context, acc *domain.Account) (LoginResult, error) {
	roles, err := g.accounts.GetRoles(ctx, acc.ID)
	if err != nil {
		g.log.Error("load roles failed", zap.String("account_id", acc.ID), zap.Error(err))
		return LoginResult{}, fmt.Errorf("load roles: %w", errs.ErrInternal)
	}
	claims := auth.NewClaimSet(acc.ID, acc.Username, acc.Email, roles...)
	if claims.Roles == nil {
		claims.Roles = []string{}
	}
	tok, err := g.codec.Mint(claims, g.now())
	if err != nil {
		g.log.Error("mint token failed", zap.String("account_id", acc.ID), zap.Error(err))
		return LoginResult{}, fmt.Errorf("mint token: %w", errs.ErrInternal)
	}
	return LoginResult{
		Token:     tok.Value,
		ExpiresAt: tok.ExpiresAt,
		SubjectID: claims.SubjectID,
		Email:     claims.Email,
		Roles:     claims.Roles,
	}, nil
}

// Validate reports every violated field of the request.
func (r Registration) Validate() error {
	v := &errs.ValidationError{}
	r.Email = strings.TrimSpace(r.Email)
	validateInto(v, r)
	if r.hasObituary() {
		r.Obituary.ValidateInto(v)
	}
	return v.OrNil()
}

// discard removes an account whose registration could not complete so the
// email can be used again.
func (g *AuthGate) discard(ctx context.Context, id string) {
	if err := g.accounts.Purge(ctx, id); err != nil {
		g.log.Error("discard incomplete account failed", zap.String("account_id", id), zap.Error(err))
	}
}

func (r Registration) hasObituary() bool { return strings.TrimSpace(r.Obituary.FullName) != "" }

// Register creates a user account, optionally with its first record, and
// signs the new account in.
func (g *AuthGate) Register(ctx context.Context, r Registration) (LoginResult, error) {
	if err := r.Validate(); err != nil {
		return LoginResult{}, err
	}
	hash, err := utils.HashPassword(r.Password)
	if err != nil {
		return LoginResult{}, fmt.Errorf("hash password: %w", errs.ErrInternal)
	}
	email := strings.ToLower(strings.TrimSpace(r.Email))
	acc := &domain.Account{
		ID:           utils.NewID(),
		Email:        email,
		Username:     email,
		PasswordHash: hash,
		Roles:        []string{auth.RoleUser},
	}
	// the photo goes first so an upload rejection never leaves an account behind
	withRecord := r.hasObituary() && g.obits != nil
	var ref string
	if withRecord {
		if ref, err = g.obits.storePhoto(ctx, r.Photo); err != nil {
			return LoginResult{}, err
		}
	}
	if err := g.accounts.Create(ctx, acc); err != nil {
		if withRecord {
			g.obits.release(ctx, ref)
		}
		if errors.Is(err, errs.ErrConflict) {
			return LoginResult{}, fmt.Errorf("email %s already registered: %w", email, errs.ErrConflict)
		}
		g.log.Error("create account failed", zap.Error(err))
		return LoginResult{}, fmt.Errorf("create account: %w", errs.ErrInternal)
	}
	if withRecord {
		if _, err := g.obits.persist(ctx, acc.ID, r.Obituary, ref); err != nil {
			g.discard(ctx, acc.ID)
			return LoginResult{}, err
		}
	}
	g.log.Info("account registered", zap.String("account_id", acc.ID))
	return g.issue(ctx, acc)
}
