package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"obituary-service/internal/core/auth"
	"obituary-service/internal/domain"
	"obituary-service/internal/repo/memory"
	"obituary-service/pkg/utils"
)

type fakeBlobs struct {
	mu       sync.Mutex
	stored   map[string][]byte
	released []string
	storeErr error
	n        int
}

var _ domain.BlobStore = (*fakeBlobs)(nil)

func (f *fakeBlobs) Store(_ context.Context, r io.Reader, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.storeErr != nil {
		return "", f.storeErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if f.stored == nil {
		f.stored = map[string][]byte{}
	}
	f.n++
	ref := "/uploads/" + string(rune('a'+f.n-1)) + "_" + name
	f.stored[ref] = b
	return ref, nil
}

func (f *fakeBlobs) Delete(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.stored, ref)
	f.released = append(f.released, ref)
	return nil
}

// failingObits wraps a repository and fails selected writes.
type failingObits struct {
	domain.ObituaryRepository
	createErr error
	updateErr error
	queryErr  error
}

func (f *failingObits) Create(ctx context.Context, o *domain.Obituary) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.ObituaryRepository.Create(ctx, o)
}

func (f *failingObits) Update(ctx context.Context, o *domain.Obituary) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	return f.ObituaryRepository.Update(ctx, o)
}

func (f *failingObits) Query(ctx context.Context, flt domain.ObituaryFilter, offset, limit int) ([]domain.Obituary, int64, error) {
	if f.queryErr != nil {
		return nil, 0, f.queryErr
	}
	return f.ObituaryRepository.Query(ctx, flt, offset, limit)
}

// brokenEmails fails every batch email lookup.
type brokenEmails struct{ domain.AccountRepository }

func (brokenEmails) EmailsByID(context.Context, []string) (map[string]string, error) {
	return nil, errors.New("identity store down")
}

var errBoom = errors.New("boom")

type fixture struct {
	store *memory.Store
	blobs *fakeBlobs
	svc   *ObituaryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	blobs := &fakeBlobs{}
	return &fixture{
		store: store,
		blobs: blobs,
		svc:   NewObituaryService(store.Obituaries(), store.Accounts(), blobs, zap.NewNop()),
	}
}

// account creates a live account and returns its claims.
func (f *fixture) account(t *testing.T, id, email string, roles ...string) *auth.ClaimSet {
	t.Helper()
	hash, err := utils.HashPassword("secret1")
	require.NoError(t, err)
	require.NoError(t, f.store.Accounts().Create(context.Background(), &domain.Account{
		ID: id, Email: email, Username: email, PasswordHash: hash, Roles: roles,
	}))
	c := auth.NewClaimSet(id, email, email, roles...)
	return &c
}

func validInput(name string) domain.ObituaryInput {
	return domain.ObituaryInput{
		FullName:    name,
		DateOfBirth: time.Date(1950, 5, 12, 0, 0, 0, 0, time.UTC),
		DateOfDeath: time.Date(2022, 9, 18, 0, 0, 0, 0, time.UTC),
		Biography:   "A long enough biography.",
	}
}

func photo(name, body string) *Photo { return &Photo{Name: name, Body: bytes.NewBufferString(body)} }
