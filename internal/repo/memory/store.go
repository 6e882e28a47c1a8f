// Package memory is an in-process implementation of the storage collaborators,
// used by the "memory" database driver and by tests.
package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"obituary-service/internal/domain"
	"obituary-service/internal/errs"
)

type accountRow struct {
	acc     domain.Account
	deleted bool
}

// Store holds accounts and obituaries behind one lock so that a query sees a
// single consistent state of both.
type Store struct {
	mu         sync.RWMutex
	accounts   map[string]*accountRow
	byEmail    map[string]string
	obituaries map[int64]domain.Obituary
	nextID     int64
	now        func() time.Time
}

func New() *Store {
	return &Store{
		accounts:   map[string]*accountRow{},
		byEmail:    map[string]string{},
		obituaries: map[int64]domain.Obituary{},
		now:        time.Now,
	}
}

// Accounts and Obituaries expose the two collaborator views of the store.
func (s *Store) Accounts() *Accounts     { return &Accounts{s: s} }
func (s *Store) Obituaries() *Obituaries { return &Obituaries{s: s} }

func emailKey(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func copyAccount(a domain.Account) *domain.Account {
	a.Roles = slices.Clone(a.Roles)
	return &a
}

func (s *Store) liveAccount(id string) (*accountRow, bool) {
	row, ok := s.accounts[id]
	if !ok || row.deleted {
		return nil, false
	}
	return row, true
}

type Accounts struct{ s *Store }

var _ domain.AccountRepository = (*Accounts)(nil)

func (r *Accounts) Create(_ context.Context, a *domain.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := emailKey(a.Email)
	// banned accounts keep their email reserved
	if _, ok := r.s.byEmail[key]; ok {
		return errs.ErrConflict
	}
	if _, ok := r.s.accounts[a.ID]; ok {
		return errs.ErrConflict
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = r.s.now()
	}
	r.s.accounts[a.ID] = &accountRow{acc: *copyAccount(*a)}
	r.s.byEmail[key] = a.ID
	return nil
}

func (r *Accounts) FindByID(_ context.Context, id string) (*domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	row, ok := r.s.liveAccount(id)
	if !ok {
		return nil, errs.ErrNotFound
	}
	return copyAccount(row.acc), nil
}

func (r *Accounts) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.byEmail[emailKey(email)]
	if !ok {
		return nil, errs.ErrNotFound
	}
	row, ok := r.s.liveAccount(id)
	if !ok {
		return nil, errs.ErrNotFound
	}
	return copyAccount(row.acc), nil
}

func (r *Accounts) GetRoles(ctx context.Context, id string) ([]string, error) {
	a, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return a.Roles, nil
}

func (r *Accounts) AddRole(_ context.Context, id, role string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.liveAccount(id)
	if !ok {
		return errs.ErrNotFound
	}
	if !slices.Contains(row.acc.Roles, role) {
		row.acc.Roles = append(row.acc.Roles, role)
	}
	return nil
}

func (r *Accounts) EmailsByID(_ context.Context, ids []string) (map[string]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		if row, ok := r.s.liveAccount(id); ok {
			out[id] = row.acc.Email
		}
	}
	return out, nil
}

func (r *Accounts) List(_ context.Context, search string, offset, limit int) ([]domain.Account, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	term := strings.ToLower(strings.TrimSpace(search))
	var all []domain.Account
	for _, row := range r.s.accounts {
		if row.deleted {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(row.acc.Email), term) &&
			!strings.Contains(strings.ToLower(row.acc.Username), term) {
			continue
		}
		all = append(all, *copyAccount(row.acc))
	}
	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	total := int64(len(all))
	if offset >= len(all) {
		return []domain.Account{}, total, nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], total, nil
}

func (r *Accounts) SoftDelete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.liveAccount(id)
	if !ok {
		return errs.ErrNotFound
	}
	row.deleted = true
	return nil
}

func (r *Accounts) Purge(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.accounts[id]
	if !ok {
		return errs.ErrNotFound
	}
	delete(r.s.byEmail, emailKey(row.acc.Email))
	delete(r.s.accounts, id)
	return nil
}

type Obituaries struct{ s *Store }

var _ domain.ObituaryRepository = (*Obituaries)(nil)

func (r *Obituaries) FindByID(_ context.Context, id int64) (*domain.Obituary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	o, ok := r.s.obituaries[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &o, nil
}

func (r *Obituaries) Query(_ context.Context, f domain.ObituaryFilter, offset, limit int) ([]domain.Obituary, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]domain.Obituary, 0, len(r.s.obituaries))
	for _, o := range r.s.obituaries {
		if !f.MatchesName(o.FullName) {
			continue
		}
		if f.LiveOwnersOnly {
			if _, ok := r.s.liveAccount(o.OwnerID); !ok {
				continue
			}
		}
		out = append(out, o)
	}
	slices.SortFunc(out, domain.CompareByDeathDesc)
	total := int64(len(out))
	out = out[min(max(offset, 0), len(out)):]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func (r *Obituaries) Create(_ context.Context, o *domain.Obituary) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextID++
	o.ID = r.s.nextID
	now := r.s.now()
	o.CreatedAt, o.UpdatedAt = now, now
	r.s.obituaries[o.ID] = *o
	return nil
}

func (r *Obituaries) Update(_ context.Context, o *domain.Obituary) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.obituaries[o.ID]
	if !ok {
		return errs.ErrNotFound
	}
	o.CreatedAt = cur.CreatedAt
	o.UpdatedAt = r.s.now()
	r.s.obituaries[o.ID] = *o
	return nil
}

func (r *Obituaries) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.obituaries[id]; !ok {
		return errs.ErrNotFound
	}
	delete(r.s.obituaries, id)
	return nil
}

func (r *Obituaries) Count(_ context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.obituaries)), nil
}
