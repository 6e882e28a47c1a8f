package domain

import (
	"cmp"
	"context"
	"errors"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"obituary-service/internal/errs"
)

// MinBiographyLen is counted in characters after trimming surrounding space.
const MinBiographyLen = 10

type Obituary struct {
	ID          int64
	FullName    string
	DateOfBirth time.Time
	DateOfDeath time.Time
	Biography   string
	PhotoRef    string
	OwnerID     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ObituaryView is the outward projection of a record with its owner's email
// resolved at read time.
type ObituaryView struct {
	ID          int64     `json:"id"`
	FullName    string    `json:"fullName"`
	DateOfBirth time.Time `json:"dateOfBirth"`
	DateOfDeath time.Time `json:"dateOfDeath"`
	Biography   string    `json:"biography"`
	PhotoPath   string    `json:"photoPath,omitempty"`
	OwnerID     string    `json:"ownerId"`
	OwnerEmail  string    `json:"ownerEmail"`
}

func (o Obituary) View(ownerEmail string) ObituaryView {
	return ObituaryView{
		ID:          o.ID,
		FullName:    o.FullName,
		DateOfBirth: o.DateOfBirth,
		DateOfDeath: o.DateOfDeath,
		Biography:   o.Biography,
		PhotoPath:   o.PhotoRef,
		OwnerID:     o.OwnerID,
		OwnerEmail:  ownerEmail,
	}
}

// ObituaryInput carries the caller-editable fields of a record.
type ObituaryInput struct {
	FullName    string
	DateOfBirth time.Time
	DateOfDeath time.Time
	Biography   string
}

// Validate reports every violated field at once.
func (in ObituaryInput) Validate() error {
	v := &errs.ValidationError{}
	in.ValidateInto(v)
	return v.OrNil()
}

// ValidateInto appends violations to an existing collector, for requests
// that validate more than the record itself.
func (in ObituaryInput) ValidateInto(v *errs.ValidationError) {
	if strings.TrimSpace(in.FullName) == "" {
		v.Add("fullName", "full name is required")
	}
	switch {
	case in.DateOfBirth.IsZero():
		v.Add("dateOfBirth", "date of birth is required")
	case in.DateOfDeath.IsZero():
	case !in.DateOfBirth.Before(in.DateOfDeath):
		v.Add("dateOfBirth", "date of birth must precede date of death")
	}
	if in.DateOfDeath.IsZero() {
		v.Add("dateOfDeath", "date of death is required")
	}
	if utf8.RuneCountInString(strings.TrimSpace(in.Biography)) < MinBiographyLen {
		v.Add("biography", "biography must be at least 10 characters long")
	}
}

// Apply copies the editable fields onto o, trimming the name.
func (in ObituaryInput) Apply(o *Obituary) {
	o.FullName = strings.TrimSpace(in.FullName)
	o.DateOfBirth = in.DateOfBirth
	o.DateOfDeath = in.DateOfDeath
	o.Biography = in.Biography
}

// ObituaryFilter is the predicate pushed down to storage.
type ObituaryFilter struct {
	// NameContains is matched case-insensitively against FullName; blank means all.
	NameContains string
	// LiveOwnersOnly drops records whose owner account no longer exists.
	LiveOwnersOnly bool
}

// Term returns the trimmed search term.
func (f ObituaryFilter) Term() string { return strings.TrimSpace(f.NameContains) }

// MatchesName applies the name predicate in memory.
func (f ObituaryFilter) MatchesName(fullName string) bool {
	term := f.Term()
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(fullName), strings.ToLower(term))
}

// CompareByDeathDesc orders by date of death, newest first, then by id.
func CompareByDeathDesc(a, b Obituary) int {
	if c := b.DateOfDeath.Compare(a.DateOfDeath); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// ObituaryRepository is the record storage collaborator. Misses return errs.ErrNotFound.
type ObituaryRepository interface {
	FindByID(ctx context.Context, id int64) (*Obituary, error)
	// Query returns up to limit records matching f starting at offset, in
	// CompareByDeathDesc order, with the total match count. Both come from one
	// consistent read. limit <= 0 returns every match.
	Query(ctx context.Context, f ObituaryFilter, offset, limit int) ([]Obituary, int64, error)
	// Create assigns o.ID.
	Create(ctx context.Context, o *Obituary) error
	// Update never inserts; a vanished record yields errs.ErrNotFound.
	Update(ctx context.Context, o *Obituary) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

// ErrBlobTooLarge is returned by a BlobStore when the upload exceeds its limit.
var ErrBlobTooLarge = errors.New("file too large")

// BlobStore keeps uploaded photos. References are opaque public paths.
type BlobStore interface {
	Store(ctx context.Context, r io.Reader, name string) (string, error)
	Delete(ctx context.Context, ref string) error
}

// TextRewriter is the outbound text-transformation collaborator.
type TextRewriter interface {
	Rewrite(ctx context.Context, text string) (string, error)
}
