package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"obituary-service/internal/core/auth"
	"obituary-service/internal/core/authz"
	"obituary-service/internal/domain"
	"obituary-service/internal/errs"
)

// Photo is an optional upload accompanying a create or update.
type Photo struct {
	Name string
	Body io.Reader
}

// ObituaryService orchestrates record mutations behind the authorization policy.
type ObituaryService struct {
	obits    domain.ObituaryRepository
	accounts domain.AccountRepository
	blobs    domain.BlobStore
	log      *zap.Logger
}

func NewObituaryService(obits domain.ObituaryRepository, accounts domain.AccountRepository, blobs domain.BlobStore, log *zap.Logger) *ObituaryService {
	return &ObituaryService{obits: obits, accounts: accounts, blobs: blobs, log: log}
}

func (s *ObituaryService) authorize(caller *auth.ClaimSet, action authz.Action, ownerID string) error {
	d := authz.Decide(caller, action, ownerID)
	outcome := "allow"
	if !d.Allowed {
		outcome = string(d.Reason)
	}
	authzDecisions.WithLabelValues(string(action), outcome).Inc()
	switch {
	case d.Allowed:
		return nil
	case d.Reason == authz.ReasonUnauthenticated:
		return errs.ErrUnauthenticated
	default:
		return errs.ErrForbidden
	}
}

func (s *ObituaryService) ownerEmail(ctx context.Context, ownerID string) string {
	emails, err := s.accounts.EmailsByID(ctx, []string{ownerID})
	if err != nil {
		s.log.Warn("owner email lookup failed", zap.Error(err), zap.String("owner_id", ownerID))
		return ""
	}
	return emails[ownerID]
}

func (s *ObituaryService) load(ctx context.Context, id int64) (*domain.Obituary, error) {
	o, err := s.obits.FindByID(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, fmt.Errorf("obituary %d: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		s.log.Error("load obituary failed", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("load obituary: %w", errs.ErrInternal)
	}
	return o, nil
}

func (s *ObituaryService) storePhoto(ctx context.Context, p *Photo) (string, error) {
	if p == nil || p.Body == nil {
		return "", nil
	}
	ref, err := s.blobs.Store(ctx, p.Body, p.Name)
	if errors.Is(err, domain.ErrBlobTooLarge) {
		return "", errs.Invalid("photo", "photo is too large")
	}
	if err != nil {
		s.log.Error("store photo failed", zap.String("name", p.Name), zap.Error(err))
		return "", fmt.Errorf("store photo: %w", errs.ErrInternal)
	}
	return ref, nil
}

func (s *ObituaryService) release(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := s.blobs.Delete(ctx, ref); err != nil {
		s.log.Warn("release photo failed", zap.String("ref", ref), zap.Error(err))
	}
}

// Get is public and does not hide records of removed owners.
func (s *ObituaryService) Get(ctx context.Context, id int64) (domain.ObituaryView, error) {
	o, err := s.load(ctx, id)
	if err != nil {
		return domain.ObituaryView{}, err
	}
	return o.View(s.ownerEmail(ctx, o.OwnerID)), nil
}

// Create validates in, stores the optional photo and persists a record owned by caller.
func (s *ObituaryService) Create(ctx context.Context, caller *auth.ClaimSet, in domain.ObituaryInput, photo *Photo) (domain.ObituaryView, error) {
	if err := s.authorize(caller, authz.ActionCreate, ""); err != nil {
		return domain.ObituaryView{}, err
	}
	if err := in.Validate(); err != nil {
		return domain.ObituaryView{}, err
	}
	ref, err := s.storePhoto(ctx, photo)
	if err != nil {
		return domain.ObituaryView{}, err
	}
	return s.persist(ctx, caller.SubjectID, in, ref)
}

// persist saves a validated record whose photo is already stored under ref.
// The photo is released when the write fails.
func (s *ObituaryService) persist(ctx context.Context, ownerID string, in domain.ObituaryInput, ref string) (domain.ObituaryView, error) {
	o := domain.Obituary{OwnerID: ownerID, PhotoRef: ref}
	in.Apply(&o)
	if err := s.obits.Create(ctx, &o); err != nil {
		s.release(ctx, ref)
		s.log.Error("create obituary failed", zap.String("owner_id", o.OwnerID), zap.Error(err))
		return domain.ObituaryView{}, fmt.Errorf("create obituary: %w", errs.ErrInternal)
	}
	s.log.Info("obituary created", zap.Int64("id", o.ID), zap.String("owner_id", o.OwnerID))
	return o.View(s.ownerEmail(ctx, o.OwnerID)), nil
}

// Update replaces the editable fields of record id. A new photo replaces and
// releases the previous one.
func (s *ObituaryService) Update(ctx context.Context, caller *auth.ClaimSet, id int64, in domain.ObituaryInput, photo *Photo) (domain.ObituaryView, error) {
	o, err := s.load(ctx, id)
	if err != nil {
		return domain.ObituaryView{}, err
	}
	if err := s.authorize(caller, authz.ActionUpdate, o.OwnerID); err != nil {
		return domain.ObituaryView{}, err
	}
	if err := in.Validate(); err != nil {
		return domain.ObituaryView{}, err
	}
	newRef, err := s.storePhoto(ctx, photo)
	if err != nil {
		return domain.ObituaryView{}, err
	}
	oldRef := o.PhotoRef
	in.Apply(o)
	if newRef != "" {
		o.PhotoRef = newRef
	}
	if err := s.obits.Update(ctx, o); err != nil {
		s.release(ctx, newRef)
		if errors.Is(err, errs.ErrNotFound) {
			return domain.ObituaryView{}, fmt.Errorf("obituary %d: %w", id, errs.ErrNotFound)
		}
		s.log.Error("update obituary failed", zap.Int64("id", id), zap.Error(err))
		return domain.ObituaryView{}, fmt.Errorf("update obituary: %w", errs.ErrInternal)
	}
	if newRef != "" {
		s.release(ctx, oldRef)
	}
	s.log.Info("obituary updated", zap.Int64("id", id), zap.String("by", caller.SubjectID))
	return o.View(s.ownerEmail(ctx, o.OwnerID)), nil
}

// Delete removes record id and releases its photo.
func (s *ObituaryService) Delete(ctx context.Context, caller *auth.ClaimSet, id int64) error {
	o, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(caller, authz.ActionDelete, o.OwnerID); err != nil {
		return err
	}
	if err := s.obits.Delete(ctx, id); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return fmt.Errorf("obituary %d: %w", id, errs.ErrNotFound)
		}
		s.log.Error("delete obituary failed", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("delete obituary: %w", errs.ErrInternal)
	}
	s.release(ctx, o.PhotoRef)
	s.log.Info("obituary deleted", zap.Int64("id", id), zap.String("by", caller.SubjectID))
	return nil
}
