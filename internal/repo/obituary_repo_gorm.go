package repo

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"gorm.io/gorm"

	"obituary-service/internal/domain"
	"obituary-service/internal/errs"
	"obituary-service/internal/feature/obituary"
)

type ObituaryRepo struct {
	db *gorm.DB
	// snapshot makes the count and the page of a listing see the same rows.
	snapshot []*sql.TxOptions
}

func NewObituaryRepo(db *gorm.DB) *ObituaryRepo {
	r := &ObituaryRepo{db: db}
	switch db.Dialector.Name() {
	case "postgres", "mysql":
		r.snapshot = []*sql.TxOptions{{Isolation: sql.LevelRepeatableRead, ReadOnly: true}}
	}
	// sqlite transactions are serializable already
	return r
}

var _ domain.ObituaryRepository = (*ObituaryRepo)(nil)

// liveOwner matches rows whose owner account exists and is not banned.
const liveOwner = "EXISTS (SELECT 1 FROM accounts a WHERE a.id = obituaries.owner_id AND a.deleted_at IS NULL)"

func toObituary(m obituary.ObituaryModel) domain.Obituary {
	o := domain.Obituary{
		ID:          m.ID,
		FullName:    m.FullName,
		DateOfBirth: m.DateOfBirth.UTC(),
		DateOfDeath: m.DateOfDeath.UTC(),
		Biography:   m.Biography,
		OwnerID:     m.OwnerID,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.PhotoPath != nil {
		o.PhotoRef = *m.PhotoPath
	}
	return o
}

func fromObituary(o *domain.Obituary) obituary.ObituaryModel {
	m := obituary.ObituaryModel{
		ID:          o.ID,
		FullName:    o.FullName,
		DateOfBirth: o.DateOfBirth,
		DateOfDeath: o.DateOfDeath,
		Biography:   o.Biography,
		OwnerID:     o.OwnerID,
	}
	if o.PhotoRef != "" {
		ref := o.PhotoRef
		m.PhotoPath = &ref
	}
	return m
}

func (r *ObituaryRepo) FindByID(ctx context.Context, id int64) (*domain.Obituary, error) {
	var m obituary.ObituaryModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	o := toObituary(m)
	return &o, nil
}

func (r *ObituaryRepo) Query(ctx context.Context, f domain.ObituaryFilter, offset, limit int) ([]domain.Obituary, int64, error) {
	var (
		models []obituary.ObituaryModel
		total  int64
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&obituary.ObituaryModel{})
		if term := f.Term(); term != "" {
			q = q.Where("LOWER(full_name) LIKE ? ESCAPE '!'", "%"+escapeLike(strings.ToLower(term))+"%")
		}
		if f.LiveOwnersOnly {
			q = q.Where(liveOwner)
		}
		if err := q.Count(&total).Error; err != nil {
			return err
		}
		if total == 0 || int64(offset) >= total {
			return nil
		}
		q = q.Order("date_of_death desc, id")
		if offset > 0 {
			q = q.Offset(offset)
		}
		if limit > 0 {
			q = q.Limit(limit)
		}
		return q.Find(&models).Error
	}, r.snapshot...)
	if err != nil {
		return nil, 0, err
	}
	out := make([]domain.Obituary, 0, len(models))
	for _, m := range models {
		out = append(out, toObituary(m))
	}
	return out, total, nil
}

func (r *ObituaryRepo) Create(ctx context.Context, o *domain.Obituary) error {
	m := fromObituary(o)
	m.ID = 0
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return translate(err)
	}
	o.ID, o.CreatedAt, o.UpdatedAt = m.ID, m.CreatedAt, m.UpdatedAt
	return nil
}

func (r *ObituaryRepo) Update(ctx context.Context, o *domain.Obituary) error {
	m := fromObituary(o)
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&obituary.ObituaryModel{}).Where("id = ?", o.ID).
		Updates(map[string]any{
			"full_name":     m.FullName,
			"date_of_birth": m.DateOfBirth,
			"date_of_death": m.DateOfDeath,
			"biography":     m.Biography,
			"photo_path":    m.PhotoPath,
			"updated_at":    now,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		// mysql reports changed rows, not matched rows
		var n int64
		if err := r.db.WithContext(ctx).Model(&obituary.ObituaryModel{}).Where("id = ?", o.ID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return errs.ErrNotFound
		}
	}
	o.UpdatedAt = now
	return nil
}

func (r *ObituaryRepo) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&obituary.ObituaryModel{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *ObituaryRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&obituary.ObituaryModel{}).Count(&n).Error
	return n, err
}
