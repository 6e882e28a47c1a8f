package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"obituary-service/internal/domain"
	"obituary-service/internal/errs"
	"obituary-service/internal/feature/account"
)

type AccountRepo struct{ db *gorm.DB }

func NewAccountRepo(db *gorm.DB) *AccountRepo { return &AccountRepo{db: db} }

var _ domain.AccountRepository = (*AccountRepo)(nil)

func toAccount(m account.AccountModel) domain.Account {
	return domain.Account{
		ID:           m.ID,
		Email:        m.Email,
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		Roles:        m.RoleNames(),
		CreatedAt:    m.CreatedAt,
	}
}

func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	m := account.AccountModel{
		ID:           a.ID,
		Email:        strings.ToLower(strings.TrimSpace(a.Email)),
		Username:     a.Username,
		PasswordHash: a.PasswordHash,
	}
	for _, role := range a.Roles {
		m.Roles = append(m.Roles, account.RoleModel{AccountID: a.ID, Role: role})
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&m).Error
	})
	if err != nil {
		return translate(err)
	}
	a.CreatedAt = m.CreatedAt
	return nil
}

func (r *AccountRepo) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	var m account.AccountModel
	err := r.db.WithContext(ctx).Preload("Roles").First(&m, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	a := toAccount(m)
	return &a, nil
}

func (r *AccountRepo) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	var m account.AccountModel
	err := r.db.WithContext(ctx).Preload("Roles").
		First(&m, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error
	if err != nil {
		return nil, translate(err)
	}
	a := toAccount(m)
	return &a, nil
}

func (r *AccountRepo) exists(tx *gorm.DB, id string) error {
	var n int64
	if err := tx.Model(&account.AccountModel{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *AccountRepo) GetRoles(ctx context.Context, id string) ([]string, error) {
	tx := r.db.WithContext(ctx)
	if err := r.exists(tx, id); err != nil {
		return nil, err
	}
	var roles []string
	err := tx.Model(&account.RoleModel{}).Where("account_id = ?", id).Order("role").Pluck("role", &roles).Error
	return roles, err
}

func (r *AccountRepo) AddRole(ctx context.Context, id, role string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.exists(tx, id); err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&account.RoleModel{AccountID: id, Role: role}).Error
	})
}

func (r *AccountRepo) EmailsByID(ctx context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []struct {
		ID    string
		Email string
	}
	err := r.db.WithContext(ctx).Model(&account.AccountModel{}).
		Select("id", "email").Where("id IN ?", ids).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row.Email
	}
	return out, nil
}

func (r *AccountRepo) List(ctx context.Context, search string, offset, limit int) ([]domain.Account, int64, error) {
	tx := r.db.WithContext(ctx).Model(&account.AccountModel{})
	if term := strings.ToLower(strings.TrimSpace(search)); term != "" {
		like := "%" + escapeLike(term) + "%"
		tx = tx.Where("(LOWER(email) LIKE ? ESCAPE '!' OR LOWER(username) LIKE ? ESCAPE '!')", like, like)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var models []account.AccountModel
	if err := tx.Preload("Roles").Offset(offset).Limit(limit).Order("created_at desc, id").Find(&models).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.Account, 0, len(models))
	for _, m := range models {
		out = append(out, toAccount(m))
	}
	return out, total, nil
}

func (r *AccountRepo) SoftDelete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&account.AccountModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *AccountRepo) Purge(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("account_id = ?", id).Delete(&account.RoleModel{}).Error; err != nil {
			return err
		}
		res := tx.Unscoped().Where("id = ?", id).Delete(&account.AccountModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.ErrNotFound
		}
		return nil
	})
}
