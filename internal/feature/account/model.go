package account

import (
	"time"

	"gorm.io/gorm"
)

type AccountModel struct {
	ID           string `gorm:"primaryKey;type:varchar(36)"`
	Email        string `gorm:"uniqueIndex;size:191;not null"`
	Username     string `gorm:"size:191;not null"`
	PasswordHash string `gorm:"size:100;not null"`

	Roles []RoleModel `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (AccountModel) TableName() string { return "accounts" }

type RoleModel struct {
	AccountID string `gorm:"primaryKey;type:varchar(36)"`
	Role      string `gorm:"primaryKey;size:16"`
}

func (RoleModel) TableName() string { return "account_roles" }

func (m AccountModel) RoleNames() []string {
	out := make([]string, 0, len(m.Roles))
	for _, r := range m.Roles {
		out = append(out, r.Role)
	}
	return out
}
