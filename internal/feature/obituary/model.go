package obituary

import "time"

type ObituaryModel struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	FullName    string    `gorm:"size:200;not null;index"`
	DateOfBirth time.Time `gorm:"not null"`
	DateOfDeath time.Time `gorm:"not null;index"`
	Biography   string    `gorm:"type:text;not null"`
	PhotoPath   *string   `gorm:"size:255"`
	OwnerID     string    `gorm:"type:varchar(36);not null;index"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (ObituaryModel) TableName() string { return "obituaries" }
