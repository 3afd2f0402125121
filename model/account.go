package model

import (
	"time"

	"gorm.io/gorm"
)

// Account holds the out-of-band contact address for a subject. The subject is
// the base64 user handle reported by the verification library; username is the
// decoded form kept for legacy lookups.
type Account struct {
	ID        uint   `gorm:"primarykey"`
	Subject   string `gorm:"uniqueIndex;size:128;not null"`
	Username  string `gorm:"uniqueIndex;size:64;not null"`
	Email     string `gorm:"size:256;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == 0 {
		a.ID = GenerateID()
	}
	return nil
}
