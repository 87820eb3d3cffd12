package models

import "time"

// Credential holds the local sign-in secret for a principal.
type Credential struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UID          string    `gorm:"column:uid;uniqueIndex;size:64;not null" json:"uid"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Credential) TableName() string { return "credentials" }
