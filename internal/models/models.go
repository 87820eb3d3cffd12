package models

import (
	"time"
)

// Member is a gym member managed by admins. Email is the natural key used by
// bills, notifications and diet plans.
type Member struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:200;not null" json:"name"`
	Email      string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	FeePackage string    `gorm:"size:100" json:"fee_package"`
	Status     string    `gorm:"size:20;default:active" json:"status"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Bill is a monthly fee record. MemberID and Email are copied at creation and
// are not kept in sync with the member afterwards.
type Bill struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	MemberID  uint       `gorm:"index" json:"member_id"`
	Email     string     `gorm:"index;size:255;not null" json:"email"`
	Amount    float64    `gorm:"not null" json:"amount"`
	Month     string     `gorm:"size:20;not null" json:"month"`
	Paid      bool       `gorm:"default:false" json:"paid"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
	PaidAt    *time.Time `json:"paid_at"`
}

type Notification struct {
	ID      uint      `gorm:"primaryKey" json:"id"`
	Email   string    `gorm:"index;size:255;not null" json:"email"`
	Message string    `gorm:"type:text;not null" json:"message"`
	Ts      time.Time `gorm:"column:ts;index" json:"ts"`
	Read    bool      `gorm:"default:false" json:"read"`
}

type Supplement struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:200;not null" json:"name"`
	Price     float64   `gorm:"not null" json:"price"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

type DietPlan struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Email      string    `gorm:"index;size:255;not null" json:"email"`
	Plan       string    `gorm:"type:text;not null" json:"plan"`
	AssignedAt time.Time `gorm:"index" json:"assigned_at"`
}

// TableName overrides
func (Member) TableName() string       { return "members" }
func (Bill) TableName() string         { return "bills" }
func (Notification) TableName() string { return "notifications" }
func (Supplement) TableName() string   { return "supplements" }
func (DietPlan) TableName() string     { return "diet_plans" }
