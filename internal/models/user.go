package models

import "time"

const (
	RoleAdmin  = "admin"
	RoleMember = "member"

	StatusActive = "active"
)

// User is the account record bound to an authenticated principal.
type User struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UID       string     `gorm:"column:uid;uniqueIndex;size:64;not null" json:"uid"`
	Email     string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Role      string     `gorm:"size:20;default:member" json:"role"`     // admin, member
	Status    string     `gorm:"size:20;default:active" json:"status"`   // active, disabled
	AuthType  string     `gorm:"size:20;default:local" json:"auth_type"` // local, ldap
	LastLogin *time.Time `json:"last_login"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (User) TableName() string { return "users" }

// IsAdmin reports whether the user routes to the admin view.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
