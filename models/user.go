package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the permission level attached to an identity through its profile.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}

// UserProfile is the user_profiles row keyed by the auth identity id.
type UserProfile struct {
	ID          uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	Email       string    `json:"email" db:"email" gorm:"type:text;not null;default:''"`
	Role        Role      `json:"role" db:"role" gorm:"type:text;not null;default:'viewer'"`
	DisplayName string    `json:"display_name" db:"display_name" gorm:"type:text;not null;default:''"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// User is an auth identity joined with its profile.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	Role         Role       `json:"role"`
	DisplayName  string     `json:"display_name"`
	CreatedAt    time.Time  `json:"created_at"`
	LastSignInAt *time.Time `json:"last_sign_in_at,omitempty"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// EmailLocalPart returns the part of an address before the @, used as the fallback
// display name.
func EmailLocalPart(email string) string {
	if i := strings.Index(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}
