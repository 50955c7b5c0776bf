package model

import (
	"time"
)

type Role string

const (
	RoleUser    Role = "user"
	RoleManager Role = "manager"
)

// Valid reports whether r is one of the two known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleManager:
		return true
	}
	return false
}

// DashboardPath is where a freshly authenticated caller is sent.
func (r Role) DashboardPath() string {
	switch r {
	case RoleManager:
		return "/dashboard/manager"
	case RoleUser:
		return "/dashboard/user"
	}
	return "/login"
}

type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"` // Not exposed
	Role           Role      `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UserSummary is the creator data embedded in entries.
type UserSummary struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// UserFilter narrows user listings. Zero values mean "any".
type UserFilter struct {
	Role Role
}

// UserPatch carries the fields of a partial update; nil means unchanged.
type UserPatch struct {
	Email          *string
	HashedPassword *string
	Role           *Role
}

func (p UserPatch) Empty() bool {
	return p.Email == nil && p.HashedPassword == nil && p.Role == nil
}
