// Package model defines domain entities for the application.
package model

import (
	"slices"
	"time"
)

// Role constants. Every user implicitly holds RoleUser.
const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

// ValidRoles contains all assignable roles.
var ValidRoles = []string{RoleUser, RoleAdmin}

// User owns products and API tokens.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Roles        []string  `json:"roles"`
	PasswordHash string    `json:"-"` // Never serialize
	CreatedAt    time.Time `json:"created_at"`
}

// EffectiveRoles returns the stored roles plus the implied RoleUser.
func (u *User) EffectiveRoles() []string {
	return withImpliedRole(u.Roles)
}

// HasRole reports whether the user holds the given role.
func (u *User) HasRole(role string) bool {
	return slices.Contains(u.EffectiveRoles(), role)
}

func withImpliedRole(roles []string) []string {
	out := make([]string, 0, len(roles)+1)
	for _, r := range roles {
		if !slices.Contains(out, r) {
			out = append(out, r)
		}
	}
	if !slices.Contains(out, RoleUser) {
		out = append(out, RoleUser)
	}
	return out
}
