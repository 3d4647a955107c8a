package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// UserRole represents the roles carried in access tokens.
type UserRole string

const (
	RoleAdmin        UserRole = "ADMIN"
	RolePractitioner UserRole = "PRACTITIONER"
)

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	FullName string   `json:"full_name,omitempty"`
	GroupID  string   `json:"group_id,omitempty"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the caller may bypass the pre-slot freeze and decide change requests.
func (c *JWTClaims) IsAdmin() bool {
	return c != nil && c.Role == RoleAdmin
}
