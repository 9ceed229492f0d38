package models

import "time"

// Role is the coarse authorization role carried by every user and token.
type Role string

const (
	RoleUser        Role = "user"
	RoleAdmin       Role = "admin"
	RoleTeamManager Role = "teamManager"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleTeamManager:
		return true
	}
	return false
}

// User represents an account in the roster
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         Role      `gorm:"type:varchar(32);not null;default:'user'" json:"role"`
	TeamID       *uint     `gorm:"index" json:"team_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SameTeam reports whether both users reference the same, non-nil team.
func SameTeam(a, b *uint) bool {
	return a != nil && b != nil && *a == *b
}
