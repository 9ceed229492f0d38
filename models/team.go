package models

import "time"

// Team is managed by exactly one team manager. A user's TeamID points back at
// the team they belong to; the manager's TeamID is kept in sync on create and
// delete.
type Team struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	ManagerID uint      `gorm:"not null;index" json:"manager_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Manager *Manager `gorm:"foreignKey:ManagerID;references:ID" json:"manager,omitempty"`
}

// Manager is the public projection of the managing user embedded in team
// responses.
type Manager struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// TableName maps the projection onto the users table.
func (Manager) TableName() string {
	return "users"
}
