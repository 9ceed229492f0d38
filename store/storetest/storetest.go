// Package storetest opens throwaway SQLite databases for tests.
package storetest

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"teamroster/config"
	"teamroster/models"
)

// NewDB returns a migrated in-memory database private to t.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := config.GormConfig()
	cfg.Logger = logger.Default.LogMode(logger.Silent)

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), cfg)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get DB instance: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

// SeedUser inserts a user with a placeholder password hash.
func SeedUser(t *testing.T, db *gorm.DB, username string, role models.Role, teamID *uint) *models.User {
	t.Helper()

	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Role:         role,
		TeamID:       teamID,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to seed user %s: %v", username, err)
	}
	return user
}

// SeedTeam inserts a team and points the manager at it.
func SeedTeam(t *testing.T, db *gorm.DB, name string, manager *models.User) *models.Team {
	t.Helper()

	team := &models.Team{Name: name, ManagerID: manager.ID}
	if err := db.Create(team).Error; err != nil {
		t.Fatalf("Failed to seed team %s: %v", name, err)
	}
	if err := db.Model(manager).Update("team_id", team.ID).Error; err != nil {
		t.Fatalf("Failed to link manager %s: %v", manager.Username, err)
	}
	manager.TeamID = &team.ID
	return team
}
