// Package store is the persistence collaborator for users and teams.
package store

import (
	"context"
	"errors"

	"teamroster/models"
	"teamroster/policy"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByID(ctx context.Context, id uint) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context, scope policy.Scope) ([]models.User, error)
	UpdateUser(ctx context.Context, id uint, fields map[string]interface{}) (*models.User, error)
	DeleteUser(ctx context.Context, id uint) error
}

type TeamStore interface {
	// CreateTeam inserts the team and points its manager's TeamID at it.
	CreateTeam(ctx context.Context, team *models.Team) error
	FindTeamByID(ctx context.Context, id uint) (*models.Team, error)
	FindTeamByManager(ctx context.Context, managerID uint) (*models.Team, error)
	ListTeams(ctx context.Context, scope policy.Scope) ([]models.Team, error)
	RenameTeam(ctx context.Context, id uint, name string) (*models.Team, error)
	// DeleteTeam removes the team and clears TeamID on its manager and
	// members atomically. It returns the ids of the detached users.
	DeleteTeam(ctx context.Context, team *models.Team) ([]uint, error)
	// ClearDanglingTeamRefs nulls TeamID on users whose team no longer
	// exists and returns the affected user ids.
	ClearDanglingTeamRefs(ctx context.Context) ([]uint, error)
}

type Store interface {
	UserStore
	TeamStore
}
