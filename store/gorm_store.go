package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"teamroster/models"
	"teamroster/policy"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s *GormStore) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) ListUsers(ctx context.Context, scope policy.Scope) ([]models.User, error) {
	users := []models.User{}
	if scope.Empty() || (!scope.All && scope.TeamID == nil) {
		return users, nil
	}

	q := s.db.WithContext(ctx).Order("id")
	if !scope.All {
		q = q.Where("team_id = ?", *scope.TeamID)
	}
	if err := q.Find(&users).Error; err != nil {
		return nil, translate(err)
	}
	return users, nil
}

func (s *GormStore) UpdateUser(ctx context.Context, id uint, fields map[string]interface{}) (*models.User, error) {
	if _, err := s.FindUserByID(ctx, id); err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields).Error
		if err != nil {
			return nil, translate(err)
		}
	}
	return s.FindUserByID(ctx, id)
}

func (s *GormStore) DeleteUser(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) CreateTeam(ctx context.Context, team *models.Team) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(team).Error; err != nil {
			return translate(err)
		}
		return tx.Model(&models.User{}).
			Where("id = ?", team.ManagerID).
			Update("team_id", team.ID).Error
	})
}

func (s *GormStore) FindTeamByID(ctx context.Context, id uint) (*models.Team, error) {
	var team models.Team
	if err := s.db.WithContext(ctx).Preload("Manager").First(&team, id).Error; err != nil {
		return nil, translate(err)
	}
	return &team, nil
}

func (s *GormStore) FindTeamByManager(ctx context.Context, managerID uint) (*models.Team, error) {
	var team models.Team
	err := s.db.WithContext(ctx).
		Preload("Manager").
		Where("manager_id = ?", managerID).
		Order("id").
		First(&team).Error
	if err != nil {
		return nil, translate(err)
	}
	return &team, nil
}

func (s *GormStore) ListTeams(ctx context.Context, scope policy.Scope) ([]models.Team, error) {
	teams := []models.Team{}
	if scope.Empty() {
		return teams, nil
	}

	q := s.db.WithContext(ctx).Preload("Manager").Order("id")
	if !scope.All {
		if scope.ManagerID != nil {
			q = q.Where("manager_id = ?", *scope.ManagerID)
		}
		if scope.TeamID != nil {
			q = q.Where("id = ?", *scope.TeamID)
		}
	}
	if err := q.Find(&teams).Error; err != nil {
		return nil, translate(err)
	}
	return teams, nil
}

func (s *GormStore) RenameTeam(ctx context.Context, id uint, name string) (*models.Team, error) {
	res := s.db.WithContext(ctx).Model(&models.Team{}).Where("id = ?", id).Update("name", name)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	return s.FindTeamByID(ctx, id)
}

func (s *GormStore) DeleteTeam(ctx context.Context, team *models.Team) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Team{}, team.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Model(&models.User{}).Where("team_id = ?", team.ID).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		return tx.Model(&models.User{}).Where("team_id = ?", team.ID).Update("team_id", nil).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return ids, nil
}

func (s *GormStore) ClearDanglingTeamRefs(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing := tx.Model(&models.Team{}).Select("id")
		if err := tx.Model(&models.User{}).
			Where("team_id IS NOT NULL AND team_id NOT IN (?)", existing).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		return tx.Model(&models.User{}).Where("id IN ?", ids).Update("team_id", nil).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return ids, nil
}
