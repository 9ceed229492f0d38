package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"teamroster/models"
)

// CachedStore serves FindUserByID from Redis and invalidates the entry on
// every write that can change a user row, including team writes that touch
// the manager's TeamID. Cache failures are logged and fall through to the
// underlying store.
type CachedStore struct {
	Store
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger logrus.FieldLogger
}

func NewCachedStore(inner Store, client *redis.Client, ttl time.Duration, logger logrus.FieldLogger) *CachedStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedStore{
		Store:  inner,
		client: client,
		ttl:    ttl,
		prefix: "teamroster:user",
		logger: logger,
	}
}

// cachedUser keeps the password hash, which models.User hides from JSON.
type cachedUser struct {
	models.User
	PasswordHash string `json:"password_hash"`
}

func (s *CachedStore) key(id uint) string {
	return fmt.Sprintf("%s:%d", s.prefix, id)
}

func (s *CachedStore) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err == nil {
		var entry cachedUser
		if jsonErr := json.Unmarshal(raw, &entry); jsonErr == nil {
			user := entry.User
			user.PasswordHash = entry.PasswordHash
			return &user, nil
		}
	} else if err != redis.Nil {
		s.logger.WithError(err).WithField("user_id", id).Warn("user cache read failed")
	}

	user, err := s.Store.FindUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.set(ctx, user)
	return user, nil
}

func (s *CachedStore) UpdateUser(ctx context.Context, id uint, fields map[string]interface{}) (*models.User, error) {
	s.invalidate(ctx, id)
	user, err := s.Store.UpdateUser(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return user, nil
}

func (s *CachedStore) DeleteUser(ctx context.Context, id uint) error {
	err := s.Store.DeleteUser(ctx, id)
	s.invalidate(ctx, id)
	return err
}

func (s *CachedStore) CreateTeam(ctx context.Context, team *models.Team) error {
	err := s.Store.CreateTeam(ctx, team)
	s.invalidate(ctx, team.ManagerID)
	return err
}

func (s *CachedStore) DeleteTeam(ctx context.Context, team *models.Team) ([]uint, error) {
	ids, err := s.Store.DeleteTeam(ctx, team)
	s.invalidate(ctx, append(ids, team.ManagerID)...)
	return ids, err
}

func (s *CachedStore) ClearDanglingTeamRefs(ctx context.Context) ([]uint, error) {
	ids, err := s.Store.ClearDanglingTeamRefs(ctx)
	s.invalidate(ctx, ids...)
	return ids, err
}

func (s *CachedStore) set(ctx context.Context, user *models.User) {
	payload, err := json.Marshal(cachedUser{User: *user, PasswordHash: user.PasswordHash})
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, s.key(user.ID), payload, s.ttl).Err(); err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Warn("user cache write failed")
	}
}

func (s *CachedStore) invalidate(ctx context.Context, ids ...uint) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		s.logger.WithError(err).Warn("user cache invalidation failed")
	}
}
