package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"teamroster/apperr"
	"teamroster/models"
)

func uintPtr(v uint) *uint { return &v }

var allOps = []Operation{OpRead, OpWrite, OpDelete, OpCreate, OpAssign}

func TestAdminAlwaysAllowed(t *testing.T) {
	engine := NewEngine()
	admin := Identity{ID: 1, Role: models.RoleAdmin}

	targets := []Resource{
		{Kind: KindUser, ID: 2},
		{Kind: KindUser, ID: 3, TeamID: uintPtr(9)},
		{Kind: KindTeam, ID: 4, ManagerID: 7},
	}
	for _, res := range targets {
		for _, op := range allOps {
			d := engine.Evaluate(admin, res, op)
			assert.True(t, d.Allowed, "admin %s %s %d", op, res.Kind, res.ID)
			assert.Equal(t, "admin", d.Rule)
		}
	}
}

func TestSelfServiceRegardlessOfRole(t *testing.T) {
	engine := NewEngine()
	for _, role := range []models.Role{models.RoleUser, models.RoleTeamManager, models.RoleAdmin} {
		id := Identity{ID: 5, Role: role}
		target := Resource{Kind: KindUser, ID: 5}
		for _, op := range []Operation{OpRead, OpWrite} {
			assert.NoError(t, engine.Authorize(id, target, op), "%s %s self", role, op)
		}
	}
}

func TestSelfDeleteNotGrantedToPlainUser(t *testing.T) {
	engine := NewEngine()
	err := engine.Authorize(Identity{ID: 5, Role: models.RoleUser}, Resource{Kind: KindUser, ID: 5}, OpDelete)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestSelfDeleteNotGrantedToTeamManager(t *testing.T) {
	engine := NewEngine()
	mgr := Identity{ID: 10, Role: models.RoleTeamManager, TeamID: uintPtr(3)}
	self := Resource{Kind: KindUser, ID: 10, TeamID: uintPtr(3)}

	assert.ErrorIs(t, engine.Authorize(mgr, self, OpDelete), apperr.ErrForbidden)
	assert.NoError(t, engine.Authorize(mgr, self, OpWrite))
	assert.NoError(t, engine.Authorize(mgr, Resource{Kind: KindUser, ID: 11, TeamID: uintPtr(3)}, OpDelete))
}

func TestTeamManagerUserScoping(t *testing.T) {
	engine := NewEngine()

	tests := []struct {
		name       string
		actorTeam  *uint
		targetTeam *uint
		allowed    bool
	}{
		{"same team", uintPtr(3), uintPtr(3), true},
		{"different team", uintPtr(3), uintPtr(4), false},
		{"actor has no team", nil, uintPtr(3), false},
		{"target has no team", uintPtr(3), nil, false},
		{"neither has a team", nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := Identity{ID: 10, Role: models.RoleTeamManager, TeamID: tt.actorTeam}
			target := Resource{Kind: KindUser, ID: 11, TeamID: tt.targetTeam}
			for _, op := range []Operation{OpRead, OpWrite, OpDelete} {
				assert.Equal(t, tt.allowed, engine.Evaluate(manager, target, op).Allowed, "op %s", op)
			}
		})
	}
}

func TestPlainUserSameTeamDenied(t *testing.T) {
	engine := NewEngine()
	member := Identity{ID: 20, Role: models.RoleUser, TeamID: uintPtr(3)}
	target := Resource{Kind: KindUser, ID: 21, TeamID: uintPtr(3)}
	assert.False(t, engine.Evaluate(member, target, OpRead).Allowed)
}

func TestTeamOwnership(t *testing.T) {
	engine := NewEngine()
	team := Resource{Kind: KindTeam, ID: 1, ManagerID: 10}

	owner := Identity{ID: 10, Role: models.RoleTeamManager}
	other := Identity{ID: 11, Role: models.RoleTeamManager}
	user := Identity{ID: 10, Role: models.RoleUser}

	assert.NoError(t, engine.Authorize(owner, team, OpDelete))
	assert.NoError(t, engine.Authorize(owner, team, OpCreate))
	assert.ErrorIs(t, engine.Authorize(other, team, OpDelete), apperr.ErrForbidden)
	assert.ErrorIs(t, engine.Authorize(user, team, OpWrite), apperr.ErrForbidden)
}

func TestUserCreationAdminOnly(t *testing.T) {
	engine := NewEngine()
	newUser := Resource{Kind: KindUser, TeamID: uintPtr(3)}

	assert.NoError(t, engine.Authorize(Identity{ID: 1, Role: models.RoleAdmin}, newUser, OpCreate))
	assert.Error(t, engine.Authorize(Identity{ID: 2, Role: models.RoleTeamManager, TeamID: uintPtr(3)}, newUser, OpCreate))
	assert.Error(t, engine.Authorize(Identity{ID: 0, Role: models.RoleUser}, newUser, OpCreate))
}

func TestRuleOrderFirstMatchWins(t *testing.T) {
	engine := NewEngine()
	d := engine.Evaluate(Identity{ID: 1, Role: models.RoleAdmin}, Resource{Kind: KindUser, ID: 1}, OpRead)
	assert.Equal(t, "admin", d.Rule)

	d = engine.Evaluate(Identity{ID: 4, Role: models.RoleTeamManager, TeamID: uintPtr(2)}, Resource{Kind: KindUser, ID: 4, TeamID: uintPtr(2)}, OpRead)
	assert.Equal(t, "self", d.Rule)
}

func TestCustomRules(t *testing.T) {
	engine := NewEngine(Rule{
		Name:  "read-only",
		Match: func(_ Identity, _ Resource, op Operation) bool { return op == OpRead },
	})
	assert.True(t, engine.Evaluate(Identity{}, Resource{Kind: KindTeam}, OpRead).Allowed)
	assert.False(t, engine.Evaluate(Identity{Role: models.RoleAdmin}, Resource{Kind: KindTeam}, OpWrite).Allowed)
}

func TestListScope(t *testing.T) {
	engine := NewEngine()

	scope, err := engine.ListScope(Identity{ID: 1, Role: models.RoleAdmin}, KindUser)
	require.NoError(t, err)
	assert.True(t, scope.All)

	scope, err = engine.ListScope(Identity{ID: 2, Role: models.RoleTeamManager, TeamID: uintPtr(7)}, KindUser)
	require.NoError(t, err)
	require.NotNil(t, scope.TeamID)
	assert.Equal(t, uint(7), *scope.TeamID)
	assert.False(t, scope.Empty())

	scope, err = engine.ListScope(Identity{ID: 2, Role: models.RoleTeamManager}, KindUser)
	require.NoError(t, err)
	assert.True(t, scope.Empty())

	scope, err = engine.ListScope(Identity{ID: 2, Role: models.RoleTeamManager}, KindTeam)
	require.NoError(t, err)
	require.NotNil(t, scope.ManagerID)
	assert.Equal(t, uint(2), *scope.ManagerID)

	_, err = engine.ListScope(Identity{ID: 3, Role: models.RoleUser}, KindUser)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestResourceProjections(t *testing.T) {
	u := &models.User{ID: 3, TeamID: uintPtr(8)}
	res := UserResource(u)
	assert.Equal(t, KindUser, res.Kind)
	assert.Equal(t, uint(3), res.ID)
	assert.Equal(t, uint(8), *res.TeamID)

	team := &models.Team{ID: 8, ManagerID: 3}
	res = TeamResource(team)
	assert.Equal(t, KindTeam, res.Kind)
	assert.Equal(t, uint(3), res.ManagerID)
}

func TestAssignAdminOnly(t *testing.T) {
	engine := NewEngine()
	target := Resource{Kind: KindUser, ID: 11, TeamID: uintPtr(3)}

	assert.NoError(t, engine.Authorize(Identity{ID: 1, Role: models.RoleAdmin}, target, OpAssign))
	assert.ErrorIs(t, engine.Authorize(Identity{ID: 10, Role: models.RoleTeamManager, TeamID: uintPtr(3)}, target, OpAssign), apperr.ErrForbidden)
	assert.ErrorIs(t, engine.Authorize(Identity{ID: 11, Role: models.RoleUser, TeamID: uintPtr(3)}, target, OpAssign), apperr.ErrForbidden)
}
