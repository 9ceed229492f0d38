// Package policy decides whether an authenticated identity may perform an
// operation on a user or team.
//
// Every handler consults the same rule table. Rules are evaluated in order and
// the first one that matches allows the request; if none matches the request
// is denied. The engine performs no I/O: callers resolve the target from the
// store first, so a missing resource surfaces as NotFound before any
// permission check runs.
package policy

import (
	"fmt"

	"teamroster/apperr"
	"teamroster/models"
)

// Operation is the kind of access requested.
type Operation string

const (
	OpRead   Operation = "read"
	OpWrite  Operation = "write"
	OpDelete Operation = "delete"
	OpCreate Operation = "create"
	// OpAssign changes a user's role or team membership. Only the admin
	// rule grants it, so self and team-manager edits cannot touch either.
	OpAssign Operation = "assign"
)

// Kind names the resource type a rule applies to.
type Kind string

const (
	KindUser Kind = "user"
	KindTeam Kind = "team"
)

// Identity is the acting principal, built from verified token claims.
type Identity struct {
	ID     uint
	Role   models.Role
	TeamID *uint
}

// Resource is the policy view of a target record.
type Resource struct {
	Kind      Kind
	ID        uint
	TeamID    *uint
	ManagerID uint
}

// UserResource projects a stored user onto the policy view.
func UserResource(u *models.User) Resource {
	return Resource{Kind: KindUser, ID: u.ID, TeamID: u.TeamID}
}

// TeamResource projects a stored team onto the policy view.
func TeamResource(t *models.Team) Resource {
	return Resource{Kind: KindTeam, ID: t.ID, ManagerID: t.ManagerID}
}

// Rule grants access when Match returns true.
type Rule struct {
	Name  string
	Match func(id Identity, res Resource, op Operation) bool
}

// Decision is the outcome of an evaluation. Rule is empty on deny.
type Decision struct {
	Allowed bool
	Rule    string
}

// DefaultRules is the roster's rule table in priority order.
var DefaultRules = []Rule{
	{
		Name: "admin",
		Match: func(id Identity, _ Resource, _ Operation) bool {
			return id.Role == models.RoleAdmin
		},
	},
	{
		Name: "self",
		Match: func(id Identity, res Resource, op Operation) bool {
			return res.Kind == KindUser &&
				(op == OpRead || op == OpWrite) &&
				id.ID == res.ID
		},
	},
	{
		Name: "team-manager-member",
		Match: func(id Identity, res Resource, op Operation) bool {
			if op == OpDelete && id.ID == res.ID {
				return false
			}
			return res.Kind == KindUser &&
				(op == OpRead || op == OpWrite || op == OpDelete) &&
				id.Role == models.RoleTeamManager &&
				models.SameTeam(id.TeamID, res.TeamID)
		},
	},
	{
		Name: "team-manager-owner",
		Match: func(id Identity, res Resource, _ Operation) bool {
			return res.Kind == KindTeam &&
				id.Role == models.RoleTeamManager &&
				id.ID == res.ManagerID
		},
	},
}

// Engine evaluates a rule table.
type Engine struct {
	rules []Rule
}

// NewEngine returns an engine over rules, or DefaultRules when none are given.
func NewEngine(rules ...Rule) *Engine {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Engine{rules: rules}
}

// Evaluate returns the first matching rule's decision.
func (e *Engine) Evaluate(id Identity, res Resource, op Operation) Decision {
	for _, rule := range e.rules {
		if rule.Match(id, res, op) {
			return Decision{Allowed: true, Rule: rule.Name}
		}
	}
	return Decision{}
}

// Authorize returns an error wrapping apperr.ErrForbidden when the decision
// is deny.
func (e *Engine) Authorize(id Identity, res Resource, op Operation) error {
	if e.Evaluate(id, res, op).Allowed {
		return nil
	}
	return apperr.Wrap(apperr.ErrForbidden, "Access denied.",
		fmt.Errorf("%s %d may not %s %s %d", id.Role, id.ID, op, res.Kind, res.ID))
}

// Scope narrows list queries. All wins over the other fields; otherwise a
// record matches when its team or manager equals the non-nil filter. Empty
// reports a scope that can match nothing.
type Scope struct {
	All       bool
	TeamID    *uint
	ManagerID *uint
}

// Empty reports whether the scope can match no record.
func (s Scope) Empty() bool {
	return !s.All && s.TeamID == nil && s.ManagerID == nil
}

// ListScope decides which records of kind the identity may list.
func (e *Engine) ListScope(id Identity, kind Kind) (Scope, error) {
	switch id.Role {
	case models.RoleAdmin:
		return Scope{All: true}, nil
	case models.RoleTeamManager:
		if kind == KindTeam {
			managerID := id.ID
			return Scope{ManagerID: &managerID}, nil
		}
		return Scope{TeamID: id.TeamID}, nil
	default:
		return Scope{}, apperr.Forbidden("Access denied.")
	}
}
