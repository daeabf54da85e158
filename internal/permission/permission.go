// Package permission holds the role hierarchy and the per-action policy
// table for the user-management surface.
package permission

import "github.com/authgate-dev/authgate/internal/domain"

// Action is a user-management operation subject to policy checks.
type Action string

const (
	ActionIndex  Action = "index"
	ActionGet    Action = "get"
	ActionCreate Action = "create"
	ActionPatch  Action = "patch"
	ActionDelete Action = "delete"
)

// roleRank orders roles most-to-least privileged. Roles missing from the map
// fail closed everywhere.
var roleRank = map[domain.Role]int{
	domain.RoleAdmin:     0,
	domain.RoleModerator: 1,
	domain.RoleUser:      2,
}

type policyFunc func(actor *domain.User, target *domain.User) bool

var policies = map[Action]policyFunc{
	// Listing and lookup are always allowed; visibility is narrowed by
	// forced filters instead.
	ActionIndex:  func(*domain.User, *domain.User) bool { return true },
	ActionGet:    func(*domain.User, *domain.User) bool { return true },
	ActionCreate: func(actor, _ *domain.User) bool { return actor.Role == domain.RoleAdmin },
	ActionPatch:  adminOrSelf,
	ActionDelete: adminOrSelf,
}

func adminOrSelf(actor, target *domain.User) bool {
	if actor.Role == domain.RoleAdmin {
		return true
	}
	return target != nil && actor.Id == target.Id
}

// ForcedFilters returns server-injected query constraints applied before any
// caller-supplied filter. A user-role actor may only ever see user-role
// accounts; admins and moderators are unrestricted.
func ForcedFilters(actor *domain.User) domain.UserFilters {
	var filters domain.UserFilters
	if actor.Role == domain.RoleUser {
		filters.Role = domain.RoleUser
	}
	return filters
}

// CanManage reports whether actor is at least as privileged as target.
// Unknown roles on either side fail closed.
func CanManage(actor, target *domain.User) bool {
	actorRank, ok := roleRank[actor.Role]
	if !ok {
		return false
	}
	targetRank, ok := roleRank[target.Role]
	if !ok {
		return false
	}
	return actorRank <= targetRank
}

// Can dispatches to the policy for action. Unrecognized actions fail closed.
// Target may be nil for actions that do not address a specific user.
func Can(action Action, actor, target *domain.User) bool {
	policy, ok := policies[action]
	if !ok {
		return false
	}
	return policy(actor, target)
}
