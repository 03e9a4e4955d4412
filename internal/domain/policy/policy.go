// Package policy is the role policy engine for work groups. It answers a
// single question: may a subject holding a given role perform an action,
// optionally against a target member holding another role. It has no side
// effects and never touches storage.
package policy

import "github.com/dcmc-apps/taskmanager/internal/domain"

// Action is a group-scoped operation subject to authorization.
type Action string

const (
	ActionViewWorkGroup      Action = "view_work_group"
	ActionUpdateWorkGroup    Action = "update_work_group"
	ActionDeleteWorkGroup    Action = "delete_work_group"
	ActionTransferOwnership  Action = "transfer_ownership"
	ActionPromoteMember      Action = "promote_member"
	ActionDemoteModerator    Action = "demote_moderator"
	ActionAddMember          Action = "add_member"
	ActionRemoveMember       Action = "remove_member"
	ActionManageProject      Action = "manage_project"
	ActionEditTask           Action = "edit_task"
	ActionArchiveTask        Action = "archive_task"
	ActionDeleteArchivedTask Action = "delete_archived_task"
	ActionDeleteTask         Action = "delete_task"
)

// Decision is the outcome of a policy check.
type Decision bool

const (
	Deny  Decision = false
	Allow Decision = true
)

// Subject is the actor as seen by the policy: its role in the work group
// (domain.RoleNone when it is not a member) and the platform admin flag.
type Subject struct {
	Role    domain.Role
	IsAdmin bool
}

// grant describes what a role may do for one action. A nil targets slice
// means the action is not restricted by the target's role.
type grant struct {
	targets []domain.Role
}

var anyTarget = grant{}

func onlyTargets(roles ...domain.Role) grant {
	return grant{targets: roles}
}

// rules is the complete group-scoped permission table. A role missing from an
// action's entry is denied.
var rules = map[Action]map[domain.Role]grant{
	ActionViewWorkGroup: {
		domain.RoleOwner:     anyTarget,
		domain.RoleModerator: anyTarget,
		domain.RoleMember:    anyTarget,
	},
	ActionUpdateWorkGroup: {
		domain.RoleOwner: anyTarget,
	},
	ActionDeleteWorkGroup: {
		domain.RoleOwner: anyTarget,
	},
	ActionTransferOwnership: {
		domain.RoleOwner: anyTarget,
	},
	ActionPromoteMember: {
		domain.RoleOwner:     anyTarget,
		domain.RoleModerator: anyTarget,
	},
	ActionDemoteModerator: {
		domain.RoleOwner: anyTarget,
	},
	ActionAddMember: {
		domain.RoleOwner:     anyTarget,
		domain.RoleModerator: anyTarget,
	},
	ActionRemoveMember: {
		domain.RoleOwner:     onlyTargets(domain.RoleModerator, domain.RoleMember),
		domain.RoleModerator: onlyTargets(domain.RoleMember),
	},
	ActionManageProject: {
		domain.RoleOwner:     anyTarget,
		domain.RoleModerator: anyTarget,
	},
	ActionEditTask: {
		domain.RoleOwner:     anyTarget,
		domain.RoleModerator: anyTarget,
		domain.RoleMember:    anyTarget,
	},
	ActionArchiveTask: {
		domain.RoleOwner:     anyTarget,
		domain.RoleModerator: anyTarget,
	},
	ActionDeleteArchivedTask: {
		domain.RoleOwner:     anyTarget,
		domain.RoleModerator: anyTarget,
	},
	ActionDeleteTask: {
		domain.RoleOwner:     anyTarget,
		domain.RoleModerator: anyTarget,
	},
}

// Decide returns whether subject may perform action. target is the role of
// the member the action is aimed at, or domain.RoleNone when the action has
// no member target. Platform admins are always allowed.
func Decide(subject Subject, action Action, target domain.Role) Decision {
	if subject.IsAdmin {
		return Allow
	}

	byRole, ok := rules[action]
	if !ok {
		return Deny
	}
	g, ok := byRole[subject.Role]
	if !ok {
		return Deny
	}
	if g.targets == nil {
		return Allow
	}
	for _, r := range g.targets {
		if r == target {
			return Allow
		}
	}
	return Deny
}

// Allowed is shorthand for Decide(...) == Allow.
func Allowed(subject Subject, action Action, target domain.Role) bool {
	return Decide(subject, action, target) == Allow
}

// CanAdministerCatalog reports whether the caller may create, modify or
// delete task status and priority entries. The catalog is global, so only
// platform admins qualify.
func CanAdministerCatalog(isAdmin bool) bool {
	return isAdmin
}
