// Package authz decides whether an actor may perform an action on a todo
// or group. It does no I/O: callers resolve the facts from their stores
// and ask Decide for a verdict before touching data.
package authz

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	apperrors "github.com/xyz-asif/todoshare/pkg/errors"
)

type Action string

const (
	TodoCreate Action = "todo:create"
	TodoRead   Action = "todo:read"
	TodoUpdate Action = "todo:update"
	TodoToggle Action = "todo:toggle"
	TodoDelete Action = "todo:delete"

	GroupRead            Action = "group:read"
	GroupJoin            Action = "group:join"
	GroupDelete          Action = "group:delete"
	GroupListMembers     Action = "group:members:list"
	GroupAddMember       Action = "group:members:add"
	GroupRemoveMember    Action = "group:members:remove"
	TodoShare            Action = "todo:share"
	TodoUnshare          Action = "todo:unshare"
	GroupListSharedTodos Action = "group:shared-todos:list"
)

// Relationship is something that must hold between the actor and the resource.
type Relationship int

const (
	GroupExists Relationship = iota + 1
	GroupMember
	GroupOwner
	TodoExists
	TodoOwner
)

func (r Relationship) String() string {
	switch r {
	case GroupExists:
		return "group-exists"
	case GroupMember:
		return "group-member"
	case GroupOwner:
		return "group-owner"
	case TodoExists:
		return "todo-exists"
	case TodoOwner:
		return "todo-owner"
	default:
		return "unknown"
	}
}

// Facts is what the caller learned about the resource before asking.
// Only the fields named by the action's rule are consulted.
type Facts struct {
	GroupFound   bool
	GroupOwnerID primitive.ObjectID
	Member       bool
	TodoFound    bool
	TodoOwnerID  primitive.ObjectID
}

type rule struct {
	requires []Relationship
	// hideOwnership reports a missing todo ownership as "not found"
	// so the existence of another user's todo is never disclosed.
	hideOwnership bool
	ownerReason   string
}

var rules = map[Action]rule{
	TodoCreate: {},
	TodoRead:   {requires: []Relationship{TodoExists, TodoOwner}, hideOwnership: true},
	TodoUpdate: {requires: []Relationship{TodoExists, TodoOwner}, hideOwnership: true},
	TodoToggle: {requires: []Relationship{TodoExists, TodoOwner}, hideOwnership: true},
	TodoDelete: {requires: []Relationship{TodoExists, TodoOwner}, hideOwnership: true},

	GroupRead:         {requires: []Relationship{GroupExists, GroupMember}},
	GroupJoin:         {requires: []Relationship{GroupExists}},
	GroupDelete:       {requires: []Relationship{GroupExists, GroupOwner}, ownerReason: "Only group owners can delete a group"},
	GroupListMembers:  {requires: []Relationship{GroupExists, GroupOwner}},
	GroupAddMember:    {requires: []Relationship{GroupExists, GroupOwner}},
	GroupRemoveMember: {requires: []Relationship{GroupExists, GroupOwner}},

	TodoShare: {
		requires:    []Relationship{GroupExists, GroupMember, TodoExists, TodoOwner},
		ownerReason: "Only todo owners can share",
	},
	TodoUnshare: {
		requires:    []Relationship{GroupExists, GroupMember, TodoExists, TodoOwner},
		ownerReason: "Only todo owners can unshare",
	},
	GroupListSharedTodos: {requires: []Relationship{GroupExists, GroupMember}},
}

// Requirements lists the relationships an action needs, in evaluation order.
func Requirements(action Action) []Relationship {
	r, ok := rules[action]
	if !ok {
		return nil
	}
	return append([]Relationship(nil), r.requires...)
}

// Requires reports whether action depends on rel. Callers use it to skip
// lookups whose fact the rule never reads.
func Requires(action Action, rel Relationship) bool {
	for _, r := range rules[action].requires {
		if r == rel {
			return true
		}
	}
	return false
}

// Decision is the verdict for one (actor, action, facts) triple.
type Decision struct {
	Action  Action
	Allowed bool
	// Unmet is the first relationship that did not hold. Zero when allowed.
	Unmet  Relationship
	Reason string
	err    *apperrors.AppError
}

// Err returns nil when the action is allowed, otherwise the client-facing error.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	if d.err == nil {
		return apperrors.Forbidden("Action not permitted", "FORBIDDEN")
	}
	return d.err
}

// Decide evaluates the rule for action. Unknown actions are denied.
func Decide(actor primitive.ObjectID, action Action, facts Facts) Decision {
	r, ok := rules[action]
	if !ok {
		return deny(action, 0, apperrors.Forbidden("Action not permitted", "FORBIDDEN"))
	}

	for _, rel := range r.requires {
		if err := check(actor, rel, r, facts); err != nil {
			return deny(action, rel, err)
		}
	}

	return Decision{Action: action, Allowed: true}
}

func check(actor primitive.ObjectID, rel Relationship, r rule, facts Facts) *apperrors.AppError {
	switch rel {
	case GroupExists:
		if !facts.GroupFound {
			return apperrors.NotFound("Group not found", "GROUP_NOT_FOUND")
		}
	case GroupMember:
		if !facts.Member {
			return apperrors.Forbidden("User is not a group member", "NOT_GROUP_MEMBER")
		}
	case GroupOwner:
		if actor.IsZero() || facts.GroupOwnerID != actor {
			reason := r.ownerReason
			if reason == "" {
				reason = "Only group owners can manage membership"
			}
			return apperrors.Forbidden(reason, "NOT_GROUP_OWNER")
		}
	case TodoExists:
		if !facts.TodoFound {
			return apperrors.NotFound("Todo not found", "TODO_NOT_FOUND")
		}
	case TodoOwner:
		if actor.IsZero() || facts.TodoOwnerID != actor {
			if r.hideOwnership {
				return apperrors.NotFound("Todo not found", "TODO_NOT_FOUND")
			}
			reason := r.ownerReason
			if reason == "" {
				reason = "Only todo owners can do this"
			}
			return apperrors.Forbidden(reason, "NOT_TODO_OWNER")
		}
	}
	return nil
}

func deny(action Action, rel Relationship, err *apperrors.AppError) Decision {
	return Decision{
		Action: action,
		Unmet:  rel,
		Reason: err.Message,
		err:    err,
	}
}
