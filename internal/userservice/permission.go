package userservice

import (
	"errors"

	"github.com/google/uuid"
)

var ErrForbidden = errors.New("forbidden")

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Authorize decides whether actor may perform action on a post written by authorID.
// authorID is ignored for ActionCreate.
func Authorize(actor *User, action Action, authorID uuid.UUID) error {
	if actor == nil || actor.IsAnonymous() {
		return ErrForbidden
	}

	switch action {
	case ActionCreate:
		if actor.HasRole(RoleAdmin, RoleEditor) {
			return nil
		}
	case ActionUpdate, ActionDelete:
		if actor.HasRole(RoleAdmin) {
			return nil
		}
		if actor.HasRole(RoleEditor) && actor.ID == authorID {
			return nil
		}
	}

	return ErrForbidden
}

func (u *User) IsAnonymous() bool {
	return u == &AnonymousUser
}

func (u *User) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}

	return false
}
