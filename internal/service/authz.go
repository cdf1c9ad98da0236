package service

import (
	"github.com/taksyapp/tasks-api/internal"
)

//Gate decides whether the acting principal may perform a task or user operation.
//The zero value is the shipped permissive policy: any authenticated principal may
//read and update any task. StrictOwnership additionally requires admin or assignee
//on reads and updates.
type Gate struct {
	StrictOwnership bool
}

//CanCreateTask requires an authenticated admin.
func (g Gate) CanCreateTask(principal internal.Principal) error {
	if principal.IsZero() {
		return errUnauthenticated()
	}
	if principal.Role != internal.RoleAdmin {
		return errUnauthorized()
	}
	return nil
}

//CanListTasks requires authentication only.
func (g Gate) CanListTasks(principal internal.Principal) error {
	if principal.IsZero() {
		return errUnauthenticated()
	}
	return nil
}

//CanReadTask requires authentication, under StrictOwnership also admin or assignee.
func (g Gate) CanReadTask(principal internal.Principal, task internal.Task) error {
	if principal.IsZero() {
		return errUnauthenticated()
	}
	if g.StrictOwnership && !adminOrAssignee(principal, task) {
		return errUnauthorized()
	}
	return nil
}

//CanUpdateTask requires authentication, under StrictOwnership also admin or assignee.
func (g Gate) CanUpdateTask(principal internal.Principal, task internal.Task) error {
	if principal.IsZero() {
		return errUnauthenticated()
	}
	if g.StrictOwnership && !adminOrAssignee(principal, task) {
		return errUnauthorized()
	}
	return nil
}

//CanDeleteTask requires admin or assignee.
func (g Gate) CanDeleteTask(principal internal.Principal, task internal.Task) error {
	if principal.IsZero() {
		return errUnauthenticated()
	}
	if !adminOrAssignee(principal, task) {
		return errUnauthorized()
	}
	return nil
}

//CanManageUsers requires an authenticated admin.
func (g Gate) CanManageUsers(principal internal.Principal) error {
	if principal.IsZero() {
		return errUnauthenticated()
	}
	if principal.Role != internal.RoleAdmin {
		return errUnauthorized()
	}
	return nil
}

func adminOrAssignee(principal internal.Principal, task internal.Task) bool {
	return principal.Role == internal.RoleAdmin || (task.AssignedTo != "" && task.AssignedTo == principal.ID)
}

func errUnauthenticated() error {
	return internal.NewErrorf(internal.ErrorCodeUnauthenticated, "not authenticated")
}

func errUnauthorized() error {
	return internal.NewErrorf(internal.ErrorCodeUnauthorized, "not authorized")
}
