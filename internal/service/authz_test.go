package service

import (
	"errors"
	"testing"

	"github.com/taksyapp/tasks-api/internal"
)

func errorCode(err error) internal.ErrorCode {
	var ierr *internal.Error
	if errors.As(err, &ierr) {
		return ierr.Code()
	}
	return internal.ErrorCodeUnknown
}

func TestGateCreateTask(t *testing.T) {
	t.Parallel()

	gate := Gate{}

	if err := gate.CanCreateTask(internal.Principal{}); errorCode(err) != internal.ErrorCodeUnauthenticated {
		t.Errorf("anonymous: got %v, want unauthenticated", err)
	}

	if err := gate.CanCreateTask(internal.Principal{ID: "u1", Role: internal.RoleUser}); errorCode(err) != internal.ErrorCodeUnauthorized {
		t.Errorf("user: got %v, want unauthorized", err)
	}

	if err := gate.CanCreateTask(internal.Principal{ID: "a1", Role: internal.RoleAdmin}); err != nil {
		t.Errorf("admin: got %v, want nil", err)
	}
}

func TestGateDeleteTask(t *testing.T) {
	t.Parallel()

	gate := Gate{}
	task := internal.Task{ID: "t1", AssignedTo: "u1"}

	tests := []struct {
		name      string
		principal internal.Principal
		wantErr   bool
	}{
		{
			name:      "admin may delete",
			principal: internal.Principal{ID: "a1", Role: internal.RoleAdmin},
		},
		{
			name:      "assignee may delete",
			principal: internal.Principal{ID: "u1", Role: internal.RoleUser},
		},
		{
			name:      "unrelated user may not",
			principal: internal.Principal{ID: "u2", Role: internal.RoleUser},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := gate.CanDeleteTask(tt.principal, task)
			if tt.wantErr {
				if errorCode(err) != internal.ErrorCodeUnauthorized {
					t.Errorf("got %v, want unauthorized", err)
				}
				return
			}
			if err != nil {
				t.Errorf("got %v, want nil", err)
			}
		})
	}
}

func TestGateStrictOwnership(t *testing.T) {
	t.Parallel()

	task := internal.Task{ID: "t1", AssignedTo: "u1"}
	stranger := internal.Principal{ID: "u2", Role: internal.RoleUser}

	permissive := Gate{}
	if err := permissive.CanReadTask(stranger, task); err != nil {
		t.Errorf("permissive read: got %v, want nil", err)
	}
	if err := permissive.CanUpdateTask(stranger, task); err != nil {
		t.Errorf("permissive update: got %v, want nil", err)
	}

	strict := Gate{StrictOwnership: true}
	if err := strict.CanReadTask(stranger, task); errorCode(err) != internal.ErrorCodeUnauthorized {
		t.Errorf("strict read: got %v, want unauthorized", err)
	}
	if err := strict.CanUpdateTask(stranger, task); errorCode(err) != internal.ErrorCodeUnauthorized {
		t.Errorf("strict update: got %v, want unauthorized", err)
	}

	assignee := internal.Principal{ID: "u1", Role: internal.RoleUser}
	if err := strict.CanUpdateTask(assignee, task); err != nil {
		t.Errorf("strict assignee update: got %v, want nil", err)
	}
}

func TestGateManageUsers(t *testing.T) {
	t.Parallel()

	gate := Gate{}

	if err := gate.CanManageUsers(internal.Principal{ID: "u1", Role: internal.RoleUser}); errorCode(err) != internal.ErrorCodeUnauthorized {
		t.Errorf("user: got %v, want unauthorized", err)
	}

	if err := gate.CanManageUsers(internal.Principal{ID: "a1", Role: internal.RoleAdmin}); err != nil {
		t.Errorf("admin: got %v, want nil", err)
	}
}
