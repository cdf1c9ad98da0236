package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/taksyapp/tasks-api/internal"
	"github.com/taksyapp/tasks-api/internal/service"
)

type fakeTaskRepo struct {
	tasks map[string]internal.Task

	created internal.CreateTaskParams
	updated *internal.UpdateTaskParams
	deleted []string

	selectCriteria internal.TaskCriteria
	selection      internal.TaskSelection
}

func newFakeTaskRepo(tasks ...internal.Task) *fakeTaskRepo {
	repo := &fakeTaskRepo{tasks: map[string]internal.Task{}}
	for _, task := range tasks {
		repo.tasks[task.ID] = task
	}
	return repo
}

func (f *fakeTaskRepo) Create(_ context.Context, params internal.CreateTaskParams) (internal.Task, error) {
	f.created = params
	params = params.ApplyDefaults()

	task := internal.Task{
		ID:          "generated",
		Title:       params.Title,
		Description: params.Description,
		Status:      params.Status,
		Priority:    params.Priority,
		DueDate:     params.DueDate,
		AssignedTo:  params.AssignedTo,
		CreatedBy:   params.CreatedBy,
		Documents:   params.Documents,
	}
	f.tasks[task.ID] = task

	return task, nil
}

func (f *fakeTaskRepo) Find(_ context.Context, id string) (internal.Task, error) {
	task, ok := f.tasks[id]
	if !ok {
		return internal.Task{}, internal.NewErrorf(internal.ErrorCodeNotFound, "task not found")
	}
	return task, nil
}

func (f *fakeTaskRepo) Update(_ context.Context, id string, params internal.UpdateTaskParams) error {
	task, ok := f.tasks[id]
	if !ok {
		return internal.NewErrorf(internal.ErrorCodeNotFound, "task not found")
	}

	f.updated = &params

	if params.Status != nil {
		task.Status = *params.Status
	}
	if params.Title != nil {
		task.Title = *params.Title
	}
	f.tasks[id] = task

	return nil
}

func (f *fakeTaskRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.tasks[id]; !ok {
		return internal.NewErrorf(internal.ErrorCodeNotFound, "task not found")
	}

	delete(f.tasks, id)
	f.deleted = append(f.deleted, id)

	return nil
}

func (f *fakeTaskRepo) Select(_ context.Context, criteria internal.TaskCriteria) (internal.TaskSelection, error) {
	f.selectCriteria = criteria
	return f.selection, nil
}

func (f *fakeTaskRepo) ByAssignee(_ context.Context, userID string) ([]internal.Task, error) {
	var res []internal.Task
	for _, task := range f.tasks {
		if task.AssignedTo == userID {
			res = append(res, task)
		}
	}
	return res, nil
}

type fakeBroker struct {
	created []internal.Task
	updated []internal.Task
	deleted []string
}

func (f *fakeBroker) Created(_ context.Context, task internal.Task) error {
	f.created = append(f.created, task)
	return nil
}

func (f *fakeBroker) Updated(_ context.Context, task internal.Task) error {
	f.updated = append(f.updated, task)
	return nil
}

func (f *fakeBroker) Deleted(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeUserReader struct {
	users []internal.User
}

func (f *fakeUserReader) FindMany(_ context.Context, ids []string) ([]internal.User, error) {
	var res []internal.User
	for _, user := range f.users {
		for _, id := range ids {
			if user.ID == id {
				res = append(res, user)
			}
		}
	}
	return res, nil
}

type fakeSearch struct {
	results internal.SearchResults
}

func (f *fakeSearch) Search(_ context.Context, _ internal.SearchParams) (internal.SearchResults, error) {
	return f.results, nil
}

func newTaskService(repo *fakeTaskRepo, broker *fakeBroker, users *fakeUserReader, gate service.Gate) *service.Task {
	return service.NewTask(zap.NewNop(), repo, &fakeSearch{}, broker, users, gate)
}

var (
	admin = internal.Principal{ID: "admin-1", Role: internal.RoleAdmin}
	user  = internal.Principal{ID: "user-1", Role: internal.RoleUser}
)

func TestTaskCreate(t *testing.T) {
	t.Parallel()

	t.Run("created by always comes from the principal", func(t *testing.T) {
		t.Parallel()

		repo := newFakeTaskRepo()
		broker := &fakeBroker{}
		svc := newTaskService(repo, broker, &fakeUserReader{}, service.Gate{})

		task, err := svc.Create(context.Background(), admin, internal.CreateTaskParams{
			Title:       "Prepare launch",
			Description: "Checklist",
			CreatedBy:   "someone-else",
		})
		require.NoError(t, err)

		assert.Equal(t, admin.ID, repo.created.CreatedBy)
		assert.Equal(t, admin.ID, task.CreatedBy)
		require.Len(t, broker.created, 1)
	})

	t.Run("non admin is rejected", func(t *testing.T) {
		t.Parallel()

		repo := newFakeTaskRepo()
		svc := newTaskService(repo, &fakeBroker{}, &fakeUserReader{}, service.Gate{})

		_, err := svc.Create(context.Background(), user, internal.CreateTaskParams{
			Title:       "Prepare launch",
			Description: "Checklist",
		})
		require.Error(t, err)
		assert.Equal(t, internal.ErrorCodeUnauthorized, errCode(err))
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		t.Parallel()

		repo := newFakeTaskRepo()
		svc := newTaskService(repo, &fakeBroker{}, &fakeUserReader{}, service.Gate{})

		_, err := svc.Create(context.Background(), admin, internal.CreateTaskParams{
			Title:       "Prepare launch",
			Description: "Checklist",
			Status:      "urgent",
		})
		require.Error(t, err)
		assert.Equal(t, internal.ErrorCodeInvalidArgument, errCode(err))
	})
}

func TestTaskList(t *testing.T) {
	t.Parallel()

	t.Run("resolves assignees", func(t *testing.T) {
		t.Parallel()

		repo := newFakeTaskRepo()
		repo.selection = internal.TaskSelection{
			Total: 12,
			Page:  2,
			Tasks: []internal.Task{
				{ID: "t1", AssignedTo: "user-1"},
				{ID: "t2"},
			},
		}
		users := &fakeUserReader{users: []internal.User{
			{ID: "user-1", Email: "one@example.com"},
		}}
		svc := newTaskService(repo, &fakeBroker{}, users, service.Gate{})

		res, err := svc.List(context.Background(), user, internal.TaskCriteria{Page: 2, Limit: 5})
		require.NoError(t, err)

		assert.Equal(t, int64(12), res.Total)
		require.Len(t, res.Tasks, 2)
		require.NotNil(t, res.Tasks[0].Assignee)
		assert.Equal(t, "one@example.com", res.Tasks[0].Assignee.Email)
		assert.Nil(t, res.Tasks[1].Assignee)
	})

	t.Run("invalid page is rejected", func(t *testing.T) {
		t.Parallel()

		svc := newTaskService(newFakeTaskRepo(), &fakeBroker{}, &fakeUserReader{}, service.Gate{})

		_, err := svc.List(context.Background(), user, internal.TaskCriteria{Page: 0, Limit: 10})
		require.Error(t, err)
		assert.Equal(t, internal.ErrorCodeInvalidArgument, errCode(err))
	})

	t.Run("anonymous is rejected", func(t *testing.T) {
		t.Parallel()

		svc := newTaskService(newFakeTaskRepo(), &fakeBroker{}, &fakeUserReader{}, service.Gate{})

		_, err := svc.List(context.Background(), internal.Principal{}, internal.TaskCriteria{Page: 1, Limit: 10})
		require.Error(t, err)
		assert.Equal(t, internal.ErrorCodeUnauthenticated, errCode(err))
	})
}

func TestTaskUpdate(t *testing.T) {
	t.Parallel()

	repo := newFakeTaskRepo(internal.Task{ID: "t1", Title: "Old", AssignedTo: "user-1", Status: internal.StatusPending})
	broker := &fakeBroker{}
	svc := newTaskService(repo, broker, &fakeUserReader{}, service.Gate{})

	status := internal.StatusCompleted
	task, err := svc.Update(context.Background(), user, "t1", internal.UpdateTaskParams{Status: &status})
	require.NoError(t, err)

	assert.Equal(t, internal.StatusCompleted, task.Status)
	require.Len(t, broker.updated, 1)
	assert.Equal(t, internal.StatusCompleted, broker.updated[0].Status)
}

func TestTaskDelete(t *testing.T) {
	t.Parallel()

	t.Run("assignee may delete", func(t *testing.T) {
		t.Parallel()

		repo := newFakeTaskRepo(internal.Task{ID: "t1", AssignedTo: "user-1"})
		broker := &fakeBroker{}
		svc := newTaskService(repo, broker, &fakeUserReader{}, service.Gate{})

		require.NoError(t, svc.Delete(context.Background(), user, "t1"))
		assert.Equal(t, []string{"t1"}, broker.deleted)
	})

	t.Run("unrelated user may not", func(t *testing.T) {
		t.Parallel()

		repo := newFakeTaskRepo(internal.Task{ID: "t1", AssignedTo: "someone-else"})
		svc := newTaskService(repo, &fakeBroker{}, &fakeUserReader{}, service.Gate{})

		err := svc.Delete(context.Background(), user, "t1")
		require.Error(t, err)
		assert.Equal(t, internal.ErrorCodeUnauthorized, errCode(err))
	})

	t.Run("missing task", func(t *testing.T) {
		t.Parallel()

		svc := newTaskService(newFakeTaskRepo(), &fakeBroker{}, &fakeUserReader{}, service.Gate{})

		err := svc.Delete(context.Background(), admin, "nope")
		require.Error(t, err)
		assert.Equal(t, internal.ErrorCodeNotFound, errCode(err))
	})
}

func TestTaskByAssignee(t *testing.T) {
	t.Parallel()

	due := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	repo := newFakeTaskRepo(internal.Task{ID: "t1", AssignedTo: "user-1", CreatedBy: "admin-1", DueDate: due})
	users := &fakeUserReader{users: []internal.User{
		{ID: "user-1", Email: "one@example.com"},
		{ID: "admin-1", Email: "boss@example.com"},
	}}
	svc := newTaskService(repo, &fakeBroker{}, users, service.Gate{})

	tasks, err := svc.ByAssignee(context.Background(), user, "user-1")
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	require.NotNil(t, tasks[0].Assignee)
	require.NotNil(t, tasks[0].Creator)
	assert.Equal(t, "boss@example.com", tasks[0].Creator.Email)
}

func errCode(err error) internal.ErrorCode {
	var ierr *internal.Error
	if errors.As(err, &ierr) {
		return ierr.Code()
	}
	return internal.ErrorCodeUnknown
}
