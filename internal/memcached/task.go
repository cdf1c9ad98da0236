package memcached

import (
	"context"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"go.uber.org/zap"

	"github.com/taksyapp/tasks-api/internal"
)

//Task decorates a TaskStore with cache-aside reads for single-task lookups.
//Selections are never cached, their results change with every write.
type Task struct {
	client     *memcache.Client
	orig       TaskStore
	expiration time.Duration
	logger     *zap.Logger
}

//TaskStore defines the datastore being decorated.
type TaskStore interface {
	Create(ctx context.Context, params internal.CreateTaskParams) (internal.Task, error)
	Delete(ctx context.Context, id string) error
	Find(ctx context.Context, id string) (internal.Task, error)
	Update(ctx context.Context, id string, params internal.UpdateTaskParams) error
	Select(ctx context.Context, criteria internal.TaskCriteria) (internal.TaskSelection, error)
	ByAssignee(ctx context.Context, userID string) ([]internal.Task, error)
}

//NewTask ...
func NewTask(client *memcache.Client, orig TaskStore, logger *zap.Logger) *Task {
	return &Task{
		client:     client,
		orig:       orig,
		expiration: 15 * time.Minute,
		logger:     logger,
	}
}

//Create ...
func (t *Task) Create(ctx context.Context, params internal.CreateTaskParams) (internal.Task, error) {
	defer newOTELSpan(ctx, "Task.Create").End()

	task, err := t.orig.Create(ctx, params)
	if err != nil {
		return internal.Task{}, err
	}

	t.logger.Info("Create: setting value")

	setTask(ctx, t.client, task.ID, &task, t.expiration)

	return task, nil
}

//Delete ...
func (t *Task) Delete(ctx context.Context, id string) error {
	defer newOTELSpan(ctx, "Task.Delete").End()

	if err := t.orig.Delete(ctx, id); err != nil {
		return err
	}

	deleteTask(ctx, t.client, id)

	return nil
}

//Find ...
func (t *Task) Find(ctx context.Context, id string) (internal.Task, error) {
	defer newOTELSpan(ctx, "Task.Find").End()

	var res internal.Task

	if err := getTask(ctx, t.client, id, &res); err == nil {
		return res, nil
	}

	t.logger.Info("Find: not found, let's cache it")

	// Cache-Aside Caching

	res, err := t.orig.Find(ctx, id)
	if err != nil {
		return res, err
	}

	setTask(ctx, t.client, res.ID, &res, t.expiration)

	return res, nil
}

//Update ...
func (t *Task) Update(ctx context.Context, id string, params internal.UpdateTaskParams) error {
	defer newOTELSpan(ctx, "Task.Update").End()

	if err := t.orig.Update(ctx, id, params); err != nil {
		return err
	}

	t.logger.Info("Update: refreshing value")

	deleteTask(ctx, t.client, id)

	task, err := t.orig.Find(ctx, id)
	if err != nil {
		return nil
	}

	setTask(ctx, t.client, task.ID, &task, t.expiration)

	return nil
}

//Select ...
func (t *Task) Select(ctx context.Context, criteria internal.TaskCriteria) (internal.TaskSelection, error) {
	return t.orig.Select(ctx, criteria)
}

//ByAssignee ...
func (t *Task) ByAssignee(ctx context.Context, userID string) ([]internal.Task, error) {
	return t.orig.ByAssignee(ctx, userID)
}
