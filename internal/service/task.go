package service

import (
	"context"

	"github.com/mercari/go-circuitbreaker"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/taksyapp/tasks-api/internal"
)

//TaskRepository defines the datastore handling persisting Task records.
type TaskRepository interface {
	Create(ctx context.Context, params internal.CreateTaskParams) (internal.Task, error)
	Delete(ctx context.Context, id string) error
	Find(ctx context.Context, id string) (internal.Task, error)
	Update(ctx context.Context, id string, params internal.UpdateTaskParams) error
	Select(ctx context.Context, criteria internal.TaskCriteria) (internal.TaskSelection, error)
	ByAssignee(ctx context.Context, userID string) ([]internal.Task, error)
}

//TaskSearchRepository defines the datastore handling searching of indexed Task records.
type TaskSearchRepository interface {
	Search(ctx context.Context, params internal.SearchParams) (internal.SearchResults, error)
}

//TaskMessageBrokerRepository defines the datastore handling publication of Task events.
type TaskMessageBrokerRepository interface {
	Created(ctx context.Context, task internal.Task) error
	Deleted(ctx context.Context, id string) error
	Updated(ctx context.Context, task internal.Task) error
}

//UserReader defines the subset of the User datastore needed to resolve references.
type UserReader interface {
	FindMany(ctx context.Context, ids []string) ([]internal.User, error)
}

//Task defines the application service in charge of interacting with Tasks.
type Task struct {
	logger    *zap.Logger
	repo      TaskRepository
	search    TaskSearchRepository
	msgBroker TaskMessageBrokerRepository
	users     UserReader
	gate      Gate
	cb        *circuitbreaker.CircuitBreaker
}

//NewTask ...
func NewTask(logger *zap.Logger, repo TaskRepository, search TaskSearchRepository, msgBroker TaskMessageBrokerRepository, users UserReader, gate Gate) *Task {
	return &Task{
		logger:    logger,
		repo:      repo,
		search:    search,
		msgBroker: msgBroker,
		users:     users,
		gate:      gate,
		cb:        circuitbreaker.New(),
	}
}

//List returns the page of Tasks matching criteria plus the total count of matches,
//assignees resolved to display fields.
func (t *Task) List(ctx context.Context, principal internal.Principal, criteria internal.TaskCriteria) (internal.TaskSelection, error) {
	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer(otelName).Start(ctx, "Task.List")
	defer span.End()

	if err := t.gate.CanListTasks(principal); err != nil {
		return internal.TaskSelection{}, err
	}

	if err := criteria.Validate(); err != nil {
		return internal.TaskSelection{}, err
	}

	res, err := t.repo.Select(ctx, criteria)
	if err != nil {
		return internal.TaskSelection{}, err
	}

	if err := t.resolveRefs(ctx, res.Tasks, false); err != nil {
		return internal.TaskSelection{}, err
	}

	return res, nil
}

//ByAssignee returns every Task assigned to userID, due date ascending, both creator
//and assignee resolved to display fields.
func (t *Task) ByAssignee(ctx context.Context, principal internal.Principal, userID string) ([]internal.Task, error) {
	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer(otelName).Start(ctx, "Task.ByAssignee")
	defer span.End()

	if err := t.gate.CanListTasks(principal); err != nil {
		return nil, err
	}

	tasks, err := t.repo.ByAssignee(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := t.resolveRefs(ctx, tasks, true); err != nil {
		return nil, err
	}

	return tasks, nil
}

//Create stores a new record. CreatedBy always comes from the acting principal,
//whatever the client supplied is discarded.
func (t *Task) Create(ctx context.Context, principal internal.Principal, params internal.CreateTaskParams) (internal.Task, error) {
	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer(otelName).Start(ctx, "Task.Create")
	defer span.End()

	if err := t.gate.CanCreateTask(principal); err != nil {
		return internal.Task{}, err
	}

	params.CreatedBy = principal.ID

	if err := params.Validate(); err != nil {
		return internal.Task{}, err
	}

	task, err := t.repo.Create(ctx, params)
	if err != nil {
		return internal.Task{}, err
	}

	_ = t.msgBroker.Created(ctx, task)

	return task, nil
}

//Find gets an existing Task from the datastore.
func (t *Task) Find(ctx context.Context, principal internal.Principal, id string) (internal.Task, error) {
	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer(otelName).Start(ctx, "Task.Find")
	defer span.End()

	if err := t.gate.CanListTasks(principal); err != nil {
		return internal.Task{}, err
	}

	task, err := t.repo.Find(ctx, id)
	if err != nil {
		return internal.Task{}, err
	}

	if err := t.gate.CanReadTask(principal, task); err != nil {
		return internal.Task{}, err
	}

	tasks := []internal.Task{task}
	if err := t.resolveRefs(ctx, tasks, false); err != nil {
		return internal.Task{}, err
	}

	return tasks[0], nil
}

//Update updates an existing Task in the datastore and returns the stored result.
func (t *Task) Update(ctx context.Context, principal internal.Principal, id string, params internal.UpdateTaskParams) (internal.Task, error) {
	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer(otelName).Start(ctx, "Task.Update")
	defer span.End()

	if err := t.gate.CanListTasks(principal); err != nil {
		return internal.Task{}, err
	}

	if err := params.Validate(); err != nil {
		return internal.Task{}, err
	}

	task, err := t.repo.Find(ctx, id)
	if err != nil {
		return internal.Task{}, err
	}

	if err := t.gate.CanUpdateTask(principal, task); err != nil {
		return internal.Task{}, err
	}

	if err := t.repo.Update(ctx, id, params); err != nil {
		return internal.Task{}, err
	}

	task, err = t.repo.Find(ctx, id)
	if err != nil {
		return internal.Task{}, err
	}

	_ = t.msgBroker.Updated(ctx, task) // XXX: Ignoring errors on purpose

	return task, nil
}

//Delete removes an existing Task from the datastore.
func (t *Task) Delete(ctx context.Context, principal internal.Principal, id string) error {
	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer(otelName).Start(ctx, "Task.Delete")
	defer span.End()

	if err := t.gate.CanListTasks(principal); err != nil {
		return err
	}

	task, err := t.repo.Find(ctx, id)
	if err != nil {
		return err
	}

	if err := t.gate.CanDeleteTask(principal, task); err != nil {
		return err
	}

	if err := t.repo.Delete(ctx, id); err != nil {
		return err
	}

	_ = t.msgBroker.Deleted(ctx, id)

	return nil
}

//Search queries the index for Tasks matching the received values, the call is
//guarded by a circuit breaker so a struggling cluster fails fast.
func (t *Task) Search(ctx context.Context, principal internal.Principal, params internal.SearchParams) (internal.SearchResults, error) {
	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer(otelName).Start(ctx, "Task.Search")
	defer span.End()

	if err := t.gate.CanListTasks(principal); err != nil {
		return internal.SearchResults{}, err
	}

	res, err := t.cb.Do(ctx, func() (interface{}, error) {
		return t.search.Search(ctx, params)
	})
	if err != nil {
		return internal.SearchResults{}, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "search.Search")
	}

	return res.(internal.SearchResults), nil
}

//resolveRefs populates the Assignee (and optionally Creator) display fields of the
//received tasks in place.
func (t *Task) resolveRefs(ctx context.Context, tasks []internal.Task, includeCreator bool) error {
	seen := map[string]struct{}{}
	ids := []string{}

	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	for _, task := range tasks {
		add(task.AssignedTo)
		if includeCreator {
			add(task.CreatedBy)
		}
	}

	if len(ids) == 0 {
		return nil
	}

	users, err := t.users.FindMany(ctx, ids)
	if err != nil {
		return err
	}

	refs := make(map[string]internal.UserRef, len(users))
	for _, user := range users {
		refs[user.ID] = internal.UserRef{ID: user.ID, Email: user.Email}
	}

	for i := range tasks {
		if ref, ok := refs[tasks[i].AssignedTo]; ok {
			tasks[i].Assignee = &ref
		}
		if !includeCreator {
			continue
		}
		if ref, ok := refs[tasks[i].CreatedBy]; ok {
			tasks[i].Creator = &ref
		}
	}

	return nil
}
