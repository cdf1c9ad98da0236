package rest

import (
	"context"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taksyapp/tasks-api/internal"
)

//go:generate counterfeiter -o resttesting/task_service.gen.go . TaskService

//TaskService ...
type TaskService interface {
	List(ctx context.Context, principal internal.Principal, criteria internal.TaskCriteria) (internal.TaskSelection, error)
	ByAssignee(ctx context.Context, principal internal.Principal, userID string) ([]internal.Task, error)
	Create(ctx context.Context, principal internal.Principal, params internal.CreateTaskParams) (internal.Task, error)
	Find(ctx context.Context, principal internal.Principal, id string) (internal.Task, error)
	Update(ctx context.Context, principal internal.Principal, id string, params internal.UpdateTaskParams) (internal.Task, error)
	Delete(ctx context.Context, principal internal.Principal, id string) error
	Search(ctx context.Context, principal internal.Principal, params internal.SearchParams) (internal.SearchResults, error)
}

//DocumentStore persists uploaded files and returns their stored references.
type DocumentStore interface {
	Save(ctx context.Context, files []*multipart.FileHeader) ([]string, error)
}

//TaskHandler ...
type TaskHandler struct {
	svc  TaskService
	docs DocumentStore
}

//NewTaskHandler ...
func NewTaskHandler(svc TaskService, docs DocumentStore) *TaskHandler {
	return &TaskHandler{
		svc:  svc,
		docs: docs,
	}
}

//Register connects the handlers to the router, the router is expected to already
//require authentication.
func (t *TaskHandler) Register(r chi.Router) {
	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", t.list)
		r.Post("/", t.create)
		r.Get("/search", t.search)
		r.Get("/user/{userId}", t.byAssignee)
		r.Get("/{id}", t.find)
		r.Patch("/{id}", t.update)
		r.Delete("/{id}", t.delete)
	})
}

//UserRef is a referenced user resolved to display fields.
type UserRef struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

//Task is a unit of work with status, priority, due date, optional assignee and
//attached documents.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	DueDate     time.Time `json:"dueDate"`
	AssignedTo  *UserRef  `json:"assignedTo,omitempty"`
	CreatedBy   *UserRef  `json:"createdBy,omitempty"`
	Documents   []string  `json:"documents"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func newTask(task internal.Task) Task {
	res := Task{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		Priority:    string(task.Priority),
		DueDate:     task.DueDate,
		Documents:   task.Documents,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}

	switch {
	case task.Assignee != nil:
		res.AssignedTo = &UserRef{ID: task.Assignee.ID, Email: task.Assignee.Email}
	case task.AssignedTo != "":
		res.AssignedTo = &UserRef{ID: task.AssignedTo}
	}

	switch {
	case task.Creator != nil:
		res.CreatedBy = &UserRef{ID: task.Creator.ID, Email: task.Creator.Email}
	case task.CreatedBy != "":
		res.CreatedBy = &UserRef{ID: task.CreatedBy}
	}

	return res
}

func newTasks(tasks []internal.Task) []Task {
	res := make([]Task, len(tasks))
	for i, task := range tasks {
		res[i] = newTask(task)
	}
	return res
}

//ListTasksResponse defines the envelope returned when listing tasks, Total counts
//matches ignoring pagination.
type ListTasksResponse struct {
	Total int64  `json:"total"`
	Page  int64  `json:"page"`
	Tasks []Task `json:"tasks"`
}

func (t *TaskHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	criteria := internal.TaskCriteria{
		SortBy: internal.TaskSortBy(q.Get("sortBy")),
		Page:   1,
		Limit:  10,
	}

	if v := q.Get("status"); v != "" {
		status := internal.Status(v)
		criteria.Status = &status
	}
	if v := q.Get("priority"); v != "" {
		priority := internal.Priority(v)
		criteria.Priority = &priority
	}

	var err error
	if criteria.Page, err = queryInt(q.Get("page"), 1); err != nil {
		renderErrorResponse(r.Context(), w, "invalid page", err)
		return
	}
	if criteria.Limit, err = queryInt(q.Get("limit"), 10); err != nil {
		renderErrorResponse(r.Context(), w, "invalid limit", err)
		return
	}

	res, err := t.svc.List(r.Context(), PrincipalFromContext(r.Context()), criteria)
	if err != nil {
		renderErrorResponse(r.Context(), w, "list failed", err)
		return
	}

	renderResponse(w, &ListTasksResponse{
		Total: res.Total,
		Page:  res.Page,
		Tasks: newTasks(res.Tasks),
	}, http.StatusOK)
}

//UserTasksResponse defines the envelope returned when listing one user's assignments.
type UserTasksResponse struct {
	Success bool   `json:"success"`
	Count   int    `json:"count"`
	Tasks   []Task `json:"tasks"`
}

func (t *TaskHandler) byAssignee(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	tasks, err := t.svc.ByAssignee(r.Context(), PrincipalFromContext(r.Context()), userID)
	if err != nil {
		renderErrorResponse(r.Context(), w, "list failed", err)
		return
	}

	renderResponse(w, &UserTasksResponse{
		Success: true,
		Count:   len(tasks),
		Tasks:   newTasks(tasks),
	}, http.StatusOK)
}

func (t *TaskHandler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		renderErrorResponse(r.Context(), w, "invalid request",
			internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "r.ParseMultipartForm"))
		return
	}

	params := internal.CreateTaskParams{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Status:      internal.Status(r.FormValue("status")),
		Priority:    internal.Priority(r.FormValue("priority")),
		AssignedTo:  r.FormValue("assignedTo"),
	}

	if v := r.FormValue("dueDate"); v != "" {
		dueDate, err := parseDate(v)
		if err != nil {
			renderErrorResponse(r.Context(), w, "invalid dueDate", err)
			return
		}
		params.DueDate = dueDate
	}

	documents, err := t.saveDocuments(r)
	if err != nil {
		renderErrorResponse(r.Context(), w, "storing documents failed", err)
		return
	}
	params.Documents = documents

	task, err := t.svc.Create(r.Context(), PrincipalFromContext(r.Context()), params)
	if err != nil {
		renderErrorResponse(r.Context(), w, "create failed", err)
		return
	}

	renderResponse(w, newTask(task), http.StatusCreated)
}

func (t *TaskHandler) find(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	task, err := t.svc.Find(r.Context(), PrincipalFromContext(r.Context()), id)
	if err != nil {
		renderErrorResponse(r.Context(), w, "find failed", err)
		return
	}

	renderResponse(w, newTask(task), http.StatusOK)
}

func (t *TaskHandler) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		renderErrorResponse(r.Context(), w, "invalid request",
			internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "r.ParseMultipartForm"))
		return
	}

	var params internal.UpdateTaskParams

	if v, ok := formValue(r, "title"); ok {
		params.Title = &v
	}
	if v, ok := formValue(r, "description"); ok {
		params.Description = &v
	}
	if v, ok := formValue(r, "status"); ok {
		status := internal.Status(v)
		params.Status = &status
	}
	if v, ok := formValue(r, "priority"); ok {
		priority := internal.Priority(v)
		params.Priority = &priority
	}
	if v, ok := formValue(r, "assignedTo"); ok {
		params.AssignedTo = &v
	}
	if v, ok := formValue(r, "dueDate"); ok {
		dueDate, err := parseDate(v)
		if err != nil {
			renderErrorResponse(r.Context(), w, "invalid dueDate", err)
			return
		}
		params.DueDate = &dueDate
	}

	if files := r.MultipartForm.File["documents"]; len(files) > 0 {
		documents, err := t.docs.Save(r.Context(), files)
		if err != nil {
			renderErrorResponse(r.Context(), w, "storing documents failed", err)
			return
		}
		params.Documents = documents
	}

	task, err := t.svc.Update(r.Context(), PrincipalFromContext(r.Context()), id, params)
	if err != nil {
		renderErrorResponse(r.Context(), w, "update failed", err)
		return
	}

	renderResponse(w, newTask(task), http.StatusOK)
}

//DeleteTaskResponse defines the response returned back after deleting a task.
type DeleteTaskResponse struct {
	Message string `json:"message"`
}

func (t *TaskHandler) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := t.svc.Delete(r.Context(), PrincipalFromContext(r.Context()), id); err != nil {
		renderErrorResponse(r.Context(), w, "delete failed", err)
		return
	}

	renderResponse(w, &DeleteTaskResponse{Message: "Task deleted"}, http.StatusOK)
}

//SearchTasksResponse defines the response returned back after searching the index.
type SearchTasksResponse struct {
	Tasks []Task `json:"tasks"`
	Total int64  `json:"total"`
}

func (t *TaskHandler) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var params internal.SearchParams

	if v := q.Get("q"); v != "" {
		params.Query = &v
	}
	if v := q.Get("status"); v != "" {
		status := internal.Status(v)
		params.Status = &status
	}
	if v := q.Get("priority"); v != "" {
		priority := internal.Priority(v)
		params.Priority = &priority
	}

	var err error
	if params.From, err = queryInt(q.Get("from"), 0); err != nil {
		renderErrorResponse(r.Context(), w, "invalid from", err)
		return
	}
	if params.Size, err = queryInt(q.Get("size"), 10); err != nil {
		renderErrorResponse(r.Context(), w, "invalid size", err)
		return
	}

	res, err := t.svc.Search(r.Context(), PrincipalFromContext(r.Context()), params)
	if err != nil {
		renderErrorResponse(r.Context(), w, "search failed", err)
		return
	}

	renderResponse(w, &SearchTasksResponse{
		Tasks: newTasks(res.Tasks),
		Total: res.Total,
	}, http.StatusOK)
}

const maxUploadMemory = 32 << 20

func (t *TaskHandler) saveDocuments(r *http.Request) ([]string, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}

	files := r.MultipartForm.File["documents"]
	if len(files) == 0 {
		return nil, nil
	}

	return t.docs.Save(r.Context(), files)
}

func formValue(r *http.Request, key string) (string, bool) {
	if r.MultipartForm == nil {
		return "", false
	}

	values, ok := r.MultipartForm.Value[key]
	if !ok || len(values) == 0 {
		return "", false
	}

	return values[0], true
}

func queryInt(value string, fallback int64) (int64, error) {
	if value == "" {
		return fallback, nil
	}

	res, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "strconv.ParseInt")
	}

	return res, nil
}

func parseDate(value string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if res, err := time.Parse(layout, value); err == nil {
			return res, nil
		}
	}

	return time.Time{}, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "unsupported date format: %s", value)
}
