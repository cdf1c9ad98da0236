package rest_test

import (
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taksyapp/tasks-api/internal"
	"github.com/taksyapp/tasks-api/internal/rest"
)

type fakeTaskService struct {
	listCriteria internal.TaskCriteria
	selection    internal.TaskSelection

	deleteErr error
	deletedID string
}

func (f *fakeTaskService) List(_ context.Context, _ internal.Principal, criteria internal.TaskCriteria) (internal.TaskSelection, error) {
	f.listCriteria = criteria
	return f.selection, nil
}

func (f *fakeTaskService) ByAssignee(_ context.Context, _ internal.Principal, _ string) ([]internal.Task, error) {
	return f.selection.Tasks, nil
}

func (f *fakeTaskService) Create(_ context.Context, _ internal.Principal, params internal.CreateTaskParams) (internal.Task, error) {
	return internal.Task{ID: "t1", Title: params.Title, Description: params.Description}, nil
}

func (f *fakeTaskService) Find(_ context.Context, _ internal.Principal, id string) (internal.Task, error) {
	return internal.Task{ID: id}, nil
}

func (f *fakeTaskService) Update(_ context.Context, _ internal.Principal, id string, _ internal.UpdateTaskParams) (internal.Task, error) {
	return internal.Task{ID: id}, nil
}

func (f *fakeTaskService) Delete(_ context.Context, _ internal.Principal, id string) error {
	f.deletedID = id
	return f.deleteErr
}

func (f *fakeTaskService) Search(_ context.Context, _ internal.Principal, _ internal.SearchParams) (internal.SearchResults, error) {
	return internal.SearchResults{}, nil
}

type fakeDocs struct{}

func (fakeDocs) Save(_ context.Context, files []*multipart.FileHeader) ([]string, error) {
	res := make([]string, len(files))
	for i := range files {
		res[i] = "uploads/stored"
	}
	return res, nil
}

type fakeVerifier struct{}

func (fakeVerifier) Verify(token string) (internal.Principal, error) {
	if token != "good" {
		return internal.Principal{}, internal.NewErrorf(internal.ErrorCodeUnauthenticated, "invalid token")
	}
	return internal.Principal{ID: "u1", Role: internal.RoleAdmin}, nil
}

type fakeRevocations struct {
	revoked map[string]bool
}

func (f fakeRevocations) Revoked(_ context.Context, token string) (bool, error) {
	return f.revoked[token], nil
}

func newTestRouter(svc *fakeTaskService) http.Handler {
	router := chi.NewRouter()

	router.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(rest.Authenticator(fakeVerifier{}, fakeRevocations{revoked: map[string]bool{"stale": true}}))

			rest.NewTaskHandler(svc, fakeDocs{}).Register(r)
		})
	})

	return router
}

func TestTaskHandlerAuthentication(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&fakeTaskService{})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing header", header: "", want: http.StatusUnauthorized},
		{name: "malformed header", header: "good", want: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer bad", want: http.StatusUnauthorized},
		{name: "revoked token", header: "Bearer stale", want: http.StatusUnauthorized},
		{name: "valid token", header: "Bearer good", want: http.StatusOK},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestTaskHandlerList(t *testing.T) {
	t.Parallel()

	svc := &fakeTaskService{
		selection: internal.TaskSelection{
			Total: 42,
			Page:  3,
			Tasks: []internal.Task{
				{ID: "t1", Title: "One", AssignedTo: "u9"},
			},
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks?status=pending&sortBy=dueDate&page=3&limit=5", nil)
	req.Header.Set("Authorization", "Bearer good")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, svc.listCriteria.Status)
	assert.Equal(t, internal.StatusPending, *svc.listCriteria.Status)
	assert.Equal(t, internal.TaskSortByDueDate, svc.listCriteria.SortBy)
	assert.Equal(t, int64(3), svc.listCriteria.Page)
	assert.Equal(t, int64(5), svc.listCriteria.Limit)

	var res struct {
		Total int64 `json:"total"`
		Page  int64 `json:"page"`
		Tasks []struct {
			ID         string `json:"id"`
			AssignedTo *struct {
				ID string `json:"id"`
			} `json:"assignedTo"`
		} `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))

	assert.Equal(t, int64(42), res.Total)
	assert.Equal(t, int64(3), res.Page)
	require.Len(t, res.Tasks, 1)
	require.NotNil(t, res.Tasks[0].AssignedTo)
	assert.Equal(t, "u9", res.Tasks[0].AssignedTo.ID)
}

func TestTaskHandlerListDefaults(t *testing.T) {
	t.Parallel()

	svc := &fakeTaskService{}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer good")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), svc.listCriteria.Page)
	assert.Equal(t, int64(10), svc.listCriteria.Limit)
	assert.Nil(t, svc.listCriteria.Status)
}

func TestTaskHandlerDelete(t *testing.T) {
	t.Parallel()

	t.Run("existing task", func(t *testing.T) {
		t.Parallel()

		svc := &fakeTaskService{}
		router := newTestRouter(svc)

		req := httptest.NewRequest(http.MethodDelete, "/api/tasks/t1", nil)
		req.Header.Set("Authorization", "Bearer good")

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "t1", svc.deletedID)

		var res struct {
			Message string `json:"message"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Equal(t, "Task deleted", res.Message)
	})

	t.Run("missing task", func(t *testing.T) {
		t.Parallel()

		svc := &fakeTaskService{
			deleteErr: internal.NewErrorf(internal.ErrorCodeNotFound, "task not found"),
		}
		router := newTestRouter(svc)

		req := httptest.NewRequest(http.MethodDelete, "/api/tasks/ghost", nil)
		req.Header.Set("Authorization", "Bearer good")

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
