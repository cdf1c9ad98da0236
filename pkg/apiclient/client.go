// Package apiclient implements a small typed client for the tasks REST API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/taksyapp/tasks-api/internal"
)

//Client talks to a running tasks REST server.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

//NewClient instantiates a client against baseURL, e.g. "http://localhost:9234".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

//SetToken stores the bearer token used on authenticated calls.
func (c *Client) SetToken(token string) {
	c.token = token
}

//Token returns the bearer token currently in use.
func (c *Client) Token() string {
	return c.token
}

//Session represents the authenticated account together with its token.
type Session struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Token string `json:"token"`
}

//Task mirrors the wire representation rendered by the server.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	DueDate     time.Time `json:"dueDate"`
	Documents   []string  `json:"documents"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (t Task) domain() internal.Task {
	return internal.Task{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      internal.Status(t.Status),
		Priority:    internal.Priority(t.Priority),
		DueDate:     t.DueDate,
		Documents:   t.Documents,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

//Login authenticates with the server and stores the received token on the client.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	body, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return Session{}, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "json.Marshal")
	}

	var session Session
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", bytes.NewReader(body), &session); err != nil {
		return Session{}, err
	}

	c.token = session.Token

	return session, nil
}

//Logout revokes the active token and forgets it.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil); err != nil {
		return err
	}

	c.token = ""

	return nil
}

//Tasks lists tasks according to criteria.
func (c *Client) Tasks(ctx context.Context, criteria internal.TaskCriteria) (internal.TaskSelection, error) {
	values := url.Values{}
	if criteria.Status != nil {
		values.Set("status", string(*criteria.Status))
	}
	if criteria.Priority != nil {
		values.Set("priority", string(*criteria.Priority))
	}
	if criteria.SortBy != "" {
		values.Set("sortBy", string(criteria.SortBy))
	}
	if criteria.Page > 0 {
		values.Set("page", strconv.FormatInt(criteria.Page, 10))
	}
	if criteria.Limit > 0 {
		values.Set("limit", strconv.FormatInt(criteria.Limit, 10))
	}

	path := "/api/tasks"
	if encoded := values.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var res struct {
		Total int64  `json:"total"`
		Page  int64  `json:"page"`
		Tasks []Task `json:"tasks"`
	}

	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return internal.TaskSelection{}, err
	}

	selection := internal.TaskSelection{
		Total: res.Total,
		Page:  res.Page,
		Tasks: make([]internal.Task, len(res.Tasks)),
	}
	for i, task := range res.Tasks {
		selection.Tasks[i] = task.domain()
	}

	return selection, nil
}

//UserTasks lists the tasks assigned to a user, ordered by due date.
func (c *Client) UserTasks(ctx context.Context, userID string) ([]internal.Task, error) {
	var res struct {
		Success bool   `json:"success"`
		Count   int    `json:"count"`
		Tasks   []Task `json:"tasks"`
	}

	if err := c.do(ctx, http.MethodGet, "/api/tasks/user/"+url.PathEscape(userID), nil, &res); err != nil {
		return nil, err
	}

	tasks := make([]internal.Task, len(res.Tasks))
	for i, task := range res.Tasks {
		tasks[i] = task.domain()
	}

	return tasks, nil
}

func (c *Client) do(ctx context.Context, method, path string, body *bytes.Reader, out interface{}) error {
	var req *http.Request
	var err error

	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "http.NewRequestWithContext")
	}

	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "client.Do")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var errRes struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errRes)

		return internal.NewErrorf(codeFromStatus(resp.StatusCode), "%s %s: %s (%d)",
			method, path, errRes.Error, resp.StatusCode)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "json.Decode")
	}

	return nil
}

func codeFromStatus(status int) internal.ErrorCode {
	switch status {
	case http.StatusBadRequest:
		return internal.ErrorCodeInvalidArgument
	case http.StatusUnauthorized:
		return internal.ErrorCodeUnauthenticated
	case http.StatusForbidden:
		return internal.ErrorCodeUnauthorized
	case http.StatusNotFound:
		return internal.ErrorCodeNotFound
	}

	return internal.ErrorCodeUnknown
}

//String implements fmt.Stringer for quick debugging.
func (c *Client) String() string {
	return fmt.Sprintf("apiclient.Client(%s)", c.baseURL)
}
