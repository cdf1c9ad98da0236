package internal

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

//Status indicates the progress of a Task
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

//Validate ...
func (s Status) Validate() error {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return nil
	}
	return NewErrorf(ErrorCodeInvalidArgument, "unknown status value: %s", s)
}

//Priority indicates how important a Task is
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

//Validate ...
func (p Priority) Validate() error {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return nil
	}
	return NewErrorf(ErrorCodeInvalidArgument, "unknown priority value: %s", p)
}

//SeverityRank returns the severity ordering used by clients when sorting by priority,
//high ranks above medium, medium above low. The server-side sort is lexical instead,
//both orderings are part of the contract.
func (p Priority) SeverityRank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

//UserRef is a referenced User resolved to display fields.
type UserRef struct {
	ID    string
	Email string
}

//Task is a unit of work with status, priority, due date, optional assignee and attached documents.
type Task struct {
	ID          string
	Title       string
	Description string
	Status      Status
	Priority    Priority
	DueDate     time.Time
	AssignedTo  string
	CreatedBy   string
	Documents   []string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Resolved references, populated by the service layer when listing.
	Assignee *UserRef
	Creator  *UserRef
}

//Validate ...
func (t Task) Validate() error {
	if err := validation.ValidateStruct(&t,
		validation.Field(&t.Title, validation.Required),
		validation.Field(&t.Description, validation.Required),
	); err != nil {
		return WrapErrorf(err, ErrorCodeInvalidArgument, "validation.ValidateStruct")
	}
	if err := t.Status.Validate(); err != nil {
		return err
	}
	return t.Priority.Validate()
}

//CreateTaskParams defines the values used when creating a Task. Status and Priority
//fall back to their defaults when left empty, unrecognized values are rejected.
type CreateTaskParams struct {
	Title       string
	Description string
	Status      Status
	Priority    Priority
	DueDate     time.Time
	AssignedTo  string
	Documents   []string
	CreatedBy   string
}

//ApplyDefaults returns a copy with the documented Status/Priority defaults filled in.
func (p CreateTaskParams) ApplyDefaults() CreateTaskParams {
	if p.Status == "" {
		p.Status = StatusPending
	}
	if p.Priority == "" {
		p.Priority = PriorityMedium
	}
	return p
}

//Validate ...
func (p CreateTaskParams) Validate() error {
	p = p.ApplyDefaults()

	task := Task{
		Title:       p.Title,
		Description: p.Description,
		Status:      p.Status,
		Priority:    p.Priority,
	}

	return task.Validate()
}

//UpdateTaskParams defines the values used when updating a Task, nil fields are left
//unchanged. Documents are replaced wholesale when a new list is supplied.
type UpdateTaskParams struct {
	Title       *string
	Description *string
	Status      *Status
	Priority    *Priority
	DueDate     *time.Time
	AssignedTo  *string
	Documents   []string
}

//Validate ...
func (p UpdateTaskParams) Validate() error {
	if p.Status != nil {
		if err := p.Status.Validate(); err != nil {
			return err
		}
	}
	if p.Priority != nil {
		if err := p.Priority.Validate(); err != nil {
			return err
		}
	}
	return nil
}

//TaskSortBy enumerates the supported single-key ascending sorts.
type TaskSortBy string

const (
	TaskSortByNone     TaskSortBy = ""
	TaskSortByDueDate  TaskSortBy = "dueDate"
	TaskSortByPriority TaskSortBy = "priority"
	TaskSortByStatus   TaskSortBy = "status"
)

//TaskCriteria defines the filter/sort/pagination values used when selecting Tasks.
type TaskCriteria struct {
	Status   *Status
	Priority *Priority
	SortBy   TaskSortBy
	Page     int64
	Limit    int64
}

//Validate ...
func (c TaskCriteria) Validate() error {
	if c.Status != nil {
		if err := c.Status.Validate(); err != nil {
			return err
		}
	}
	if c.Priority != nil {
		if err := c.Priority.Validate(); err != nil {
			return err
		}
	}
	switch c.SortBy {
	case TaskSortByNone, TaskSortByDueDate, TaskSortByPriority, TaskSortByStatus:
	default:
		return NewErrorf(ErrorCodeInvalidArgument, "unknown sortBy value: %s", c.SortBy)
	}
	if c.Page < 1 {
		return NewErrorf(ErrorCodeInvalidArgument, "page must be >= 1")
	}
	if c.Limit < 1 {
		return NewErrorf(ErrorCodeInvalidArgument, "limit must be >= 1")
	}
	return nil
}

//TaskSelection is the response envelope of a Task selection, Total counts matching
//records ignoring pagination.
type TaskSelection struct {
	Total int64
	Page  int64
	Tasks []Task
}

//SearchParams defines the values used when searching indexed Tasks.
type SearchParams struct {
	Query    *string
	Status   *Status
	Priority *Priority
	From     int64
	Size     int64
}

//IsZero determines whether there is at least one field with values
func (p SearchParams) IsZero() bool {
	return p.Query == nil && p.Status == nil && p.Priority == nil
}

//SearchResults defines the collection of tasks that were found
type SearchResults struct {
	Tasks []Task
	Total int64
}
