// Package clientside implements the in-memory filtering and sorting applied to an
// already fetched task collection, so interactive clients can refine what they show
// without another round trip.
package clientside

import (
	"sort"
	"strings"
	"time"

	"github.com/taksyapp/tasks-api/internal"
)

// Wildcard matches every value of a filter dimension.
const Wildcard = "all"

// Due date buckets accepted by FilterState.DueDateRange.
const (
	RangeOverdue   = "overdue"
	RangeToday     = "today"
	RangeThisWeek  = "thisWeek"
	RangeThisMonth = "thisMonth"
)

// Sort orders accepted by FilterState.SortOrder.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

//FilterState captures every refinement the client currently has active.
type FilterState struct {
	Status       string
	Priority     string
	Search       string
	DueDateRange string
	SortBy       string
	SortOrder    string
}

//NewFilterState returns the state used before the client touches any control.
func NewFilterState() FilterState {
	return FilterState{
		Status:       Wildcard,
		Priority:     Wildcard,
		DueDateRange: Wildcard,
		SortBy:       "dueDate",
		SortOrder:    OrderAsc,
	}
}

//Apply filters and sorts tasks according to state, evaluated against now.
//The input slice is never mutated.
func Apply(tasks []internal.Task, state FilterState, now time.Time) []internal.Task {
	res := make([]internal.Task, 0, len(tasks))

	search := strings.ToLower(strings.TrimSpace(state.Search))

	for _, task := range tasks {
		if state.Status != "" && state.Status != Wildcard && string(task.Status) != state.Status {
			continue
		}

		if state.Priority != "" && state.Priority != Wildcard && string(task.Priority) != state.Priority {
			continue
		}

		if search != "" &&
			!strings.Contains(strings.ToLower(task.Title), search) &&
			!strings.Contains(strings.ToLower(task.Description), search) {
			continue
		}

		if !matchesDueRange(task.DueDate, state.DueDateRange, now) {
			continue
		}

		res = append(res, task)
	}

	sortTasks(res, state.SortBy, state.SortOrder)

	return res
}

func matchesDueRange(due time.Time, dueRange string, now time.Time) bool {
	if dueRange == "" || dueRange == Wildcard {
		return true
	}

	today := truncateToDay(now)
	day := truncateToDay(due)

	switch dueRange {
	case RangeOverdue:
		return day.Before(today)
	case RangeToday:
		return day.Equal(today)
	case RangeThisWeek:
		return !day.Before(today) && !day.After(today.AddDate(0, 0, 7))
	case RangeThisMonth:
		return !day.Before(today) && !day.After(today.AddDate(0, 1, 0))
	}

	return true
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func sortTasks(tasks []internal.Task, sortBy, order string) {
	if sortBy == "" {
		return
	}

	var less func(a, b internal.Task) bool

	switch sortBy {
	case "title":
		less = func(a, b internal.Task) bool {
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		}
	case "dueDate":
		less = func(a, b internal.Task) bool { return a.DueDate.Before(b.DueDate) }
	case "createdAt":
		less = func(a, b internal.Task) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case "status":
		less = func(a, b internal.Task) bool { return a.Status < b.Status }
	case "priority":
		// Severity order, not lexical: low sorts below medium below high.
		less = func(a, b internal.Task) bool {
			return a.Priority.SeverityRank() < b.Priority.SeverityRank()
		}
	default:
		return
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		if order == OrderDesc {
			return less(tasks[j], tasks[i])
		}
		return less(tasks[i], tasks[j])
	})
}

//Reselect keeps the current selection when it survived refiltering, otherwise it
//falls back to the first visible task. Returns "" when nothing is visible.
func Reselect(filtered []internal.Task, selectedID string) string {
	for _, task := range filtered {
		if task.ID == selectedID {
			return selectedID
		}
	}

	if len(filtered) > 0 {
		return filtered[0].ID
	}

	return ""
}

//DueDateStatus classifies a due date relative to now, comparing calendar days.
func DueDateStatus(due, now time.Time) string {
	today := truncateToDay(now)
	day := truncateToDay(due)

	switch {
	case day.Before(today):
		return "overdue"
	case day.Equal(today):
		return "today"
	default:
		return "upcoming"
	}
}
