package clientside

import (
	"testing"
	"time"

	"github.com/taksyapp/tasks-api/internal"
)

var now = time.Date(2026, 8, 31, 15, 30, 0, 0, time.UTC)

func day(offset int) time.Time {
	return now.AddDate(0, 0, offset)
}

func sample() []internal.Task {
	return []internal.Task{
		{ID: "t1", Title: "Write report", Description: "Quarterly numbers", Status: internal.StatusPending, Priority: internal.PriorityMedium, DueDate: day(-2)},
		{ID: "t2", Title: "Fix login bug", Description: "Session expires early", Status: internal.StatusInProgress, Priority: internal.PriorityHigh, DueDate: day(0)},
		{ID: "t3", Title: "Plan offsite", Description: "Book a venue", Status: internal.StatusPending, Priority: internal.PriorityLow, DueDate: day(5)},
		{ID: "t4", Title: "Archive old docs", Description: "Clean the shared drive", Status: internal.StatusCompleted, Priority: internal.PriorityMedium, DueDate: day(20)},
	}
}

func ids(tasks []internal.Task) []string {
	res := make([]string, len(tasks))
	for i, task := range tasks {
		res[i] = task.ID
	}
	return res
}

func equalIDs(a []string, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestApplyFilters(t *testing.T) {
	tests := []struct {
		name  string
		state FilterState
		want  []string
	}{
		{
			name:  "defaults keep everything",
			state: NewFilterState(),
			want:  []string{"t1", "t2", "t3", "t4"},
		},
		{
			name: "status filter",
			state: FilterState{
				Status: "pending", Priority: Wildcard, DueDateRange: Wildcard,
			},
			want: []string{"t1", "t3"},
		},
		{
			name: "priority filter",
			state: FilterState{
				Status: Wildcard, Priority: "high", DueDateRange: Wildcard,
			},
			want: []string{"t2"},
		},
		{
			name: "search matches title case-insensitively",
			state: FilterState{
				Status: Wildcard, Priority: Wildcard, DueDateRange: Wildcard,
				Search: "LOGIN",
			},
			want: []string{"t2"},
		},
		{
			name: "search matches description",
			state: FilterState{
				Status: Wildcard, Priority: Wildcard, DueDateRange: Wildcard,
				Search: "venue",
			},
			want: []string{"t3"},
		},
		{
			name: "overdue bucket",
			state: FilterState{
				Status: Wildcard, Priority: Wildcard, DueDateRange: RangeOverdue,
			},
			want: []string{"t1"},
		},
		{
			name: "today bucket",
			state: FilterState{
				Status: Wildcard, Priority: Wildcard, DueDateRange: RangeToday,
			},
			want: []string{"t2"},
		},
		{
			name: "this week includes today and the boundary day",
			state: FilterState{
				Status: Wildcard, Priority: Wildcard, DueDateRange: RangeThisWeek,
			},
			want: []string{"t2", "t3"},
		},
		{
			name: "this month excludes overdue",
			state: FilterState{
				Status: Wildcard, Priority: Wildcard, DueDateRange: RangeThisMonth,
			},
			want: []string{"t2", "t3", "t4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Apply(sample(), tt.state, now))
			if !equalIDs(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplySorts(t *testing.T) {
	tests := []struct {
		name   string
		sortBy string
		order  string
		want   []string
	}{
		{
			name:   "due date ascending",
			sortBy: "dueDate",
			order:  OrderAsc,
			want:   []string{"t1", "t2", "t3", "t4"},
		},
		{
			name:   "due date descending",
			sortBy: "dueDate",
			order:  OrderDesc,
			want:   []string{"t4", "t3", "t2", "t1"},
		},
		{
			// Severity order, high first: not the lexical ordering.
			name:   "priority descending",
			sortBy: "priority",
			order:  OrderDesc,
			want:   []string{"t2", "t1", "t4", "t3"},
		},
		{
			name:   "priority ascending",
			sortBy: "priority",
			order:  OrderAsc,
			want:   []string{"t3", "t1", "t4", "t2"},
		},
		{
			name:   "title ascending",
			sortBy: "title",
			order:  OrderAsc,
			want:   []string{"t4", "t2", "t3", "t1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewFilterState()
			state.SortBy = tt.sortBy
			state.SortOrder = tt.order

			got := ids(Apply(sample(), state, now))
			if !equalIDs(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	tasks := sample()

	state := NewFilterState()
	state.SortBy = "title"
	state.SortOrder = OrderDesc

	_ = Apply(tasks, state, now)

	if !equalIDs(ids(tasks), []string{"t1", "t2", "t3", "t4"}) {
		t.Errorf("input reordered: %v", ids(tasks))
	}
}

func TestReselect(t *testing.T) {
	filtered := sample()[:2]

	if got := Reselect(filtered, "t2"); got != "t2" {
		t.Errorf("surviving selection: got %s, want t2", got)
	}

	if got := Reselect(filtered, "t4"); got != "t1" {
		t.Errorf("dropped selection: got %s, want t1", got)
	}

	if got := Reselect(nil, "t1"); got != "" {
		t.Errorf("empty selection: got %q, want empty", got)
	}
}

func TestDueDateStatus(t *testing.T) {
	tests := []struct {
		name string
		due  time.Time
		want string
	}{
		{name: "yesterday is overdue", due: day(-1), want: "overdue"},
		{name: "earlier today is still today", due: now.Add(-3 * time.Hour), want: "today"},
		{name: "tomorrow is upcoming", due: day(1), want: "upcoming"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DueDateStatus(tt.due, now); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}
