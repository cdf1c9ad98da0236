package mongodb

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/taksyapp/tasks-api/internal"
)

func TestSelectFilter(t *testing.T) {
	status := internal.StatusPending
	priority := internal.PriorityHigh

	tests := []struct {
		name     string
		criteria internal.TaskCriteria
		want     bson.M
	}{
		{
			name:     "no filters",
			criteria: internal.TaskCriteria{},
			want:     bson.M{},
		},
		{
			name:     "status only",
			criteria: internal.TaskCriteria{Status: &status},
			want:     bson.M{"status": status},
		},
		{
			name:     "status and priority",
			criteria: internal.TaskCriteria{Status: &status, Priority: &priority},
			want:     bson.M{"status": status, "priority": priority},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := selectFilter(tt.criteria)

			if len(got) != len(tt.want) {
				t.Fatalf("filter: got %v, want %v", got, tt.want)
			}
			for key, want := range tt.want {
				if got[key] != want {
					t.Errorf("filter[%s]: got %v, want %v", key, got[key], want)
				}
			}
		})
	}
}

func TestSelectSort(t *testing.T) {
	tests := []struct {
		name   string
		sortBy internal.TaskSortBy
		want   bson.D
	}{
		{
			name:   "no sort still breaks ties by id",
			sortBy: internal.TaskSortByNone,
			want:   bson.D{{Key: "_id", Value: 1}},
		},
		{
			name:   "due date",
			sortBy: internal.TaskSortByDueDate,
			want:   bson.D{{Key: "dueDate", Value: 1}, {Key: "_id", Value: 1}},
		},
		{
			name:   "priority",
			sortBy: internal.TaskSortByPriority,
			want:   bson.D{{Key: "priority", Value: 1}, {Key: "_id", Value: 1}},
		},
		{
			name:   "status",
			sortBy: internal.TaskSortByStatus,
			want:   bson.D{{Key: "status", Value: 1}, {Key: "_id", Value: 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := selectSort(tt.sortBy)

			if len(got) != len(tt.want) {
				t.Fatalf("sort: got %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("sort[%d]: got %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestObjectIDFromHex(t *testing.T) {
	if _, err := objectIDFromHex("64b0c3f1a2d3e4f5a6b7c8d9", internal.ErrorCodeNotFound); err != nil {
		t.Errorf("valid hex: got %v, want nil", err)
	}

	_, err := objectIDFromHex("not-an-object-id", internal.ErrorCodeNotFound)
	if err == nil {
		t.Fatal("invalid hex accepted")
	}

	var ierr *internal.Error
	if !errors.As(err, &ierr) || ierr.Code() != internal.ErrorCodeNotFound {
		t.Errorf("got %v, want the requested code", err)
	}
}
