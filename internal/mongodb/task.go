package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taksyapp/tasks-api/internal"
)

//Task represents the repository used for interacting with Task documents.
type Task struct {
	coll *mongo.Collection
}

//NewTask instantiates the Task repository.
func NewTask(db *mongo.Database) *Task {
	return &Task{
		coll: db.Collection("tasks"),
	}
}

type taskDocument struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty"`
	Title       string              `bson:"title"`
	Description string              `bson:"description"`
	Status      internal.Status     `bson:"status"`
	Priority    internal.Priority   `bson:"priority"`
	DueDate     time.Time           `bson:"dueDate"`
	AssignedTo  *primitive.ObjectID `bson:"assignedTo,omitempty"`
	CreatedBy   primitive.ObjectID  `bson:"createdBy"`
	Documents   []string            `bson:"documents"`
	CreatedAt   time.Time           `bson:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt"`
}

func (d taskDocument) convert() internal.Task {
	task := internal.Task{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Status:      d.Status,
		Priority:    d.Priority,
		DueDate:     d.DueDate,
		CreatedBy:   d.CreatedBy.Hex(),
		Documents:   d.Documents,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}

	if d.AssignedTo != nil {
		task.AssignedTo = d.AssignedTo.Hex()
	}

	return task
}

//Create inserts a new Task document, applying the Status/Priority defaults and
//setting both timestamps.
func (t *Task) Create(ctx context.Context, params internal.CreateTaskParams) (internal.Task, error) {
	defer newOTELSpan(ctx, "Task.Create").End()

	params = params.ApplyDefaults()

	createdBy, err := objectIDFromHex(params.CreatedBy, internal.ErrorCodeInvalidArgument)
	if err != nil {
		return internal.Task{}, err
	}

	now := time.Now().UTC().Truncate(time.Millisecond)

	doc := taskDocument{
		ID:          primitive.NewObjectID(),
		Title:       params.Title,
		Description: params.Description,
		Status:      params.Status,
		Priority:    params.Priority,
		DueDate:     params.DueDate,
		CreatedBy:   createdBy,
		Documents:   params.Documents,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if params.AssignedTo != "" {
		assignedTo, err := objectIDFromHex(params.AssignedTo, internal.ErrorCodeInvalidArgument)
		if err != nil {
			return internal.Task{}, err
		}
		doc.AssignedTo = &assignedTo
	}

	if _, err := t.coll.InsertOne(ctx, doc); err != nil {
		return internal.Task{}, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "coll.InsertOne")
	}

	return doc.convert(), nil
}

//Find returns the Task matching id.
func (t *Task) Find(ctx context.Context, id string) (internal.Task, error) {
	defer newOTELSpan(ctx, "Task.Find").End()

	oid, err := objectIDFromHex(id, internal.ErrorCodeNotFound)
	if err != nil {
		return internal.Task{}, err
	}

	var doc taskDocument

	if err := t.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return internal.Task{}, internal.WrapErrorf(err, internal.ErrorCodeNotFound, "task not found")
		}
		return internal.Task{}, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "coll.FindOne")
	}

	return doc.convert(), nil
}

//Update applies the non-nil fields of params to an existing Task, documents are
//replaced only when a new list is supplied. The updatedAt timestamp always moves.
func (t *Task) Update(ctx context.Context, id string, params internal.UpdateTaskParams) error {
	defer newOTELSpan(ctx, "Task.Update").End()

	oid, err := objectIDFromHex(id, internal.ErrorCodeNotFound)
	if err != nil {
		return err
	}

	set := bson.M{"updatedAt": time.Now().UTC().Truncate(time.Millisecond)}

	if params.Title != nil {
		set["title"] = *params.Title
	}
	if params.Description != nil {
		set["description"] = *params.Description
	}
	if params.Status != nil {
		set["status"] = *params.Status
	}
	if params.Priority != nil {
		set["priority"] = *params.Priority
	}
	if params.DueDate != nil {
		set["dueDate"] = *params.DueDate
	}
	if params.AssignedTo != nil {
		assignedTo, err := objectIDFromHex(*params.AssignedTo, internal.ErrorCodeInvalidArgument)
		if err != nil {
			return err
		}
		set["assignedTo"] = assignedTo
	}
	if params.Documents != nil {
		set["documents"] = params.Documents
	}

	res, err := t.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "coll.UpdateOne")
	}

	if res.MatchedCount == 0 {
		return internal.NewErrorf(internal.ErrorCodeNotFound, "task not found")
	}

	return nil
}

//Delete physically removes the Task matching id.
func (t *Task) Delete(ctx context.Context, id string) error {
	defer newOTELSpan(ctx, "Task.Delete").End()

	oid, err := objectIDFromHex(id, internal.ErrorCodeNotFound)
	if err != nil {
		return err
	}

	res, err := t.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "coll.DeleteOne")
	}

	if res.DeletedCount == 0 {
		return internal.NewErrorf(internal.ErrorCodeNotFound, "task not found")
	}

	return nil
}

//Select returns the page of Tasks matching criteria plus the total count of matches
//ignoring pagination.
func (t *Task) Select(ctx context.Context, criteria internal.TaskCriteria) (internal.TaskSelection, error) {
	defer newOTELSpan(ctx, "Task.Select").End()

	filter := selectFilter(criteria)

	opts := options.Find().
		SetSort(selectSort(criteria.SortBy)).
		SetSkip((criteria.Page - 1) * criteria.Limit).
		SetLimit(criteria.Limit)

	cursor, err := t.coll.Find(ctx, filter, opts)
	if err != nil {
		return internal.TaskSelection{}, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "coll.Find")
	}

	tasks, err := decodeTasks(ctx, cursor)
	if err != nil {
		return internal.TaskSelection{}, err
	}

	total, err := t.coll.CountDocuments(ctx, filter)
	if err != nil {
		return internal.TaskSelection{}, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "coll.CountDocuments")
	}

	return internal.TaskSelection{
		Total: total,
		Page:  criteria.Page,
		Tasks: tasks,
	}, nil
}

//ByAssignee returns every Task assigned to userID, due date ascending.
func (t *Task) ByAssignee(ctx context.Context, userID string) ([]internal.Task, error) {
	defer newOTELSpan(ctx, "Task.ByAssignee").End()

	oid, err := objectIDFromHex(userID, internal.ErrorCodeNotFound)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(selectSort(internal.TaskSortByDueDate))

	cursor, err := t.coll.Find(ctx, bson.M{"assignedTo": oid}, opts)
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "coll.Find")
	}

	return decodeTasks(ctx, cursor)
}

func decodeTasks(ctx context.Context, cursor *mongo.Cursor) ([]internal.Task, error) {
	defer cursor.Close(ctx)

	res := []internal.Task{}

	for cursor.Next(ctx) {
		var doc taskDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "cursor.Decode")
		}
		res = append(res, doc.convert())
	}

	if err := cursor.Err(); err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "cursor.Err")
	}

	return res, nil
}

func selectFilter(criteria internal.TaskCriteria) bson.M {
	filter := bson.M{}

	if criteria.Status != nil {
		filter["status"] = *criteria.Status
	}
	if criteria.Priority != nil {
		filter["priority"] = *criteria.Priority
	}

	return filter
}

//selectSort builds the single-key ascending sort. Status and priority sort by their
//literal string values ("high" < "low" < "medium"), the documented server-side
//ordering. Ties always break by _id so pages are deterministic.
func selectSort(sortBy internal.TaskSortBy) bson.D {
	sort := bson.D{}

	switch sortBy {
	case internal.TaskSortByDueDate:
		sort = append(sort, bson.E{Key: "dueDate", Value: 1})
	case internal.TaskSortByPriority:
		sort = append(sort, bson.E{Key: "priority", Value: 1})
	case internal.TaskSortByStatus:
		sort = append(sort, bson.E{Key: "status", Value: 1})
	}

	return append(sort, bson.E{Key: "_id", Value: 1})
}
