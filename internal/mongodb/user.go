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

//User represents the repository used for interacting with User documents.
type User struct {
	coll *mongo.Collection
}

//NewUser instantiates the User repository.
func NewUser(db *mongo.Database) *User {
	return &User{
		coll: db.Collection("users"),
	}
}

type userDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"passwordHash"`
	Role         internal.Role      `bson:"role"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func (d userDocument) convert() internal.User {
	return internal.User{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Role:         d.Role,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

//Create inserts a new User document, the email must not be taken already.
func (t *User) Create(ctx context.Context, email, passwordHash string, role internal.Role) (internal.User, error) {
	defer newOTELSpan(ctx, "User.Create").End()

	count, err := t.coll.CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		return internal.User{}, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "coll.CountDocuments")
	}
	if count > 0 {
		return internal.User{}, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "email already registered")
	}

	now := time.Now().UTC().Truncate(time.Millisecond)

	doc := userDocument{
		ID:           primitive.NewObjectID(),
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := t.coll.InsertOne(ctx, doc); err != nil {
		return internal.User{}, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "coll.InsertOne")
	}

	return doc.convert(), nil
}

//ByEmail returns the User matching email.
func (t *User) ByEmail(ctx context.Context, email string) (internal.User, error) {
	defer newOTELSpan(ctx, "User.ByEmail").End()

	var doc userDocument

	if err := t.coll.FindOne(ctx, bson.M{"email": email}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return internal.User{}, internal.WrapErrorf(err, internal.ErrorCodeNotFound, "user not found")
		}
		return internal.User{}, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "coll.FindOne")
	}

	return doc.convert(), nil
}

//Find returns the User matching id.
func (t *User) Find(ctx context.Context, id string) (internal.User, error) {
	defer newOTELSpan(ctx, "User.Find").End()

	oid, err := objectIDFromHex(id, internal.ErrorCodeNotFound)
	if err != nil {
		return internal.User{}, err
	}

	var doc userDocument

	if err := t.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return internal.User{}, internal.WrapErrorf(err, internal.ErrorCodeNotFound, "user not found")
		}
		return internal.User{}, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "coll.FindOne")
	}

	return doc.convert(), nil
}

//FindMany returns the Users matching the received ids, unknown ids are skipped.
func (t *User) FindMany(ctx context.Context, ids []string) ([]internal.User, error) {
	defer newOTELSpan(ctx, "User.FindMany").End()

	oids := make([]primitive.ObjectID, 0, len(ids))

	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		oids = append(oids, oid)
	}

	if len(oids) == 0 {
		return []internal.User{}, nil
	}

	cursor, err := t.coll.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "coll.Find")
	}
	defer cursor.Close(ctx)

	res := []internal.User{}

	for cursor.Next(ctx) {
		var doc userDocument
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

//List returns every User, email ascending.
func (t *User) List(ctx context.Context) ([]internal.User, error) {
	defer newOTELSpan(ctx, "User.List").End()

	cursor, err := t.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "email", Value: 1}}))
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "coll.Find")
	}
	defer cursor.Close(ctx)

	res := []internal.User{}

	for cursor.Next(ctx) {
		var doc userDocument
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

//Update applies the non-nil fields of params to an existing User.
func (t *User) Update(ctx context.Context, id string, params internal.UpdateUserParams) error {
	defer newOTELSpan(ctx, "User.Update").End()

	oid, err := objectIDFromHex(id, internal.ErrorCodeNotFound)
	if err != nil {
		return err
	}

	set := bson.M{"updatedAt": time.Now().UTC().Truncate(time.Millisecond)}

	if params.Email != nil {
		set["email"] = *params.Email
	}
	if params.Role != nil {
		set["role"] = *params.Role
	}

	res, err := t.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "coll.UpdateOne")
	}

	if res.MatchedCount == 0 {
		return internal.NewErrorf(internal.ErrorCodeNotFound, "user not found")
	}

	return nil
}

//Delete physically removes the User matching id.
func (t *User) Delete(ctx context.Context, id string) error {
	defer newOTELSpan(ctx, "User.Delete").End()

	oid, err := objectIDFromHex(id, internal.ErrorCodeNotFound)
	if err != nil {
		return err
	}

	res, err := t.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "coll.DeleteOne")
	}

	if res.DeletedCount == 0 {
		return internal.NewErrorf(internal.ErrorCodeNotFound, "user not found")
	}

	return nil
}
