package internal

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/taksyapp/tasks-api/internal"
	"github.com/taksyapp/tasks-api/internal/envvar"
)

//NewMongoDB instantiates the MongoDB database handle using configuration defined in environment variables.
func NewMongoDB(conf *envvar.Configuration) (*mongo.Database, error) {
	uri, err := conf.Get("MONGODB_URI")
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "conf.Get MONGODB_URI")
	}

	dbName, err := conf.Get("MONGODB_DB")
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "conf.Get MONGODB_DB")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "mongo.Connect")
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "client.Ping")
	}

	return client.Database(dbName), nil
}
