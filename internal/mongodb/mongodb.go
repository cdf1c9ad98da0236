package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.7.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/taksyapp/tasks-api/internal"
)

const otelName = "github.com/taksyapp/tasks-api/internal/mongodb"

//objectIDFromHex converts a client-supplied hex id, mapping malformed values to the
//received error code so bogus task ids surface as 404s instead of 500s.
func objectIDFromHex(id string, code internal.ErrorCode) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, internal.WrapErrorf(err, code, "primitive.ObjectIDFromHex %s", id)
	}
	return oid, nil
}

func newOTELSpan(ctx context.Context, name string) trace.Span {
	_, span := otel.Tracer(otelName).Start(ctx, name)

	span.SetAttributes(semconv.DBSystemMongoDB)

	return span
}
