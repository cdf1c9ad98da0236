package redis

import (
	"context"
	"time"

	rv8 "github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.7.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/taksyapp/tasks-api/internal"
)

const otelName = "github.com/taksyapp/tasks-api/internal/redis"

//Tokens is the denylist consulted on every authenticated request, logged-out tokens
//stay listed until their own expiry.
type Tokens struct {
	client *rv8.Client
}

//NewTokens ...
func NewTokens(client *rv8.Client) *Tokens {
	return &Tokens{
		client: client,
	}
}

//Revoke denylists a token for the received duration.
func (t *Tokens) Revoke(ctx context.Context, token string, expiration time.Duration) error {
	defer newOTELSpan(ctx, "Tokens.Revoke").End()

	if err := t.client.Set(ctx, key(token), "revoked", expiration).Err(); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "client.Set")
	}

	return nil
}

//Revoked reports whether a token has been denylisted.
func (t *Tokens) Revoked(ctx context.Context, token string) (bool, error) {
	defer newOTELSpan(ctx, "Tokens.Revoked").End()

	if err := t.client.Get(ctx, key(token)).Err(); err != nil {
		if err == rv8.Nil {
			return false, nil
		}
		return false, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "client.Get")
	}

	return true, nil
}

func key(token string) string {
	return "revoked:" + token
}

func newOTELSpan(ctx context.Context, name string) trace.Span {
	_, span := otel.Tracer(otelName).Start(ctx, name)

	span.SetAttributes(semconv.DBSystemRedis)

	return span
}
