package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/taksyapp/tasks-api/internal"
	"github.com/taksyapp/tasks-api/internal/auth"
)

const otelName = "github.com/taksyapp/tasks-api/internal/service"

//UserRepository defines the datastore handling persisting User records.
type UserRepository interface {
	Create(ctx context.Context, email, passwordHash string, role internal.Role) (internal.User, error)
	ByEmail(ctx context.Context, email string) (internal.User, error)
	Find(ctx context.Context, id string) (internal.User, error)
	List(ctx context.Context) ([]internal.User, error)
	Update(ctx context.Context, id string, params internal.UpdateUserParams) error
	Delete(ctx context.Context, id string) error
}

//TokenIssuer mints the bearer tokens handed out on register and login.
type TokenIssuer interface {
	Issue(principal internal.Principal) (string, error)
}

//TokenRevoker denylists tokens on logout.
type TokenRevoker interface {
	Revoke(ctx context.Context, token string, expiration time.Duration) error
}

//User defines the application service in charge of accounts and sessions.
type User struct {
	logger  *zap.Logger
	repo    UserRepository
	tokens  TokenIssuer
	revoker TokenRevoker
	gate    Gate
}

//NewUser ...
func NewUser(logger *zap.Logger, repo UserRepository, tokens TokenIssuer, revoker TokenRevoker, gate Gate) *User {
	return &User{
		logger:  logger,
		repo:    repo,
		tokens:  tokens,
		revoker: revoker,
		gate:    gate,
	}
}

//Register creates a new account with the "user" role and returns it together with a
//fresh token.
func (u *User) Register(ctx context.Context, params internal.RegisterUserParams) (internal.User, string, error) {
	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer(otelName).Start(ctx, "User.Register")
	defer span.End()

	if err := params.Validate(); err != nil {
		return internal.User{}, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return internal.User{}, "", internal.WrapErrorf(err, internal.ErrorCodeUnknown, "bcrypt.GenerateFromPassword")
	}

	user, err := u.repo.Create(ctx, params.Email, string(hash), internal.RoleUser)
	if err != nil {
		return internal.User{}, "", err
	}

	token, err := u.tokens.Issue(internal.Principal{ID: user.ID, Role: user.Role})
	if err != nil {
		return internal.User{}, "", err
	}

	return user, token, nil
}

//Login verifies the credentials and returns the account plus a fresh token. A
//missing account and a wrong password are indistinguishable to the caller.
func (u *User) Login(ctx context.Context, email, password string) (internal.User, string, error) {
	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer(otelName).Start(ctx, "User.Login")
	defer span.End()

	invalid := internal.NewErrorf(internal.ErrorCodeUnauthenticated, "invalid email or password")

	user, err := u.repo.ByEmail(ctx, email)
	if err != nil {
		var ierr *internal.Error
		if errors.As(err, &ierr) && ierr.Code() == internal.ErrorCodeNotFound {
			return internal.User{}, "", invalid
		}
		return internal.User{}, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return internal.User{}, "", invalid
	}

	token, err := u.tokens.Issue(internal.Principal{ID: user.ID, Role: user.Role})
	if err != nil {
		return internal.User{}, "", err
	}

	return user, token, nil
}

//Logout denylists the presented token until it would have expired on its own.
func (u *User) Logout(ctx context.Context, principal internal.Principal, token string) error {
	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer(otelName).Start(ctx, "User.Logout")
	defer span.End()

	if principal.IsZero() {
		return internal.NewErrorf(internal.ErrorCodeUnauthenticated, "not authenticated")
	}

	return u.revoker.Revoke(ctx, token, auth.Expiration)
}

//List returns every account, admin only.
func (u *User) List(ctx context.Context, principal internal.Principal) ([]internal.User, error) {
	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer(otelName).Start(ctx, "User.List")
	defer span.End()

	if err := u.gate.CanManageUsers(principal); err != nil {
		return nil, err
	}

	return u.repo.List(ctx)
}

//Update modifies an existing account, admin only.
func (u *User) Update(ctx context.Context, principal internal.Principal, id string, params internal.UpdateUserParams) (internal.User, error) {
	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer(otelName).Start(ctx, "User.Update")
	defer span.End()

	if err := u.gate.CanManageUsers(principal); err != nil {
		return internal.User{}, err
	}

	if err := params.Validate(); err != nil {
		return internal.User{}, err
	}

	if err := u.repo.Update(ctx, id, params); err != nil {
		return internal.User{}, err
	}

	return u.repo.Find(ctx, id)
}

//Delete removes an existing account, admin only.
func (u *User) Delete(ctx context.Context, principal internal.Principal, id string) error {
	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer(otelName).Start(ctx, "User.Delete")
	defer span.End()

	if err := u.gate.CanManageUsers(principal); err != nil {
		return err
	}

	return u.repo.Delete(ctx, id)
}
