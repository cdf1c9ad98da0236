package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/taksyapp/tasks-api/internal"
	"github.com/taksyapp/tasks-api/internal/auth"
	"github.com/taksyapp/tasks-api/internal/service"
)

type fakeUserRepo struct {
	byEmail map[string]internal.User
	byID    map[string]internal.User

	createdEmail string
	createdHash  string
	createdRole  internal.Role
}

func newFakeUserRepo(users ...internal.User) *fakeUserRepo {
	repo := &fakeUserRepo{
		byEmail: map[string]internal.User{},
		byID:    map[string]internal.User{},
	}
	for _, user := range users {
		repo.byEmail[user.Email] = user
		repo.byID[user.ID] = user
	}
	return repo
}

func (f *fakeUserRepo) Create(_ context.Context, email, passwordHash string, role internal.Role) (internal.User, error) {
	if _, ok := f.byEmail[email]; ok {
		return internal.User{}, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "email already registered")
	}

	f.createdEmail = email
	f.createdHash = passwordHash
	f.createdRole = role

	user := internal.User{ID: "generated", Email: email, PasswordHash: passwordHash, Role: role}
	f.byEmail[email] = user
	f.byID[user.ID] = user

	return user, nil
}

func (f *fakeUserRepo) ByEmail(_ context.Context, email string) (internal.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return internal.User{}, internal.NewErrorf(internal.ErrorCodeNotFound, "user not found")
	}
	return user, nil
}

func (f *fakeUserRepo) Find(_ context.Context, id string) (internal.User, error) {
	user, ok := f.byID[id]
	if !ok {
		return internal.User{}, internal.NewErrorf(internal.ErrorCodeNotFound, "user not found")
	}
	return user, nil
}

func (f *fakeUserRepo) List(_ context.Context) ([]internal.User, error) {
	var res []internal.User
	for _, user := range f.byID {
		res = append(res, user)
	}
	return res, nil
}

func (f *fakeUserRepo) Update(_ context.Context, id string, params internal.UpdateUserParams) error {
	user, ok := f.byID[id]
	if !ok {
		return internal.NewErrorf(internal.ErrorCodeNotFound, "user not found")
	}
	if params.Email != nil {
		user.Email = *params.Email
	}
	if params.Role != nil {
		user.Role = *params.Role
	}
	f.byID[id] = user
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return internal.NewErrorf(internal.ErrorCodeNotFound, "user not found")
	}
	delete(f.byID, id)
	return nil
}

type fakeIssuer struct {
	principal internal.Principal
}

func (f *fakeIssuer) Issue(principal internal.Principal) (string, error) {
	f.principal = principal
	return "token-123", nil
}

type fakeRevoker struct {
	token      string
	expiration time.Duration
}

func (f *fakeRevoker) Revoke(_ context.Context, token string, expiration time.Duration) error {
	f.token = token
	f.expiration = expiration
	return nil
}

func TestUserRegister(t *testing.T) {
	t.Parallel()

	t.Run("stores a hash and issues a token", func(t *testing.T) {
		t.Parallel()

		repo := newFakeUserRepo()
		issuer := &fakeIssuer{}
		svc := service.NewUser(zap.NewNop(), repo, issuer, &fakeRevoker{}, service.Gate{})

		user, token, err := svc.Register(context.Background(), internal.RegisterUserParams{
			Email:    "new@example.com",
			Password: "s3cret!",
		})
		require.NoError(t, err)

		assert.Equal(t, "token-123", token)
		assert.Equal(t, internal.RoleUser, user.Role)
		assert.NotEqual(t, "s3cret!", repo.createdHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.createdHash), []byte("s3cret!")))
		assert.Equal(t, user.ID, issuer.principal.ID)
	})

	t.Run("short password is rejected", func(t *testing.T) {
		t.Parallel()

		svc := service.NewUser(zap.NewNop(), newFakeUserRepo(), &fakeIssuer{}, &fakeRevoker{}, service.Gate{})

		_, _, err := svc.Register(context.Background(), internal.RegisterUserParams{
			Email:    "new@example.com",
			Password: "nope",
		})
		require.Error(t, err)
		assert.Equal(t, internal.ErrorCodeInvalidArgument, errCode(err))
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		t.Parallel()

		repo := newFakeUserRepo(internal.User{ID: "u1", Email: "taken@example.com"})
		svc := service.NewUser(zap.NewNop(), repo, &fakeIssuer{}, &fakeRevoker{}, service.Gate{})

		_, _, err := svc.Register(context.Background(), internal.RegisterUserParams{
			Email:    "taken@example.com",
			Password: "s3cret!",
		})
		require.Error(t, err)
		assert.Equal(t, internal.ErrorCodeInvalidArgument, errCode(err))
	})
}

func TestUserLogin(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret!"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := newFakeUserRepo(internal.User{
		ID:           "u1",
		Email:        "one@example.com",
		PasswordHash: string(hash),
		Role:         internal.RoleUser,
	})

	t.Run("valid credentials", func(t *testing.T) {
		t.Parallel()

		svc := service.NewUser(zap.NewNop(), repo, &fakeIssuer{}, &fakeRevoker{}, service.Gate{})

		user, token, err := svc.Login(context.Background(), "one@example.com", "s3cret!")
		require.NoError(t, err)
		assert.Equal(t, "u1", user.ID)
		assert.Equal(t, "token-123", token)
	})

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		t.Parallel()

		svc := service.NewUser(zap.NewNop(), repo, &fakeIssuer{}, &fakeRevoker{}, service.Gate{})

		_, _, errWrong := svc.Login(context.Background(), "one@example.com", "wrong")
		_, _, errUnknown := svc.Login(context.Background(), "ghost@example.com", "s3cret!")

		require.Error(t, errWrong)
		require.Error(t, errUnknown)
		assert.Equal(t, internal.ErrorCodeUnauthenticated, errCode(errWrong))
		assert.Equal(t, internal.ErrorCodeUnauthenticated, errCode(errUnknown))
		assert.Equal(t, errWrong.Error(), errUnknown.Error())
	})
}

func TestUserLogout(t *testing.T) {
	t.Parallel()

	revoker := &fakeRevoker{}
	svc := service.NewUser(zap.NewNop(), newFakeUserRepo(), &fakeIssuer{}, revoker, service.Gate{})

	err := svc.Logout(context.Background(), internal.Principal{ID: "u1", Role: internal.RoleUser}, "the-token")
	require.NoError(t, err)

	assert.Equal(t, "the-token", revoker.token)
	assert.Equal(t, auth.Expiration, revoker.expiration)
}

func TestUserManagementRequiresAdmin(t *testing.T) {
	t.Parallel()

	repo := newFakeUserRepo(internal.User{ID: "u1", Email: "one@example.com", Role: internal.RoleUser})
	svc := service.NewUser(zap.NewNop(), repo, &fakeIssuer{}, &fakeRevoker{}, service.Gate{})

	_, err := svc.List(context.Background(), user)
	require.Error(t, err)
	assert.Equal(t, internal.ErrorCodeUnauthorized, errCode(err))

	role := internal.RoleAdmin
	updated, err := svc.Update(context.Background(), admin, "u1", internal.UpdateUserParams{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, internal.RoleAdmin, updated.Role)

	require.NoError(t, svc.Delete(context.Background(), admin, "u1"))
}
