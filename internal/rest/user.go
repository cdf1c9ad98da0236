package rest

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taksyapp/tasks-api/internal"
)

//UserService ...
type UserService interface {
	Register(ctx context.Context, params internal.RegisterUserParams) (internal.User, string, error)
	Login(ctx context.Context, email, password string) (internal.User, string, error)
	Logout(ctx context.Context, principal internal.Principal, token string) error
	List(ctx context.Context, principal internal.Principal) ([]internal.User, error)
	Update(ctx context.Context, principal internal.Principal, id string, params internal.UpdateUserParams) (internal.User, error)
	Delete(ctx context.Context, principal internal.Principal, id string) error
}

//UserHandler ...
type UserHandler struct {
	svc UserService
}

//NewUserHandler ...
func NewUserHandler(svc UserService) *UserHandler {
	return &UserHandler{
		svc: svc,
	}
}

//RegisterPublic connects the unauthenticated handlers to the router.
func (u *UserHandler) RegisterPublic(r chi.Router) {
	r.Post("/auth/register", u.register)
	r.Post("/auth/login", u.login)
}

//Register connects the authenticated handlers to the router.
func (u *UserHandler) Register(r chi.Router) {
	r.Post("/auth/logout", u.logout)

	r.Route("/users", func(r chi.Router) {
		r.Get("/", u.list)
		r.Put("/{id}", u.update)
		r.Delete("/{id}", u.delete)
	})
}

//CredentialsRequest defines the request used for registering and logging in.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

//SessionResponse defines the response returned back after registering or logging in.
type SessionResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Token string `json:"token"`
}

//User defines an account as rendered to admins.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func newUser(user internal.User) User {
	return User{
		ID:    user.ID,
		Email: user.Email,
		Role:  string(user.Role),
	}
}

func (u *UserHandler) register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderErrorResponse(r.Context(), w, "invalid request",
			internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "json decoder"))
		return
	}
	defer r.Body.Close()

	user, token, err := u.svc.Register(r.Context(), internal.RegisterUserParams{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		renderErrorResponse(r.Context(), w, "register failed", err)
		return
	}

	renderResponse(w, &SessionResponse{
		ID:    user.ID,
		Email: user.Email,
		Role:  string(user.Role),
		Token: token,
	}, http.StatusCreated)
}

func (u *UserHandler) login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderErrorResponse(r.Context(), w, "invalid request",
			internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "json decoder"))
		return
	}
	defer r.Body.Close()

	user, token, err := u.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		renderErrorResponse(r.Context(), w, "login failed", err)
		return
	}

	renderResponse(w, &SessionResponse{
		ID:    user.ID,
		Email: user.Email,
		Role:  string(user.Role),
		Token: token,
	}, http.StatusOK)
}

//LogoutResponse ...
type LogoutResponse struct {
	Message string `json:"message"`
}

func (u *UserHandler) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := u.svc.Logout(ctx, PrincipalFromContext(ctx), TokenFromContext(ctx)); err != nil {
		renderErrorResponse(ctx, w, "logout failed", err)
		return
	}

	renderResponse(w, &LogoutResponse{Message: "Logged out"}, http.StatusOK)
}

//ListUsersResponse ...
type ListUsersResponse struct {
	Users []User `json:"users"`
}

func (u *UserHandler) list(w http.ResponseWriter, r *http.Request) {
	users, err := u.svc.List(r.Context(), PrincipalFromContext(r.Context()))
	if err != nil {
		renderErrorResponse(r.Context(), w, "list failed", err)
		return
	}

	res := ListUsersResponse{Users: make([]User, len(users))}
	for i, user := range users {
		res.Users[i] = newUser(user)
	}

	renderResponse(w, &res, http.StatusOK)
}

//UpdateUserRequest defines the request used for updating an account.
type UpdateUserRequest struct {
	Email *string `json:"email"`
	Role  *string `json:"role"`
}

func (u *UserHandler) update(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderErrorResponse(r.Context(), w, "invalid request",
			internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "json decoder"))
		return
	}
	defer r.Body.Close()

	params := internal.UpdateUserParams{Email: req.Email}
	if req.Role != nil {
		role := internal.Role(*req.Role)
		params.Role = &role
	}

	user, err := u.svc.Update(r.Context(), PrincipalFromContext(r.Context()), chi.URLParam(r, "id"), params)
	if err != nil {
		renderErrorResponse(r.Context(), w, "update failed", err)
		return
	}

	renderResponse(w, newUser(user), http.StatusOK)
}

//DeleteUserResponse ...
type DeleteUserResponse struct {
	Message string `json:"message"`
}

func (u *UserHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := u.svc.Delete(r.Context(), PrincipalFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		renderErrorResponse(r.Context(), w, "delete failed", err)
		return
	}

	renderResponse(w, &DeleteUserResponse{Message: "User deleted"}, http.StatusOK)
}
