package internal

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

//Role governs which operations a principal may perform
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

//Validate ...
func (r Role) Validate() error {
	switch r {
	case RoleUser, RoleAdmin:
		return nil
	}
	return NewErrorf(ErrorCodeInvalidArgument, "unknown role value: %s", r)
}

//User represents an account that can authenticate against the API.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

//Principal is the authenticated actor making a request.
type Principal struct {
	ID   string
	Role Role
}

//IsZero reports whether no authenticated actor is present.
func (p Principal) IsZero() bool {
	return p.ID == ""
}

//RegisterUserParams defines the values used when registering a new User.
type RegisterUserParams struct {
	Email    string
	Password string
}

//Validate ...
func (p RegisterUserParams) Validate() error {
	if err := validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.Required, is.Email),
		validation.Field(&p.Password, validation.Required, validation.Length(6, 72)),
	); err != nil {
		return WrapErrorf(err, ErrorCodeInvalidArgument, "validation.ValidateStruct")
	}
	return nil
}

//UpdateUserParams defines the values used when updating a User, nil fields are left unchanged.
type UpdateUserParams struct {
	Email *string
	Role  *Role
}

//Validate ...
func (p UpdateUserParams) Validate() error {
	if p.Email != nil {
		if err := validation.Validate(*p.Email, validation.Required, is.Email); err != nil {
			return WrapErrorf(err, ErrorCodeInvalidArgument, "validation.Validate")
		}
	}
	if p.Role != nil {
		return p.Role.Validate()
	}
	return nil
}
