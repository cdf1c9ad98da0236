package auth

import (
	"time"

	"github.com/golang-jwt/jwt"

	"github.com/taksyapp/tasks-api/internal"
)

//Expiration is how long an issued token remains valid.
const Expiration = 30 * 24 * time.Hour

//Claims is the payload carried by a bearer token: the principal's id and role.
type Claims struct {
	ID   string        `json:"id"`
	Role internal.Role `json:"role"`
	jwt.StandardClaims
}

//Tokens issues and verifies the bearer tokens presented on "Authorization" headers.
type Tokens struct {
	secret []byte
}

//NewTokens ...
func NewTokens(secret string) *Tokens {
	return &Tokens{
		secret: []byte(secret),
	}
}

//Issue returns a signed token carrying the principal, expiring after Expiration.
func (t *Tokens) Issue(principal internal.Principal) (string, error) {
	now := time.Now()

	claims := Claims{
		ID:   principal.ID,
		Role: principal.Role,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(Expiration).Unix(),
		},
	}

	res, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", internal.WrapErrorf(err, internal.ErrorCodeUnknown, "jwt.SignedString")
	}

	return res, nil
}

//Verify parses and validates a signed token, returning the principal it carries.
func (t *Tokens) Verify(token string) (internal.Principal, error) {
	var claims Claims

	parsed, err := jwt.ParseWithClaims(token, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, internal.NewErrorf(internal.ErrorCodeUnauthenticated, "unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return internal.Principal{}, internal.WrapErrorf(err, internal.ErrorCodeUnauthenticated, "jwt.ParseWithClaims")
	}

	if !parsed.Valid {
		return internal.Principal{}, internal.NewErrorf(internal.ErrorCodeUnauthenticated, "invalid token")
	}

	return internal.Principal{
		ID:   claims.ID,
		Role: claims.Role,
	}, nil
}
