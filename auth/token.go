//go:generate go run go.uber.org/mock/mockgen -source=token.go -destination=../mocks/mock_token.go -package=mocks
package auth

import (
	"context"
	"dm-lab/domain"
	"dm-lab/errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the authenticated user behind a credential.
type Identity struct {
	UserID   string `validate:"required,uuid"`
	Username string `validate:"omitempty,max=64"`
	Avatar   string `validate:"omitempty,url"`
	Roles    []string
}

func (i Identity) Summary() domain.UserSummary {
	return domain.UserSummary{ID: i.UserID, Username: i.Username, Avatar: i.Avatar}
}

// IVerifier is the single verification capability shared by the REST middleware and the realtime handshake.
type IVerifier interface {
	Verify(token string) (Identity, error)
}

// CustomClaims defines the structure of the data stored inside the JWT issued by the identity provider.
type CustomClaims struct {
	UserID   string   `json:"user_id"`
	Username string   `json:"username,omitempty"`
	Avatar   string   `json:"avatar,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// JWTVerifier validates HS256 tokens signed with the secret shared with the identity provider.
type JWTVerifier struct {
	secret []byte
	issuer string
}

func NewJWTVerifier(secret []byte, issuer string) *JWTVerifier {
	return &JWTVerifier{secret: secret, issuer: issuer}
}

// Verify parses and validates the signature, issuer and expiration of a JWT string.
// A "Bearer " prefix is accepted.
func (v *JWTVerifier) Verify(tokenString string) (Identity, error) {
	tokenString = BearerToken(tokenString)
	if tokenString == "" {
		return Identity{}, errors.ErrUnauthenticated
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		options = append(options, jwt.WithIssuer(v.issuer))
	}

	claims := &CustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, options...)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", errors.ErrUnauthenticated, err)
	}
	if !token.Valid {
		return Identity{}, errors.ErrUnauthenticated
	}

	identity := Identity{
		UserID:   claims.UserID,
		Username: claims.Username,
		Avatar:   claims.Avatar,
		Roles:    claims.Roles,
	}
	if identity.UserID == "" {
		identity.UserID = claims.Subject
	}
	if err = ValidateIdentity(identity); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", errors.ErrUnauthenticated, err)
	}
	return identity, nil
}

// GenerateToken signs a token the way the identity provider does.
// Only the development CLI and the tests issue tokens.
func (v *JWTVerifier) GenerateToken(identity Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		UserID:   identity.UserID,
		Username: identity.Username,
		Avatar:   identity.Avatar,
		Roles:    identity.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    v.issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

// BearerToken strips an optional "Bearer " scheme.
func BearerToken(value string) string {
	value = strings.TrimSpace(value)
	if len(value) >= 7 && strings.EqualFold(value[:7], "bearer ") {
		value = strings.TrimSpace(value[7:])
	}
	return value
}

const accessTokenCookie = "accessToken"

// TokenFromRequest looks for a credential in the Authorization header, the accessToken cookie,
// then the token query parameter (browsers cannot set headers on a websocket handshake).
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.TrimSpace(header) != "" {
		return BearerToken(header)
	}
	if cookie, err := r.Cookie(accessTokenCookie); err == nil && cookie.Value != "" {
		return BearerToken(cookie.Value)
	}
	return BearerToken(r.URL.Query().Get("token"))
}

type contextKey string

const identityKey contextKey = "identity"

func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}
