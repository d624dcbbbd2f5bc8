package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingAPIKey = errors.New("missing apikey header")
	ErrInvalidAPIKey = errors.New("invalid apikey")
	ErrMissingToken  = errors.New("missing bearer token")
	ErrInvalidToken  = errors.New("invalid or expired access token")
)

// Authenticator checks the apikey / bearer pair presented on every request.
type Authenticator struct {
	secret     []byte
	anonKey    string
	serviceKey string
}

func NewAuthenticator(jwtSecret, anonKey, serviceKey string) *Authenticator {
	return &Authenticator{
		secret:     []byte(jwtSecret),
		anonKey:    anonKey,
		serviceKey: serviceKey,
	}
}

// Authenticate accepts the service key as bearer, or any bearer access token
// signed with the JWT secret. The apikey must be the anon or service key.
func (a *Authenticator) Authenticate(apiKey, bearer string) (UserClaims, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if !a.knownKey(apiKey) {
		return nil, ErrInvalidAPIKey
	}
	if bearer == "" {
		return nil, ErrMissingToken
	}

	if a.serviceKey != "" && equal(bearer, a.serviceKey) {
		return &ServiceClaims{}, nil
	}

	claims, err := a.VerifyToken(bearer)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (a *Authenticator) knownKey(k string) bool {
	return (a.anonKey != "" && equal(k, a.anonKey)) ||
		(a.serviceKey != "" && equal(k, a.serviceKey))
}

// VerifyToken validates an HS256 access token and returns its subject.
func (a *Authenticator) VerifyToken(raw string) (*JWTClaims, error) {
	var tc TokenClaims

	_, err := jwt.ParseWithClaims(raw, &tc, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if tc.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	role := tc.RoleValue
	if role == "" {
		role = RoleAuthenticated
	}
	return &JWTClaims{
		UserUUID:   tc.Subject,
		EmailValue: tc.EmailValue,
		RoleValue:  role,
	}, nil
}

// IssueToken signs an access token the way the auth provider does. Used by
// cmd/tokengen and tests.
func IssueToken(secret, userID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	tc := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		EmailValue: email,
		RoleValue:  RoleAuthenticated,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tc).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
