package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret  = "test-secret"
	testAnon    = "anon-key"
	testService = "service-key"
)

func TestAuthenticate_AccessToken(t *testing.T) {
	a := NewAuthenticator(testSecret, testAnon, testService)

	token, err := IssueToken(testSecret, "user-1", "pilot@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := a.Authenticate(testAnon, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "pilot@example.com", claims.Email())
	assert.Equal(t, SourceJWT, claims.Source())
	assert.False(t, claims.IsServiceRole())
}

func TestAuthenticate_ServiceKey(t *testing.T) {
	a := NewAuthenticator(testSecret, testAnon, testService)

	claims, err := a.Authenticate(testService, testService)
	require.NoError(t, err)
	assert.True(t, claims.IsServiceRole())
	assert.Equal(t, RoleService, claims.Role())
}

func TestAuthenticate_Rejections(t *testing.T) {
	a := NewAuthenticator(testSecret, testAnon, testService)
	good, err := IssueToken(testSecret, "user-1", "", time.Hour)
	require.NoError(t, err)
	expired, err := IssueToken(testSecret, "user-1", "", -time.Minute)
	require.NoError(t, err)
	forged, err := IssueToken("other-secret", "user-1", "", time.Hour)
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "user-1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name   string
		apiKey string
		bearer string
		want   error
	}{
		{"missing apikey", "", good, ErrMissingAPIKey},
		{"unknown apikey", "nope", good, ErrInvalidAPIKey},
		{"missing bearer", testAnon, "", ErrMissingToken},
		{"anon key is not a user", testAnon, testAnon, ErrInvalidToken},
		{"expired", testAnon, expired, ErrInvalidToken},
		{"wrong secret", testAnon, forged, ErrInvalidToken},
		{"alg none", testAnon, unsigned, ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Authenticate(tt.apiKey, tt.bearer)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
