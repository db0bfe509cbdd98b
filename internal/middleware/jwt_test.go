package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestNewHS256Validator_RequiresSecret(t *testing.T) {
	_, err := NewHS256Validator("", "")
	require.Error(t, err)
}

func TestHS256Validator_Validate(t *testing.T) {
	const secret = "test-secret-32-bytes-long-xxxxx"
	future := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name     string
		audience string
		token    func(t *testing.T) string
		wantErr  bool
		wantSub  string
		wantAud  []string
	}{
		{
			name: "valid with all claims",
			token: func(t *testing.T) string {
				return makeToken(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{
					"sub": "auth|alice", "iss": "dev", "email": "a@example.com", "name": "Alice",
					"aud": "access-api", "exp": future,
				})
			},
			audience: "access-api",
			wantSub:  "auth|alice",
			wantAud:  []string{"access-api"},
		},
		{
			name: "audience list",
			token: func(t *testing.T) string {
				return makeToken(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{
					"sub": "auth|bob", "aud": []string{"other", "access-api"}, "exp": future,
				})
			},
			audience: "access-api",
			wantSub:  "auth|bob",
			wantAud:  []string{"other", "access-api"},
		},
		{
			name: "wrong audience",
			token: func(t *testing.T) string {
				return makeToken(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{
					"sub": "auth|bob", "aud": "other", "exp": future,
				})
			},
			audience: "access-api",
			wantErr:  true,
		},
		{
			name: "wrong secret",
			token: func(t *testing.T) string {
				return makeToken(t, jwt.SigningMethodHS256, []byte("nope"), jwt.MapClaims{"sub": "x", "exp": future})
			},
			wantErr: true,
		},
		{
			name: "expired",
			token: func(t *testing.T) string {
				return makeToken(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{
					"sub": "x", "exp": time.Now().Add(-time.Hour).Unix(),
				})
			},
			wantErr: true,
		},
		{
			name: "wrong algorithm",
			token: func(t *testing.T) string {
				return makeToken(t, jwt.SigningMethodHS384, []byte(secret), jwt.MapClaims{"sub": "x", "exp": future})
			},
			wantErr: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, err := NewHS256Validator(secret, tc.audience)
			require.NoError(t, err)

			claims, err := v.Validate(context.Background(), tc.token(t))
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantSub, claims.Subject)
			assert.Equal(t, tc.wantAud, claims.Audience)
		})
	}
}

func TestJWTClaims_DisplayName(t *testing.T) {
	email := "a@example.com"
	name := "Alice"

	c := &JWTClaims{Subject: "auth|a", Raw: map[string]interface{}{"preferred_username": "ali"}}
	assert.Equal(t, "auth|a", c.DisplayName(""))
	assert.Equal(t, "ali", c.DisplayName("preferred_username"))

	c.Email = &email
	assert.Equal(t, email, c.DisplayName("email_missing"))
	c.Name = &name
	assert.Equal(t, name, c.DisplayName(""))
}
