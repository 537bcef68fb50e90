package service

import (
	"testing"
	"time"

	"marketplace-settlement/internal/core/ports"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTTokenService_GenerateAndValidate(t *testing.T) {
	svc := NewJWTTokenService("test-secret-key", time.Hour, "marketplace-settlement")
	userID := uuid.New()

	token, expiry, err := svc.Generate(userID, ports.RoleAdmin)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiry.After(time.Now()))

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, ports.RoleAdmin, claims.Role)
}

func TestJWTTokenService_Validate_WrongSecret(t *testing.T) {
	svc := NewJWTTokenService("secret-a", time.Hour, "marketplace-settlement")
	other := NewJWTTokenService("secret-b", time.Hour, "marketplace-settlement")

	token, _, err := svc.Generate(uuid.New(), ports.RoleUser)
	require.NoError(t, err)

	_, err = other.Validate(token)
	assert.Error(t, err)
}

func TestJWTTokenService_Validate_Expired(t *testing.T) {
	svc := NewJWTTokenService("test-secret-key", -time.Minute, "marketplace-settlement")

	token, _, err := svc.Generate(uuid.New(), ports.RoleUser)
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.Error(t, err)
}

func TestJWTTokenService_Validate_Garbage(t *testing.T) {
	svc := NewJWTTokenService("test-secret-key", time.Hour, "marketplace-settlement")

	_, err := svc.Validate("not.a.token")
	assert.Error(t, err)
}
