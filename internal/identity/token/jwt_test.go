package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "corebank/pkg/domain-errors"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewJWTService("test-signing-key", "corebank-test")
	actorID := uuid.New()

	signed, jti, err := svc.GenerateSessionToken(actorID, "staff", "OFFICER", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, signed)
	require.NotEmpty(t, jti)

	claims, err := svc.ValidateToken(signed)
	require.NoError(t, err)
	assert.Equal(t, actorID.String(), claims.ActorID)
	assert.Equal(t, "staff", claims.ActorType)
	assert.Equal(t, "OFFICER", claims.Role)
	assert.Equal(t, jti, claims.ID)
}

func TestValidateRejectsExpired(t *testing.T) {
	svc := NewJWTService("test-signing-key", "corebank-test")

	signed, _, err := svc.GenerateSessionToken(uuid.New(), "admin", "ADMIN", -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(signed)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateRejectsWrongKey(t *testing.T) {
	svc := NewJWTService("key-one", "corebank-test")
	other := NewJWTService("key-two", "corebank-test")

	signed, _, err := svc.GenerateSessionToken(uuid.New(), "staff", "TELLER", time.Hour)
	require.NoError(t, err)

	_, err = other.ValidateToken(signed)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
