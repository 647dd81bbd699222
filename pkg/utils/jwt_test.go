package utils

import (
	"testing"

	"agency-crm-backend/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	svc := NewJWTService("unit-secret")

	user := &models.User{
		Username:       "Alice Owner",
		Email:          "alice@agency.test",
		Role:           models.RoleOwner,
		OrganizationID: "org-1",
	}

	token, err := svc.GenerateToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@agency.test", claims.Email)
	assert.Equal(t, models.RoleOwner, claims.Role)
	assert.Equal(t, "org-1", claims.OrganizationID)
	assert.Greater(t, claims.Exp, claims.Iat)
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	token, err := NewJWTService("secret-a").GenerateToken(&models.User{Email: "x@y.test"})
	require.NoError(t, err)

	_, err = NewJWTService("secret-b").ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTRejectsGarbage(t *testing.T) {
	_, err := NewJWTService("unit-secret").ValidateToken("definitely.not.ajwt")
	assert.Error(t, err)
}
