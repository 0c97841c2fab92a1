package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/warehouse-monitoring/pkg/jwt"
)

const secret = "test-secret"

func TestGenerateYParse(t *testing.T) {
	token, err := jwt.Generate(secret, "dashboard", "viewer", "warehouse-monitoring", 5)
	require.NoError(t, err)

	sub, role, err := jwt.Parse(secret, "", token)
	require.NoError(t, err)
	assert.Equal(t, "dashboard", sub)
	assert.Equal(t, "viewer", role)
}

func TestParse_Issuer(t *testing.T) {
	token, err := jwt.Generate(secret, "dashboard", "viewer", "warehouse-monitoring", 5)
	require.NoError(t, err)

	sub, _, err := jwt.Parse(secret, "warehouse-monitoring", token)
	require.NoError(t, err)
	assert.Equal(t, "dashboard", sub)

	_, _, err = jwt.Parse(secret, "otro-emisor", token)
	assert.Error(t, err)
}

func TestParse_FirmaIncorrecta(t *testing.T) {
	token, err := jwt.Generate(secret, "dashboard", "viewer", "warehouse-monitoring", 5)
	require.NoError(t, err)

	_, _, err = jwt.Parse("otro-secret", "", token)
	assert.Error(t, err)
}

func TestParse_Expirado(t *testing.T) {
	token, err := jwt.Generate(secret, "dashboard", "viewer", "warehouse-monitoring", -1)
	require.NoError(t, err)

	_, _, err = jwt.Parse(secret, "", token)
	assert.Error(t, err)
}

func TestSecretVacio(t *testing.T) {
	_, err := jwt.Generate("", "x", "viewer", "i", 5)
	assert.Error(t, err)
	_, _, err = jwt.Parse("", "", "x")
	assert.Error(t, err)
}
