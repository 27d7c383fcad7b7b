package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/boxtrack/pkg/jwt"
)

const secret = "kiosk-secret"

func TestGenerateParse(t *testing.T) {
	token, err := jwt.Generate(secret, "marta", "boxtrack", 60)
	require.NoError(t, err)

	op, err := jwt.Parse(secret, "boxtrack", token)
	require.NoError(t, err)
	assert.Equal(t, "marta", op)

	op, err = jwt.Parse(secret, "", token)
	require.NoError(t, err, "sin issuer no se valida el emisor")
	assert.Equal(t, "marta", op)
}

func TestParse_Rechazos(t *testing.T) {
	token, err := jwt.Generate(secret, "marta", "boxtrack", 60)
	require.NoError(t, err)

	_, err = jwt.Parse("otro-secret", "boxtrack", token)
	assert.Error(t, err, "firma incorrecta")

	_, err = jwt.Parse(secret, "otro-emisor", token)
	assert.Error(t, err)

	expired, err := jwt.Generate(secret, "marta", "boxtrack", -1)
	require.NoError(t, err)
	_, err = jwt.Parse(secret, "boxtrack", expired)
	assert.Error(t, err)

	_, err = jwt.Parse(secret, "", "no.es.jwt")
	assert.Error(t, err)
}

func TestGenerate_Validaciones(t *testing.T) {
	_, err := jwt.Generate("", "marta", "boxtrack", 60)
	assert.Error(t, err)
	_, err = jwt.Generate(secret, "", "boxtrack", 60)
	assert.Error(t, err)
}
