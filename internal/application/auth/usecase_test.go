package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/boxtrack/internal/application/auth"
	"github.com/jhoicas/boxtrack/internal/application/dto"
	"github.com/jhoicas/boxtrack/internal/domain"
	"github.com/jhoicas/boxtrack/pkg/jwt"
)

var jwtCfg = auth.JWTConfig{Secret: "secret", ExpMinutes: 30, Issuer: "boxtrack"}

func newUseCase(t *testing.T) *auth.AuthUseCase {
	t.Helper()
	hash, err := auth.HashPassword("chocolate1")
	require.NoError(t, err)
	return auth.NewAuthUseCase(map[string]string{"rita": hash}, jwtCfg)
}

func TestLogin_OK(t *testing.T) {
	out, err := newUseCase(t).Login(dto.LoginRequest{Operator: "rita", Password: "chocolate1"})
	require.NoError(t, err)
	assert.Equal(t, "rita", out.Operator)
	assert.False(t, out.ExpiresAt.IsZero())

	operator, err := jwt.Parse(jwtCfg.Secret, jwtCfg.Issuer, out.Token)
	require.NoError(t, err)
	assert.Equal(t, "rita", operator)
}

func TestLogin_CredencialesInvalidas(t *testing.T) {
	uc := newUseCase(t)

	_, err := uc.Login(dto.LoginRequest{Operator: "rita", Password: "otra-clave"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = uc.Login(dto.LoginRequest{Operator: "tom", Password: "chocolate1"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestHashPassword_Corta(t *testing.T) {
	_, err := auth.HashPassword("corta")
	assert.Error(t, err)
}
