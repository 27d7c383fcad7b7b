package auth

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/boxtrack/internal/application/dto"
	"github.com/jhoicas/boxtrack/internal/domain"
	"github.com/jhoicas/boxtrack/pkg/jwt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// AuthUseCase login de operadores del kiosco contra hashes bcrypt configurados.
type AuthUseCase struct {
	operators map[string]string // nombre -> hash bcrypt
	jwtCfg    JWTConfig
	now       func() time.Time
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(operators map[string]string, jwtCfg JWTConfig) *AuthUseCase {
	ops := make(map[string]string, len(operators))
	for name, hash := range operators {
		ops[strings.TrimSpace(name)] = strings.TrimSpace(hash)
	}
	return &AuthUseCase{operators: ops, jwtCfg: jwtCfg, now: time.Now}
}

// HashPassword genera el hash bcrypt que se configura en HTTP_OPERATORS.
func HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", fmt.Errorf("password debe tener al menos 8 caracteres")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Login verifica operador/password y genera el JWT.
// Operador desconocido y password incorrecto devuelven el mismo domain.ErrUnauthorized.
func (uc *AuthUseCase) Login(in dto.LoginRequest) (*dto.LoginResponse, error) {
	hash, ok := uc.operators[in.Operator]
	if !ok || hash == "" {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, in.Operator, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token:     token,
		Operator:  in.Operator,
		ExpiresAt: uc.now().Add(time.Duration(uc.jwtCfg.ExpMinutes) * time.Minute).UTC(),
	}, nil
}
