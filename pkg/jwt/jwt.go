package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims incluye los claims estándar JWT más el operador del kiosco.
// El operador queda registrado en el mensaje de cada escritura del documento.
type Claims struct {
	jwt.RegisteredClaims
	Operator string `json:"operator"`
}

// Generate genera un token JWT firmado (HS256) para operator.
func Generate(secret, operator, issuer string, expMinutes int) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	if operator == "" {
		return "", fmt.Errorf("jwt: operador vacío")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   operator,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		Operator: operator,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse valida el token y devuelve el operador.
// Retorna error si el token es inválido, expirado, tiene firma incorrecta o,
// cuando issuer no está vacío, fue emitido por otro.
func Parse(secret, issuer, tokenString string) (operator string, err error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	var opts []jwt.ParserOption
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("claims inválidos")
	}
	if claims.Operator == "" {
		return claims.Subject, nil
	}
	return claims.Operator, nil
}
