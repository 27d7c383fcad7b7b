package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	// Transporte y formato del documento remoto.
	ErrRead   = errors.New("no se pudo leer el documento remoto")
	ErrWrite  = errors.New("no se pudo escribir el documento remoto")
	ErrDecode = errors.New("contenido del documento remoto inválido")

	// ErrVersionConflict la versión esperada ya no coincide con la del remoto.
	ErrVersionConflict = errors.New("el documento remoto cambió desde la última lectura")

	// Existencia de identificadores.
	ErrNotFound    = errors.New("item no encontrado")
	ErrDuplicateID = errors.New("ya existe un item con ese id")

	// Ciclo de vida del item.
	ErrAlreadyCheckedOut = errors.New("el item ya está prestado")
	ErrAlreadyCheckedIn  = errors.New("el item ya fue devuelto")
	ErrMissingItem       = errors.New("el item está marcado como perdido")
	ErrEmptyItem         = errors.New("el item está vacío")
	ErrInvalidCount      = errors.New("cantidad inválida")
	ErrBorrowerConflict  = errors.New("la persona ya tiene un item prestado")
	ErrInvalidItem       = errors.New("item inválido")

	// Autenticación de operadores.
	ErrUnauthorized = errors.New("credenciales inválidas")
)

// ConflictError describe una escritura rechazada porque el token de versión enviado
// no coincide con el que tiene el remoto. Es a la vez ErrWrite y ErrVersionConflict.
type ConflictError struct {
	Resource        string
	ExpectedVersion string
	CurrentVersion  string // vacío si el remoto no lo informa
}

func (e *ConflictError) Error() string {
	if e.CurrentVersion != "" {
		return fmt.Sprintf("%s: %s (esperada %q, actual %q)", ErrVersionConflict, e.Resource, e.ExpectedVersion, e.CurrentVersion)
	}
	return fmt.Sprintf("%s: %s (esperada %q)", ErrVersionConflict, e.Resource, e.ExpectedVersion)
}

// Is permite errors.Is(err, ErrWrite) y errors.Is(err, ErrVersionConflict).
func (e *ConflictError) Is(target error) bool {
	return target == ErrVersionConflict || target == ErrWrite
}

// IsLifecycleError indica si err es un rechazo de validación del ciclo de vida
// (no un fallo de transporte).
func IsLifecycleError(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrDuplicateID, ErrAlreadyCheckedOut, ErrAlreadyCheckedIn,
		ErrMissingItem, ErrEmptyItem, ErrInvalidCount, ErrBorrowerConflict, ErrInvalidItem,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
