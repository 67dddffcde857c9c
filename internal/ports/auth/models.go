package auth

import "strings"

// Role define las capacidades de una sesión autenticada.
// Los valores son los que viajan en el claim `role` del token.
type Role string

const (
	RoleAssistant    Role = "asistente"   // gestiona propietarios y perros
	RoleVeterinarian Role = "veterinario" // conduce evaluaciones
)

func ParseRole(s string) (Role, bool) {
	switch Role(strings.TrimSpace(s)) {
	case RoleAssistant:
		return RoleAssistant, true
	case RoleVeterinarian:
		return RoleVeterinarian, true
	default:
		return "", false
	}
}

// Claims representa la información extraída del token.
// El rol se resuelve una vez por request y se pasa explícito a los servicios;
// no hay estado de autenticación ambiente.
type Claims struct {
	UserID   string
	Username string
	Role     Role
}
