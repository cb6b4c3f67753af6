package auth

type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleGuardian   Role = "guardian"
	RoleAdmin      Role = "admin"

	// RoleSystem lo usan otros servicios (ej. órdenes/pagos) al confirmar una compra.
	RoleSystem Role = "system"
)

func ParseRole(s string) Role {
	switch r := Role(s); r {
	case RoleStudent, RoleInstructor, RoleGuardian, RoleAdmin, RoleSystem:
		return r
	default:
		return RoleStudent
	}
}

// Claims representa la información extraída del token.
type Claims struct {
	UserID string
	Email  string
	Role   Role
}

func (c Claims) IsAdmin() bool { return c.Role == RoleAdmin }
