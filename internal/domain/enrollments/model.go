package enrollments

import (
	"time"

	"elearning-access/internal/domain/access"
)

type PurchaseType string

const (
	PurchaseSingle PurchaseType = "single"
	PurchaseCombo  PurchaseType = "combo"
)

// Enrollment es el registro de acceso de un estudiante a un curso (single)
// o a un combo de cursos. Único por (StudentID, CourseID) o (StudentID, ComboID).
type Enrollment struct {
	ID string

	StudentID    string
	PurchaseType PurchaseType

	CourseID string // single

	ComboID   string   // combo
	CourseIDs []string // cursos del combo al momento de la compra

	OrderID string // referencia de la orden que originó el acceso (opcional)

	Access access.Entitlement

	// Los mantiene el tracking de progreso, no el engine de acceso.
	Progress    int
	IsCompleted bool

	// Version sube en cada update; los updates de acceso son compare-and-swap.
	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Covers indica si el enrollment da acceso a courseID.
func (e Enrollment) Covers(courseID string) bool {
	if e.PurchaseType == PurchaseSingle {
		return e.CourseID == courseID
	}
	for _, id := range e.CourseIDs {
		if id == courseID {
			return true
		}
	}
	return false
}

// WithStatus es un enrollment + su estado de acceso calculado al momento de leerlo.
type WithStatus struct {
	Enrollment Enrollment
	Status     access.Status
}
