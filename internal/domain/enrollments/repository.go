package enrollments

import (
	"context"
	"time"

	"elearning-access/internal/domain/access"
)

type Repository interface {
	Create(ctx context.Context, e Enrollment) error
	GetByID(ctx context.Context, id string) (Enrollment, error)
	GetByStudentCourse(ctx context.Context, studentID, courseID string) (Enrollment, error)
	GetByStudentCombo(ctx context.Context, studentID, comboID string) (Enrollment, error)
	ListByStudent(ctx context.Context, studentID string) ([]Enrollment, error)

	// ListExpiringBetween: enrollments con fin finito en (from, to].
	ListExpiringBetween(ctx context.Context, from, to time.Time) ([]Enrollment, error)

	// UpdateAccess persiste ent solo si la versión guardada sigue siendo
	// expectedVersion; si no, ErrConflict. Devuelve la versión nueva.
	UpdateAccess(ctx context.Context, id string, expectedVersion int64, ent access.Entitlement, updatedAt time.Time) (int64, error)

	UpdateProgress(ctx context.Context, id string, progress int, completed bool, updatedAt time.Time) error
}
