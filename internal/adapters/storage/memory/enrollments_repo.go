package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"elearning-access/internal/domain/access"
	"elearning-access/internal/domain/enrollments"
)

type enrollmentRepo struct {
	mu   sync.RWMutex
	byID map[string]enrollments.Enrollment
}

func NewEnrollmentsRepo() enrollments.Repository {
	return &enrollmentRepo{
		byID: make(map[string]enrollments.Enrollment),
	}
}

func (r *enrollmentRepo) Create(ctx context.Context, e enrollments.Enrollment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.ID == "" {
		return errors.New("enrollment id required")
	}
	if _, exists := r.byID[e.ID]; exists {
		return errors.New("enrollment already exists")
	}

	// Mismo unique que los índices parciales de postgres.
	for _, cur := range r.byID {
		if cur.StudentID != e.StudentID || cur.PurchaseType != e.PurchaseType {
			continue
		}
		if e.PurchaseType == enrollments.PurchaseSingle && cur.CourseID == e.CourseID {
			return enrollments.ErrAlreadyEnrolled
		}
		if e.PurchaseType == enrollments.PurchaseCombo && cur.ComboID == e.ComboID {
			return enrollments.ErrAlreadyEnrolled
		}
	}

	r.byID[e.ID] = clone(e)
	return nil
}

func (r *enrollmentRepo) GetByID(ctx context.Context, id string) (enrollments.Enrollment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	if !ok {
		return enrollments.Enrollment{}, enrollments.ErrNotFound
	}
	return clone(e), nil
}

func (r *enrollmentRepo) GetByStudentCourse(ctx context.Context, studentID, courseID string) (enrollments.Enrollment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.byID {
		if e.StudentID == studentID && e.PurchaseType == enrollments.PurchaseSingle && e.CourseID == courseID {
			return clone(e), nil
		}
	}
	return enrollments.Enrollment{}, enrollments.ErrNotFound
}

func (r *enrollmentRepo) GetByStudentCombo(ctx context.Context, studentID, comboID string) (enrollments.Enrollment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.byID {
		if e.StudentID == studentID && e.PurchaseType == enrollments.PurchaseCombo && e.ComboID == comboID {
			return clone(e), nil
		}
	}
	return enrollments.Enrollment{}, enrollments.ErrNotFound
}

func (r *enrollmentRepo) ListByStudent(ctx context.Context, studentID string) ([]enrollments.Enrollment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]enrollments.Enrollment, 0)
	for _, e := range r.byID {
		if e.StudentID == studentID {
			out = append(out, clone(e))
		}
	}
	sortByCreatedAt(out)
	return out, nil
}

func (r *enrollmentRepo) ListExpiringBetween(ctx context.Context, from, to time.Time) ([]enrollments.Enrollment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]enrollments.Enrollment, 0)
	for _, e := range r.byID {
		end := e.Access.AccessEndDate
		if end == nil {
			continue
		}
		if end.After(from) && !end.After(to) {
			out = append(out, clone(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Access.AccessEndDate.Before(*out[j].Access.AccessEndDate)
	})
	return out, nil
}

func (r *enrollmentRepo) UpdateAccess(ctx context.Context, id string, expectedVersion int64, ent access.Entitlement, updatedAt time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok {
		return 0, enrollments.ErrNotFound
	}
	if e.Version != expectedVersion {
		return 0, enrollments.ErrConflict
	}

	e.Access = cloneEntitlement(ent)
	e.Version++
	e.UpdatedAt = updatedAt
	r.byID[id] = e
	return e.Version, nil
}

func (r *enrollmentRepo) UpdateProgress(ctx context.Context, id string, progress int, completed bool, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok {
		return enrollments.ErrNotFound
	}
	e.Progress = progress
	e.IsCompleted = completed
	e.Version++
	e.UpdatedAt = updatedAt
	r.byID[id] = e
	return nil
}

// clone evita que el caller mutate el slice o el puntero guardados en el map.
func clone(e enrollments.Enrollment) enrollments.Enrollment {
	if e.CourseIDs != nil {
		e.CourseIDs = append([]string(nil), e.CourseIDs...)
	}
	e.Access = cloneEntitlement(e.Access)
	return e
}

func cloneEntitlement(ent access.Entitlement) access.Entitlement {
	if ent.AccessEndDate != nil {
		t := *ent.AccessEndDate
		ent.AccessEndDate = &t
	}
	return ent
}

func sortByCreatedAt(items []enrollments.Enrollment) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
}
