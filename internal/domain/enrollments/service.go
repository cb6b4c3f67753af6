package enrollments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"elearning-access/internal/domain/access"
	"elearning-access/internal/platform/logger"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrAlreadyEnrolled = errors.New("already enrolled")

	// ErrConflict: otro writer cambió el enrollment entre la lectura y el update.
	ErrConflict = errors.New("enrollment was modified concurrently")
)

type Service struct {
	repo   Repository
	engine *access.Engine
	log    logger.Logger
}

func NewService(repo Repository, clock access.Clock, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:   repo,
		engine: access.NewEngine(clock),
		log:    log,
	}
}

type EnrollInput struct {
	StudentID    string
	PurchaseType PurchaseType
	CourseID     string
	ComboID      string
	CourseIDs    []string
	OrderID      string
	Duration     string
}

// Enroll lo llama el flujo de órdenes/pagos al completar una compra.
// El acceso empieza ahora y termina según la duración elegida.
func (s *Service) Enroll(ctx context.Context, in EnrollInput) (Enrollment, error) {
	studentID := strings.TrimSpace(in.StudentID)
	if studentID == "" {
		return Enrollment{}, ErrInvalidInput
	}

	d, err := access.ParseDuration(in.Duration)
	if err != nil {
		return Enrollment{}, err
	}

	e := Enrollment{
		StudentID:    studentID,
		PurchaseType: in.PurchaseType,
		OrderID:      strings.TrimSpace(in.OrderID),
	}

	switch in.PurchaseType {
	case PurchaseSingle:
		e.CourseID = strings.TrimSpace(in.CourseID)
		if e.CourseID == "" || strings.TrimSpace(in.ComboID) != "" {
			return Enrollment{}, ErrInvalidInput
		}
		if _, err := s.repo.GetByStudentCourse(ctx, studentID, e.CourseID); err == nil {
			return Enrollment{}, ErrAlreadyEnrolled
		} else if !errors.Is(err, ErrNotFound) {
			return Enrollment{}, err
		}
	case PurchaseCombo:
		e.ComboID = strings.TrimSpace(in.ComboID)
		e.CourseIDs = normalizeIDs(in.CourseIDs)
		if e.ComboID == "" || len(e.CourseIDs) == 0 || strings.TrimSpace(in.CourseID) != "" {
			return Enrollment{}, ErrInvalidInput
		}
		if _, err := s.repo.GetByStudentCombo(ctx, studentID, e.ComboID); err == nil {
			return Enrollment{}, ErrAlreadyEnrolled
		} else if !errors.Is(err, ErrNotFound) {
			return Enrollment{}, err
		}
	default:
		return Enrollment{}, ErrInvalidInput
	}

	ent, err := s.engine.Grant(d)
	if err != nil {
		return Enrollment{}, err
	}

	now := ent.AccessStartDate
	e.ID = uuid.NewString()
	e.Access = ent
	e.Version = 1
	e.CreatedAt = now
	e.UpdatedAt = now

	if err := s.repo.Create(ctx, e); err != nil {
		return Enrollment{}, err
	}

	s.log.Info("enrollment created", map[string]any{
		"enrollment_id":   e.ID,
		"student_id":      e.StudentID,
		"purchase_type":   string(e.PurchaseType),
		"access_duration": string(d),
	})
	return e, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Enrollment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Enrollment{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByStudent(ctx context.Context, studentID string) ([]WithStatus, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, ErrInvalidInput
	}

	items, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	out := make([]WithStatus, 0, len(items))
	for _, e := range items {
		out = append(out, s.withStatus(e))
	}
	return out, nil
}

// AccessStatus: enrollment + estado derivado en este instante.
func (s *Service) AccessStatus(ctx context.Context, enrollmentID string) (WithStatus, error) {
	e, err := s.GetByID(ctx, enrollmentID)
	if err != nil {
		return WithStatus{}, err
	}
	return s.withStatus(e), nil
}

// CheckCourseAccess es el gate previo a servir contenido. Ante cualquier error
// de lectura niega acceso (false), nunca falla abierto.
func (s *Service) CheckCourseAccess(ctx context.Context, studentID, courseID string) bool {
	studentID = strings.TrimSpace(studentID)
	courseID = strings.TrimSpace(courseID)
	if studentID == "" || courseID == "" {
		return false
	}

	items, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		s.log.Warn("course access check failed", map[string]any{
			"student_id": studentID,
			"course_id":  courseID,
			"err":        err,
		})
		return false
	}

	for _, e := range items {
		if e.Covers(courseID) && s.engine.HasValidAccess(e.Access.AccessEndDate) {
			return true
		}
	}
	return false
}

// AccessOp es una de las mutaciones admin sobre el acceso.
type AccessOp string

const (
	OpSet    AccessOp = "set"
	OpExtend AccessOp = "extend"
	OpReduce AccessOp = "reduce"
)

func ParseAccessOp(s string) (AccessOp, bool) {
	switch op := AccessOp(strings.ToLower(strings.TrimSpace(s))); op {
	case OpSet, OpExtend, OpReduce:
		return op, true
	}
	return "", false
}

func (s *Service) SetAccessDuration(ctx context.Context, enrollmentID, duration string) (WithStatus, error) {
	return s.ChangeAccess(ctx, OpSet, enrollmentID, duration)
}

func (s *Service) ExtendAccess(ctx context.Context, enrollmentID, duration string) (WithStatus, error) {
	return s.ChangeAccess(ctx, OpExtend, enrollmentID, duration)
}

func (s *Service) ReduceAccess(ctx context.Context, enrollmentID, duration string) (WithStatus, error) {
	return s.ChangeAccess(ctx, OpReduce, enrollmentID, duration)
}

// ChangeAccess: leer, aplicar la operación del engine y guardar con CAS sobre Version.
// Si otro admin escribió en el medio devuelve ErrConflict; no reintenta.
func (s *Service) ChangeAccess(ctx context.Context, op AccessOp, enrollmentID, duration string) (WithStatus, error) {
	d, err := access.ParseDuration(duration)
	if err != nil {
		return WithStatus{}, err
	}

	e, err := s.GetByID(ctx, enrollmentID)
	if err != nil {
		return WithStatus{}, err
	}

	var next access.Entitlement
	switch op {
	case OpSet:
		next, err = access.SetAccessDuration(e.Access, d)
	case OpExtend:
		next, err = access.ExtendAccess(e.Access, d)
	case OpReduce:
		next, err = access.ReduceAccess(e.Access, d)
	default:
		return WithStatus{}, fmt.Errorf("%w: unknown operation %q", access.ErrInvalidOperation, op)
	}
	if err != nil {
		return WithStatus{}, err
	}

	now := s.engine.Now()
	version, err := s.repo.UpdateAccess(ctx, e.ID, e.Version, next, now)
	if err != nil {
		return WithStatus{}, err
	}

	prevEnd := e.Access.AccessEndDate
	e.Access = next
	e.Version = version
	e.UpdatedAt = now

	s.log.Info("enrollment access changed", map[string]any{
		"enrollment_id":   e.ID,
		"operation":       string(op),
		"access_duration": string(next.AccessDuration),
		"previous_end":    formatEnd(prevEnd),
		"access_end":      formatEnd(next.AccessEndDate),
	})
	return s.withStatus(e), nil
}

// UpdateProgress lo usa el tracking de progreso del estudiante.
// progress se acota a [0, 100]; 100 marca el curso como completado.
func (s *Service) UpdateProgress(ctx context.Context, enrollmentID, studentID string, progress int) (Enrollment, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return Enrollment{}, ErrInvalidInput
	}
	if progress < 0 || progress > 100 {
		return Enrollment{}, ErrInvalidInput
	}

	e, err := s.GetByID(ctx, enrollmentID)
	if err != nil {
		return Enrollment{}, err
	}
	if e.StudentID != studentID {
		return Enrollment{}, ErrForbidden
	}

	completed := e.IsCompleted || progress >= 100
	now := s.engine.Now()
	if err := s.repo.UpdateProgress(ctx, e.ID, progress, completed, now); err != nil {
		return Enrollment{}, err
	}

	e.Progress = progress
	e.IsCompleted = completed
	e.UpdatedAt = now
	return e, nil
}

// ListExpiring devuelve enrollments con acceso finito que vencen en los próximos
// "within" a partir de ahora, con su estado.
func (s *Service) ListExpiring(ctx context.Context, within time.Duration) ([]WithStatus, error) {
	if within <= 0 {
		return nil, ErrInvalidInput
	}
	now := s.engine.Now()

	items, err := s.repo.ListExpiringBetween(ctx, now, now.Add(within))
	if err != nil {
		return nil, err
	}

	out := make([]WithStatus, 0, len(items))
	for _, e := range items {
		out = append(out, s.withStatus(e))
	}
	return out, nil
}

func (s *Service) withStatus(e Enrollment) WithStatus {
	return WithStatus{Enrollment: e, Status: s.engine.DeriveStatus(e.Access.AccessEndDate)}
}

func formatEnd(t *time.Time) string {
	if t == nil {
		return "lifetime"
	}
	return t.UTC().Format(time.RFC3339)
}

func normalizeIDs(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, raw := range in {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
