package enrollments

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"elearning-access/internal/domain/access"
	"elearning-access/internal/middleware"
	"elearning-access/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

// RouteOptions: middlewares extra para el grupo admin (rate limit).
type RouteOptions struct {
	AdminMiddlewares []func(http.Handler) http.Handler
}

func RegisterRoutes(r chi.Router, svc *Service, opts RouteOptions) {
	// Alta desde órdenes/pagos (system) o a mano (admin)
	r.Post("/enrollments", enrollHandler(svc))

	r.Route("/enrollments/{enrollmentID}", func(er chi.Router) {
		er.Get("/", getEnrollmentHandler(svc))
		er.Patch("/progress", updateProgressHandler(svc))
	})

	// Estudiante: sus enrollments con badges y gate de contenido
	r.Route("/me", func(mr chi.Router) {
		mr.Get("/enrollments", listMyEnrollmentsHandler(svc))
		mr.Get("/courses/{courseID}/access", courseAccessHandler(svc))
	})

	// Admin: set / extend / reduce
	r.Group(func(ar chi.Router) {
		for _, mw := range opts.AdminMiddlewares {
			ar.Use(mw)
		}
		ar.Post("/admin/enrollments/{enrollmentID}/access/{op}", changeAccessHandler(svc))
	})
}

type enrollRequest struct {
	StudentID      string       `json:"student_id" validate:"required"`
	PurchaseType   PurchaseType `json:"purchase_type" validate:"required,oneof=single combo"`
	CourseID       string       `json:"course_id" validate:"required_if=PurchaseType single"`
	ComboID        string       `json:"combo_id" validate:"required_if=PurchaseType combo"`
	CourseIDs      []string     `json:"course_ids" validate:"required_if=PurchaseType combo,dive,required"`
	AccessDuration string       `json:"access_duration" validate:"required,access_duration"`
	OrderID        string       `json:"order_id"`
}

type changeAccessRequest struct {
	AccessDuration string `json:"access_duration" validate:"required,access_duration"`
}

type updateProgressRequest struct {
	Progress *int `json:"progress" validate:"required,min=0,max=100"`
}

type accessStatusResponse struct {
	State           access.State `json:"state"`
	HasAccess       bool         `json:"has_access"`
	RemainingDays   *int         `json:"remaining_days"`
	IsExpiringSoon  bool         `json:"is_expiring_soon"`
	IsExpired       bool         `json:"is_expired"`
	IsLifetime      bool         `json:"is_lifetime"`
	FormattedAccess string       `json:"formatted_access"`
}

type enrollmentResponse struct {
	ID              string               `json:"id"`
	StudentID       string               `json:"student_id"`
	PurchaseType    PurchaseType         `json:"purchase_type"`
	CourseID        string               `json:"course_id,omitempty"`
	ComboID         string               `json:"combo_id,omitempty"`
	CourseIDs       []string             `json:"course_ids,omitempty"`
	OrderID         string               `json:"order_id,omitempty"`
	AccessDuration  access.Duration      `json:"access_duration"`
	AccessStartDate time.Time            `json:"access_start_date"`
	AccessEndDate   *time.Time           `json:"access_end_date"`
	Progress        int                  `json:"progress"`
	IsCompleted     bool                 `json:"is_completed"`
	Version         int64                `json:"version"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
	Access          accessStatusResponse `json:"access"`
}

func enrollHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if claims.Role != auth.RoleAdmin && claims.Role != auth.RoleSystem {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var req enrollRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, validationMessage(err), http.StatusBadRequest)
			return
		}

		e, err := svc.Enroll(r.Context(), EnrollInput{
			StudentID:    req.StudentID,
			PurchaseType: req.PurchaseType,
			CourseID:     req.CourseID,
			ComboID:      req.ComboID,
			CourseIDs:    req.CourseIDs,
			OrderID:      req.OrderID,
			Duration:     req.AccessDuration,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toEnrollmentResponse(svc.withStatus(e)))
	}
}

func getEnrollmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		ws, err := svc.AccessStatus(r.Context(), chi.URLParam(r, "enrollmentID"))
		if err != nil {
			writeError(w, err)
			return
		}

		// Owner o admin. Para el resto, ajeno == inexistente (no revela ids).
		if ws.Enrollment.StudentID != claims.UserID && !claims.IsAdmin() {
			writeError(w, ErrNotFound)
			return
		}

		writeJSON(w, http.StatusOK, toEnrollmentResponse(ws))
	}
}

func listMyEnrollmentsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// ?state=ACTIVE|EXPIRED opcional
		state := access.State(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("state"))))
		if state != "" && state != access.StateActive && state != access.StateExpired {
			http.Error(w, "invalid state: expected ACTIVE or EXPIRED", http.StatusBadRequest)
			return
		}

		items, err := svc.ListByStudent(r.Context(), claims.UserID)
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]enrollmentResponse, 0, len(items))
		for _, ws := range items {
			if state != "" && ws.Status.State() != state {
				continue
			}
			out = append(out, toEnrollmentResponse(ws))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func courseAccessHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		courseID := chi.URLParam(r, "courseID")
		writeJSON(w, http.StatusOK, map[string]any{
			"course_id":  courseID,
			"has_access": svc.CheckCourseAccess(r.Context(), claims.UserID, courseID),
		})
	}
}

func updateProgressHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req updateProgressRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, validationMessage(err), http.StatusBadRequest)
			return
		}

		e, err := svc.UpdateProgress(r.Context(), chi.URLParam(r, "enrollmentID"), claims.UserID, *req.Progress)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toEnrollmentResponse(svc.withStatus(e)))
	}
}

func changeAccessHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !claims.IsAdmin() {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		op, ok := ParseAccessOp(chi.URLParam(r, "op"))
		if !ok {
			http.Error(w, "unknown access operation", http.StatusNotFound)
			return
		}

		var req changeAccessRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, validationMessage(err), http.StatusBadRequest)
			return
		}

		ws, err := svc.ChangeAccess(r.Context(), op, chi.URLParam(r, "enrollmentID"), req.AccessDuration)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toEnrollmentResponse(ws))
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, access.ErrInvalidDuration):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, access.ErrInvalidOperation):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "enrollment not found", http.StatusNotFound)
	case errors.Is(err, ErrAlreadyEnrolled), errors.Is(err, ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toEnrollmentResponse(ws WithStatus) enrollmentResponse {
	e, st := ws.Enrollment, ws.Status
	return enrollmentResponse{
		ID:              e.ID,
		StudentID:       e.StudentID,
		PurchaseType:    e.PurchaseType,
		CourseID:        e.CourseID,
		ComboID:         e.ComboID,
		CourseIDs:       e.CourseIDs,
		OrderID:         e.OrderID,
		AccessDuration:  e.Access.AccessDuration,
		AccessStartDate: e.Access.AccessStartDate,
		AccessEndDate:   e.Access.AccessEndDate,
		Progress:        e.Progress,
		IsCompleted:     e.IsCompleted,
		Version:         e.Version,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
		Access: accessStatusResponse{
			State:           st.State(),
			HasAccess:       st.HasAccess,
			RemainingDays:   st.RemainingDays,
			IsExpiringSoon:  st.IsExpiringSoon,
			IsExpired:       st.IsExpired,
			IsLifetime:      st.IsLifetime,
			FormattedAccess: st.FormattedAccess,
		},
	}
}

// writeJSON está duplicado en cada módulo a propósito, hasta que haya más módulos.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
