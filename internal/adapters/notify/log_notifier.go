package notify

import (
	"context"
	"time"

	"elearning-access/internal/platform/logger"
	portnotify "elearning-access/internal/ports/notify"
)

// LogNotifier escribe los recordatorios al log. Sirve en dev y hasta que
// haya un proveedor de email/push conectado.
type LogNotifier struct {
	log logger.Logger
}

func NewLogNotifier(log logger.Logger) *LogNotifier {
	if log == nil {
		log = logger.Nop()
	}
	return &LogNotifier{log: log.With(map[string]any{"component": "notifier"})}
}

func (n *LogNotifier) NotifyExpiring(ctx context.Context, r portnotify.ExpiryReminder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.log.Info("access expiring soon", map[string]any{
		"enrollment_id":    r.EnrollmentID,
		"student_id":       r.StudentID,
		"course_id":        r.CourseID,
		"combo_id":         r.ComboID,
		"access_end_date":  r.AccessEndDate.UTC().Format(time.RFC3339),
		"remaining_days":   r.RemainingDays,
		"formatted_access": r.FormattedAccess,
	})
	return nil
}
