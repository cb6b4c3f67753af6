package notify

import (
	"context"
	"time"
)

// ExpiryReminder es el aviso de "tu acceso vence pronto" para un enrollment.
type ExpiryReminder struct {
	EnrollmentID    string
	StudentID       string
	CourseID        string
	ComboID         string
	AccessEndDate   time.Time
	RemainingDays   int
	FormattedAccess string
}

type Notifier interface {
	NotifyExpiring(ctx context.Context, r ExpiryReminder) error
}
