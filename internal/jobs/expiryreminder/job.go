package expiryreminder

import (
	"context"
	"errors"
	"time"

	"elearning-access/internal/domain/enrollments"
	"elearning-access/internal/platform/logger"
	"elearning-access/internal/ports/notify"

	"github.com/robfig/cron/v3"
)

const runTimeout = 5 * time.Minute

// Source es lo que el job necesita del servicio de enrollments.
type Source interface {
	ListExpiring(ctx context.Context, within time.Duration) ([]enrollments.WithStatus, error)
}

type Job struct {
	src      Source
	notifier notify.Notifier
	window   time.Duration
	log      logger.Logger
}

func New(src Source, notifier notify.Notifier, windowDays int, log logger.Logger) (*Job, error) {
	if src == nil || notifier == nil {
		return nil, errors.New("expiryreminder: source and notifier are required")
	}
	if windowDays <= 0 {
		return nil, errors.New("expiryreminder: window must be at least one day")
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Job{
		src:      src,
		notifier: notifier,
		window:   time.Duration(windowDays) * 24 * time.Hour,
		log:      log.With(map[string]any{"job": "expiry_reminder"}),
	}, nil
}

// Run manda un recordatorio por cada enrollment que vence pronto.
// Un fallo al notificar no corta la corrida; se loguea y se sigue.
func (j *Job) Run(ctx context.Context) (int, error) {
	items, err := j.src.ListExpiring(ctx, j.window)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, ws := range items {
		st := ws.Status
		if !st.IsExpiringSoon || st.RemainingDays == nil {
			continue
		}
		e := ws.Enrollment

		err := j.notifier.NotifyExpiring(ctx, notify.ExpiryReminder{
			EnrollmentID:    e.ID,
			StudentID:       e.StudentID,
			CourseID:        e.CourseID,
			ComboID:         e.ComboID,
			AccessEndDate:   *e.Access.AccessEndDate,
			RemainingDays:   *st.RemainingDays,
			FormattedAccess: st.FormattedAccess,
		})
		if err != nil {
			j.log.Warn("expiry reminder failed", map[string]any{
				"enrollment_id": e.ID,
				"err":           err,
			})
			continue
		}
		sent++
	}

	j.log.Info("expiry reminders sent", map[string]any{
		"candidates": len(items),
		"sent":       sent,
	})
	return sent, nil
}

// Start agenda Run con la expresión cron dada (5 campos) y arranca el scheduler.
// El caller hace Stop() al apagar.
func (j *Job) Start(schedule string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		if _, err := j.Run(ctx); err != nil {
			j.log.Error("expiry reminder run failed", map[string]any{"err": err})
		}
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	j.log.Info("expiry reminder scheduled", map[string]any{"schedule": schedule})
	return c, nil
}
