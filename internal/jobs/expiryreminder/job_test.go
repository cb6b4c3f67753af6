package expiryreminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"elearning-access/internal/adapters/storage/memory"
	"elearning-access/internal/domain/access"
	"elearning-access/internal/domain/enrollments"
	"elearning-access/internal/ports/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	got    []notify.ExpiryReminder
	failOn string
}

func (f *fakeNotifier) NotifyExpiring(ctx context.Context, r notify.ExpiryReminder) error {
	if r.EnrollmentID == f.failOn {
		return errors.New("smtp down")
	}
	f.got = append(f.got, r)
	return nil
}

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func setup(t *testing.T) (*enrollments.Service, *clock) {
	t.Helper()
	clk := &clock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	return enrollments.NewService(memory.NewEnrollmentsRepo(), clk, nil), clk
}

func enroll(t *testing.T, svc *enrollments.Service, courseID string, d access.Duration) enrollments.Enrollment {
	t.Helper()
	e, err := svc.Enroll(context.Background(), enrollments.EnrollInput{
		StudentID:    "student-1",
		PurchaseType: enrollments.PurchaseSingle,
		CourseID:     courseID,
		Duration:     string(d),
	})
	require.NoError(t, err)
	return e
}

func TestJob_Run_NotifiesOnlyExpiringSoon(t *testing.T) {
	svc, clk := setup(t)
	soon := enroll(t, svc, "course-1", access.DurationOneMonth)
	enroll(t, svc, "course-2", access.DurationThreeMonths)
	enroll(t, svc, "course-3", access.DurationLifetime)

	// 1 mar + 1 mes = 1 abr; corremos el 29 mar
	clk.t = time.Date(2025, 3, 29, 9, 0, 0, 0, time.UTC)

	n := &fakeNotifier{}
	job, err := New(svc, n, 7, nil)
	require.NoError(t, err)

	sent, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, n.got, 1)

	r := n.got[0]
	assert.Equal(t, soon.ID, r.EnrollmentID)
	assert.Equal(t, "course-1", r.CourseID)
	assert.Equal(t, 3, r.RemainingDays)
	assert.Equal(t, "3 days left", r.FormattedAccess)
	assert.True(t, r.AccessEndDate.Equal(time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)))
}

func TestJob_Run_ContinuesAfterNotifierError(t *testing.T) {
	svc, clk := setup(t)
	bad := enroll(t, svc, "course-1", access.DurationOneMonth)
	enroll(t, svc, "course-2", access.DurationOneMonth)

	clk.t = time.Date(2025, 3, 30, 9, 0, 0, 0, time.UTC)

	n := &fakeNotifier{failOn: bad.ID}
	job, err := New(svc, n, 7, nil)
	require.NoError(t, err)

	sent, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, n.got, 1)
	assert.Equal(t, "course-2", n.got[0].CourseID)
}

func TestJob_Run_NothingDue(t *testing.T) {
	svc, _ := setup(t)
	enroll(t, svc, "course-1", access.DurationTwoMonths)

	n := &fakeNotifier{}
	job, err := New(svc, n, 7, nil)
	require.NoError(t, err)

	sent, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, n.got)
}

func TestNew_Validates(t *testing.T) {
	svc, _ := setup(t)

	_, err := New(svc, nil, 7, nil)
	assert.Error(t, err)

	_, err = New(svc, &fakeNotifier{}, 0, nil)
	assert.Error(t, err)
}

func TestJob_Start_RejectsBadSchedule(t *testing.T) {
	svc, _ := setup(t)
	job, err := New(svc, &fakeNotifier{}, 7, nil)
	require.NoError(t, err)

	_, err = job.Start("not a cron")
	assert.Error(t, err)

	c, err := job.Start("0 9 * * *")
	require.NoError(t, err)
	<-c.Stop().Done()
}
