package memory

import (
	"context"
	"testing"
	"time"

	"elearning-access/internal/domain/access"
	"elearning-access/internal/domain/enrollments"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, repo enrollments.Repository, id string, end *time.Time) enrollments.Enrollment {
	t.Helper()
	start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	e := enrollments.Enrollment{
		ID:           id,
		StudentID:    "student-1",
		PurchaseType: enrollments.PurchaseSingle,
		CourseID:     "course-" + id,
		Access: access.Entitlement{
			AccessDuration:  access.DurationOneMonth,
			AccessStartDate: start,
			AccessEndDate:   end,
		},
		Version:   1,
		CreatedAt: start,
		UpdatedAt: start,
	}
	require.NoError(t, repo.Create(context.Background(), e))
	return e
}

func ptr(t time.Time) *time.Time { return &t }

func TestEnrollmentsRepo_Create_UniquePerStudentCourse(t *testing.T) {
	repo := NewEnrollmentsRepo()
	e := seed(t, repo, "a", nil)

	dup := e
	dup.ID = "b"
	err := repo.Create(context.Background(), dup)
	assert.ErrorIs(t, err, enrollments.ErrAlreadyEnrolled)

	combo := e
	combo.ID = "c"
	combo.PurchaseType = enrollments.PurchaseCombo
	combo.CourseID = ""
	combo.ComboID = "combo-1"
	combo.CourseIDs = []string{e.CourseID}
	assert.NoError(t, repo.Create(context.Background(), combo))
}

func TestEnrollmentsRepo_UpdateAccess_CompareAndSwap(t *testing.T) {
	ctx := context.Background()
	repo := NewEnrollmentsRepo()
	e := seed(t, repo, "a", ptr(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)))

	next := e.Access
	next.AccessEndDate = nil
	next.AccessDuration = access.DurationLifetime

	v, err := repo.UpdateAccess(ctx, e.ID, 1, next, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 2, v)

	// versión vieja => conflicto, sin pisar
	_, err = repo.UpdateAccess(ctx, e.ID, 1, e.Access, time.Now())
	assert.ErrorIs(t, err, enrollments.ErrConflict)

	got, err := repo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Access.AccessEndDate)
	assert.Equal(t, access.DurationLifetime, got.Access.AccessDuration)

	_, err = repo.UpdateAccess(ctx, "missing", 1, next, time.Now())
	assert.ErrorIs(t, err, enrollments.ErrNotFound)
}

func TestEnrollmentsRepo_ListExpiringBetween(t *testing.T) {
	ctx := context.Background()
	repo := NewEnrollmentsRepo()

	from := time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)
	to := from.Add(7 * 24 * time.Hour)

	seed(t, repo, "past", ptr(from))
	seed(t, repo, "soon", ptr(from.Add(48*time.Hour)))
	seed(t, repo, "edge", ptr(to))
	seed(t, repo, "later", ptr(to.Add(time.Second)))
	seed(t, repo, "forever", nil)

	items, err := repo.ListExpiringBetween(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "soon", items[0].ID)
	assert.Equal(t, "edge", items[1].ID)
}

func TestEnrollmentsRepo_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewEnrollmentsRepo()
	end := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	e := seed(t, repo, "a", &end)

	got, err := repo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	*got.Access.AccessEndDate = end.AddDate(1, 0, 0)

	again, err := repo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, again.Access.AccessEndDate.Equal(end))
}
