package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"elearning-access/internal/domain/access"
	"elearning-access/internal/domain/enrollments"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

const pgUniqueViolation = "23505"

const enrollmentColumns = `
	id, student_id, purchase_type,
	course_id, combo_id, course_ids, order_id,
	access_duration, access_start_date, access_end_date,
	progress, is_completed, version,
	created_at, updated_at`

type EnrollmentsRepo struct {
	db *sql.DB
}

func NewEnrollmentsRepo(db *sql.DB) *EnrollmentsRepo {
	return &EnrollmentsRepo{db: db}
}

func (r *EnrollmentsRepo) Create(ctx context.Context, e enrollments.Enrollment) error {
	courseIDs := e.CourseIDs
	if courseIDs == nil {
		courseIDs = []string{}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO enrollments (`+enrollmentColumns+`
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`,
		e.ID,
		e.StudentID,
		string(e.PurchaseType),
		e.CourseID,
		e.ComboID,
		courseIDs,
		e.OrderID,
		string(e.Access.AccessDuration),
		e.Access.AccessStartDate,
		toNullTime(e.Access.AccessEndDate),
		e.Progress,
		e.IsCompleted,
		e.Version,
		e.CreatedAt,
		e.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return enrollments.ErrAlreadyEnrolled
	}
	return err
}

func (r *EnrollmentsRepo) GetByID(ctx context.Context, id string) (enrollments.Enrollment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return enrollments.Enrollment{}, enrollments.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+enrollmentColumns+`
		FROM enrollments
		WHERE id = $1
	`, id)
	return r.scanOne(row)
}

func (r *EnrollmentsRepo) GetByStudentCourse(ctx context.Context, studentID, courseID string) (enrollments.Enrollment, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+enrollmentColumns+`
		FROM enrollments
		WHERE student_id = $1
		  AND purchase_type = 'single'
		  AND course_id = $2
	`, studentID, courseID)
	return r.scanOne(row)
}

func (r *EnrollmentsRepo) GetByStudentCombo(ctx context.Context, studentID, comboID string) (enrollments.Enrollment, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+enrollmentColumns+`
		FROM enrollments
		WHERE student_id = $1
		  AND purchase_type = 'combo'
		  AND combo_id = $2
	`, studentID, comboID)
	return r.scanOne(row)
}

func (r *EnrollmentsRepo) ListByStudent(ctx context.Context, studentID string) ([]enrollments.Enrollment, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+enrollmentColumns+`
		FROM enrollments
		WHERE student_id = $1
		ORDER BY created_at ASC, id ASC
	`, studentID)
	if err != nil {
		return nil, err
	}
	return r.scanAll(rows)
}

func (r *EnrollmentsRepo) ListExpiringBetween(ctx context.Context, from, to time.Time) ([]enrollments.Enrollment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+enrollmentColumns+`
		FROM enrollments
		WHERE access_end_date IS NOT NULL
		  AND access_end_date > $1
		  AND access_end_date <= $2
		ORDER BY access_end_date ASC
	`, from, to)
	if err != nil {
		return nil, err
	}
	return r.scanAll(rows)
}

// UpdateAccess: compare-and-swap sobre version. Con 0 filas afectadas se
// distingue "no existe" de "otro writer llegó primero".
func (r *EnrollmentsRepo) UpdateAccess(ctx context.Context, id string, expectedVersion int64, ent access.Entitlement, updatedAt time.Time) (int64, error) {
	var version int64
	err := r.db.QueryRowContext(ctx, `
		UPDATE enrollments
		SET
			access_duration = $3,
			access_end_date = $4,
			updated_at = $5,
			version = version + 1
		WHERE id = $1
		  AND version = $2
		RETURNING version
	`,
		id,
		expectedVersion,
		string(ent.AccessDuration),
		toNullTime(ent.AccessEndDate),
		updatedAt,
	).Scan(&version)
	if err == nil {
		return version, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM enrollments WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return 0, err
	}
	if !exists {
		return 0, enrollments.ErrNotFound
	}
	return 0, enrollments.ErrConflict
}

func (r *EnrollmentsRepo) UpdateProgress(ctx context.Context, id string, progress int, completed bool, updatedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE enrollments
		SET
			progress = $2,
			is_completed = $3,
			updated_at = $4,
			version = version + 1
		WHERE id = $1
	`, id, progress, completed, updatedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return enrollments.ErrNotFound
	}
	return nil
}

// helpers

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *EnrollmentsRepo) scanOne(row *sql.Row) (enrollments.Enrollment, error) {
	e, err := scanEnrollment(row, pgtype.NewMap())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return enrollments.Enrollment{}, enrollments.ErrNotFound
		}
		return enrollments.Enrollment{}, err
	}
	return e, nil
}

func (r *EnrollmentsRepo) scanAll(rows *sql.Rows) ([]enrollments.Enrollment, error) {
	defer rows.Close()

	// pgtype.Map no es thread-safe: uno por query
	types := pgtype.NewMap()

	out := make([]enrollments.Enrollment, 0)
	for rows.Next() {
		e, err := scanEnrollment(rows, types)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// scanEnrollment lee una fila; TEXT[] pasa por el SQLScanner de pgtype.
func scanEnrollment(s rowScanner, types *pgtype.Map) (enrollments.Enrollment, error) {
	var e enrollments.Enrollment
	var purchaseType, duration string
	var courseIDs []string
	var endDate sql.NullTime

	if err := s.Scan(
		&e.ID,
		&e.StudentID,
		&purchaseType,
		&e.CourseID,
		&e.ComboID,
		types.SQLScanner(&courseIDs),
		&e.OrderID,
		&duration,
		&e.Access.AccessStartDate,
		&endDate,
		&e.Progress,
		&e.IsCompleted,
		&e.Version,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return enrollments.Enrollment{}, err
	}

	e.PurchaseType = enrollments.PurchaseType(purchaseType)
	e.Access.AccessDuration = access.Duration(duration)
	if len(courseIDs) > 0 {
		e.CourseIDs = courseIDs
	}
	if endDate.Valid {
		t := endDate.Time
		e.Access.AccessEndDate = &t
	}
	return e, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
