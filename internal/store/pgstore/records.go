package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"classattend/internal/attendance"
	"classattend/internal/core"
)

type recordRow struct {
	ID        string    `db:"id"`
	CourseID  string    `db:"course_id"`
	Day       time.Time `db:"day"`
	Students  markList  `db:"students"`
	MarkedBy  string    `db:"marked_by"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r recordRow) record() attendance.Record {
	return attendance.Record{
		ID:        r.ID,
		CourseID:  r.CourseID,
		Date:      attendance.Day(r.Day),
		Students:  r.Students.marks(),
		MarkedBy:  r.MarkedBy,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

const recordColumns = `id, course_id, day, students, COALESCE(marked_by, '') AS marked_by, created_at, updated_at`

const (
	lockCourseSQL = `SELECT total_classes FROM courses WHERE id = $1 FOR UPDATE`

	// A resubmission keeps marked_by when no teacher is given; xmax = 0 only for a freshly inserted row.
	upsertRecordSQL = `
		INSERT INTO attendance_records (id, course_id, day, students, marked_by)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (course_id, day) DO UPDATE SET
			students   = EXCLUDED.students,
			marked_by  = COALESCE(EXCLUDED.marked_by, attendance_records.marked_by),
			updated_at = NOW()
		RETURNING ` + recordColumns + `, (xmax = 0) AS inserted`

	countRecordsSQL = `SELECT COUNT(*) FROM attendance_records WHERE course_id = $1`
)

// Upsert locks the course row so concurrent submissions for the same course serialize,
// then relies on UNIQUE (course_id, day) to find-or-create in one statement.
func (s *Store) Upsert(ctx context.Context, rec attendance.Record) (attendance.Record, bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return attendance.Record{}, false, storageErr("begin upsert", err)
	}
	defer func() { _ = tx.Rollback() }()

	var stored int
	err = tx.GetContext(ctx, &stored, lockCourseSQL, rec.CourseID)
	if errors.Is(err, sql.ErrNoRows) {
		return attendance.Record{}, false, core.NewNotFound("course", rec.CourseID)
	}
	if err != nil {
		return attendance.Record{}, false, storageErr("lock course", err)
	}

	var row struct {
		recordRow
		Inserted bool `db:"inserted"`
	}
	err = tx.QueryRowxContext(ctx, upsertRecordSQL,
		uuid.NewString(), rec.CourseID, attendance.Day(rec.Date), toMarkList(rec.Students), nullable(rec.MarkedBy)).StructScan(&row)
	if err != nil {
		return attendance.Record{}, false, storageErr("upsert record", err)
	}

	if row.Inserted {
		if _, err := tx.ExecContext(ctx, `UPDATE courses SET total_classes = total_classes + 1 WHERE id = $1`, rec.CourseID); err != nil {
			return attendance.Record{}, false, storageErr("increment total classes", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return attendance.Record{}, false, storageErr("commit upsert", err)
	}
	return row.record(), row.Inserted, nil
}

func (s *Store) Update(ctx context.Context, courseID string, day time.Time, marks []attendance.Mark, markedBy string) (attendance.Record, error) {
	var row recordRow
	err := s.db.QueryRowxContext(ctx, `
		UPDATE attendance_records
		SET students = $3, marked_by = COALESCE($4, marked_by), updated_at = NOW()
		WHERE course_id = $1 AND day = $2
		RETURNING `+recordColumns,
		courseID, attendance.Day(day), toMarkList(marks), nullable(markedBy)).StructScan(&row)
	if errors.Is(err, sql.ErrNoRows) {
		return attendance.Record{}, core.NewNotFound("attendance record", courseID+"@"+day.Format("2006-01-02"))
	}
	if err != nil {
		return attendance.Record{}, storageErr("update record", err)
	}
	return row.record(), nil
}

func (s *Store) Get(ctx context.Context, courseID string, day time.Time) (attendance.Record, error) {
	var row recordRow
	err := s.db.GetContext(ctx, &row, `SELECT `+recordColumns+` FROM attendance_records WHERE course_id = $1 AND day = $2`,
		courseID, attendance.Day(day))
	if errors.Is(err, sql.ErrNoRows) {
		return attendance.Record{}, core.NewNotFound("attendance record", courseID+"@"+day.Format("2006-01-02"))
	}
	if err != nil {
		return attendance.Record{}, storageErr("get record", err)
	}
	return row.record(), nil
}

func (s *Store) ListByCourse(ctx context.Context, courseID string) ([]attendance.Record, error) {
	var rows []recordRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+recordColumns+`
		FROM attendance_records
		WHERE course_id = $1
		ORDER BY day DESC
	`, courseID)
	if err != nil {
		return nil, storageErr("list records", err)
	}
	out := make([]attendance.Record, len(rows))
	for i, r := range rows {
		out[i] = r.record()
	}
	return out, nil
}

// RecountTotalClasses takes the same course row lock as Upsert, so no record can be
// created between the count and the write.
func (s *Store) RecountTotalClasses(ctx context.Context, courseID string) (int, int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, storageErr("begin recount", err)
	}
	defer func() { _ = tx.Rollback() }()

	var stored int
	err = tx.GetContext(ctx, &stored, lockCourseSQL, courseID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, core.NewNotFound("course", courseID)
	}
	if err != nil {
		return 0, 0, storageErr("lock course", err)
	}

	var observed int
	if err := tx.GetContext(ctx, &observed, countRecordsSQL, courseID); err != nil {
		return 0, 0, storageErr("count records", err)
	}
	if observed != stored {
		if _, err := tx.ExecContext(ctx, `UPDATE courses SET total_classes = $2 WHERE id = $1`, courseID, observed); err != nil {
			return 0, 0, storageErr("set total classes", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, storageErr("commit recount", err)
	}
	return stored, observed, nil
}
