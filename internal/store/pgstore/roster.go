package pgstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"classattend/internal/core"
	"classattend/internal/roster"
)

type courseRow struct {
	ID           string         `db:"id"`
	Code         string         `db:"course_code"`
	Name         string         `db:"course_name"`
	TeacherID    sql.NullString `db:"teacher_id"`
	StudentIDs   stringList     `db:"student_ids"`
	TotalClasses int            `db:"total_classes"`
}

func (r courseRow) course() roster.Course {
	ids := []string(r.StudentIDs)
	if ids == nil {
		ids = []string{}
	}
	return roster.Course{
		ID:           r.ID,
		Code:         r.Code,
		Name:         r.Name,
		TeacherID:    r.TeacherID.String,
		StudentIDs:   ids,
		TotalClasses: r.TotalClasses,
	}
}

const courseColumns = `id, course_code, course_name, teacher_id, student_ids, total_classes`

const studentColumns = `id, student_code AS code, name, email, department, year`

const teacherColumns = `id, teacher_code AS code, name, email, department`

type studentRow struct {
	ID         string `db:"id"`
	Code       string `db:"code"`
	Name       string `db:"name"`
	Email      string `db:"email"`
	Department string `db:"department"`
	Year       int    `db:"year"`
}

func (r studentRow) student() roster.Student {
	return roster.Student(r)
}

type teacherRow struct {
	ID         string `db:"id"`
	Code       string `db:"code"`
	Name       string `db:"name"`
	Email      string `db:"email"`
	Department string `db:"department"`
}

func (r teacherRow) teacher() roster.Teacher {
	return roster.Teacher(r)
}

func (s *Store) CreateCourse(ctx context.Context, c roster.Course) (roster.Course, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO courses (id, course_code, course_name, teacher_id, student_ids, total_classes)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, c.ID, c.Code, c.Name, nullable(c.TeacherID), stringList(c.StudentIDs), c.TotalClasses)
	if err != nil {
		return roster.Course{}, storageErr("insert course", err)
	}
	return c, nil
}

func (s *Store) GetCourse(ctx context.Context, id string) (roster.Course, error) {
	var row courseRow
	err := s.db.GetContext(ctx, &row, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return roster.Course{}, core.NewNotFound("course", id)
	}
	if err != nil {
		return roster.Course{}, storageErr("get course", err)
	}
	return row.course(), nil
}

func (s *Store) GetCourseByCode(ctx context.Context, code string) (roster.Course, error) {
	var row courseRow
	err := s.db.GetContext(ctx, &row, `SELECT `+courseColumns+` FROM courses WHERE course_code = $1`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return roster.Course{}, core.NewNotFound("course", code)
	}
	if err != nil {
		return roster.Course{}, storageErr("get course by code", err)
	}
	return row.course(), nil
}

func (s *Store) ListCourses(ctx context.Context) ([]roster.Course, error) {
	var rows []courseRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+courseColumns+` FROM courses ORDER BY course_code`); err != nil {
		return nil, storageErr("list courses", err)
	}
	out := make([]roster.Course, len(rows))
	for i, r := range rows {
		out[i] = r.course()
	}
	return out, nil
}

func (s *Store) CreateStudent(ctx context.Context, st roster.Student) (roster.Student, error) {
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO students (id, student_code, name, email, department, year)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, st.ID, st.Code, st.Name, st.Email, st.Department, st.Year)
	if err != nil {
		return roster.Student{}, storageErr("insert student", err)
	}
	return st, nil
}

func (s *Store) GetStudent(ctx context.Context, id string) (roster.Student, error) {
	var row studentRow
	err := s.db.GetContext(ctx, &row, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return roster.Student{}, core.NewNotFound("student", id)
	}
	if err != nil {
		return roster.Student{}, storageErr("get student", err)
	}
	return row.student(), nil
}

func (s *Store) ListStudents(ctx context.Context) ([]roster.Student, error) {
	var rows []studentRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+studentColumns+` FROM students ORDER BY student_code`); err != nil {
		return nil, storageErr("list students", err)
	}
	out := make([]roster.Student, len(rows))
	for i, r := range rows {
		out[i] = r.student()
	}
	return out, nil
}

func (s *Store) StudentsByIDs(ctx context.Context, ids []string) (map[string]roster.Student, error) {
	out := make(map[string]roster.Student, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT `+studentColumns+` FROM students WHERE id IN (?)`, ids)
	if err != nil {
		return nil, storageErr("students by ids", err)
	}
	var rows []studentRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, storageErr("students by ids", err)
	}
	for _, r := range rows {
		out[r.ID] = r.student()
	}
	return out, nil
}

func (s *Store) CreateTeacher(ctx context.Context, t roster.Teacher) (roster.Teacher, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO teachers (id, teacher_code, name, email, department)
		VALUES ($1, $2, $3, $4, $5)
	`, t.ID, t.Code, t.Name, t.Email, t.Department)
	if err != nil {
		return roster.Teacher{}, storageErr("insert teacher", err)
	}
	return t, nil
}

func (s *Store) GetTeacher(ctx context.Context, id string) (roster.Teacher, error) {
	var row teacherRow
	err := s.db.GetContext(ctx, &row, `SELECT `+teacherColumns+` FROM teachers WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return roster.Teacher{}, core.NewNotFound("teacher", id)
	}
	if err != nil {
		return roster.Teacher{}, storageErr("get teacher", err)
	}
	return row.teacher(), nil
}

func (s *Store) ListTeachers(ctx context.Context) ([]roster.Teacher, error) {
	var rows []teacherRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+teacherColumns+` FROM teachers ORDER BY teacher_code`); err != nil {
		return nil, storageErr("list teachers", err)
	}
	out := make([]roster.Teacher, len(rows))
	for i, r := range rows {
		out[i] = r.teacher()
	}
	return out, nil
}
