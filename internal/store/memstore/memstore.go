package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"classattend/internal/attendance"
	"classattend/internal/core"
	"classattend/internal/roster"
)

type recordKey struct {
	course string
	day    time.Time
}

// Store keeps the roster and attendance records in memory. One lock guards both
// so record creation and the course counter bump happen atomically.
type Store struct {
	mu       sync.RWMutex
	courses  map[string]*roster.Course
	students map[string]*roster.Student
	teachers map[string]*roster.Teacher
	records  map[recordKey]*attendance.Record
	now      func() time.Time
}

var (
	_ roster.Repository     = (*Store)(nil)
	_ attendance.Repository = (*Store)(nil)
)

func New() *Store {
	return &Store{
		courses:  make(map[string]*roster.Course),
		students: make(map[string]*roster.Student),
		teachers: make(map[string]*roster.Teacher),
		records:  make(map[recordKey]*attendance.Record),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// -------- Roster --------

func (s *Store) CreateCourse(_ context.Context, c roster.Course) (roster.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.StudentIDs = append([]string{}, c.StudentIDs...)
	s.courses[c.ID] = &c
	return copyCourse(c), nil
}

func (s *Store) GetCourse(_ context.Context, id string) (roster.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.courses[id]; ok {
		return copyCourse(*c), nil
	}
	return roster.Course{}, core.NewNotFound("course", id)
}

func (s *Store) GetCourseByCode(_ context.Context, code string) (roster.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.courses {
		if c.Code == code {
			return copyCourse(*c), nil
		}
	}
	return roster.Course{}, core.NewNotFound("course", code)
}

func (s *Store) ListCourses(_ context.Context) ([]roster.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]roster.Course, 0, len(s.courses))
	for _, c := range s.courses {
		out = append(out, copyCourse(*c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *Store) CreateStudent(_ context.Context, st roster.Student) (roster.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	s.students[st.ID] = &st
	return st, nil
}

func (s *Store) GetStudent(_ context.Context, id string) (roster.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.students[id]; ok {
		return *st, nil
	}
	return roster.Student{}, core.NewNotFound("student", id)
}

func (s *Store) ListStudents(_ context.Context) ([]roster.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]roster.Student, 0, len(s.students))
	for _, st := range s.students {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *Store) StudentsByIDs(_ context.Context, ids []string) (map[string]roster.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]roster.Student, len(ids))
	for _, id := range ids {
		if st, ok := s.students[id]; ok {
			out[id] = *st
		}
	}
	return out, nil
}

func (s *Store) CreateTeacher(_ context.Context, t roster.Teacher) (roster.Teacher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	s.teachers[t.ID] = &t
	return t, nil
}

func (s *Store) GetTeacher(_ context.Context, id string) (roster.Teacher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.teachers[id]; ok {
		return *t, nil
	}
	return roster.Teacher{}, core.NewNotFound("teacher", id)
}

func (s *Store) ListTeachers(_ context.Context) ([]roster.Teacher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]roster.Teacher, 0, len(s.teachers))
	for _, t := range s.teachers {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// -------- Attendance --------

func (s *Store) Upsert(_ context.Context, rec attendance.Record) (attendance.Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	course, ok := s.courses[rec.CourseID]
	if !ok {
		return attendance.Record{}, false, core.NewNotFound("course", rec.CourseID)
	}
	key := recordKey{course: rec.CourseID, day: attendance.Day(rec.Date)}
	now := s.now()
	if existing, ok := s.records[key]; ok {
		existing.Students = copyMarks(rec.Students)
		if rec.MarkedBy != "" {
			existing.MarkedBy = rec.MarkedBy
		}
		existing.UpdatedAt = now
		return copyRecord(*existing), false, nil
	}

	created := &attendance.Record{
		ID:        uuid.NewString(),
		CourseID:  rec.CourseID,
		Date:      key.day,
		Students:  copyMarks(rec.Students),
		MarkedBy:  rec.MarkedBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.records[key] = created
	course.TotalClasses++
	return copyRecord(*created), true, nil
}

func (s *Store) Update(_ context.Context, courseID string, day time.Time, marks []attendance.Mark, markedBy string) (attendance.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[recordKey{course: courseID, day: attendance.Day(day)}]
	if !ok {
		return attendance.Record{}, core.NewNotFound("attendance record", courseID+"@"+day.Format("2006-01-02"))
	}
	existing.Students = copyMarks(marks)
	if markedBy != "" {
		existing.MarkedBy = markedBy
	}
	existing.UpdatedAt = s.now()
	return copyRecord(*existing), nil
}

func (s *Store) Get(_ context.Context, courseID string, day time.Time) (attendance.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.records[recordKey{course: courseID, day: attendance.Day(day)}]; ok {
		return copyRecord(*rec), nil
	}
	return attendance.Record{}, core.NewNotFound("attendance record", courseID+"@"+day.Format("2006-01-02"))
}

func (s *Store) ListByCourse(_ context.Context, courseID string) ([]attendance.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []attendance.Record
	for key, rec := range s.records {
		if key.course == courseID {
			out = append(out, copyRecord(*rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (s *Store) RecountTotalClasses(_ context.Context, courseID string) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.courses[courseID]
	if !ok {
		return 0, 0, core.NewNotFound("course", courseID)
	}
	stored, observed := c.TotalClasses, s.countLocked(courseID)
	c.TotalClasses = observed
	return stored, observed, nil
}

// CountByCourse reports how many records the course has.
func (s *Store) CountByCourse(_ context.Context, courseID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countLocked(courseID), nil
}

// SetTotalClasses overwrites the stored counter without looking at the records.
// Tests use it to simulate drift.
func (s *Store) SetTotalClasses(_ context.Context, courseID string, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.courses[courseID]
	if !ok {
		return core.NewNotFound("course", courseID)
	}
	c.TotalClasses = n
	return nil
}

func (s *Store) countLocked(courseID string) int {
	n := 0
	for key := range s.records {
		if key.course == courseID {
			n++
		}
	}
	return n
}

func copyCourse(c roster.Course) roster.Course {
	c.StudentIDs = append([]string{}, c.StudentIDs...)
	return c
}

func copyRecord(r attendance.Record) attendance.Record {
	r.Students = copyMarks(r.Students)
	return r
}

func copyMarks(marks []attendance.Mark) []attendance.Mark {
	out := make([]attendance.Mark, len(marks))
	copy(out, marks)
	return out
}
