package roster

import (
	"context"
	"errors"
	"strings"

	"classattend/internal/core"
)

var errCodeExists = errors.New("code already exists")

// CourseDetail is a course with its teacher and roster resolved for display.
type CourseDetail struct {
	Course
	Teacher  *Teacher  `json:"teacherDetail,omitempty"`
	Students []Student `json:"studentDetails"`
}

type StudentDetail struct {
	Student
	EnrolledCourses []Course `json:"enrolledCourses"`
}

type TeacherDetail struct {
	Teacher
	TeachingCourses []Course `json:"teachingCourses"`
}

// Service is plain CRUD over the roster with existence and uniqueness checks.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateCourse(ctx context.Context, c Course) (Course, error) {
	c.Code = strings.TrimSpace(c.Code)
	c.Name = strings.TrimSpace(c.Name)
	if c.Code == "" {
		return Course{}, core.FieldInvalid("courseCode", "this field is required")
	}
	if c.Name == "" {
		return Course{}, core.FieldInvalid("courseName", "this field is required")
	}
	if _, err := s.repo.GetCourseByCode(ctx, c.Code); err == nil {
		return Course{}, core.NewValidationError(errCodeExists, core.FieldError{Field: "courseCode", Error: errCodeExists.Error()})
	} else if !core.IsNotFound(err) {
		return Course{}, err
	}
	c.StudentIDs = dedupe(c.StudentIDs)
	c.TotalClasses = 0
	return s.repo.CreateCourse(ctx, c)
}

func (s *Service) CreateStudent(ctx context.Context, st Student) (Student, error) {
	if strings.TrimSpace(st.Code) == "" {
		return Student{}, core.FieldInvalid("studentId", "this field is required")
	}
	if strings.TrimSpace(st.Name) == "" {
		return Student{}, core.FieldInvalid("name", "this field is required")
	}
	return s.repo.CreateStudent(ctx, st)
}

func (s *Service) CreateTeacher(ctx context.Context, t Teacher) (Teacher, error) {
	if strings.TrimSpace(t.Code) == "" {
		return Teacher{}, core.FieldInvalid("teacherId", "this field is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		return Teacher{}, core.FieldInvalid("name", "this field is required")
	}
	return s.repo.CreateTeacher(ctx, t)
}

func (s *Service) ListCourses(ctx context.Context) ([]Course, error) {
	return s.repo.ListCourses(ctx)
}

func (s *Service) GetCourse(ctx context.Context, id string) (Course, error) {
	return s.repo.GetCourse(ctx, id)
}

func (s *Service) GetCourseByCode(ctx context.Context, code string) (Course, error) {
	return s.repo.GetCourseByCode(ctx, strings.TrimSpace(code))
}

// CourseDetail resolves the teacher and the roster, keeping roster order.
// Roster entries whose student no longer exists are skipped.
func (s *Service) CourseDetail(ctx context.Context, id string) (CourseDetail, error) {
	c, err := s.repo.GetCourse(ctx, id)
	if err != nil {
		return CourseDetail{}, err
	}
	detail := CourseDetail{Course: c, Students: []Student{}}
	if c.TeacherID != "" {
		t, err := s.repo.GetTeacher(ctx, c.TeacherID)
		switch {
		case err == nil:
			detail.Teacher = &t
		case !core.IsNotFound(err):
			return CourseDetail{}, err
		}
	}
	students, err := s.repo.StudentsByIDs(ctx, c.StudentIDs)
	if err != nil {
		return CourseDetail{}, err
	}
	for _, sid := range c.StudentIDs {
		if st, ok := students[sid]; ok {
			detail.Students = append(detail.Students, st)
		}
	}
	return detail, nil
}

func (s *Service) ListStudents(ctx context.Context) ([]Student, error) {
	return s.repo.ListStudents(ctx)
}

func (s *Service) StudentDetail(ctx context.Context, id string) (StudentDetail, error) {
	st, err := s.repo.GetStudent(ctx, id)
	if err != nil {
		return StudentDetail{}, err
	}
	courses, err := s.repo.ListCourses(ctx)
	if err != nil {
		return StudentDetail{}, err
	}
	detail := StudentDetail{Student: st, EnrolledCourses: []Course{}}
	for _, c := range courses {
		if c.Enrolled(id) {
			detail.EnrolledCourses = append(detail.EnrolledCourses, c)
		}
	}
	return detail, nil
}

func (s *Service) ListTeachers(ctx context.Context) ([]Teacher, error) {
	return s.repo.ListTeachers(ctx)
}

func (s *Service) TeacherDetail(ctx context.Context, id string) (TeacherDetail, error) {
	t, err := s.repo.GetTeacher(ctx, id)
	if err != nil {
		return TeacherDetail{}, err
	}
	courses, err := s.repo.ListCourses(ctx)
	if err != nil {
		return TeacherDetail{}, err
	}
	detail := TeacherDetail{Teacher: t, TeachingCourses: []Course{}}
	for _, c := range courses {
		if c.TeacherID == id {
			detail.TeachingCourses = append(detail.TeachingCourses, c)
		}
	}
	return detail, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
