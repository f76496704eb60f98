package roster

import (
	"context"
)

// Course is a taught unit. TotalClasses is maintained by the attendance upsert path, never set directly by callers.
type Course struct {
	ID           string   `json:"id"`
	Code         string   `json:"courseCode"`
	Name         string   `json:"courseName"`
	TeacherID    string   `json:"teacher,omitempty"`
	StudentIDs   []string `json:"students"`
	TotalClasses int      `json:"totalClasses"`
}

// Enrolled reports whether studentID is on the course roster.
func (c Course) Enrolled(studentID string) bool {
	for _, id := range c.StudentIDs {
		if id == studentID {
			return true
		}
	}
	return false
}

type Student struct {
	ID         string `json:"id"`
	Code       string `json:"studentId"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Department string `json:"department"`
	Year       int    `json:"year"`
}

type Teacher struct {
	ID         string `json:"id"`
	Code       string `json:"teacherId"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Department string `json:"department"`
}

// Repository persists courses and the people they reference.
// Lookups of a missing id or code return a core.NotFoundError.
type Repository interface {
	CreateCourse(ctx context.Context, c Course) (Course, error)
	GetCourse(ctx context.Context, id string) (Course, error)
	GetCourseByCode(ctx context.Context, code string) (Course, error)
	ListCourses(ctx context.Context) ([]Course, error)

	CreateStudent(ctx context.Context, s Student) (Student, error)
	GetStudent(ctx context.Context, id string) (Student, error)
	ListStudents(ctx context.Context) ([]Student, error)
	// StudentsByIDs resolves the given ids; unknown ids are simply absent from the result.
	StudentsByIDs(ctx context.Context, ids []string) (map[string]Student, error)

	CreateTeacher(ctx context.Context, t Teacher) (Teacher, error)
	GetTeacher(ctx context.Context, id string) (Teacher, error)
	ListTeachers(ctx context.Context) ([]Teacher, error)
}
