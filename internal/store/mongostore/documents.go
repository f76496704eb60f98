package mongostore

import (
	"time"

	"classattend/internal/attendance"
	"classattend/internal/roster"
)

type courseDoc struct {
	ID           string   `bson:"_id"`
	Code         string   `bson:"courseCode"`
	Name         string   `bson:"courseName"`
	Teacher      string   `bson:"teacher,omitempty"`
	Students     []string `bson:"students"`
	TotalClasses int      `bson:"totalClasses"`
}

func newCourseDoc(c roster.Course) courseDoc {
	students := c.StudentIDs
	if students == nil {
		students = []string{}
	}
	return courseDoc{
		ID:           c.ID,
		Code:         c.Code,
		Name:         c.Name,
		Teacher:      c.TeacherID,
		Students:     students,
		TotalClasses: c.TotalClasses,
	}
}

func (d courseDoc) course() roster.Course {
	students := d.Students
	if students == nil {
		students = []string{}
	}
	return roster.Course{
		ID:           d.ID,
		Code:         d.Code,
		Name:         d.Name,
		TeacherID:    d.Teacher,
		StudentIDs:   students,
		TotalClasses: d.TotalClasses,
	}
}

type studentDoc struct {
	ID         string `bson:"_id"`
	Code       string `bson:"studentId"`
	Name       string `bson:"name"`
	Email      string `bson:"email,omitempty"`
	Department string `bson:"department"`
	Year       int    `bson:"year"`
}

type teacherDoc struct {
	ID         string `bson:"_id"`
	Code       string `bson:"teacherId"`
	Name       string `bson:"name"`
	Email      string `bson:"email,omitempty"`
	Department string `bson:"department"`
}

type markDoc struct {
	Student string `bson:"student"`
	Present bool   `bson:"present"`
}

type recordDoc struct {
	ID        string    `bson:"_id"`
	Course    string    `bson:"course"`
	Date      time.Time `bson:"date"`
	Students  []markDoc `bson:"students"`
	MarkedBy  string    `bson:"markedBy,omitempty"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func markDocs(marks []attendance.Mark) []markDoc {
	out := make([]markDoc, len(marks))
	for i, m := range marks {
		out[i] = markDoc{Student: m.StudentID, Present: m.Present}
	}
	return out
}

func (d recordDoc) record() attendance.Record {
	marks := make([]attendance.Mark, len(d.Students))
	for i, m := range d.Students {
		marks[i] = attendance.Mark{StudentID: m.Student, Present: m.Present}
	}
	return attendance.Record{
		ID:        d.ID,
		CourseID:  d.Course,
		Date:      attendance.Day(d.Date.UTC()),
		Students:  marks,
		MarkedBy:  d.MarkedBy,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}
