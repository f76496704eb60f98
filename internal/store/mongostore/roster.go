package mongostore

import (
	"context"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"classattend/internal/core"
	"classattend/internal/roster"
)

func (s *Store) CreateCourse(ctx context.Context, c roster.Course) (roster.Course, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	doc := newCourseDoc(c)
	if _, err := s.courses.InsertOne(ctx, doc); err != nil {
		return roster.Course{}, storageErr("insert course", err)
	}
	return doc.course(), nil
}

func (s *Store) GetCourse(ctx context.Context, id string) (roster.Course, error) {
	return s.findCourse(ctx, bson.M{"_id": id}, id)
}

func (s *Store) GetCourseByCode(ctx context.Context, code string) (roster.Course, error) {
	return s.findCourse(ctx, bson.M{"courseCode": code}, code)
}

func (s *Store) findCourse(ctx context.Context, filter bson.M, key string) (roster.Course, error) {
	var doc courseDoc
	err := s.courses.FindOne(ctx, filter).Decode(&doc)
	if isNoDocuments(err) {
		return roster.Course{}, core.NewNotFound("course", key)
	}
	if err != nil {
		return roster.Course{}, storageErr("find course", err)
	}
	return doc.course(), nil
}

func (s *Store) ListCourses(ctx context.Context) ([]roster.Course, error) {
	cursor, err := s.courses.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "courseCode", Value: 1}}))
	if err != nil {
		return nil, storageErr("list courses", err)
	}
	var docs []courseDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, storageErr("decode courses", err)
	}
	out := make([]roster.Course, len(docs))
	for i, d := range docs {
		out[i] = d.course()
	}
	return out, nil
}

func (s *Store) CreateStudent(ctx context.Context, st roster.Student) (roster.Student, error) {
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	if _, err := s.students.InsertOne(ctx, studentDoc(st)); err != nil {
		return roster.Student{}, storageErr("insert student", err)
	}
	return st, nil
}

func (s *Store) GetStudent(ctx context.Context, id string) (roster.Student, error) {
	var doc studentDoc
	err := s.students.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if isNoDocuments(err) {
		return roster.Student{}, core.NewNotFound("student", id)
	}
	if err != nil {
		return roster.Student{}, storageErr("find student", err)
	}
	return roster.Student(doc), nil
}

func (s *Store) ListStudents(ctx context.Context) ([]roster.Student, error) {
	return s.findStudents(ctx, bson.M{})
}

func (s *Store) StudentsByIDs(ctx context.Context, ids []string) (map[string]roster.Student, error) {
	out := make(map[string]roster.Student, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	students, err := s.findStudents(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	for _, st := range students {
		out[st.ID] = st
	}
	return out, nil
}

func (s *Store) findStudents(ctx context.Context, filter bson.M) ([]roster.Student, error) {
	cursor, err := s.students.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "studentId", Value: 1}}))
	if err != nil {
		return nil, storageErr("find students", err)
	}
	var docs []studentDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, storageErr("decode students", err)
	}
	out := make([]roster.Student, len(docs))
	for i, d := range docs {
		out[i] = roster.Student(d)
	}
	return out, nil
}

func (s *Store) CreateTeacher(ctx context.Context, t roster.Teacher) (roster.Teacher, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if _, err := s.teachers.InsertOne(ctx, teacherDoc(t)); err != nil {
		return roster.Teacher{}, storageErr("insert teacher", err)
	}
	return t, nil
}

func (s *Store) GetTeacher(ctx context.Context, id string) (roster.Teacher, error) {
	var doc teacherDoc
	err := s.teachers.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if isNoDocuments(err) {
		return roster.Teacher{}, core.NewNotFound("teacher", id)
	}
	if err != nil {
		return roster.Teacher{}, storageErr("find teacher", err)
	}
	return roster.Teacher(doc), nil
}

func (s *Store) ListTeachers(ctx context.Context) ([]roster.Teacher, error) {
	cursor, err := s.teachers.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "teacherId", Value: 1}}))
	if err != nil {
		return nil, storageErr("list teachers", err)
	}
	var docs []teacherDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, storageErr("decode teachers", err)
	}
	out := make([]roster.Teacher, len(docs))
	for i, d := range docs {
		out[i] = roster.Teacher(d)
	}
	return out, nil
}
