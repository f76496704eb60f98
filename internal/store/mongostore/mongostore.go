package mongostore

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"classattend/internal/attendance"
	"classattend/internal/core"
	"classattend/internal/roster"
)

const (
	coursesCollection    = "courses"
	studentsCollection   = "students"
	teachersCollection   = "teachers"
	attendanceCollection = "attendances"
)

// Store persists the roster and attendance records in MongoDB.
type Store struct {
	courses    *mongo.Collection
	students   *mongo.Collection
	teachers   *mongo.Collection
	attendance *mongo.Collection
	now        func() time.Time
}

var (
	_ roster.Repository     = (*Store)(nil)
	_ attendance.Repository = (*Store)(nil)
)

// New creates a store and ensures the unique indexes the upsert path depends on.
func New(ctx context.Context, db *mongo.Database) (*Store, error) {
	s := &Store{
		courses:    db.Collection(coursesCollection),
		students:   db.Collection(studentsCollection),
		teachers:   db.Collection(teachersCollection),
		attendance: db.Collection(attendanceCollection),
		now:        func() time.Time { return time.Now().UTC() },
	}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{s.courses, mongo.IndexModel{Keys: bson.D{{Key: "courseCode", Value: 1}}, Options: unique}},
		{s.students, mongo.IndexModel{Keys: bson.D{{Key: "studentId", Value: 1}}, Options: unique}},
		{s.teachers, mongo.IndexModel{Keys: bson.D{{Key: "teacherId", Value: 1}}, Options: unique}},
		// one record per (course, day); the upsert relies on it to close the find-or-create race
		{s.attendance, mongo.IndexModel{Keys: bson.D{{Key: "course", Value: 1}, {Key: "date", Value: -1}}, Options: unique}},
	}
	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateOne(ctx, idx.model); err != nil {
			return storageErr("create index on "+idx.coll.Name(), err)
		}
	}
	return nil
}

func storageErr(op string, err error) error {
	return core.NewStorageError(op, pkgerrors.WithStack(err))
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
