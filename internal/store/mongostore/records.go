package mongostore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"classattend/internal/attendance"
	"classattend/internal/core"
)

func recordFilter(courseID string, day time.Time) bson.M {
	return bson.M{"course": courseID, "date": attendance.Day(day)}
}

func markUpdate(marks []attendance.Mark, markedBy string, now time.Time) bson.M {
	set := bson.M{"students": markDocs(marks), "updatedAt": now}
	if markedBy != "" {
		set["markedBy"] = markedBy
	}
	return set
}

// upsertUpdate replaces the marks and only sets the id and creation time when the record is new.
func upsertUpdate(rec attendance.Record, id string, now time.Time) bson.M {
	return bson.M{
		"$set":         markUpdate(rec.Students, rec.MarkedBy, now),
		"$setOnInsert": bson.M{"_id": id, "createdAt": now},
	}
}

// Upsert creates or replaces the record for (course, day). The unique (course, date) index
// guarantees only one caller observes an upsert, and only that caller recounts totalClasses.
// The two writes are not transactional; a failed recount is repaired by the reconciler.
func (s *Store) Upsert(ctx context.Context, rec attendance.Record) (attendance.Record, bool, error) {
	n, err := s.courses.CountDocuments(ctx, bson.M{"_id": rec.CourseID})
	if err != nil {
		return attendance.Record{}, false, storageErr("find course", err)
	}
	if n == 0 {
		return attendance.Record{}, false, core.NewNotFound("course", rec.CourseID)
	}

	now := s.now()
	filter := recordFilter(rec.CourseID, rec.Date)
	update := upsertUpdate(rec, uuid.NewString(), now)
	res, err := s.attendance.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		// a concurrent submission created the record first; ours becomes an update
		res, err = s.attendance.UpdateOne(ctx, filter, update)
	}
	if err != nil {
		return attendance.Record{}, false, storageErr("upsert record", err)
	}

	created := res.UpsertedCount == 1
	if created {
		if _, _, err := s.RecountTotalClasses(ctx, rec.CourseID); err != nil {
			return attendance.Record{}, false, err
		}
	}

	var doc recordDoc
	if err := s.attendance.FindOne(ctx, filter).Decode(&doc); err != nil {
		return attendance.Record{}, false, storageErr("reload record", err)
	}
	return doc.record(), created, nil
}

func (s *Store) Update(ctx context.Context, courseID string, day time.Time, marks []attendance.Mark, markedBy string) (attendance.Record, error) {
	var doc recordDoc
	err := s.attendance.FindOneAndUpdate(ctx,
		recordFilter(courseID, day),
		bson.M{"$set": markUpdate(marks, markedBy, s.now())},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if isNoDocuments(err) {
		return attendance.Record{}, core.NewNotFound("attendance record", courseID+"@"+day.Format("2006-01-02"))
	}
	if err != nil {
		return attendance.Record{}, storageErr("update record", err)
	}
	return doc.record(), nil
}

func (s *Store) Get(ctx context.Context, courseID string, day time.Time) (attendance.Record, error) {
	var doc recordDoc
	err := s.attendance.FindOne(ctx, recordFilter(courseID, day)).Decode(&doc)
	if isNoDocuments(err) {
		return attendance.Record{}, core.NewNotFound("attendance record", courseID+"@"+day.Format("2006-01-02"))
	}
	if err != nil {
		return attendance.Record{}, storageErr("find record", err)
	}
	return doc.record(), nil
}

func (s *Store) ListByCourse(ctx context.Context, courseID string) ([]attendance.Record, error) {
	cursor, err := s.attendance.Find(ctx, bson.M{"course": courseID}, options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
	if err != nil {
		return nil, storageErr("list records", err)
	}
	var docs []recordDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, storageErr("decode records", err)
	}
	out := make([]attendance.Record, len(docs))
	for i, d := range docs {
		out[i] = d.record()
	}
	return out, nil
}

const maxRecountAttempts = 5

var errRecountContended = errors.New("totalClasses kept changing during recount")

// RecountTotalClasses writes the record count with a compare-and-set on the value it read,
// so a concurrent recount that already saw a newer record is never overwritten with an older count.
func (s *Store) RecountTotalClasses(ctx context.Context, courseID string) (int, int, error) {
	for attempt := 0; attempt < maxRecountAttempts; attempt++ {
		var course struct {
			TotalClasses int `bson:"totalClasses"`
		}
		err := s.courses.FindOne(ctx, bson.M{"_id": courseID},
			options.FindOne().SetProjection(bson.M{"totalClasses": 1})).Decode(&course)
		if isNoDocuments(err) {
			return 0, 0, core.NewNotFound("course", courseID)
		}
		if err != nil {
			return 0, 0, storageErr("find course", err)
		}

		n, err := s.attendance.CountDocuments(ctx, bson.M{"course": courseID})
		if err != nil {
			return 0, 0, storageErr("count records", err)
		}
		observed := int(n)
		if observed == course.TotalClasses {
			return course.TotalClasses, observed, nil
		}

		res, err := s.courses.UpdateOne(ctx, recountFilter(courseID, course.TotalClasses),
			bson.M{"$set": bson.M{"totalClasses": observed}})
		if err != nil {
			return 0, 0, storageErr("set total classes", err)
		}
		if res.MatchedCount == 1 {
			return course.TotalClasses, observed, nil
		}
	}
	return 0, 0, storageErr("recount total classes", errRecountContended)
}

func recountFilter(courseID string, stored int) bson.M {
	return bson.M{"_id": courseID, "totalClasses": stored}
}
