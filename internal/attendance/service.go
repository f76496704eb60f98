package attendance

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"classattend/internal/core"
	"classattend/internal/metrics"
	"classattend/internal/queue"
	"classattend/internal/roster"
)

// Event types published after a successful write. The body is the course id.
const (
	EventRecordCreated = "record.created"
	EventRecordUpdated = "record.updated"
)

// DefaultWarningThreshold is the attendance percentage under which a student is flagged in course reports.
const DefaultWarningThreshold = 75.0

// Publisher is satisfied by queue.Queue.
type Publisher interface {
	Publish(ctx context.Context, msg queue.Message) error
}

// Submission is the payload of a submit or edit call. Date is an ISO date or RFC 3339 timestamp.
type Submission struct {
	CourseID  string
	Date      string
	Students  []Mark
	TeacherID string
}

type Options struct {
	Publisher        Publisher
	Logger           *zap.Logger
	WarningThreshold float64
}

// Service is the upsert and aggregation engine over a record store and the roster.
type Service struct {
	repo      Repository
	courses   roster.Repository
	pub       Publisher
	log       *zap.Logger
	threshold float64
}

// NewService creates a service backed by a record repository and the roster.
func NewService(repo Repository, courses roster.Repository, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.WarningThreshold <= 0 {
		opts.WarningThreshold = DefaultWarningThreshold
	}
	return &Service{
		repo:      repo,
		courses:   courses,
		pub:       opts.Publisher,
		log:       opts.Logger,
		threshold: opts.WarningThreshold,
	}
}

// Submit creates the record for (course, day) or replaces the marks of the existing one.
// Only the create path bumps the course's totalClasses.
func (s *Service) Submit(ctx context.Context, in Submission) (Record, error) {
	if strings.TrimSpace(in.CourseID) == "" {
		return Record{}, core.FieldInvalid("courseId", "this field is required")
	}
	if strings.TrimSpace(in.TeacherID) == "" {
		return Record{}, core.FieldInvalid("teacherId", "this field is required")
	}
	day, err := NormalizeDate(in.Date)
	if err != nil {
		return Record{}, err
	}
	if err := validateMarks(in.Students); err != nil {
		return Record{}, err
	}
	if _, err := s.courses.GetCourse(ctx, in.CourseID); err != nil {
		return Record{}, err
	}

	rec, created, err := s.repo.Upsert(ctx, Record{
		CourseID: in.CourseID,
		Date:     day,
		Students: cloneMarks(in.Students),
		MarkedBy: in.TeacherID,
	})
	if err != nil {
		return Record{}, err
	}

	outcome, event := "updated", EventRecordUpdated
	if created {
		outcome, event = "created", EventRecordCreated
	}
	metrics.Submissions.WithLabelValues(outcome).Inc()
	s.log.Info("attendance submitted",
		zap.String("course", rec.CourseID),
		zap.String("date", rec.Date.Format(dayLayout)),
		zap.String("outcome", outcome),
		zap.Int("marks", len(rec.Students)),
	)
	s.publish(ctx, event, rec.CourseID)
	return rec, nil
}

// Edit replaces the marks of an existing record and fails with NotFound when none exists for the day.
// MarkedBy is kept when TeacherID is empty.
func (s *Service) Edit(ctx context.Context, in Submission) (Record, error) {
	if strings.TrimSpace(in.CourseID) == "" {
		return Record{}, core.FieldInvalid("courseId", "this field is required")
	}
	day, err := NormalizeDate(in.Date)
	if err != nil {
		return Record{}, err
	}
	if err := validateMarks(in.Students); err != nil {
		return Record{}, err
	}

	rec, err := s.repo.Update(ctx, in.CourseID, day, cloneMarks(in.Students), strings.TrimSpace(in.TeacherID))
	if err != nil {
		return Record{}, err
	}
	metrics.Edits.Inc()
	s.log.Info("attendance edited", zap.String("course", rec.CourseID), zap.String("date", rec.Date.Format(dayLayout)))
	s.publish(ctx, EventRecordUpdated, rec.CourseID)

	if err := s.resolveNames(ctx, []Record{rec}); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// ListByCourse returns the course's records newest first with student names resolved.
func (s *Service) ListByCourse(ctx context.Context, courseID string) ([]Record, error) {
	if strings.TrimSpace(courseID) == "" {
		return nil, core.FieldInvalid("courseId", "this field is required")
	}
	records, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []Record{}
	}
	if err := s.resolveNames(ctx, records); err != nil {
		return nil, err
	}
	return records, nil
}

// Summarize recomputes the student's attendance in the course from the current records.
// Students that are not enrolled simply get zero attendance.
func (s *Service) Summarize(ctx context.Context, studentID, courseID string) (Summary, error) {
	if strings.TrimSpace(studentID) == "" {
		return Summary{}, core.FieldInvalid("studentId", "this field is required")
	}
	if strings.TrimSpace(courseID) == "" {
		return Summary{}, core.FieldInvalid("courseId", "this field is required")
	}
	records, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return Summary{}, err
	}
	metrics.Summaries.Inc()
	return ComputeSummary(records, studentID), nil
}

func (s *Service) publish(ctx context.Context, typ, courseID string) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(ctx, queue.Message{Type: typ, Body: []byte(courseID)}); err != nil {
		metrics.QueueEvents.WithLabelValues(typ, "publish_failed").Inc()
		s.log.Warn("queue publish failed", zap.String("type", typ), zap.String("course", courseID), zap.Error(err))
		return
	}
	metrics.QueueEvents.WithLabelValues(typ, "published").Inc()
}

func (s *Service) resolveNames(ctx context.Context, records []Record) error {
	var ids []string
	seen := map[string]struct{}{}
	for _, rec := range records {
		for _, m := range rec.Students {
			if _, ok := seen[m.StudentID]; !ok {
				seen[m.StudentID] = struct{}{}
				ids = append(ids, m.StudentID)
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}
	students, err := s.courses.StudentsByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for i := range records {
		for j := range records[i].Students {
			if st, ok := students[records[i].Students[j].StudentID]; ok {
				records[i].Students[j].StudentName = st.Name
			}
		}
	}
	return nil
}

var errDuplicateStudent = errors.New("a student may only be marked once per record")

// validateMarks does not compare against the roster: partial and foreign submissions are accepted.
func validateMarks(marks []Mark) error {
	seen := make(map[string]struct{}, len(marks))
	var flds []core.FieldError
	for i, m := range marks {
		field := "students[" + itoa(i) + "].student"
		id := strings.TrimSpace(m.StudentID)
		if id == "" {
			flds = append(flds, core.FieldError{Field: field, Error: "this field is required"})
			continue
		}
		if _, dup := seen[id]; dup {
			flds = append(flds, core.FieldError{Field: field, Error: errDuplicateStudent.Error()})
			continue
		}
		seen[id] = struct{}{}
	}
	if len(flds) > 0 {
		return core.NewValidationError(errors.New("invalid students"), flds...)
	}
	return nil
}
