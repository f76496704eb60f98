package attendance

import (
	"context"
	"time"
)

// Repository persists attendance records. Every store backend implements it.
type Repository interface {
	// Upsert atomically finds or creates the record for (rec.CourseID, rec.Date).
	// On create it increments the course's totalClasses in the same atomic unit and reports created=true.
	// On an existing record the marks are replaced wholesale and MarkedBy is overwritten only when non-empty.
	// A missing course yields a core.NotFoundError.
	Upsert(ctx context.Context, rec Record) (Record, bool, error)

	// Update replaces the marks of an existing record. It never creates one.
	Update(ctx context.Context, courseID string, day time.Time, marks []Mark, markedBy string) (Record, error)

	Get(ctx context.Context, courseID string, day time.Time) (Record, error)

	// ListByCourse returns every record for the course, most recent date first.
	ListByCourse(ctx context.Context, courseID string) ([]Record, error)

	// RecountTotalClasses sets the course's totalClasses to its record count in one atomic step
	// with respect to Upsert, and reports the previous and the recounted value.
	// A missing course yields a core.NotFoundError.
	RecountTotalClasses(ctx context.Context, courseID string) (stored, observed int, err error)
}
