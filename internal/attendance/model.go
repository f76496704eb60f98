package attendance

import (
	"math"
	"strings"
	"time"

	"classattend/internal/core"
)

// Mark is one student's present/absent flag within a record.
type Mark struct {
	StudentID   string `json:"student"`
	StudentName string `json:"studentName,omitempty"`
	Present     bool   `json:"present"`
}

// Record is the attendance state for one course on one calendar day.
// At most one Record exists per (CourseID, Date).
type Record struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course"`
	Date      time.Time `json:"date"`
	Students  []Mark    `json:"students"`
	MarkedBy  string    `json:"markedBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Summary is derived per (student, course) and never stored.
type Summary struct {
	TotalClasses         int     `json:"totalClasses"`
	AttendedClasses      int     `json:"attendedClasses"`
	AttendancePercentage float64 `json:"attendancePercentage"`
}

const dayLayout = "2006-01-02"

// NormalizeDate parses a YYYY-MM-DD or RFC 3339 value and truncates it to UTC midnight
// of the calendar date as written, so any time of day on the same date collides.
func NormalizeDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, core.FieldInvalid("date", "this field is required")
	}
	if t, err := time.Parse(dayLayout, value); err == nil {
		return t, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, value); err == nil {
			return Day(t), nil
		}
	}
	return time.Time{}, core.FieldInvalid("date", "must be an ISO date (YYYY-MM-DD) or RFC 3339 timestamp")
}

// Day truncates t to midnight UTC of its own calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ComputeSummary scans records for studentID. A record that omits the student counts as an absence.
func ComputeSummary(records []Record, studentID string) Summary {
	sum := Summary{TotalClasses: len(records)}
	for _, rec := range records {
		for _, m := range rec.Students {
			if m.StudentID == studentID {
				if m.Present {
					sum.AttendedClasses++
				}
				break
			}
		}
	}
	if sum.TotalClasses > 0 {
		sum.AttendancePercentage = roundPercent(float64(sum.AttendedClasses) / float64(sum.TotalClasses) * 100)
	}
	return sum
}

// roundPercent rounds half-up to two decimals.
func roundPercent(p float64) float64 {
	return math.Floor(p*100+0.5) / 100
}

func cloneMarks(marks []Mark) []Mark {
	out := make([]Mark, len(marks))
	for i, m := range marks {
		out[i] = Mark{StudentID: m.StudentID, Present: m.Present}
	}
	return out
}
