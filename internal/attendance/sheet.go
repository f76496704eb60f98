package attendance

import (
	"context"
	"strconv"
	"time"

	"classattend/internal/core"
)

// SheetRow is one line of a marking sheet.
type SheetRow struct {
	StudentID   string `json:"student"`
	StudentName string `json:"studentName,omitempty"`
	Present     bool   `json:"present"`
	OnRoster    bool   `json:"onRoster"`
}

// Sheet is the roster reconciled with the stored record for one day.
type Sheet struct {
	CourseID string     `json:"course"`
	Date     time.Time  `json:"date"`
	Exists   bool       `json:"exists"`
	MarkedBy string     `json:"markedBy,omitempty"`
	Rows     []SheetRow `json:"students"`
}

// StudentReport is one student's summary within a course report.
type StudentReport struct {
	StudentID   string `json:"student"`
	StudentName string `json:"studentName,omitempty"`
	OnRoster    bool   `json:"onRoster"`
	Summary
	BelowThreshold bool `json:"belowThreshold"`
}

type Report struct {
	CourseID     string          `json:"course"`
	CourseCode   string          `json:"courseCode"`
	CourseName   string          `json:"courseName"`
	TotalClasses int             `json:"totalClasses"`
	Threshold    float64         `json:"threshold"`
	Students     []StudentReport `json:"students"`
}

// Sheet lists every roster student, in roster order, with the mark stored for the day
// (absent when the record omits them or no record exists), then recorded students no longer on the roster.
func (s *Service) Sheet(ctx context.Context, courseID, date string) (Sheet, error) {
	day, err := NormalizeDate(date)
	if err != nil {
		return Sheet{}, err
	}
	course, err := s.courses.GetCourse(ctx, courseID)
	if err != nil {
		return Sheet{}, err
	}

	sheet := Sheet{CourseID: course.ID, Date: day, Rows: []SheetRow{}}
	marks := map[string]bool{}
	var recorded []Mark
	rec, err := s.repo.Get(ctx, course.ID, day)
	switch {
	case err == nil:
		sheet.Exists = true
		sheet.MarkedBy = rec.MarkedBy
		recorded = rec.Students
		for _, m := range rec.Students {
			marks[m.StudentID] = m.Present
		}
	case !core.IsNotFound(err):
		return Sheet{}, err
	}

	onRoster := make(map[string]struct{}, len(course.StudentIDs))
	for _, id := range course.StudentIDs {
		onRoster[id] = struct{}{}
		sheet.Rows = append(sheet.Rows, SheetRow{StudentID: id, Present: marks[id], OnRoster: true})
	}
	for _, m := range recorded {
		if _, ok := onRoster[m.StudentID]; !ok {
			sheet.Rows = append(sheet.Rows, SheetRow{StudentID: m.StudentID, Present: m.Present})
		}
	}

	names, err := s.names(ctx, sheetIDs(sheet.Rows))
	if err != nil {
		return Sheet{}, err
	}
	for i := range sheet.Rows {
		sheet.Rows[i].StudentName = names[sheet.Rows[i].StudentID]
	}
	return sheet, nil
}

// CourseReport summarizes every roster student plus any student that appears in a record but not on the roster.
func (s *Service) CourseReport(ctx context.Context, courseID string) (Report, error) {
	course, err := s.courses.GetCourse(ctx, courseID)
	if err != nil {
		return Report{}, err
	}
	records, err := s.repo.ListByCourse(ctx, course.ID)
	if err != nil {
		return Report{}, err
	}

	report := Report{
		CourseID:     course.ID,
		CourseCode:   course.Code,
		CourseName:   course.Name,
		TotalClasses: len(records),
		Threshold:    s.threshold,
		Students:     []StudentReport{},
	}
	ids := append([]string(nil), course.StudentIDs...)
	roster := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		roster[id] = struct{}{}
	}
	// records are newest first; walk oldest first so off-roster students appear in first-seen order
	for i := len(records) - 1; i >= 0; i-- {
		for _, m := range records[i].Students {
			if _, ok := roster[m.StudentID]; !ok {
				roster[m.StudentID] = struct{}{}
				ids = append(ids, m.StudentID)
			}
		}
	}

	names, err := s.names(ctx, ids)
	if err != nil {
		return Report{}, err
	}
	for _, id := range ids {
		sum := ComputeSummary(records, id)
		report.Students = append(report.Students, StudentReport{
			StudentID:      id,
			StudentName:    names[id],
			OnRoster:       course.Enrolled(id),
			Summary:        sum,
			BelowThreshold: sum.TotalClasses > 0 && sum.AttendancePercentage < s.threshold,
		})
	}
	return report, nil
}

func (s *Service) names(ctx context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	students, err := s.courses.StudentsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for id, st := range students {
		out[id] = st.Name
	}
	return out, nil
}

func sheetIDs(rows []SheetRow) []string {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.StudentID
	}
	return ids
}

func itoa(i int) string { return strconv.Itoa(i) }
