package attendance_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classattend/internal/attendance"
	"classattend/internal/core"
)

func TestSheet(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	sheet, err := e.svc.Sheet(ctx, e.course.ID, "2024-01-15")
	require.NoError(t, err)
	assert.False(t, sheet.Exists)
	assert.Equal(t, []attendance.SheetRow{
		{StudentID: e.s1.ID, StudentName: "Alice", OnRoster: true},
		{StudentID: e.s2.ID, StudentName: "Bob", OnRoster: true},
	}, sheet.Rows)

	e.submit(t, "2024-01-15", attendance.Mark{StudentID: e.s2.ID, Present: true}, attendance.Mark{StudentID: "guest", Present: true})
	sheet, err = e.svc.Sheet(ctx, e.course.ID, "2024-01-15")
	require.NoError(t, err)
	assert.True(t, sheet.Exists)
	assert.Equal(t, e.teacher, sheet.MarkedBy)
	assert.Equal(t, []attendance.SheetRow{
		{StudentID: e.s1.ID, StudentName: "Alice", OnRoster: true},
		{StudentID: e.s2.ID, StudentName: "Bob", Present: true, OnRoster: true},
		{StudentID: "guest", Present: true},
	}, sheet.Rows)

	_, err = e.svc.Sheet(ctx, "missing", "2024-01-15")
	assert.True(t, core.IsNotFound(err))
	_, err = e.svc.Sheet(ctx, e.course.ID, "")
	assert.True(t, core.IsValidation(err))
}

func TestCourseReport(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.submit(t, "2024-01-15", attendance.Mark{StudentID: e.s1.ID, Present: true}, attendance.Mark{StudentID: "guest", Present: true})
	e.submit(t, "2024-01-16", attendance.Mark{StudentID: e.s1.ID, Present: true}, attendance.Mark{StudentID: e.s2.ID, Present: true})
	e.submit(t, "2024-01-17", attendance.Mark{StudentID: e.s1.ID, Present: true})
	e.submit(t, "2024-01-18", attendance.Mark{StudentID: e.s1.ID})

	report, err := e.svc.CourseReport(ctx, e.course.ID)
	require.NoError(t, err)
	assert.Equal(t, "CS101", report.CourseCode)
	assert.Equal(t, 4, report.TotalClasses)
	assert.Equal(t, attendance.DefaultWarningThreshold, report.Threshold)
	require.Len(t, report.Students, 3)

	alice, bob, guest := report.Students[0], report.Students[1], report.Students[2]
	assert.Equal(t, attendance.Summary{TotalClasses: 4, AttendedClasses: 3, AttendancePercentage: 75}, alice.Summary)
	assert.False(t, alice.BelowThreshold, "exactly at threshold is not flagged")
	assert.Equal(t, 25.0, bob.AttendancePercentage)
	assert.True(t, bob.BelowThreshold)
	assert.Equal(t, "guest", guest.StudentID)
	assert.False(t, guest.OnRoster)
}

func TestCourseReportNoRecords(t *testing.T) {
	e := newEnv(t)
	report, err := e.svc.CourseReport(context.Background(), e.course.ID)
	require.NoError(t, err)
	require.Len(t, report.Students, 2)
	for _, s := range report.Students {
		assert.False(t, s.BelowThreshold, "nothing to flag before the first class")
	}
}
