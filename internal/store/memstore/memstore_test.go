package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classattend/internal/attendance"
	"classattend/internal/core"
	"classattend/internal/roster"
)

func TestUpsertBumpsCounterOnce(t *testing.T) {
	ctx := context.Background()
	s := New()
	c, err := s.CreateCourse(ctx, roster.Course{Code: "CS101", Name: "Intro"})
	require.NoError(t, err)

	day := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	rec, created, err := s.Upsert(ctx, attendance.Record{CourseID: c.ID, Date: day, MarkedBy: "t1",
		Students: []attendance.Mark{{StudentID: "a", Present: true}}})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, attendance.Day(day), rec.Date)

	again, created, err := s.Upsert(ctx, attendance.Record{CourseID: c.ID, Date: attendance.Day(day)})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, rec.ID, again.ID)
	assert.Equal(t, "t1", again.MarkedBy)
	assert.Empty(t, again.Students)

	got, err := s.GetCourse(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalClasses)

	_, _, err = s.Upsert(ctx, attendance.Record{CourseID: "missing", Date: day})
	assert.True(t, core.IsNotFound(err))
}

func TestReturnedValuesAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	c, err := s.CreateCourse(ctx, roster.Course{Code: "CS101", Name: "Intro", StudentIDs: []string{"a"}})
	require.NoError(t, err)
	c.StudentIDs[0] = "mutated"

	got, err := s.GetCourse(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got.StudentIDs)

	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	rec, _, err := s.Upsert(ctx, attendance.Record{CourseID: c.ID, Date: day, Students: []attendance.Mark{{StudentID: "a"}}})
	require.NoError(t, err)
	rec.Students[0].Present = true

	stored, err := s.Get(ctx, c.ID, day)
	require.NoError(t, err)
	assert.False(t, stored.Students[0].Present)
}

func TestListByCourseNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()
	c, err := s.CreateCourse(ctx, roster.Course{Code: "CS101", Name: "Intro"})
	require.NoError(t, err)
	for _, d := range []int{3, 1, 2} {
		_, _, err := s.Upsert(ctx, attendance.Record{CourseID: c.ID, Date: time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)})
		require.NoError(t, err)
	}
	list, err := s.ListByCourse(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []int{3, 2, 1}, []int{list[0].Date.Day(), list[1].Date.Day(), list[2].Date.Day()})

	n, err := s.CountByCourse(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestRecountTotalClasses(t *testing.T) {
	ctx := context.Background()
	s := New()
	c, err := s.CreateCourse(ctx, roster.Course{Code: "CS101", Name: "Intro"})
	require.NoError(t, err)
	_, _, err = s.Upsert(ctx, attendance.Record{CourseID: c.ID, Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	require.NoError(t, s.SetTotalClasses(ctx, c.ID, 4))

	stored, observed, err := s.RecountTotalClasses(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored)
	assert.Equal(t, 1, observed)

	got, err := s.GetCourse(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalClasses)

	_, _, err = s.RecountTotalClasses(ctx, "missing")
	assert.True(t, core.IsNotFound(err))
}
