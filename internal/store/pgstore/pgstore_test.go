package pgstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classattend/internal/attendance"
)

func TestStringListScan(t *testing.T) {
	tests := []struct {
		name    string
		src     any
		want    []string
		wantErr bool
	}{
		{name: "bytes", src: []byte(`["s1","s2"]`), want: []string{"s1", "s2"}},
		{name: "string", src: `["s1"]`, want: []string{"s1"}},
		{name: "null column", src: nil, want: []string{}},
		{name: "wrong type", src: 42, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l stringList
			err := l.Scan(tt.src)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, []string(l))
		})
	}
}

func TestNilListsEncodeAsEmptyArrays(t *testing.T) {
	v, err := stringList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	v, err = markList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestRecordRowDropsNamesAndKeepsOrder(t *testing.T) {
	marks := []attendance.Mark{
		{StudentID: "s2", StudentName: "Bea", Present: true},
		{StudentID: "s1", StudentName: "Al"},
	}
	stored := toMarkList(marks)
	assert.Equal(t, markList{{Student: "s2", Present: true}, {Student: "s1"}}, stored)

	row := recordRow{
		ID:       "r1",
		CourseID: "c1",
		Day:      time.Date(2024, 1, 10, 0, 0, 0, 0, time.FixedZone("x", 3600)),
		Students: stored,
	}
	rec := row.record()
	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), rec.Date)
	assert.Equal(t, []attendance.Mark{{StudentID: "s2", Present: true}, {StudentID: "s1"}}, rec.Students)
}

func TestRecordStatements(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			name:  "upsert keeps one row per day and marked_by when absent",
			query: upsertRecordSQL,
			want: []string{
				"ON CONFLICT (course_id, day) DO UPDATE",
				"students   = EXCLUDED.students",
				"COALESCE(EXCLUDED.marked_by, attendance_records.marked_by)",
				"(xmax = 0) AS inserted",
				"RETURNING " + recordColumns,
			},
		},
		{
			name:  "course lock serializes upserts and recounts",
			query: lockCourseSQL,
			want:  []string{"FROM courses WHERE id = $1", "FOR UPDATE"},
		},
		{
			name:  "count is per course",
			query: countRecordsSQL,
			want:  []string{"COUNT(*)", "WHERE course_id = $1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, w := range tt.want {
				assert.Contains(t, tt.query, w)
			}
		})
	}
}
