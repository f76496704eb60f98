package attendance_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classattend/internal/attendance"
	"classattend/internal/core"
	"classattend/internal/roster"
	"classattend/internal/store/memstore"
)

func TestReconcile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.submit(t, "2024-01-15")
	e.submit(t, "2024-01-16")

	r := attendance.NewReconciler(e.store, e.store, nil)
	drift, err := r.Reconcile(ctx, e.course.ID)
	require.NoError(t, err)
	assert.Nil(t, drift)

	require.NoError(t, e.store.SetTotalClasses(ctx, e.course.ID, 5))
	drift, err = r.Reconcile(ctx, e.course.ID)
	require.NoError(t, err)
	assert.Equal(t, &attendance.Drift{CourseID: e.course.ID, Stored: 5, Observed: 2}, drift)
	assert.Equal(t, 2, e.total(t))
}

func TestReconcileAll(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	other, err := e.store.CreateCourse(ctx, roster.Course{Code: "CS102", Name: "Other"})
	require.NoError(t, err)
	require.NoError(t, e.store.SetTotalClasses(ctx, other.ID, 3))
	e.submit(t, "2024-01-15")

	drifts, err := attendance.NewReconciler(e.store, e.store, nil).ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []attendance.Drift{{CourseID: other.ID, Stored: 3, Observed: 0}}, drifts)
	assert.Equal(t, 1, e.total(t))
}

// interleavingRepo creates another day's record as soon as a recount returns,
// the window in which a separate count-then-set would lose the increment.
type interleavingRepo struct {
	*memstore.Store
	after func()
}

func (r *interleavingRepo) RecountTotalClasses(ctx context.Context, courseID string) (int, int, error) {
	stored, observed, err := r.Store.RecountTotalClasses(ctx, courseID)
	if r.after != nil {
		after := r.after
		r.after = nil
		after()
	}
	return stored, observed, err
}

func TestReconcileKeepsConcurrentSubmission(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.submit(t, "2024-01-15")
	require.NoError(t, e.store.SetTotalClasses(ctx, e.course.ID, 0))

	repo := &interleavingRepo{Store: e.store, after: func() { e.submit(t, "2024-01-16") }}
	drift, err := attendance.NewReconciler(repo, e.store, nil).Reconcile(ctx, e.course.ID)
	require.NoError(t, err)
	assert.Equal(t, &attendance.Drift{CourseID: e.course.ID, Stored: 0, Observed: 1}, drift)

	n, err := e.store.CountByCourse(ctx, e.course.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, n, e.total(t))
}

func TestReconcileRacingSubmissions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	r := attendance.NewReconciler(e.store, e.store, nil)

	const days = 20
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for d := 1; d <= days; d++ {
			_, err := e.svc.Submit(ctx, attendance.Submission{
				CourseID:  e.course.ID,
				Date:      time.Date(2024, 4, d, 0, 0, 0, 0, time.UTC).Format("2006-01-02"),
				TeacherID: e.teacher,
			})
			assert.NoError(t, err)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < days; i++ {
			_, err := r.Reconcile(ctx, e.course.ID)
			assert.NoError(t, err)
		}
	}()
	wg.Wait()

	assert.Equal(t, days, e.total(t))
	drift, err := r.Reconcile(ctx, e.course.ID)
	require.NoError(t, err)
	assert.Nil(t, drift)
}

func TestReconcileUnknownCourse(t *testing.T) {
	e := newEnv(t)
	_, err := attendance.NewReconciler(e.store, e.store, nil).Reconcile(context.Background(), "missing")
	assert.True(t, core.IsNotFound(err))
}
