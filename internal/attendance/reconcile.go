package attendance

import (
	"context"

	"go.uber.org/zap"

	"classattend/internal/core"
	"classattend/internal/metrics"
	"classattend/internal/roster"
)

// Drift describes a course whose stored counter disagreed with its record count.
type Drift struct {
	CourseID string `json:"course"`
	Stored   int    `json:"stored"`
	Observed int    `json:"observed"`
}

// Reconciler recomputes totalClasses from the records, the source of truth, and repairs the stored counter.
type Reconciler struct {
	repo    Repository
	courses roster.Repository
	log     *zap.Logger
}

func NewReconciler(repo Repository, courses roster.Repository, log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{repo: repo, courses: courses, log: log}
}

// Reconcile repairs one course. It returns nil when the counter was already consistent.
func (r *Reconciler) Reconcile(ctx context.Context, courseID string) (*Drift, error) {
	stored, observed, err := r.repo.RecountTotalClasses(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return r.drift(courseID, stored, observed), nil
}

// ReconcileAll walks every course and returns the drifts it repaired.
func (r *Reconciler) ReconcileAll(ctx context.Context) ([]Drift, error) {
	courses, err := r.courses.ListCourses(ctx)
	if err != nil {
		return nil, err
	}
	var drifts []Drift
	for _, c := range courses {
		if err := ctx.Err(); err != nil {
			return drifts, err
		}
		d, err := r.Reconcile(ctx, c.ID)
		if core.IsNotFound(err) {
			continue
		}
		if err != nil {
			return drifts, err
		}
		if d != nil {
			drifts = append(drifts, *d)
		}
	}
	return drifts, nil
}

func (r *Reconciler) drift(courseID string, stored, observed int) *Drift {
	if stored == observed {
		return nil
	}
	metrics.ReconcileDrift.Inc()
	r.log.Warn("totalClasses drift repaired",
		zap.String("course", courseID),
		zap.Int("stored", stored),
		zap.Int("observed", observed),
	)
	return &Drift{CourseID: courseID, Stored: stored, Observed: observed}
}
