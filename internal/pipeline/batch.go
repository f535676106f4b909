package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/wikiscan/internal/store"
)

// Outcome is the result of one document in a batch.
type Outcome struct {
	Job    JobSnapshot   `json:"job"`
	Record *store.Record `json:"-"`
}

// OK reports whether the document was processed or skipped as a duplicate.
func (o Outcome) OK() bool {
	return o.Job.Status == StatusCompleted || o.Job.Status == StatusDupSkipped
}

// RunBatch processes jobs with at most limit running at once and returns one
// outcome per job in input order. A failing job is recorded in its outcome
// and does not cancel the others; only ctx does.
func RunBatch(ctx context.Context, w *Worker, jobs []*Job, limit int) []Outcome {
	if limit <= 0 {
		limit = 1
	}
	out := make([]Outcome, len(jobs))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, job := range jobs {
		g.Go(func() error {
			if ctx.Err() != nil {
				job.Fail(ctx.Err().Error())
			} else {
				out[i].Record = w.Process(ctx, job)
			}
			out[i].Job = job.Snapshot()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Failed counts outcomes that did not succeed.
func Failed(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if !o.OK() {
			n++
		}
	}
	return n
}
