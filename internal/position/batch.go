package position

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/astro/skycalc/internal/ephem"
	"github.com/astro/skycalc/internal/state"
)

// Job is one calculation in a batch: a TT instant, a body and flags.
type Job struct {
	JDTT  float64
	Body  ephem.Body
	Flags ephem.Flags
}

// batchResult pairs a Result with the index of the job that produced it.
type batchResult struct {
	idx int
	res Result
}

// Pool runs independent position calculations across a fixed number of
// goroutines. Calculations share nothing but the read-only state
// snapshot, so they parallelize freely.
type Pool struct {
	workers int
	logger  *slog.Logger
}

// NewPool creates a calculation pool. workers <= 0 selects NumCPU.
func NewPool(workers int, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{workers: workers, logger: logger}
}

// CalcMany computes every job and returns results in job order. Hard
// per-job failures are folded into the result as Status Err with the
// error text; the batch itself only fails on context cancellation, in
// which case unprocessed slots carry Err results too.
func (p *Pool) CalcMany(ctx context.Context, st *state.Context, jobs []Job) []Result {
	out := make([]Result, len(jobs))
	if len(jobs) == 0 {
		return out
	}

	workers := p.workers
	if workers > len(jobs) {
		workers = len(jobs)
	}

	jobCh := make(chan int, workers*2)
	resCh := make(chan batchResult, workers*2)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobCh {
				j := jobs[idx]
				res, err := Calc(st, j.JDTT, j.Body, j.Flags)
				if err != nil && p.logger != nil {
					p.logger.Debug("batch calculation failed",
						"body", j.Body.Name(), "jd", j.JDTT, "error", err)
				}
				select {
				case resCh <- batchResult{idx: idx, res: res}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobCh)
		for idx := range jobs {
			select {
			case jobCh <- idx:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resCh)
	}()

	done := make(map[int]bool, len(jobs))
	for r := range resCh {
		out[r.idx] = r.res
		done[r.idx] = true
	}

	if err := ctx.Err(); err != nil {
		for i := range out {
			if !done[i] {
				out[i] = Result{Flags: jobs[i].Flags, Status: ephem.StatusErr, Message: err.Error()}
			}
		}
	}
	return out
}
