// Package worker runs independent checks concurrently, mirroring §5's
// process-pool model: each worker owns its own cloned Controller,
// temp-file namespace, and checker invocation, so nothing is shared
// across goroutines except the read-only catalogue data the Controller
// was built from.
package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"

	"safechain/internal/cache"
	"safechain/internal/checker"
	"safechain/internal/controller"
	"safechain/internal/policy"
)

// Job is one check to run: a policy against a cloned copy of the
// pool's base Controller.
type Job struct {
	ID     string
	Policy policy.Policy
}

// Outcome pairs a job with its result, or the error that prevented it
// from completing.
type Outcome struct {
	JobID  string
	Result *controller.Result
	Err    error
}

// Pool runs jobs against N worker goroutines, each holding its own
// Controller.Clone(). The base Controller is never touched after
// NewPool returns — every worker mutates only its own clone's
// grouping/pruning state, matching §5's "the Controller itself must
// therefore be not shared across workers; cloning is explicit."
type Pool struct {
	base   *controller.Controller
	driver *checker.Driver
	store  *cache.Store
	size   int
	log    hclog.Logger
}

// NewPool builds a pool of size workers. driver and store are shared
// read-only across workers (the driver only writes to uniquely-named
// temp files per invocation; the cache store is a BoltDB handle safe
// for concurrent readers and a single writer at a time).
func NewPool(base *controller.Controller, driver *checker.Driver, store *cache.Store, size int, log hclog.Logger) *Pool {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	if size < 1 {
		size = 1
	}
	return &Pool{base: base, driver: driver, store: store, size: size, log: log}
}

// Run dispatches every job to the pool and returns outcomes in
// completion order — not job order, since workers run independently
// and a slow check must never hold up faster ones. Run blocks until
// every job has completed or ctx is cancelled; a cancelled context
// surfaces as an Outcome.Err on whatever jobs were still in flight.
func (p *Pool) Run(ctx context.Context, jobs []Job) []Outcome {
	p.log.Info("worker pool starting", "jobs", len(jobs), "workers", p.size)

	jobCh := make(chan Job)
	outCh := make(chan Outcome, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < p.size; i++ {
		wg.Add(1)
		go p.runWorker(ctx, i, jobCh, outCh, &wg)
	}

	go func() {
		defer close(jobCh)
		for _, j := range jobs {
			select {
			case jobCh <- j:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()
	close(outCh)

	outcomes := make([]Outcome, 0, len(jobs))
	for o := range outCh {
		outcomes = append(outcomes, o)
	}
	p.log.Info("worker pool finished", "outcomes", len(outcomes))
	return outcomes
}

func (p *Pool) runWorker(ctx context.Context, id int, jobCh <-chan Job, outCh chan<- Outcome, wg *sync.WaitGroup) {
	defer wg.Done()
	workerLog := p.log.Named(fmt.Sprintf("worker-%d", id))
	clone := p.base.Clone()

	for {
		select {
		case j, ok := <-jobCh:
			if !ok {
				return
			}
			workerLog.Debug("running check", "job", j.ID, "policy", j.Policy.Name())
			res, err := clone.Check(ctx, j.Policy, p.driver, p.store)
			if err == nil && ctx.Err() != nil {
				err = ctx.Err()
			}
			if err != nil {
				workerLog.Error("check failed", "job", j.ID, "error", err)
			}
			outCh <- Outcome{JobID: j.ID, Result: res, Err: err}
		case <-ctx.Done():
			return
		}
	}
}
