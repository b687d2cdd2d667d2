package worker

import (
	"sync"
	"time"
)

// Result is what a submitted job produced.
type Result struct {
	Value interface{}
	Err   error
}

type job struct {
	run func() (interface{}, error)
	out chan Result
}

// Pool runs submitted jobs on a fixed number of workers. Submitters wait
// on the returned channel with their own timeout; a job whose submitter
// has given up keeps running and its result is discarded.
type Pool struct {
	jobs      chan job
	closeOnce sync.Once
}

func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}

	p := &Pool{
		jobs: make(chan job),
	}

	for i := 0; i < size; i++ {
		go p.worker()
	}

	return p
}

func (p *Pool) worker() {
	for j := range p.jobs {
		value, err := j.run()
		// Buffered channel: the send never blocks even when the
		// submitter has stopped listening.
		j.out <- Result{Value: value, Err: err}
	}
}

// Submit queues run and returns the channel its result will arrive on.
// It blocks until a worker picks the job up.
func (p *Pool) Submit(run func() (interface{}, error)) <-chan Result {
	out := make(chan Result, 1)
	p.jobs <- job{run: run, out: out}
	return out
}

// TrySubmit queues run unless the deadline fires before a worker is
// free, so a pool saturated with abandoned jobs cannot block the caller
// past its own timeout. The boolean reports whether the job was taken.
func (p *Pool) TrySubmit(run func() (interface{}, error), deadline <-chan time.Time) (<-chan Result, bool) {
	out := make(chan Result, 1)
	select {
	case p.jobs <- job{run: run, out: out}:
		return out, true
	case <-deadline:
		return nil, false
	}
}

// Close stops the workers once queued jobs have drained.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.jobs)
	})
}
