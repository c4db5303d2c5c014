package worker

import (
	"context"
	"sync"
)

type Task func(ctx context.Context) error

type Result struct {
	Key string
	Err error
}

type job struct {
	key  string
	task Task
}

// Pool runs submitted tasks on a fixed number of goroutines. Submit tasks,
// call Close, then drain the channel returned by Run until it is closed.
type Pool struct {
	workers int
	jobs    chan job
	wg      sync.WaitGroup
}

func NewPool(workers, buffer int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	return &Pool{
		workers: workers,
		jobs:    make(chan job, buffer),
	}
}

func (p *Pool) Submit(key string, t Task) {
	if p == nil || t == nil {
		return
	}
	p.jobs <- job{key: key, task: t}
}

func (p *Pool) Close() {
	if p == nil {
		return
	}
	close(p.jobs)
}

func (p *Pool) Run(ctx context.Context) <-chan Result {
	if p == nil {
		out := make(chan Result)
		close(out)
		return out
	}
	out := make(chan Result, p.workers)

	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case j, ok := <-p.jobs:
					if !ok {
						return
					}
					err := j.task(ctx)
					select {
					case <-ctx.Done():
						return
					case out <- Result{Key: j.key, Err: err}:
					}
				}
			}
		}()
	}

	go func() {
		p.wg.Wait()
		close(out)
	}()

	return out
}
