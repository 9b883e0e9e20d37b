// Package parallel runs batches of independent jobs on a bounded set of
// goroutines.
package parallel

import (
	"runtime"
	"sync"
)

// Pool executes submitted jobs on a fixed number of workers.
//
// A pool is single-use: submit with Do, then call Wait once. A pool with one
// worker runs every job inline on the caller's goroutine.
type Pool struct {
	workers int
	work    chan func()
	wg      sync.WaitGroup
	close   func()
}

// Start creates a pool with n workers. n < 1 means one worker per GOMAXPROCS.
func Start(n int) *Pool {
	if n < 1 {
		n = runtime.GOMAXPROCS(0)
	}

	p := &Pool{workers: n, close: func() {}}
	if n == 1 {
		return p
	}

	p.work = make(chan func(), n)
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for f := range p.work {
				f()
			}
		}()
	}
	p.close = sync.OnceFunc(func() { close(p.work) })

	return p
}

// Workers returns the number of workers in the pool.
func (p *Pool) Workers() int {
	return p.workers
}

// Do submits f. It blocks while every worker is busy and the queue is full.
// Do must not be called after Wait.
func (p *Pool) Do(f func()) {
	if p.work == nil {
		f()
		return
	}
	p.work <- f
}

// Wait stops accepting work and blocks until every submitted job has returned.
func (p *Pool) Wait() {
	p.close()
	p.wg.Wait()
}
