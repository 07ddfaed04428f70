package dynamo

import (
	"runtime"
	"sync"
)

type chunk struct {
	start, end int
	fn         func(start, end int)
	wg         *sync.WaitGroup
}

// Pool is a set of persistent workers. Run splits [0, n) into contiguous
// chunks and returns only after every chunk has finished, which makes each
// call a full barrier between pipeline stages.
type Pool struct {
	workers int
	work    chan chunk
	stop    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// NewPool starts workers goroutines. workers <= 0 selects GOMAXPROCS.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	p := &Pool{
		workers: workers,
		work:    make(chan chunk, workers),
		stop:    make(chan struct{}),
	}
	if workers > 1 {
		for i := 0; i < workers; i++ {
			p.wg.Add(1)
			go p.worker()
		}
	}
	return p
}

func (p *Pool) Workers() int { return p.workers }

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stop:
			return
		case c := <-p.work:
			c.fn(c.start, c.end)
			c.wg.Done()
		}
	}
}

// Run executes fn over [0, n). Work smaller than minChunk, or a single
// worker pool, runs on the calling goroutine.
func (p *Pool) Run(n, minChunk int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if minChunk < 1 {
		minChunk = 1
	}
	workers := p.workers
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers <= 1 || p.workers <= 1 {
		fn(0, n)
		return
	}

	chunkSize := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		wg.Add(1)
		p.work <- chunk{start: start, end: end, fn: fn, wg: &wg}
	}
	wg.Wait()
}

// Close stops the workers. Run must not be called afterwards.
func (p *Pool) Close() {
	p.once.Do(func() {
		close(p.stop)
		p.wg.Wait()
	})
}
