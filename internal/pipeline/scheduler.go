package pipeline

import (
	"context"
	"fmt"

	"github.com/dunamismax/pixelshrink/internal/domain"
)

// Scheduler runs a pipeline task. Implementations decide where it runs; the
// task must eventually be called exactly once.
type Scheduler interface {
	Schedule(task func())
}

type SchedulerFunc func(task func())

func (f SchedulerFunc) Schedule(task func()) {
	f(task)
}

// GoroutineScheduler runs every task on its own goroutine.
var GoroutineScheduler Scheduler = SchedulerFunc(func(task func()) {
	go task()
})

type Outcome struct {
	Result domain.Result
	Err    error
}

// UseScheduler replaces the scheduler used by ProcessAsync.
func (p *Processor) UseScheduler(s Scheduler) error {
	if s == nil {
		return fmt.Errorf("%w: scheduler must not be nil", ErrConfiguration)
	}
	if f, ok := s.(SchedulerFunc); ok && f == nil {
		return fmt.Errorf("%w: scheduler func must not be nil", ErrConfiguration)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.scheduler = s
	return nil
}

// ProcessAsync runs Process on the configured scheduler. The returned channel
// yields exactly one Outcome and is then closed; callers that lose interest
// may drop it without leaking the task.
func (p *Processor) ProcessAsync(ctx context.Context, file *domain.Blob) <-chan Outcome {
	out := make(chan Outcome, 1)

	p.mu.RLock()
	s := p.scheduler
	p.mu.RUnlock()

	if s == nil {
		out <- Outcome{Err: fmt.Errorf("%w: no scheduler configured", ErrConfiguration)}
		close(out)
		return out
	}

	s.Schedule(func() {
		result, err := p.Process(ctx, file)
		out <- Outcome{Result: result, Err: err}
		close(out)
	})
	return out
}
