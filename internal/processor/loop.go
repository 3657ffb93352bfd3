package processor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

var ErrLoopClosed = errors.New("processor loop is shut down")

// Loop runs every game mutation on one goroutine. Tasks posted from any
// goroutine execute serially in arrival order.
type Loop struct {
	tasks  chan func()
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	timers map[*time.Timer]struct{}
}

// NewLoop starts a loop with the given task buffer
func NewLoop(buffer int) *Loop {
	if buffer < 1 {
		buffer = 100 // Default
	}

	ctx, cancel := context.WithCancel(context.Background())

	l := &Loop{
		tasks:  make(chan func(), buffer),
		ctx:    ctx,
		cancel: cancel,
		timers: make(map[*time.Timer]struct{}),
	}

	l.wg.Add(1)
	go l.run()
	return l
}

func (l *Loop) run() {
	defer l.wg.Done()

	for {
		select {
		case task := <-l.tasks:
			l.execute(task)
		case <-l.ctx.Done():
			return
		}
	}
}

// execute runs one task; a panicking task must not take the loop down
func (l *Loop) execute(task func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Msgf("processor task panicked: %v", r)
		}
	}()
	task()
}

// Post queues fn without waiting for it to run.
func (l *Loop) Post(fn func()) error {
	select {
	case <-l.ctx.Done():
		return ErrLoopClosed
	default:
	}

	select {
	case l.tasks <- fn:
		return nil
	case <-l.ctx.Done():
		return ErrLoopClosed
	}
}

// Do runs fn on the loop and waits for it to finish. Calling Do from a task
// deadlocks.
func (l *Loop) Do(fn func()) error {
	done := make(chan struct{})
	err := l.Post(func() {
		defer close(done)
		fn()
	})
	if err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-l.ctx.Done():
		return ErrLoopClosed
	}
}

// ScheduleAfter posts fn onto the loop once delay has elapsed. fn receives
// the loop context, which Shutdown cancels.
func (l *Loop) ScheduleAfter(delay time.Duration, fn func(ctx context.Context)) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ctx.Err() != nil {
		return
	}

	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		l.mu.Lock()
		delete(l.timers, t)
		l.mu.Unlock()

		if err := l.Post(func() { fn(l.ctx) }); err != nil {
			log.Debug().Err(err).Msg("dropped scheduled task")
		}
	})
	l.timers[t] = struct{}{}
}

// Pending counts scheduled tasks whose delay has not elapsed yet
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.timers)
}

// Shutdown stops timers and the worker, waiting at most timeout
func (l *Loop) Shutdown(timeout time.Duration) error {
	l.mu.Lock()
	for t := range l.timers {
		t.Stop()
	}
	l.timers = make(map[*time.Timer]struct{})
	l.cancel()
	l.mu.Unlock()

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("processor loop shutdown timeout exceeded")
	}
}
