// Package task runs presenter work off the interactive goroutine and
// marshals the outcome back onto it.
package task

import "sync"

// Runner dispatches work to a background goroutine and reports the
// outcome on the interactive goroutine. Exactly one of onSuccess and
// onFailure is called, after work returns. There is no cancellation; a
// collaborator that can block forever must enforce its own timeout.
type Runner interface {
	RunAsync(work func() error, onSuccess func(), onFailure func(error))
}

// Loop is the interactive event loop. The goroutine calling Run owns all
// widget and presenter state; everything posted here executes on it, one
// function at a time.
type Loop struct {
	tasks chan func()
	done  chan struct{}
	stop  sync.Once
}

// NewLoop returns a ready loop. Call Run from the goroutine that should
// own interactive state.
func NewLoop() *Loop {
	return &Loop{
		tasks: make(chan func(), 64),
		done:  make(chan struct{}),
	}
}

// Run processes posted functions until Stop is called.
func (l *Loop) Run() {
	for {
		select {
		case fn := <-l.tasks:
			fn()
		case <-l.done:
			return
		}
	}
}

// Stop makes Run return. Pending tasks are dropped.
func (l *Loop) Stop() {
	l.stop.Do(func() { close(l.done) })
}

// Post schedules fn on the interactive goroutine. After Stop it is a
// no-op.
func (l *Loop) Post(fn func()) {
	select {
	case l.tasks <- fn:
	case <-l.done:
	}
}

// RunAsync runs work on a fresh goroutine and posts exactly one of the
// continuations back onto the loop.
func (l *Loop) RunAsync(work func() error, onSuccess func(), onFailure func(error)) {
	go func() {
		err := work()
		l.Post(func() {
			if err != nil {
				if onFailure != nil {
					onFailure(err)
				}
				return
			}
			if onSuccess != nil {
				onSuccess()
			}
		})
	}()
}
