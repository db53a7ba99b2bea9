package service

import (
	"context"
)

// gameActor runs every mutation of one game on a single goroutine, in
// arrival order. A job's broadcasts finish before the next job starts.
type gameActor struct {
	id    string
	inbox chan func()
	quit  chan struct{}
	done  chan struct{}
}

func newGameActor(id string) *gameActor {
	a := &gameActor{
		id:    id,
		inbox: make(chan func(), 64),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *gameActor) run() {
	defer close(a.done)
	for {
		select {
		case job := <-a.inbox:
			job()
		case <-a.quit:
			return
		}
	}
}

// do queues fn and waits for its result
func (a *gameActor) do(ctx context.Context, fn func() error) error {
	reply := make(chan error, 1)
	job := func() { reply <- fn() }

	select {
	case a.inbox <- job:
	case <-a.quit:
		return ErrServiceClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-reply:
		return err
	case <-a.done:
		return ErrServiceClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *gameActor) stop() {
	close(a.quit)
	<-a.done
}
