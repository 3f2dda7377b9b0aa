package accessor

import (
	"context"

	"github.com/pkg/errors"
)

// ErrClosed is reported by refresh tasks requested after Close.
var ErrClosed = errors.New("accessor closed")

// RefreshTask is the handle of a background cache refresh.
// Callers may ignore it; the refresh completes either way.
type RefreshTask struct {
	// ID identifies the refresh in logs.
	ID string
	// Key is the cache key being refreshed.
	Key string

	done chan struct{}
	err  error
}

func newRefreshTask(id, key string) *RefreshTask {
	return &RefreshTask{ID: id, Key: key, done: make(chan struct{})}
}

func (t *RefreshTask) finish(err error) {
	t.err = err
	close(t.done)
}

// Done is closed when the refresh has finished.
func (t *RefreshTask) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the refresh finishes or ctx is done, and returns the refresh error.
// Giving up on the wait does not cancel the refresh.
func (t *RefreshTask) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the refresh error once finished, nil before.
func (t *RefreshTask) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}
