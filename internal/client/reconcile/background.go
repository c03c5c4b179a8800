package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/posmart/internal/logging"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/singleflight"
)

var ErrUnknownTag = errors.New("unknown sync tag")

// Task is the work behind a background-sync tag. A returned error makes the
// run eligible for retry.
type Task func(ctx context.Context) error

// BackgroundSync runs registered tasks by tag. Concurrent fires of one tag
// share a single run, and a failing run is retried with exponential backoff.
type BackgroundSync struct {
	logger     logging.Logger
	maxRetries uint64
	baseDelay  time.Duration

	mu    sync.RWMutex
	tasks map[string]Task
	group singleflight.Group
}

func NewBackgroundSync(logger logging.Logger, maxRetries uint64, baseDelay time.Duration) *BackgroundSync {
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	return &BackgroundSync{
		logger:     logger.With("module", "background_sync"),
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		tasks:      make(map[string]Task),
	}
}

func (b *BackgroundSync) Register(tag string, t Task) {
	b.mu.Lock()
	b.tasks[tag] = t
	b.mu.Unlock()
}

// Fire runs the task for tag and waits for it, including retries. A fire
// that arrives while the same tag is running joins that run.
func (b *BackgroundSync) Fire(ctx context.Context, tag string) error {
	b.mu.RLock()
	task, ok := b.tasks[tag]
	b.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTag, tag)
	}

	_, err, shared := b.group.Do(tag, func() (any, error) {
		return nil, b.run(ctx, tag, task)
	})
	if shared {
		b.logger.Debug(ctx, "joined running sync", "tag", tag)
	}
	return err
}

func (b *BackgroundSync) run(ctx context.Context, tag string, task Task) error {
	backoff := retry.WithMaxRetries(b.maxRetries, retry.NewExponential(b.baseDelay))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := task(ctx); err != nil {
			b.logger.Warn(ctx, "sync attempt failed", "tag", tag, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		b.logger.Error(ctx, "sync gave up", "tag", tag, "attempts", attempt, "error", err)
		return err
	}
	return nil
}
