// Package async runs side effects that must outlive the request that
// triggered them, such as publishing events after a write commits.
package async

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/richxcame/transit-ops/pkg/logger"
	"go.uber.org/zap"
)

// WithActor records the id of the user performing an operation. Context
// logging picks it up as the actor field.
func WithActor(ctx context.Context, actor string) context.Context {
	return logger.ContextWithActor(ctx, actor)
}

// ActorFromContext returns the acting user id, or an empty string
func ActorFromContext(ctx context.Context) string {
	return logger.ActorFromContext(ctx)
}

// Detach returns a fresh context carrying the correlation id and actor
// of ctx but none of its deadline or cancellation.
func Detach(ctx context.Context) context.Context {
	detached := context.Background()
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		detached = logger.ContextWithCorrelationID(detached, id)
	}
	if actor := ActorFromContext(ctx); actor != "" {
		detached = WithActor(detached, actor)
	}
	return detached
}

// GoWithTimeout runs fn in a goroutine on a detached context bounded by
// timeout. Errors and panics are logged. The returned channel is closed
// when fn has returned.
func GoWithTimeout(ctx context.Context, task string, timeout time.Duration, fn func(ctx context.Context) error) <-chan struct{} {
	taskCtx, cancel := context.WithTimeout(Detach(ctx), timeout)
	done := make(chan struct{})
	start := time.Now()

	go func() {
		defer close(done)
		defer cancel()
		defer recoverTask(taskCtx, task)

		if err := fn(taskCtx); err != nil {
			logger.WarnContext(taskCtx, "async task failed",
				zap.String("task", task),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
			return
		}
		logger.WithContext(taskCtx).Debug("async task completed",
			zap.String("task", task),
			zap.Duration("duration", time.Since(start)),
		)
	}()

	return done
}

func recoverTask(ctx context.Context, task string) {
	if r := recover(); r != nil {
		logger.ErrorContext(ctx, "async task panicked",
			zap.String("task", task),
			zap.Any("panic", r),
			zap.String("stack", string(debug.Stack())),
		)
	}
}
