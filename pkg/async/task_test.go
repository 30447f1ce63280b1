package async_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/richxcame/transit-ops/pkg/async"
	"github.com/richxcame/transit-ops/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func waitFor(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task did not finish")
	}
}

func TestActorRoundTrip(t *testing.T) {
	ctx := async.WithActor(context.Background(), "fm-1")
	assert.Equal(t, "fm-1", async.ActorFromContext(ctx))
	assert.Empty(t, async.ActorFromContext(context.Background()))
}

func TestDetach_KeepsValuesDropsCancellation(t *testing.T) {
	ctx := logger.ContextWithCorrelationID(context.Background(), "corr-1")
	ctx = async.WithActor(ctx, "fm-1")
	ctx, cancel := context.WithCancel(ctx)
	cancel()

	detached := async.Detach(ctx)

	assert.NoError(t, detached.Err())
	assert.Equal(t, "corr-1", logger.CorrelationIDFromContext(detached))
	assert.Equal(t, "fm-1", async.ActorFromContext(detached))
}

func TestGoWithTimeout_OutlivesCanceledParent(t *testing.T) {
	parent, cancel := context.WithCancel(logger.ContextWithCorrelationID(context.Background(), "corr-2"))
	cancel()

	var gotID string
	var gotErr error
	done := async.GoWithTimeout(parent, "publish", time.Second, func(ctx context.Context) error {
		gotID = logger.CorrelationIDFromContext(ctx)
		gotErr = ctx.Err()
		return nil
	})

	waitFor(t, done)
	assert.Equal(t, "corr-2", gotID)
	assert.NoError(t, gotErr)
}

func TestGoWithTimeout_AppliesDeadline(t *testing.T) {
	var deadlineSet bool
	done := async.GoWithTimeout(context.Background(), "slow", 20*time.Millisecond, func(ctx context.Context) error {
		_, deadlineSet = ctx.Deadline()
		<-ctx.Done()
		return ctx.Err()
	})

	waitFor(t, done)
	assert.True(t, deadlineSet)
}

func TestGoWithTimeout_SurvivesPanicAndErrors(t *testing.T) {
	waitFor(t, async.GoWithTimeout(context.Background(), "boom", time.Second, func(context.Context) error {
		panic("boom")
	}))
	waitFor(t, async.GoWithTimeout(context.Background(), "fails", time.Second, func(context.Context) error {
		return errors.New("nats unavailable")
	}))
}
