package labordash_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nulllvoid/labordash"
)

func TestLoggingMiddleware(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	mw := labordash.LoggingMiddleware(zap.New(core))
	state := labordash.NewState(nil, &labordash.ViewRequest{})

	ok := mw("load", func(ctx context.Context, state *labordash.State) error { return nil })
	require.NoError(t, ok(context.Background(), state))

	failing := mw("build", func(ctx context.Context, state *labordash.State) error { return errors.New("boom") })
	require.Error(t, failing(context.Background(), state))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "stage completed", entries[0].Message)
	assert.Equal(t, "load", entries[0].ContextMap()["stage"])
	assert.Equal(t, "stage failed", entries[1].Message)
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}

func TestRecoveryMiddleware(t *testing.T) {
	t.Parallel()

	mw := labordash.RecoveryMiddleware()
	fn := mw("build", func(ctx context.Context, state *labordash.State) error {
		panic("nil table")
	})

	err := fn(context.Background(), labordash.NewState(nil, &labordash.ViewRequest{}))

	var stageErr *labordash.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "panic", stageErr.Op)
	assert.ErrorContains(t, err, "nil table")
}

func TestMiddleware_Order(t *testing.T) {
	t.Parallel()

	var order []string
	tag := func(name string) labordash.Middleware {
		return func(stage string, next labordash.StageFunc) labordash.StageFunc {
			return func(ctx context.Context, state *labordash.State) error {
				order = append(order, name)
				return next(ctx, state)
			}
		}
	}

	pipeline := labordash.NewPipeline("test",
		labordash.WithMiddleware(tag("outer")),
		labordash.WithMiddleware(tag("inner")),
		labordash.WithStage(labordash.NewStage("only", true, func(ctx context.Context, state *labordash.State) error {
			order = append(order, "stage")
			return nil
		})),
	)

	_, err := pipeline.Execute(context.Background(), labordash.NewSession(fixtureCatalog(t), time.Now()), &labordash.ViewRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner", "stage"}, order)
}
