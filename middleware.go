package labordash

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type StageFunc func(ctx context.Context, state *State) error

type Middleware func(stageName string, next StageFunc) StageFunc

func LoggingMiddleware(logger *zap.Logger) Middleware {
	return func(stageName string, next StageFunc) StageFunc {
		return func(ctx context.Context, state *State) error {
			start := time.Now()
			err := next(ctx, state)
			fields := []zap.Field{
				zap.String("stage", stageName),
				zap.Duration("duration", time.Since(start)),
			}
			if err != nil {
				logger.Error("stage failed", append(fields, zap.Error(err))...)
				return err
			}
			logger.Debug("stage completed", fields...)
			return nil
		}
	}
}

func RecoveryMiddleware() Middleware {
	return func(stageName string, next StageFunc) StageFunc {
		return func(ctx context.Context, state *State) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = NewStageError("", stageName, "panic", fmt.Errorf("%v", r))
				}
			}()
			return next(ctx, state)
		}
	}
}
