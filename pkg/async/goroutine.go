package async

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/noahsabaj/hearth-docs/pkg/observability"
)

// SafeGo executes a function in a goroutine with:
// - Context cancellation support
// - Panic recovery
// - Timeout enforcement
// - Error logging
//
// The returned channel is closed when fn has returned (or panicked).
// A zero timeout means no deadline beyond parentCtx.
//
// Example:
//
//	async.SafeGo(ctx, logger, time.Minute, "cache warm-up", func(ctx context.Context) error {
//	    return c.Warm(ctx, table.Sections())
//	})
func SafeGo(parentCtx context.Context, logger *observability.Logger, timeout time.Duration, taskName string, fn func(context.Context) error) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		defer close(done)

		ctx, cancel := parentCtx, context.CancelFunc(func() {})
		if timeout > 0 {
			ctx, cancel = context.WithTimeout(parentCtx, timeout)
		}
		defer cancel()

		log := logger.WithField("task", taskName)

		defer func() {
			if r := recover(); r != nil {
				log.WithField("panic", fmt.Sprint(r)).
					WithField("stack", string(debug.Stack())).
					Error("PANIC in background task")
			}
		}()

		start := time.Now()
		if err := fn(ctx); err != nil {
			// Logged only; callers decide whether the task is critical
			log.WithError(err).Warn("background task failed")
			return
		}
		log.WithField("duration_ms", time.Since(start).Milliseconds()).Debug("background task complete")
	}()

	return done
}
