// Package async provides safe concurrent execution primitives for background tasks.
//
// # Overview
//
// This package handles goroutine lifecycle management with panic recovery, timeout
// enforcement, context cancellation and structured error logging.
//
// # Key Functions
//
// SafeGo: Execute function in goroutine with safety features
//
//	done := async.SafeGo(ctx, logger, time.Minute, "cache warm-up", func(ctx context.Context) error {
//		return c.Warm(ctx, sections)
//	})
//	<-done // optional
//
// Scheduler: cron-driven recurring jobs
//
//	s := async.NewScheduler(logger)
//	if err := s.Add("*/15 * * * *", "cache warm-up", time.Minute, warm); err != nil {
//		return err
//	}
//	s.Start()
//	defer s.Stop(ctx)
//
// # Related Packages
//
//   - pkg/history/cache: Warm is run on a schedule by cmd/hearth-docs
package async
