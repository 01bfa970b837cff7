package app

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
)

// restartPolicy bounds the exponential back-off between restarts.
type restartPolicy struct {
	MinBackoff time.Duration
	MaxBackoff time.Duration
	// A run that lasted at least this long resets the back-off.
	StableAfter time.Duration
}

var defaultRestartPolicy = restartPolicy{
	MinBackoff:  250 * time.Millisecond,
	MaxBackoff:  30 * time.Second,
	StableAfter: 30 * time.Second,
}

// runRestarting runs fn until ctx is canceled. A panic is logged, reported
// through onPanic and followed by a restart after a growing back-off. A
// return while ctx is still live is treated as an unexpected exit and
// restarted the same way.
func runRestarting(ctx context.Context, log *zap.Logger, name string, p restartPolicy, fn func(ctx context.Context), onPanic func(name string, v any)) {
	backoff := p.MinBackoff
	for restarts := 0; ; restarts++ {
		if ctx.Err() != nil {
			return
		}
		startedAt := time.Now()

		pan, stack := func() (pan any, stack string) {
			defer func() {
				if r := recover(); r != nil {
					pan = r
					stack = string(debug.Stack())
				}
			}()
			fn(ctx)
			return nil, ""
		}()

		if ctx.Err() != nil {
			return
		}

		reason := "exited"
		if pan != nil {
			reason = fmt.Sprintf("panic: %v", pan)
			log.Error("goroutine panicked",
				zap.String("name", name),
				zap.Any("panic", pan),
				zap.String("stack", stack),
			)
			if onPanic != nil {
				onPanic(name, pan)
			}
		}

		if time.Since(startedAt) >= p.StableAfter {
			backoff = p.MinBackoff
		}
		log.Warn("goroutine restarting",
			zap.String("name", name),
			zap.String("reason", reason),
			zap.Int("restarts", restarts+1),
			zap.Duration("backoff", backoff),
		)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > p.MaxBackoff {
			backoff = p.MaxBackoff
		}
	}
}
