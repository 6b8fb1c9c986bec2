// internal/stt/poll.go
package stt

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	apperrors "github.com/Corphon/yt2blog/internal/errors"
)

// ErrPollExhausted is returned when a job is still running after the last allowed poll.
var ErrPollExhausted = errors.New("poll attempts exhausted")

// PollConfig bounds the wait for a remote job.
type PollConfig struct {
	Interval    time.Duration
	MaxInterval time.Duration
	// Multiplier of 1 keeps a fixed interval, larger values back off exponentially.
	Multiplier  float64
	MaxAttempts int
	// Timeout caps the whole wait. Zero means only MaxAttempts applies.
	Timeout time.Duration
}

// delay returns the wait after the given attempt (1-based).
func (pc PollConfig) delay(attempt int) time.Duration {
	mult := pc.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := time.Duration(float64(pc.Interval) * math.Pow(mult, float64(attempt-1)))
	if pc.MaxInterval > 0 && d > pc.MaxInterval {
		d = pc.MaxInterval
	}
	return d
}

// Wait calls check until it reports done, returns an error, the attempts run
// out, or ctx ends. Exhaustion and the timeout are reported as timeout errors.
func (pc PollConfig) Wait(ctx context.Context, check func(ctx context.Context, attempt int) (*Job, bool, error)) (*Job, error) {
	parent := ctx
	if pc.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, pc.Timeout)
		defer cancel()
	}

	timedOut := func() error {
		if parent.Err() != nil {
			return parent.Err()
		}
		return apperrors.NewTimeoutError(fmt.Sprintf("job not finished after %s", pc.Timeout), ctx.Err()).WithCode("STT_TIMEOUT")
	}

	for attempt := 1; attempt <= pc.MaxAttempts; attempt++ {
		job, done, err := check(ctx, attempt)
		if err != nil {
			if ctx.Err() != nil {
				return nil, timedOut()
			}
			return nil, err
		}
		if done {
			return job, nil
		}
		if attempt == pc.MaxAttempts {
			break
		}

		timer := time.NewTimer(pc.delay(attempt))
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, timedOut()
		}
	}

	return nil, apperrors.NewTimeoutError(fmt.Sprintf("job not finished after %d polls", pc.MaxAttempts), ErrPollExhausted).WithCode("STT_TIMEOUT")
}
