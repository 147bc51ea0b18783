package service

import (
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/MKhiriev/go-offline-sync/models"
)

const jitterPercent = 20

type retryScheduler struct {
	base time.Duration
	max  time.Duration
}

// NewRetryScheduler returns a capped exponential scheduler with ±20% jitter.
func NewRetryScheduler(base, max time.Duration) RetryScheduler {
	if base <= 0 {
		base = time.Second
	}
	if max < base {
		max = base
	}
	return &retryScheduler{base: base, max: max}
}

func (s *retryScheduler) NextDelay(retryCount int) time.Duration {
	if retryCount < 0 {
		retryCount = 0
	}

	b := retry.WithJitterPercent(jitterPercent, retry.WithCappedDuration(s.max, retry.NewExponential(s.base)))

	var delay time.Duration
	for i := 0; i <= retryCount; i++ {
		next, stop := b.Next()
		if stop {
			break
		}
		delay = next
	}
	return delay
}

func (s *retryScheduler) ShouldRetry(action models.Action) bool {
	return action.LastErrorKind == models.ErrorKindTransient && action.RetryCount < action.MaxRetries
}
