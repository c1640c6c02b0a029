package client

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// maxGatewayRetries is how many extra attempts a 502/503/504 earns.
const maxGatewayRetries = 2

// ShouldRetry is the pure retry policy: given the attempt number (0 for the
// first try) and the error class, decide whether to retry and how long to
// wait. Only gateway-class failures are retried; the delay doubles per
// attempt.
func ShouldRetry(attempt int, class ErrorClass) (bool, time.Duration) {
	if class != ClassGateway {
		return false, 0
	}
	if attempt >= maxGatewayRetries {
		return false, 0
	}
	return true, backoffDelay(attempt)
}

func backoffDelay(attempt int) time.Duration {
	delay := retryBaseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
	}
	return delay
}

var retryBaseDelay = 500 * time.Millisecond

// newBackOff builds the waiter used between gateway retries. The policy above
// decides IF we retry; the ticker adds jitter to WHEN.
func newBackOff(initial time.Duration) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.RandomizationFactor = 0.2
	b.Multiplier = 2
	b.MaxElapsedTime = 0
	return b
}
