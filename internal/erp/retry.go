package erp

import (
	"math/rand"
	"time"
)

const baseBackoff = 200 * time.Millisecond

// backoffDelay returns the exponential backoff delay for a retry attempt
// (attempt is zero-based), with up to 50% jitter to avoid thundering herds.
func backoffDelay(attempt int) time.Duration {
	delay := baseBackoff << attempt
	jitter := time.Duration(rand.Int63n(int64(delay) / 2))
	return delay + jitter
}

// retryableStatus reports whether an HTTP status from the collaborator may
// be retried. Only 5xx responses qualify; 4xx responses are permanent.
func retryableStatus(status int) bool {
	return status >= 500 && status <= 599
}
