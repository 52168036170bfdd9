package realtime

import "time"

const (
	// maxBackoffExponent caps both the attempt counter and the delay exponent
	maxBackoffExponent = 6
	backoffUnit        = time.Second
)

// Backoff returns the reconnect delay scheduled after n previous consecutive
// failures: 2^min(n+1, 6) seconds.
func Backoff(n int) time.Duration {
	return time.Duration(1<<nextAttempt(n)) * backoffUnit
}

// MaxBackoff is the steady-state reconnect delay
func MaxBackoff() time.Duration {
	return time.Duration(1<<maxBackoffExponent) * backoffUnit
}

// nextAttempt increments the attempt counter, capped at maxBackoffExponent
func nextAttempt(attempts int) int {
	if attempts < 0 {
		attempts = 0
	}
	return min(maxBackoffExponent, attempts+1)
}
