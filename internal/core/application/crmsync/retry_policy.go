package crmsync

import "time"

// RetryPolicy bounds inline retries of rate-limited CRM calls. Backoff[i] is
// the wait before attempt i+2. Anything beyond it goes to the async queue.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     []time.Duration
}

// DefaultRetryPolicy waits 2s then 4s, three attempts in total.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff:     []time.Duration{2 * time.Second, 4 * time.Second},
	}
}

// next returns the wait before the attempt following retry number n (0-based)
// and whether another attempt is allowed.
func (p RetryPolicy) next(n int) (time.Duration, bool) {
	if n+1 >= p.MaxAttempts || n >= len(p.Backoff) {
		return 0, false
	}
	return p.Backoff[n], true
}

// QueueBackoff is the delay before the async queue retries a task that has
// already failed attempts times. It doubles from one minute and caps at an hour.
func QueueBackoff(attempts int) time.Duration {
	d := time.Minute
	for i := 1; i < attempts && d < time.Hour; i++ {
		d *= 2
	}
	if d > time.Hour {
		d = time.Hour
	}
	return d
}
