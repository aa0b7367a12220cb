package resilience

import "time"

// Backoff returns the delay to wait after a failed attempt before the next
// one: base * 2^(attempt-1). Attempt numbers start at 1, so the series for a
// 2s base is 2s, 4s, 8s, ...
func Backoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
	}
	return d
}
