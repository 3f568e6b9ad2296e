package ratelimit

import "time"

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int

	// RetryAfter is the whole number of seconds until the window resets.
	// Only meaningful when Allowed is false.
	RetryAfter int
	ResetAt    time.Time
}

// Key builds the counter key for a (route, client) pair.
func Key(route, clientKey string) string {
	return "rl:" + route + ":" + clientKey
}
