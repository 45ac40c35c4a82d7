package utils

import "time"

// FormatDuration formats a duration in a human-readable way
func FormatDuration(d time.Duration) string {
	if d < time.Microsecond {
		return d.String()
	}
	if d < time.Millisecond {
		return d.Round(time.Microsecond).String()
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	if d < time.Minute {
		return d.Round(10 * time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}

// EstimateRemaining extrapolates the remaining wall time from the elapsed
// time and the completed/total work ratio. Returns zero when nothing has
// completed yet.
func EstimateRemaining(elapsed time.Duration, completed, total int) time.Duration {
	if completed <= 0 || total <= completed {
		return 0
	}
	perUnit := float64(elapsed) / float64(completed)
	return time.Duration(perUnit * float64(total-completed))
}
