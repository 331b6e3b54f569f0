package checkin

import "time"

// InitialDelay returns how long to wait before the first tick so that a
// loop firing every interval afterwards lands on reset.
//
// The result is (reset - now) mod interval, normalised into [0, interval).
// now == reset yields zero. A non-positive interval yields zero.
func InitialDelay(now, reset time.Time, interval time.Duration) time.Duration {
	if interval <= 0 {
		return 0
	}
	d := reset.Sub(now) % interval
	if d < 0 {
		d += interval
	}
	return d
}
