package channels

import "time"

// ReceiveAll drains ch until it is closed, until no message arrives within
// idle, or until max messages were read. A max of zero means no limit.
func ReceiveAll[T any](ch <-chan T, idle time.Duration, max int) []T {
	var out []T
	for max == 0 || len(out) < max {
		select {
		case msg, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, msg)
		case <-time.After(idle):
			return out
		}
	}
	return out
}
