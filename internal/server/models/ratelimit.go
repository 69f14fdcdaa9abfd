package models

import "time"

// RateLimitCounter is a fixed-window attempt counter keyed by "action:subject".
// A Count of zero means the row was just created and has no window yet.
type RateLimitCounter struct {
	Key         string
	Count       int
	WindowStart time.Time
}
