package main

import "time"

// Clock supplies the wrapping monotonic counters the voice measures
// intervals against. Both counters are free-running and overflow; callers
// must compare with unsigned subtraction (now - start >= width), never with
// an ordered comparison.
type Clock interface {
	Micros() uint32
	Millis() uint32
}

// systemClock derives both counters from the process monotonic clock.
type systemClock struct {
	start time.Time
}

func newSystemClock() *systemClock {
	return &systemClock{start: time.Now()}
}

func (c *systemClock) Micros() uint32 {
	return uint32(time.Since(c.start).Microseconds())
}

func (c *systemClock) Millis() uint32 {
	return uint32(time.Since(c.start).Milliseconds())
}
