package session

// Countdown is a decrementing seconds cell. Each countdown is owned by
// exactly one phase; the reducer applies ticks to a cell only while its
// owning phase is active, so a cell is inert the rest of the time.
type Countdown int

// Tick decrements by one second, floored at zero.
func (c Countdown) Tick() Countdown {
	if c <= 0 {
		return 0
	}
	return c - 1
}

// Expired reports whether the countdown has reached zero. Expiry is a
// display/input signal only; phase transitions come from the server.
func (c Countdown) Expired() bool { return c <= 0 }

// Seconds returns the remaining whole seconds.
func (c Countdown) Seconds() int { return int(c) }
