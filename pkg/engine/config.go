package engine

import "time"

// Config carries the protocol timings. Zero values take the defaults,
// which are the timings the Elektron boxes use.
type Config struct {
	// ReplyTimeout bounds each wait-for-reply gate during negotiation
	// when the caller passes no timeout
	ReplyTimeout time.Duration

	// KeepAliveInterval is how often Active Sensing is emitted at
	// elevated speed
	KeepAliveInterval time.Duration

	// FailBackTimeout is how much inbound silence at elevated speed
	// drops the link back to 1x
	FailBackTimeout time.Duration

	// BreathingPadBytes is how many zero bytes are sent before the
	// wire-test retune so the UART transmit path drains
	BreathingPadBytes int

	// BreathingDelay is the settle time after the breathing pad
	BreathingDelay time.Duration

	// PollInterval is the sleep between polls inside a wait gate
	PollInterval time.Duration
}

// DefaultConfig returns the standard protocol timings
func DefaultConfig() Config {
	return Config{
		ReplyTimeout:      30 * time.Millisecond,
		KeepAliveInterval: 250 * time.Millisecond,
		FailBackTimeout:   300 * time.Millisecond,
		BreathingPadBytes: 16,
		BreathingDelay:    10 * time.Millisecond,
		PollInterval:      1 * time.Millisecond,
	}
}

// withDefaults fills zero fields with the standard timings
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.ReplyTimeout == 0 {
		c.ReplyTimeout = def.ReplyTimeout
	}
	if c.KeepAliveInterval == 0 {
		c.KeepAliveInterval = def.KeepAliveInterval
	}
	if c.FailBackTimeout == 0 {
		c.FailBackTimeout = def.FailBackTimeout
	}
	if c.BreathingPadBytes == 0 {
		c.BreathingPadBytes = def.BreathingPadBytes
	}
	if c.BreathingDelay == 0 {
		c.BreathingDelay = def.BreathingDelay
	}
	if c.PollInterval == 0 {
		c.PollInterval = def.PollInterval
	}
	return c
}

// millis converts a duration to the port's millisecond clock domain
func millis(d time.Duration) uint32 {
	ms := d.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	return uint32(ms)
}
