package types

// Capabilities records which multipliers a peer supports and which of
// those are certified (pre-known to work end-to-end, no wire-test needed).
//
// The high speeds are split across two 7-bit masks so each fits MIDI's
// data byte convention: Mask1 carries codes 2..8 in bits 0..6, Mask2
// carries codes 9..11 in bits 0..2. Cert1/Cert2 mirror the mask layout.
// 1x is implicitly supported and certified and never appears in the masks.
type Capabilities struct {
	Mask1 uint8
	Mask2 uint8
	Cert1 uint8
	Cert2 uint8
}

// bit returns the mask selector and bit position for a code, or false
// for 1x and out-of-range codes which have no mask representation.
func (c Capabilities) bit(m Multiplier) (high bool, mask uint8, ok bool) {
	switch {
	case m >= Speed2x && m <= Speed10x:
		return false, 1 << (m - Speed2x), true
	case m >= Speed13_3x && m <= Speed20x:
		return true, 1 << (m - Speed13_3x), true
	default:
		return false, 0, false
	}
}

// Add marks a speed as supported, and optionally certified.
// Idempotent. Adding 1x is a no-op: it is always implicitly present.
func (c *Capabilities) Add(m Multiplier, certified bool) {
	high, mask, ok := c.bit(m)
	if !ok {
		return
	}
	if high {
		c.Mask2 |= mask
		if certified {
			c.Cert2 |= mask
		}
	} else {
		c.Mask1 |= mask
		if certified {
			c.Cert1 |= mask
		}
	}
}

// Supports returns true if the speed is advertised as usable
func (c Capabilities) Supports(m Multiplier) bool {
	if m == Speed1x {
		return true
	}
	high, mask, ok := c.bit(m)
	if !ok {
		return false
	}
	if high {
		return c.Mask2&mask != 0
	}
	return c.Mask1&mask != 0
}

// Certified returns true if the speed is advertised as certified
func (c Capabilities) Certified(m Multiplier) bool {
	if m == Speed1x {
		return true
	}
	high, mask, ok := c.bit(m)
	if !ok {
		return false
	}
	if high {
		return c.Cert2&mask != 0
	}
	return c.Cert1&mask != 0
}

// Wire packs the capability set into the four SPEED_ANSWER payload bytes
func (c Capabilities) Wire() (mask1, mask2, cert1, cert2 uint8) {
	return c.Mask1, c.Mask2, c.Cert1, c.Cert2
}

// CapabilitiesFromWire unpacks the four SPEED_ANSWER payload bytes
func CapabilitiesFromWire(mask1, mask2, cert1, cert2 uint8) Capabilities {
	return Capabilities{
		Mask1: mask1,
		Mask2: mask2,
		Cert1: cert1,
		Cert2: cert2,
	}
}
