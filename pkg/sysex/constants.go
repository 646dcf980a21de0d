package sysex

import "errors"

// MIDI byte-level constants
const (
	StartOfSysex  uint8 = 0xF0 // Start of a SysEx frame
	EndOfSysex    uint8 = 0xF7 // End of a SysEx frame
	ActiveSensing uint8 = 0xFE // Single-byte keep-alive, never wrapped
)

// ManufacturerID is the five-byte Elektron prefix every vendor frame carries
var ManufacturerID = [5]uint8{0x00, 0x20, 0x3C, 0x00, 0x00}

// Frame sizes
const (
	MinFrameSize = 8  // Shell only: F0, five ID bytes, command, F7
	MaxFrameSize = 64 // Parser abandons anything growing past this
)

// Command identifies a TurboMIDI vendor message
type Command uint8

const (
	CmdSpeedReq     Command = 0x10 // Master asks for the peer's capabilities
	CmdSpeedAnswer  Command = 0x11 // Responder's four capability bytes
	CmdSpeedNeg     Command = 0x12 // Master proposes test and target speeds
	CmdSpeedAck     Command = 0x13 // Responder accepts the proposal
	CmdSpeedTest    Command = 0x14 // First wire-test probe, carries the pattern
	CmdSpeedResult  Command = 0x15 // First wire-test echo, carries the pattern
	CmdSpeedTest2   Command = 0x16 // Second wire-test probe
	CmdSpeedResult2 Command = 0x17 // Second wire-test echo
	CmdSpeedPush    Command = 0x20 // Unilateral speed change
)

// TestPattern is the eight-byte payload round-tripped during the wire-test
var TestPattern = [8]uint8{0x55, 0x55, 0x55, 0x55, 0x00, 0x00, 0x00, 0x00}

// FrameLength returns the exact on-wire length for the command,
// delimiters included, or false for an unknown command.
func (c Command) FrameLength() (int, bool) {
	switch c {
	case CmdSpeedReq, CmdSpeedAck, CmdSpeedTest2, CmdSpeedResult2:
		return 8, true
	case CmdSpeedAnswer:
		return 12, true
	case CmdSpeedNeg:
		return 10, true
	case CmdSpeedTest, CmdSpeedResult:
		return 16, true
	case CmdSpeedPush:
		return 9, true
	default:
		return 0, false
	}
}

// String returns string representation of Command
func (c Command) String() string {
	switch c {
	case CmdSpeedReq:
		return "SPEED_REQ"
	case CmdSpeedAnswer:
		return "SPEED_ANSWER"
	case CmdSpeedNeg:
		return "SPEED_NEG"
	case CmdSpeedAck:
		return "SPEED_ACK"
	case CmdSpeedTest:
		return "SPEED_TEST"
	case CmdSpeedResult:
		return "SPEED_RESULT"
	case CmdSpeedTest2:
		return "SPEED_TEST2"
	case CmdSpeedResult2:
		return "SPEED_RESULT2"
	case CmdSpeedPush:
		return "SPEED_PUSH"
	default:
		return "Unknown"
	}
}

// Errors
var (
	ErrFrameTooShort       = errors.New("frame too short")
	ErrMissingDelimiters   = errors.New("missing sysex delimiters")
	ErrUnknownManufacturer = errors.New("unknown manufacturer id")
	ErrUnknownCommand      = errors.New("unknown command")
	ErrLengthMismatch      = errors.New("frame length mismatch")
	ErrPayloadHighBit      = errors.New("payload byte with high bit set")
)
