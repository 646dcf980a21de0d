package sysex

import (
	"bytes"
	"fmt"

	"elektron/turbomidi-go/pkg/types"
)

// Frame is one complete TurboMIDI vendor message: a command identifier
// plus its 7-bit payload bytes, without the SysEx shell.
type Frame struct {
	Command Command
	Payload []byte
}

// NewSpeedReq builds a SPEED_REQ frame
func NewSpeedReq() *Frame {
	return &Frame{Command: CmdSpeedReq}
}

// NewSpeedAnswer builds a SPEED_ANSWER frame advertising the given capabilities
func NewSpeedAnswer(caps types.Capabilities) *Frame {
	mask1, mask2, cert1, cert2 := caps.Wire()
	return &Frame{
		Command: CmdSpeedAnswer,
		Payload: []byte{mask1, mask2, cert1, cert2},
	}
}

// NewSpeedNeg builds a SPEED_NEG frame proposing a test speed and a target speed
func NewSpeedNeg(test, target types.Multiplier) *Frame {
	return &Frame{
		Command: CmdSpeedNeg,
		Payload: []byte{uint8(test), uint8(target)},
	}
}

// NewSpeedAck builds a SPEED_ACK frame
func NewSpeedAck() *Frame {
	return &Frame{Command: CmdSpeedAck}
}

// NewSpeedTest builds the first wire-test probe carrying the test pattern
func NewSpeedTest() *Frame {
	return &Frame{Command: CmdSpeedTest, Payload: append([]byte(nil), TestPattern[:]...)}
}

// NewSpeedResult builds the first wire-test echo carrying the test pattern
func NewSpeedResult() *Frame {
	return &Frame{Command: CmdSpeedResult, Payload: append([]byte(nil), TestPattern[:]...)}
}

// NewSpeedTest2 builds the second wire-test probe
func NewSpeedTest2() *Frame {
	return &Frame{Command: CmdSpeedTest2}
}

// NewSpeedResult2 builds the second wire-test echo
func NewSpeedResult2() *Frame {
	return &Frame{Command: CmdSpeedResult2}
}

// NewSpeedPush builds a SPEED_PUSH frame commanding the given speed
func NewSpeedPush(target types.Multiplier) *Frame {
	return &Frame{Command: CmdSpeedPush, Payload: []byte{uint8(target)}}
}

// Encode converts the frame to wire format:
// F0, the five manufacturer ID bytes, the command, the payload, F7.
func (f *Frame) Encode() []byte {
	out := make([]byte, 0, 8+len(f.Payload))
	out = append(out, StartOfSysex)
	out = append(out, ManufacturerID[:]...)
	out = append(out, uint8(f.Command))
	out = append(out, f.Payload...)
	out = append(out, EndOfSysex)
	return out
}

// Decode parses wire format data into a Frame. The data must be exactly
// one complete SysEx message, delimiters included.
func Decode(data []byte) (*Frame, error) {
	if len(data) < MinFrameSize {
		return nil, ErrFrameTooShort
	}
	if data[0] != StartOfSysex || data[len(data)-1] != EndOfSysex {
		return nil, ErrMissingDelimiters
	}
	if !bytes.Equal(data[1:6], ManufacturerID[:]) {
		return nil, ErrUnknownManufacturer
	}

	cmd := Command(data[6])
	want, known := cmd.FrameLength()
	if !known {
		return nil, ErrUnknownCommand
	}
	if len(data) != want {
		return nil, ErrLengthMismatch
	}

	payload := data[7 : len(data)-1]
	for _, b := range payload {
		if b&0x80 != 0 {
			return nil, ErrPayloadHighBit
		}
	}

	return &Frame{
		Command: cmd,
		Payload: append([]byte(nil), payload...),
	}, nil
}

// Capabilities unpacks a SPEED_ANSWER payload
func (f *Frame) Capabilities() (types.Capabilities, bool) {
	if f.Command != CmdSpeedAnswer || len(f.Payload) != 4 {
		return types.Capabilities{}, false
	}
	return types.CapabilitiesFromWire(f.Payload[0], f.Payload[1], f.Payload[2], f.Payload[3]), true
}

// NegSpeeds unpacks a SPEED_NEG payload into test and target codes
func (f *Frame) NegSpeeds() (test, target types.Multiplier, ok bool) {
	if f.Command != CmdSpeedNeg || len(f.Payload) != 2 {
		return 0, 0, false
	}
	return types.Multiplier(f.Payload[0]), types.Multiplier(f.Payload[1]), true
}

// PushSpeed unpacks a SPEED_PUSH payload
func (f *Frame) PushSpeed() (types.Multiplier, bool) {
	if f.Command != CmdSpeedPush || len(f.Payload) != 1 {
		return 0, false
	}
	return types.Multiplier(f.Payload[0]), true
}

// HasTestPattern returns true if the payload is the exact wire-test pattern
func (f *Frame) HasTestPattern() bool {
	return bytes.Equal(f.Payload, TestPattern[:])
}

// String returns a string representation of the frame
func (f *Frame) String() string {
	if len(f.Payload) == 0 {
		return fmt.Sprintf("Frame{%s}", f.Command)
	}
	return fmt.Sprintf("Frame{%s, Payload=% X}", f.Command, f.Payload)
}
