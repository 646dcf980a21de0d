package engine

import (
	"bytes"
	"testing"

	"elektron/turbomidi-go/pkg/sysex"
	"elektron/turbomidi-go/pkg/types"
)

// portEvent records one observable port interaction, in order
type portEvent struct {
	kind string // "send" or "baud"
	data []byte
	baud uint32
}

// fakePort is a scriptable Port with a manual clock. Sleep advances the
// clock so wait gates terminate deterministically.
type fakePort struct {
	clock  uint32
	rx     []byte
	sent   []byte
	bauds  []uint32
	events []portEvent
}

func newFakePort() *fakePort {
	return &fakePort{}
}

func (p *fakePort) Send(data []byte) {
	p.sent = append(p.sent, data...)
	p.events = append(p.events, portEvent{kind: "send", data: append([]byte(nil), data...)})
}

func (p *fakePort) Receive(buf []byte) int {
	n := copy(buf, p.rx)
	p.rx = p.rx[n:]
	return n
}

func (p *fakePort) Millis() uint32 { return p.clock }

func (p *fakePort) SetBaud(rate uint32) {
	p.bauds = append(p.bauds, rate)
	p.events = append(p.events, portEvent{kind: "baud", baud: rate})
}

func (p *fakePort) Sleep(ms uint32) { p.clock += ms }

// inject queues inbound bytes for the next Receive
func (p *fakePort) inject(data []byte) {
	p.rx = append(p.rx, data...)
}

// lastBaud returns the most recent rate set, or 0 for none
func (p *fakePort) lastBaud() uint32 {
	if len(p.bauds) == 0 {
		return 0
	}
	return p.bauds[len(p.bauds)-1]
}

// recListener records notifications
type recListener struct {
	speeds   []types.Multiplier
	requests int
}

func (l *recListener) OnSpeedChanged(speed types.Multiplier) {
	l.speeds = append(l.speeds, speed)
}

func (l *recListener) OnSpeedRequest() {
	l.requests++
}

// respondingPort plays the peer: it parses what the engine sends and
// queues the scripted replies for the next Receive.
type respondingPort struct {
	fakePort
	parser *sysex.Parser
	caps   types.Capabilities

	silent       bool // Never reply at all
	dropAck      bool // Answer but never ACK
	badPattern   bool // Reply to TEST-A with a corrupted pattern
	dropResult2  bool // Never reply to TEST-B
	negs         [][2]types.Multiplier
	testsSeen    int
	test2sSeen   int
}

func newRespondingPort(caps types.Capabilities) *respondingPort {
	return &respondingPort{parser: sysex.NewParser(), caps: caps}
}

func (p *respondingPort) Send(data []byte) {
	p.fakePort.Send(data)
	for _, b := range data {
		f := p.parser.Feed(b)
		if f == nil {
			continue
		}
		p.reply(f)
	}
}

func (p *respondingPort) reply(f *sysex.Frame) {
	if p.silent {
		return
	}
	switch f.Command {
	case sysex.CmdSpeedReq:
		p.inject(sysex.NewSpeedAnswer(p.caps).Encode())
	case sysex.CmdSpeedNeg:
		test, target, _ := f.NegSpeeds()
		p.negs = append(p.negs, [2]types.Multiplier{test, target})
		if !p.dropAck {
			p.inject(sysex.NewSpeedAck().Encode())
		}
	case sysex.CmdSpeedTest:
		p.testsSeen++
		if p.badPattern {
			bad := sysex.NewSpeedResult()
			bad.Payload[0] = 0x2A
			p.inject(bad.Encode())
		} else {
			p.inject(sysex.NewSpeedResult().Encode())
		}
	case sysex.CmdSpeedTest2:
		p.test2sSeen++
		if !p.dropResult2 {
			p.inject(sysex.NewSpeedResult2().Encode())
		}
	}
}

// TestNew tests the cold-boot state
func TestNew(t *testing.T) {
	fp := newFakePort()
	e := New(fp, types.RoleAny, Config{}, nil)

	if e.CurrentSpeed() != types.Speed1x {
		t.Errorf("CurrentSpeed() = %v, want 1x", e.CurrentSpeed())
	}
	if len(fp.sent) != 0 {
		t.Errorf("construction sent %d bytes", len(fp.sent))
	}
	if !e.Capabilities().Supports(types.Speed1x) {
		t.Errorf("1x must be supported from birth")
	}
	if e.Capabilities().Supports(types.Speed2x) {
		t.Errorf("2x supported without SetSupportedSpeed")
	}
}

// TestSetSupportedSpeed tests capability registration
func TestSetSupportedSpeed(t *testing.T) {
	e := New(newFakePort(), types.RoleResponder, Config{}, nil)
	e.SetSupportedSpeed(types.Speed4x, false)
	e.SetSupportedSpeed(types.Speed10x, true)

	caps := e.Capabilities()
	if !caps.Supports(types.Speed4x) || caps.Certified(types.Speed4x) {
		t.Errorf("4x should be supported, uncertified")
	}
	if !caps.Supports(types.Speed10x) || !caps.Certified(types.Speed10x) {
		t.Errorf("10x should be supported and certified")
	}
}

// TestSendActiveSense tests the manual keep-alive pulse
func TestSendActiveSense(t *testing.T) {
	fp := newFakePort()
	e := New(fp, types.RoleMaster, Config{}, nil)

	// Disabled at 1x
	e.SendActiveSense()
	if len(fp.sent) != 0 {
		t.Errorf("active sense emitted at 1x")
	}

	e.Push(types.Speed2x)
	fp.sent = nil
	e.SendActiveSense()
	if !bytes.Equal(fp.sent, []byte{sysex.ActiveSensing}) {
		t.Errorf("sent % X, want FE", fp.sent)
	}
}

// TestEngine_String smoke-tests the debug representation
func TestEngine_String(t *testing.T) {
	e := New(newFakePort(), types.RoleMaster, Config{}, nil)
	if e.String() == "" {
		t.Errorf("String() returned empty string")
	}
}
