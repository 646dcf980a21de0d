package engine

import (
	"bytes"
	"testing"

	"elektron/turbomidi-go/pkg/sysex"
	"elektron/turbomidi-go/pkg/types"
)

// elevate brings a responder engine to 4x via a push at clock zero
func elevate(t *testing.T, e *Engine, fp *fakePort) {
	t.Helper()
	injectFrame(e, fp, sysex.NewSpeedPush(types.Speed4x))
	if e.CurrentSpeed() != types.Speed4x {
		t.Fatalf("setup failed: speed = %v", e.CurrentSpeed())
	}
}

// TestPump_FailBack tests Scenario D: 301ms of silence at 4x drops to 1x
func TestPump_FailBack(t *testing.T) {
	fp := newFakePort()
	e := New(fp, types.RoleResponder, Config{}, nil)
	e.SetSupportedSpeed(types.Speed4x, true)
	elevate(t, e, fp)

	listener := &recListener{}
	e.SetListener(listener)

	fp.clock = 301
	e.Pump()

	if e.CurrentSpeed() != types.Speed1x {
		t.Errorf("CurrentSpeed() = %v, want 1x", e.CurrentSpeed())
	}
	if fp.lastBaud() != 31250 {
		t.Errorf("baud = %d, want 31250", fp.lastBaud())
	}
	if len(listener.speeds) != 1 || listener.speeds[0] != types.Speed1x {
		t.Errorf("speeds = %v, want [1x]", listener.speeds)
	}
}

// TestPump_NoFailBackUnderThreshold tests that 300ms is not yet silence
func TestPump_NoFailBackUnderThreshold(t *testing.T) {
	fp := newFakePort()
	e := New(fp, types.RoleResponder, Config{}, nil)
	e.SetSupportedSpeed(types.Speed4x, true)
	elevate(t, e, fp)

	fp.clock = 300
	e.Pump()

	if e.CurrentSpeed() != types.Speed4x {
		t.Errorf("failed back at exactly the threshold")
	}
}

// TestPump_FailBackDisabledAt1x tests that silence at 1x is fine
func TestPump_FailBackDisabledAt1x(t *testing.T) {
	fp := newFakePort()
	e := New(fp, types.RoleResponder, Config{}, nil)

	listener := &recListener{}
	e.SetListener(listener)

	fp.clock = 100000
	e.Pump()

	if len(fp.bauds) != 0 || len(fp.sent) != 0 || len(listener.speeds) != 0 {
		t.Errorf("pump acted at 1x: bauds=%v sent=% X", fp.bauds, fp.sent)
	}
}

// TestPump_AnyByteRefreshesSilence tests that non-sysex traffic staves
// off the fail-back
func TestPump_AnyByteRefreshesSilence(t *testing.T) {
	fp := newFakePort()
	e := New(fp, types.RoleResponder, Config{}, nil)
	e.SetSupportedSpeed(types.Speed4x, true)
	elevate(t, e, fp)

	fp.clock = 299
	fp.inject([]byte{0x42}) // Arbitrary data byte
	e.Pump()

	fp.clock = 599 // 300ms after the byte
	e.Pump()
	if e.CurrentSpeed() != types.Speed4x {
		t.Errorf("failed back despite traffic")
	}

	fp.clock = 600 // 301ms after the byte
	e.Pump()
	if e.CurrentSpeed() != types.Speed1x {
		t.Errorf("silence after refresh did not fail back")
	}
}

// TestPump_KeepAlive tests the Active Sensing pulse cadence
func TestPump_KeepAlive(t *testing.T) {
	fp := newFakePort()
	e := New(fp, types.RoleResponder, Config{}, nil)
	e.SetSupportedSpeed(types.Speed4x, true)
	elevate(t, e, fp)
	fp.sent = nil

	// Stay inside the silence window while crossing the keep-alive one
	fp.clock = 251
	fp.inject([]byte{sysex.ActiveSensing})
	e.Pump()

	if !bytes.Equal(fp.sent, []byte{sysex.ActiveSensing}) {
		t.Fatalf("sent % X, want FE", fp.sent)
	}

	// Within the next interval: nothing more
	fp.clock = 300
	fp.inject([]byte{sysex.ActiveSensing})
	e.Pump()
	if len(fp.sent) != 1 {
		t.Errorf("keep-alive fired early: % X", fp.sent)
	}

	// Next interval lapses: another pulse
	fp.clock = 502
	fp.inject([]byte{sysex.ActiveSensing})
	e.Pump()
	if len(fp.sent) != 2 {
		t.Errorf("keep-alive missed: % X", fp.sent)
	}
}

// TestPump_KeepAliveDisabledAt1x tests that no pulse is sent at 1x
func TestPump_KeepAliveDisabledAt1x(t *testing.T) {
	fp := newFakePort()
	e := New(fp, types.RoleResponder, Config{}, nil)

	fp.clock = 1000
	e.Pump()

	if len(fp.sent) != 0 {
		t.Errorf("keep-alive sent at 1x: % X", fp.sent)
	}
}

// TestPump_InboundActiveSensingInvisible tests that FE bytes refresh
// the clock without producing frames or replies
func TestPump_InboundActiveSensingInvisible(t *testing.T) {
	fp := newFakePort()
	e := New(fp, types.RoleResponder, Config{}, nil)
	e.SetSupportedSpeed(types.Speed4x, true)
	elevate(t, e, fp)
	fp.sent = nil

	fp.clock = 200
	fp.inject([]byte{sysex.ActiveSensing})
	e.Pump()
	if len(fp.sent) != 0 {
		t.Errorf("inbound FE produced a reply: % X", fp.sent)
	}

	fp.clock = 500 // 300ms after the FE byte, 500ms after the push
	e.Pump()
	if e.CurrentSpeed() != types.Speed4x {
		t.Errorf("FE byte did not refresh the silence clock")
	}
}
