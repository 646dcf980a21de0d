package engine

import (
	"fmt"

	"elektron/turbomidi-go/pkg/internal/logger"
	"elektron/turbomidi-go/pkg/port"
	"elektron/turbomidi-go/pkg/sysex"
	"elektron/turbomidi-go/pkg/types"
)

// Listener receives engine notifications. Both methods are invoked
// synchronously from inside engine calls; implementations must not
// call back into the engine.
type Listener interface {
	// OnSpeedChanged fires on every retune with the new code
	OnSpeedChanged(speed types.Multiplier)

	// OnSpeedRequest fires when a SPEED_REQ was answered
	OnSpeedRequest()
}

// testPhase tracks where the responder is inside a two-phase wire-test
type testPhase int

const (
	phaseIdle testPhase = iota
	phaseAwaitTest
	phaseAwaitTest2
)

// String returns string representation of testPhase
func (p testPhase) String() string {
	switch p {
	case phaseIdle:
		return "Idle"
	case phaseAwaitTest:
		return "AwaitTest"
	case phaseAwaitTest2:
		return "AwaitTest2"
	default:
		return "Unknown"
	}
}

// Engine is the TurboMIDI protocol state machine. It is single-threaded
// cooperative: all progress happens inside Negotiate, Push, or Pump, and
// the caller must serialize calls. The port is borrowed for the engine's
// lifetime and must outlive it.
type Engine struct {
	config   Config
	role     types.Role
	port     port.Port
	logger   logger.Logger
	listener Listener

	caps    types.Capabilities
	current types.Multiplier
	parser  *sysex.Parser

	lastRxMs        uint32
	lastKeepAliveMs uint32

	// Responder wire-test state
	phase         testPhase
	pendingTest   types.Multiplier
	pendingTarget types.Multiplier

	// Master wait-gate captures, filled by dispatch
	answer      *types.Capabilities
	ackSeen     bool
	resultASeen bool
	resultAOK   bool
	resultBSeen bool
}

// New creates an engine bound to a port in the given role.
// The engine starts at 1x with only 1x supported.
func New(p port.Port, role types.Role, config Config, log logger.Logger) *Engine {
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	now := p.Millis()
	e := &Engine{
		config:          config.withDefaults(),
		role:            role,
		port:            p,
		logger:          log,
		current:         types.Speed1x,
		parser:          sysex.NewParser(),
		lastRxMs:        now,
		lastKeepAliveMs: now,
		phase:           phaseIdle,
	}

	e.logger.Info("Engine created: role=%s", role)
	return e
}

// SetListener installs the notification hooks
func (e *Engine) SetListener(l Listener) {
	e.listener = l
}

// SetSupportedSpeed advertises a speed, optionally certified.
// 1x is always implicitly supported and certified.
func (e *Engine) SetSupportedSpeed(m types.Multiplier, certified bool) {
	e.caps.Add(m, certified)
}

// CurrentSpeed returns the multiplier currently in effect on the port
func (e *Engine) CurrentSpeed() types.Multiplier {
	return e.current
}

// Capabilities returns a copy of the locally advertised capability set
func (e *Engine) Capabilities() types.Capabilities {
	return e.caps
}

// Role returns the role the engine was constructed with
func (e *Engine) Role() types.Role {
	return e.role
}

// SendActiveSense emits one Active Sensing byte at elevated speed.
// The pump does this automatically; exposed for embedders that want to
// pulse the link themselves.
func (e *Engine) SendActiveSense() {
	if e.current == types.Speed1x {
		return
	}
	e.port.Send([]byte{sysex.ActiveSensing})
	e.lastKeepAliveMs = e.port.Millis()
}

// setSpeed is the only place the line rate changes: it updates the
// field, commands the port, and fires the notification, in that order.
func (e *Engine) setSpeed(m types.Multiplier) {
	e.current = m
	e.port.SetBaud(m.BaudRate())
	e.logger.Info("Engine: speed set to %s (%d baud)", m, m.BaudRate())

	if e.listener != nil {
		e.listener.OnSpeedChanged(m)
	}
}

// failBack returns the link to 1x and clears any wire-test in progress.
// A link already at 1x is left untouched so no spurious notification fires.
func (e *Engine) failBack() {
	if e.current != types.Speed1x {
		e.setSpeed(types.Speed1x)
	}
	e.phase = phaseIdle
}

// send encodes and transmits one vendor frame
func (e *Engine) send(f *sysex.Frame) {
	e.logger.Debug("Engine: send %s", f)
	e.port.Send(f.Encode())
}

// String returns string representation
func (e *Engine) String() string {
	return fmt.Sprintf("Engine{Role=%s, Speed=%s, Phase=%s}", e.role, e.current, e.phase)
}
