package engine

import (
	"time"

	"elektron/turbomidi-go/pkg/sysex"
	"elektron/turbomidi-go/pkg/types"
)

// Negotiate runs the master-initiated speed negotiation and returns
// true when the link settles at the target speed. On any failure the
// engine is back at 1x if it had retuned during the attempt, otherwise
// unchanged. Refused in the responder role.
//
// timeout bounds each of the four wait-for-reply gates; zero means the
// configured ReplyTimeout. The call busy-waits in PollInterval steps
// and keeps pumping inbound bytes, so responder callbacks may fire
// nested inside it.
func (e *Engine) Negotiate(target types.Multiplier, timeout time.Duration) bool {
	if e.role == types.RoleResponder {
		e.logger.Warn("Engine: negotiate refused in responder role")
		return false
	}
	if !target.Valid() {
		e.logger.Warn("Engine: negotiate refused, invalid code %d", target)
		return false
	}
	if timeout <= 0 {
		timeout = e.config.ReplyTimeout
	}

	e.logger.Info("Engine: negotiating %s", target)

	e.answer = nil
	e.send(sysex.NewSpeedReq())
	if !e.waitFor(timeout, func() bool { return e.answer != nil }) {
		e.logger.Warn("Engine: negotiate %s: no answer", target)
		return false
	}
	remote := *e.answer

	if !remote.Supports(target) {
		e.logger.Warn("Engine: negotiate %s: peer does not support it", target)
		return false
	}

	// A certified target, or 1x, needs no wire-test. Anything else is
	// probed at a strictly higher rate the peer can run, to prove
	// headroom; a target with nothing usable above it cannot be proven.
	test := target
	if target != types.Speed1x && !remote.Certified(target) {
		higher, ok := nextSupportedAbove(remote, target)
		if !ok {
			e.logger.Warn("Engine: negotiate %s: no higher test speed available", target)
			return false
		}
		test = higher
	}

	e.ackSeen = false
	e.send(sysex.NewSpeedNeg(test, target))
	if !e.waitFor(timeout, func() bool { return e.ackSeen }) {
		e.logger.Warn("Engine: negotiate %s: no ack", target)
		return false
	}

	if test == target {
		e.setSpeed(target)
		e.logger.Info("Engine: negotiated %s without wire-test", target)
		return true
	}

	return e.runWireTest(test, target, timeout)
}

// Push unilaterally commands the peer to the target speed and retunes
// immediately. No waiting, no failure path. Refused in the responder role.
func (e *Engine) Push(target types.Multiplier) {
	if e.role == types.RoleResponder {
		e.logger.Warn("Engine: push refused in responder role")
		return
	}
	if !target.Valid() {
		e.logger.Warn("Engine: push refused, invalid code %d", target)
		return
	}

	e.send(sysex.NewSpeedPush(target))
	e.setSpeed(target)
}

// runWireTest round-trips the two-phase probe at the test speed, then
// settles at the target. Any miss drops the link back to 1x.
func (e *Engine) runWireTest(test, target types.Multiplier, timeout time.Duration) bool {
	e.logger.Debug("Engine: wire-test at %s for target %s", test, target)

	// Breathing time: let the UART drain before the rate switch
	e.port.Send(make([]byte, e.config.BreathingPadBytes))
	e.port.Sleep(millis(e.config.BreathingDelay))

	e.setSpeed(test)

	e.resultASeen = false
	e.resultAOK = false
	e.send(sysex.NewSpeedTest())
	if !e.waitFor(timeout, func() bool { return e.resultASeen }) || !e.resultAOK {
		e.logger.Warn("Engine: wire-test at %s: first probe failed", test)
		e.setSpeed(types.Speed1x)
		return false
	}

	e.resultBSeen = false
	e.send(sysex.NewSpeedTest2())
	if !e.waitFor(timeout, func() bool { return e.resultBSeen }) {
		e.logger.Warn("Engine: wire-test at %s: second probe failed", test)
		e.setSpeed(types.Speed1x)
		return false
	}

	e.setSpeed(target)
	e.logger.Info("Engine: negotiated %s after wire-test at %s", target, test)
	return true
}

// nextSupportedAbove scans upward from the target for the slowest
// strictly-higher speed the peer advertises
func nextSupportedAbove(caps types.Capabilities, target types.Multiplier) (types.Multiplier, bool) {
	for c := target.NextHigher(); c > target; target, c = c, c.NextHigher() {
		if caps.Supports(c) {
			return c, true
		}
	}
	return 0, false
}

// waitFor pumps the port until done reports true or the timeout lapses
func (e *Engine) waitFor(timeout time.Duration, done func() bool) bool {
	start := e.port.Millis()
	limit := millis(timeout)
	poll := millis(e.config.PollInterval)

	for {
		e.Pump()
		if done() {
			return true
		}
		if e.port.Millis()-start >= limit {
			return false
		}
		e.port.Sleep(poll)
	}
}
