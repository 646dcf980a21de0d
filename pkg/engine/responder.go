package engine

import (
	"elektron/turbomidi-go/pkg/sysex"
	"elektron/turbomidi-go/pkg/types"
)

// handleFrame routes one complete vendor frame. Responder-side frames
// are refused in the master role, except SPEED_PUSH, which is honored in
// any role when the speed is supported; replies the master is waiting on
// are stashed for its wait gates. Anything that fails a guard is dropped.
func (e *Engine) handleFrame(f *sysex.Frame) {
	e.logger.Debug("Engine: recv %s", f)

	switch f.Command {
	case sysex.CmdSpeedReq:
		if e.role == types.RoleMaster {
			return
		}
		e.send(sysex.NewSpeedAnswer(e.caps))
		if e.listener != nil {
			e.listener.OnSpeedRequest()
		}

	case sysex.CmdSpeedAnswer:
		if caps, ok := f.Capabilities(); ok {
			e.answer = &caps
		}

	case sysex.CmdSpeedAck:
		e.ackSeen = true

	case sysex.CmdSpeedResult:
		e.resultASeen = true
		e.resultAOK = f.HasTestPattern()

	case sysex.CmdSpeedResult2:
		e.resultBSeen = true

	case sysex.CmdSpeedNeg:
		if e.role == types.RoleMaster {
			return
		}
		test, target, ok := f.NegSpeeds()
		if !ok {
			return
		}
		if !e.caps.Supports(target) {
			// No ACK for a speed we cannot run
			e.logger.Debug("Engine: ignoring negotiation for unsupported %s", target)
			return
		}
		e.send(sysex.NewSpeedAck())

		if target == types.Speed1x || (e.caps.Certified(target) && test == target) {
			e.setSpeed(target)
			e.phase = phaseIdle
		} else {
			e.pendingTest = test
			e.pendingTarget = target
			e.phase = phaseAwaitTest
		}

	case sysex.CmdSpeedTest:
		if e.role == types.RoleMaster {
			return
		}
		if e.phase != phaseAwaitTest || !f.HasTestPattern() {
			// An untrusted mid-test probe must not strand the link
			// at an untested rate
			e.logger.Warn("Engine: unexpected wire-test probe, failing back")
			e.failBack()
			return
		}
		e.setSpeed(e.pendingTest)
		e.send(sysex.NewSpeedResult())
		e.phase = phaseAwaitTest2

	case sysex.CmdSpeedTest2:
		if e.role == types.RoleMaster {
			return
		}
		if e.phase != phaseAwaitTest2 {
			return
		}
		e.send(sysex.NewSpeedResult2())
		e.setSpeed(e.pendingTarget)
		e.phase = phaseIdle

	case sysex.CmdSpeedPush:
		target, ok := f.PushSpeed()
		if !ok {
			return
		}
		if !e.caps.Supports(target) {
			e.logger.Debug("Engine: ignoring push to unsupported %s", target)
			return
		}
		e.setSpeed(target)
	}
}
