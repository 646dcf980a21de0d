package engine

import (
	"elektron/turbomidi-go/pkg/sysex"
	"elektron/turbomidi-go/pkg/types"
)

// Pump advances the engine: it drains the port's receive buffer through
// the parser, dispatches any complete frames, runs the fail-back check,
// and emits the keep-alive pulse when due. Call it periodically; a few
// times per keep-alive interval is plenty.
func (e *Engine) Pump() {
	e.drainReceive()
	e.checkTimers()
}

// drainReceive feeds everything the port has buffered into the parser
func (e *Engine) drainReceive() {
	var buf [256]byte
	for {
		n := e.port.Receive(buf[:])
		if n == 0 {
			return
		}

		e.lastRxMs = e.port.Millis()

		for _, b := range buf[:n] {
			if f := e.parser.Feed(b); f != nil {
				e.handleFrame(f)
			}
		}
	}
}

// checkTimers runs the fail-back and keep-alive clocks. Both are
// disabled at 1x. The clock is read once; staleness within one pump
// is ignored.
func (e *Engine) checkTimers() {
	if e.current == types.Speed1x {
		return
	}

	now := e.port.Millis()

	if now-e.lastRxMs > millis(e.config.FailBackTimeout) {
		e.logger.Warn("Engine: peer silent for %dms, failing back to 1x", now-e.lastRxMs)
		e.failBack()
		return
	}

	if now-e.lastKeepAliveMs > millis(e.config.KeepAliveInterval) {
		e.port.Send([]byte{sysex.ActiveSensing})
		e.lastKeepAliveMs = now
	}
}
