package port

// Port is the byte transport, clock, and line-rate control the engine
// drives. Implementations stand in for a UART whose baud can be retuned.
//
// No operation may block indefinitely; all are expected to return
// promptly. The port is exclusively owned by one engine: an external
// writer would corrupt the frame parser, an external reader would
// consume bytes the engine expects to see.
type Port interface {
	// Send transmits raw bytes at the current line rate
	Send(data []byte)

	// Receive copies up to len(buf) currently-buffered inbound bytes
	// into buf and returns how many. Non-blocking; returns 0 when
	// nothing is pending.
	Receive(buf []byte) int

	// Millis returns a monotonic millisecond clock. Callers subtract
	// readings with uint32 arithmetic, so wrapping is harmless.
	Millis() uint32

	// SetBaud changes the line rate. The line may drop briefly.
	// Transports with no physical line rate record the value only.
	SetBaud(rate uint32)

	// Sleep yields for approximately the requested duration
	Sleep(ms uint32)
}

// Stats provides transport-level statistics for the fallible adapters
type Stats struct {
	BytesSent     uint64 // Total bytes sent
	BytesReceived uint64 // Total bytes received
	WriteErrors   uint64 // Number of write errors
	ReadErrors    uint64 // Number of read errors
	Connects      uint64 // Number of connections
	Disconnects   uint64 // Number of disconnections
}
