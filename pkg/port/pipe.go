package port

import (
	"sync"
	"time"
)

// PipePort is an in-memory Port wired back-to-back with a peer.
// Bytes sent on one end become receivable on the other. Useful for
// tests and for running a master and responder in one process.
type PipePort struct {
	mu   sync.Mutex
	rx   []byte
	peer *PipePort

	baudMu sync.Mutex
	baud   uint32

	epoch time.Time
}

// NewPipe creates two connected pipe ports
func NewPipe() (*PipePort, *PipePort) {
	epoch := time.Now()
	a := &PipePort{baud: 31250, epoch: epoch}
	b := &PipePort{baud: 31250, epoch: epoch}
	a.peer = b
	b.peer = a
	return a, b
}

// Send implements Port.Send
func (p *PipePort) Send(data []byte) {
	peer := p.peer
	peer.mu.Lock()
	peer.rx = append(peer.rx, data...)
	peer.mu.Unlock()
}

// Receive implements Port.Receive
func (p *PipePort) Receive(buf []byte) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := copy(buf, p.rx)
	p.rx = p.rx[n:]
	if len(p.rx) == 0 {
		p.rx = nil
	}
	return n
}

// Millis implements Port.Millis
func (p *PipePort) Millis() uint32 {
	return uint32(time.Since(p.epoch).Milliseconds())
}

// SetBaud implements Port.SetBaud. The rate is recorded only.
func (p *PipePort) SetBaud(rate uint32) {
	p.baudMu.Lock()
	p.baud = rate
	p.baudMu.Unlock()
}

// Baud returns the last rate set on this end
func (p *PipePort) Baud() uint32 {
	p.baudMu.Lock()
	defer p.baudMu.Unlock()
	return p.baud
}

// Sleep implements Port.Sleep
func (p *PipePort) Sleep(ms uint32) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

// Pending returns how many bytes are waiting to be received
func (p *PipePort) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.rx)
}
