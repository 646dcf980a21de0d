package port

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.bug.st/serial"
)

// SerialPort drives a real UART. This is the transport the protocol was
// designed for: SetBaud performs an actual mode change on the device.
type SerialPort struct {
	dev    serial.Port
	device string

	// Inbound buffer filled by the read loop
	rxLock sync.Mutex
	rx     []byte

	baud atomic.Uint32

	// Statistics
	stats struct {
		bytesSent     atomic.Uint64
		bytesReceived atomic.Uint64
		writeErrors   atomic.Uint64
		readErrors    atomic.Uint64
	}

	// Lifecycle
	epoch  time.Time
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed atomic.Bool
}

// SerialPortConfig configures a serial port
type SerialPortConfig struct {
	Device string // e.g. "/dev/ttyUSB0" or "COM3"
	Baud   uint32 // Initial line rate; 0 means the 31250 MIDI baseline
}

// NewSerialPort opens a serial device at the configured rate, the MIDI
// baseline when none is given
func NewSerialPort(config SerialPortConfig) (*SerialPort, error) {
	if config.Device == "" {
		return nil, fmt.Errorf("device is required")
	}
	if config.Baud == 0 {
		config.Baud = 31250
	}

	mode := &serial.Mode{
		BaudRate: int(config.Baud),
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	dev, err := serial.Open(config.Device, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", config.Device, err)
	}

	// Short read timeout keeps the read loop responsive to shutdown
	if err := dev.SetReadTimeout(100 * time.Millisecond); err != nil {
		dev.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	sp := &SerialPort{
		dev:    dev,
		device: config.Device,
		epoch:  time.Now(),
		ctx:    ctx,
		cancel: cancel,
	}
	sp.baud.Store(config.Baud)

	sp.wg.Add(1)
	go sp.readLoop()

	return sp, nil
}

// readLoop drains the device into the inbound buffer
func (sp *SerialPort) readLoop() {
	defer sp.wg.Done()

	buf := make([]byte, 512)
	for {
		select {
		case <-sp.ctx.Done():
			return
		default:
		}

		n, err := sp.dev.Read(buf)
		if n > 0 {
			sp.rxLock.Lock()
			sp.rx = append(sp.rx, buf[:n]...)
			sp.rxLock.Unlock()
			sp.stats.bytesReceived.Add(uint64(n))
		}
		if err != nil {
			if sp.closed.Load() {
				return
			}
			sp.stats.readErrors.Add(1)
		}
	}
}

// Send implements Port.Send
func (sp *SerialPort) Send(data []byte) {
	if _, err := sp.dev.Write(data); err != nil {
		sp.stats.writeErrors.Add(1)
		return
	}
	sp.stats.bytesSent.Add(uint64(len(data)))
}

// Receive implements Port.Receive
func (sp *SerialPort) Receive(buf []byte) int {
	sp.rxLock.Lock()
	defer sp.rxLock.Unlock()

	n := copy(buf, sp.rx)
	sp.rx = sp.rx[n:]
	if len(sp.rx) == 0 {
		sp.rx = nil
	}
	return n
}

// Millis implements Port.Millis
func (sp *SerialPort) Millis() uint32 {
	return uint32(time.Since(sp.epoch).Milliseconds())
}

// SetBaud implements Port.SetBaud with a real UART mode change.
// The UART drains its transmit FIFO before the switch on most
// platforms; the engine's breathing pad covers the ones that don't.
func (sp *SerialPort) SetBaud(rate uint32) {
	mode := &serial.Mode{
		BaudRate: int(rate),
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	if err := sp.dev.SetMode(mode); err != nil {
		sp.stats.writeErrors.Add(1)
		return
	}
	sp.baud.Store(rate)
}

// Baud returns the current line rate
func (sp *SerialPort) Baud() uint32 {
	return sp.baud.Load()
}

// Sleep implements Port.Sleep
func (sp *SerialPort) Sleep(ms uint32) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

// Close shuts the port down
func (sp *SerialPort) Close() error {
	if !sp.closed.CompareAndSwap(false, true) {
		return nil // Already closed
	}

	sp.cancel()
	err := sp.dev.Close()
	sp.wg.Wait()
	return err
}

// Statistics returns transport-level statistics
func (sp *SerialPort) Statistics() Stats {
	return Stats{
		BytesSent:     sp.stats.bytesSent.Load(),
		BytesReceived: sp.stats.bytesReceived.Load(),
		WriteErrors:   sp.stats.writeErrors.Load(),
		ReadErrors:    sp.stats.readErrors.Load(),
	}
}
