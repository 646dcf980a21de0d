package port

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// TCPPort tunnels the MIDI byte stream over a TCP connection.
// SetBaud records the nominal rate only; TCP has no line rate.
type TCPPort struct {
	// Connection
	conn     net.Conn
	connLock sync.RWMutex

	// Configuration
	address  string
	isServer bool
	listener net.Listener

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
		connects      atomic.Uint64
		disconnects   atomic.Uint64
	}

	// Lifecycle
	epoch  time.Time
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed atomic.Bool
}

// TCPPortConfig configures a TCP port
type TCPPortConfig struct {
	Address     string        // "host:port" format
	IsServer    bool          // true = listen, false = connect
	DialTimeout time.Duration // Connect timeout (client only)
}

// NewTCPPort creates a new TCP port
func NewTCPPort(config TCPPortConfig) (*TCPPort, error) {
	if config.Address == "" {
		return nil, fmt.Errorf("address is required")
	}
	if config.DialTimeout == 0 {
		config.DialTimeout = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	tp := &TCPPort{
		address:  config.Address,
		isServer: config.IsServer,
		epoch:    time.Now(),
		ctx:      ctx,
		cancel:   cancel,
	}
	tp.baud.Store(31250)

	if config.IsServer {
		if err := tp.startServer(); err != nil {
			cancel()
			return nil, err
		}
	} else {
		conn, err := net.DialTimeout("tcp", config.Address, config.DialTimeout)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to connect to %s: %w", config.Address, err)
		}
		tp.setConn(conn)
	}

	return tp, nil
}

// startServer starts listening for incoming connections
func (tp *TCPPort) startServer() error {
	listener, err := net.Listen("tcp", tp.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", tp.address, err)
	}

	tp.listener = listener

	tp.wg.Add(1)
	go tp.acceptLoop()

	return nil
}

// acceptLoop accepts incoming connections, keeping only the newest
func (tp *TCPPort) acceptLoop() {
	defer tp.wg.Done()

	for {
		select {
		case <-tp.ctx.Done():
			return
		default:
		}

		if tcpListener, ok := tp.listener.(*net.TCPListener); ok {
			tcpListener.SetDeadline(time.Now().Add(1 * time.Second))
		}

		conn, err := tp.listener.Accept()
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			if tp.closed.Load() {
				return
			}
			continue
		}

		tp.setConn(conn)
	}
}

// setConn installs a connection and starts its read loop
func (tp *TCPPort) setConn(conn net.Conn) {
	tp.connLock.Lock()
	if tp.conn != nil {
		tp.conn.Close()
		tp.stats.disconnects.Add(1)
	}
	tp.conn = conn
	tp.stats.connects.Add(1)
	tp.connLock.Unlock()

	tp.wg.Add(1)
	go tp.readLoop(conn)
}

// readLoop drains the connection into the inbound buffer
func (tp *TCPPort) readLoop(conn net.Conn) {
	defer tp.wg.Done()

	buf := make([]byte, 512)
	for {
		select {
		case <-tp.ctx.Done():
			return
		default:
		}

		conn.SetReadDeadline(time.Now().Add(1 * time.Second))
		n, err := conn.Read(buf)
		if n > 0 {
			tp.rxLock.Lock()
			tp.rx = append(tp.rx, buf[:n]...)
			tp.rxLock.Unlock()
			tp.stats.bytesReceived.Add(uint64(n))
		}
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			tp.stats.readErrors.Add(1)
			tp.dropConn(conn)
			return
		}
	}
}

// dropConn closes a dead connection if it is still the current one
func (tp *TCPPort) dropConn(conn net.Conn) {
	tp.connLock.Lock()
	defer tp.connLock.Unlock()

	if tp.conn == conn {
		tp.conn.Close()
		tp.stats.disconnects.Add(1)
		tp.conn = nil
	}
}

// Send implements Port.Send
func (tp *TCPPort) Send(data []byte) {
	tp.connLock.RLock()
	conn := tp.conn
	tp.connLock.RUnlock()

	if conn == nil {
		tp.stats.writeErrors.Add(1)
		return
	}

	conn.SetWriteDeadline(time.Now().Add(1 * time.Second))
	if _, err := conn.Write(data); err != nil {
		tp.stats.writeErrors.Add(1)
		tp.dropConn(conn)
		return
	}
	tp.stats.bytesSent.Add(uint64(len(data)))
}

// Receive implements Port.Receive
func (tp *TCPPort) Receive(buf []byte) int {
	tp.rxLock.Lock()
	defer tp.rxLock.Unlock()

	n := copy(buf, tp.rx)
	tp.rx = tp.rx[n:]
	if len(tp.rx) == 0 {
		tp.rx = nil
	}
	return n
}

// Millis implements Port.Millis
func (tp *TCPPort) Millis() uint32 {
	return uint32(time.Since(tp.epoch).Milliseconds())
}

// SetBaud implements Port.SetBaud. Recorded only.
func (tp *TCPPort) SetBaud(rate uint32) {
	tp.baud.Store(rate)
}

// Baud returns the last recorded nominal rate
func (tp *TCPPort) Baud() uint32 {
	return tp.baud.Load()
}

// Sleep implements Port.Sleep
func (tp *TCPPort) Sleep(ms uint32) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

// Close shuts the port down
func (tp *TCPPort) Close() error {
	if !tp.closed.CompareAndSwap(false, true) {
		return nil // Already closed
	}

	tp.cancel()

	if tp.listener != nil {
		tp.listener.Close()
	}

	tp.connLock.Lock()
	if tp.conn != nil {
		tp.conn.Close()
		tp.stats.disconnects.Add(1)
		tp.conn = nil
	}
	tp.connLock.Unlock()

	tp.wg.Wait()
	return nil
}

// IsConnected returns true if there is an active connection
func (tp *TCPPort) IsConnected() bool {
	tp.connLock.RLock()
	defer tp.connLock.RUnlock()
	return tp.conn != nil
}

// Statistics returns transport-level statistics
func (tp *TCPPort) Statistics() Stats {
	return Stats{
		BytesSent:     tp.stats.bytesSent.Load(),
		BytesReceived: tp.stats.bytesReceived.Load(),
		WriteErrors:   tp.stats.writeErrors.Load(),
		ReadErrors:    tp.stats.readErrors.Load(),
		Connects:      tp.stats.connects.Load(),
		Disconnects:   tp.stats.disconnects.Load(),
	}
}
