package port

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quic-go/quic-go"
)

// QUICPort tunnels the MIDI byte stream over a single bidirectional
// QUIC stream. SetBaud records the nominal rate only.
type QUICPort struct {
	// Connection
	connection *quic.Conn
	stream     *quic.Stream
	streamLock sync.RWMutex

	// Configuration
	address   string
	isServer  bool
	listener  *quic.Listener
	tlsConfig *tls.Config

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

// QUICPortConfig configures a QUIC port
type QUICPortConfig struct {
	Address   string      // "host:port" format
	IsServer  bool        // true = listen, false = connect
	TLSConfig *tls.Config // Optional TLS config (if nil, will generate self-signed cert)
}

// NewQUICPort creates a new QUIC port
func NewQUICPort(config QUICPortConfig) (*QUICPort, error) {
	if config.Address == "" {
		return nil, fmt.Errorf("address is required")
	}

	tlsConfig := config.TLSConfig
	if tlsConfig == nil {
		var err error
		tlsConfig, err = generateTLSConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to generate TLS config: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	qp := &QUICPort{
		address:   config.Address,
		isServer:  config.IsServer,
		tlsConfig: tlsConfig,
		epoch:     time.Now(),
		ctx:       ctx,
		cancel:    cancel,
	}
	qp.baud.Store(31250)

	if config.IsServer {
		if err := qp.startServer(); err != nil {
			cancel()
			return nil, err
		}
	} else {
		if err := qp.connect(); err != nil {
			cancel()
			return nil, err
		}
	}

	return qp, nil
}

// generateTLSConfig generates a self-signed certificate for QUIC
func generateTLSConfig() (*tls.Config, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		NotBefore:    time.Now(),
		NotAfter:     time.Now().Add(365 * 24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return nil, err
	}

	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})

	tlsCert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, err
	}

	return &tls.Config{
		Certificates:       []tls.Certificate{tlsCert},
		NextProtos:         []string{"turbomidi"},
		InsecureSkipVerify: true, // For self-signed certs
	}, nil
}

// startServer starts listening for an incoming QUIC connection
func (qp *QUICPort) startServer() error {
	listener, err := quic.ListenAddr(qp.address, qp.tlsConfig, nil)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", qp.address, err)
	}

	qp.listener = listener

	qp.wg.Add(1)
	go qp.acceptLoop()

	return nil
}

// acceptLoop accepts incoming QUIC connections, keeping only the newest
func (qp *QUICPort) acceptLoop() {
	defer qp.wg.Done()

	for {
		select {
		case <-qp.ctx.Done():
			return
		default:
		}

		conn, err := qp.listener.Accept(qp.ctx)
		if err != nil {
			if qp.closed.Load() {
				return
			}
			continue
		}

		stream, err := conn.AcceptStream(qp.ctx)
		if err != nil {
			conn.CloseWithError(0, "failed to accept stream")
			continue
		}

		qp.setStream(conn, stream)
	}
}

// connect establishes a QUIC connection to the remote server
func (qp *QUICPort) connect() error {
	conn, err := quic.DialAddr(qp.ctx, qp.address, qp.tlsConfig, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", qp.address, err)
	}

	stream, err := conn.OpenStreamSync(qp.ctx)
	if err != nil {
		conn.CloseWithError(0, "failed to open stream")
		return fmt.Errorf("failed to open stream: %w", err)
	}

	qp.setStream(conn, stream)
	return nil
}

// setStream installs a connection/stream pair and starts its read loop
func (qp *QUICPort) setStream(conn *quic.Conn, stream *quic.Stream) {
	qp.streamLock.Lock()
	if qp.stream != nil {
		qp.stream.Close()
	}
	if qp.connection != nil {
		qp.connection.CloseWithError(0, "new connection")
		qp.stats.disconnects.Add(1)
	}
	qp.connection = conn
	qp.stream = stream
	qp.stats.connects.Add(1)
	qp.streamLock.Unlock()

	qp.wg.Add(1)
	go qp.readLoop(stream)
}

// readLoop drains the stream into the inbound buffer
func (qp *QUICPort) readLoop(stream *quic.Stream) {
	defer qp.wg.Done()

	buf := make([]byte, 512)
	for {
		select {
		case <-qp.ctx.Done():
			return
		default:
		}

		stream.SetReadDeadline(time.Now().Add(1 * time.Second))
		n, err := stream.Read(buf)
		if n > 0 {
			qp.rxLock.Lock()
			qp.rx = append(qp.rx, buf[:n]...)
			qp.rxLock.Unlock()
			qp.stats.bytesReceived.Add(uint64(n))
		}
		if err != nil {
			if netErr, ok := err.(interface{ Timeout() bool }); ok && netErr.Timeout() {
				continue
			}
			qp.stats.readErrors.Add(1)
			qp.dropStream(stream)
			return
		}
	}
}

// dropStream closes a dead stream if it is still the current one
func (qp *QUICPort) dropStream(stream *quic.Stream) {
	qp.streamLock.Lock()
	defer qp.streamLock.Unlock()

	if qp.stream == stream {
		qp.stream.Close()
		qp.stream = nil
		if qp.connection != nil {
			qp.connection.CloseWithError(0, "read error")
			qp.stats.disconnects.Add(1)
			qp.connection = nil
		}
	}
}

// Send implements Port.Send
func (qp *QUICPort) Send(data []byte) {
	qp.streamLock.RLock()
	stream := qp.stream
	qp.streamLock.RUnlock()

	if stream == nil {
		qp.stats.writeErrors.Add(1)
		return
	}

	stream.SetWriteDeadline(time.Now().Add(1 * time.Second))
	if _, err := stream.Write(data); err != nil {
		qp.stats.writeErrors.Add(1)
		qp.dropStream(stream)
		return
	}
	qp.stats.bytesSent.Add(uint64(len(data)))
}

// Receive implements Port.Receive
func (qp *QUICPort) Receive(buf []byte) int {
	qp.rxLock.Lock()
	defer qp.rxLock.Unlock()

	n := copy(buf, qp.rx)
	qp.rx = qp.rx[n:]
	if len(qp.rx) == 0 {
		qp.rx = nil
	}
	return n
}

// Millis implements Port.Millis
func (qp *QUICPort) Millis() uint32 {
	return uint32(time.Since(qp.epoch).Milliseconds())
}

// SetBaud implements Port.SetBaud. Recorded only.
func (qp *QUICPort) SetBaud(rate uint32) {
	qp.baud.Store(rate)
}

// Baud returns the last recorded nominal rate
func (qp *QUICPort) Baud() uint32 {
	return qp.baud.Load()
}

// Sleep implements Port.Sleep
func (qp *QUICPort) Sleep(ms uint32) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

// Close shuts the port down
func (qp *QUICPort) Close() error {
	if !qp.closed.CompareAndSwap(false, true) {
		return nil // Already closed
	}

	qp.cancel()

	if qp.listener != nil {
		qp.listener.Close()
	}

	qp.streamLock.Lock()
	if qp.stream != nil {
		qp.stream.Close()
		qp.stream = nil
	}
	if qp.connection != nil {
		qp.connection.CloseWithError(0, "port closed")
		qp.stats.disconnects.Add(1)
		qp.connection = nil
	}
	qp.streamLock.Unlock()

	qp.wg.Wait()
	return nil
}

// IsConnected returns true if there is an active connection
func (qp *QUICPort) IsConnected() bool {
	qp.streamLock.RLock()
	defer qp.streamLock.RUnlock()
	return qp.connection != nil && qp.connection.Context().Err() == nil
}

// Statistics returns transport-level statistics
func (qp *QUICPort) Statistics() Stats {
	return Stats{
		BytesSent:     qp.stats.bytesSent.Load(),
		BytesReceived: qp.stats.bytesReceived.Load(),
		WriteErrors:   qp.stats.writeErrors.Load(),
		ReadErrors:    qp.stats.readErrors.Load(),
		Connects:      qp.stats.connects.Load(),
		Disconnects:   qp.stats.disconnects.Load(),
	}
}
