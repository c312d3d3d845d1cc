package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// DefaultAddr is the game's default telemetry port on all interfaces.
const DefaultAddr = "0.0.0.0:20777"

// minDatagram is the shortest datagram that still carries a packet kind.
const minDatagram = 7

type Listener struct {
	addr         string
	out          chan<- []byte
	source       net.IP
	handshake    string
	reconnect    time.Duration
	reconnectMax time.Duration
	bufSize      int
	readTimeout  time.Duration
	errorHandler func(error)
	log          *zap.Logger

	mu   sync.Mutex
	conn *net.UDPConn
	done chan struct{}

	received atomic.Uint64
	filtered atomic.Uint64
}

type Option func(*Listener)

func WithReconnectInterval(d time.Duration) Option {
	return func(l *Listener) {
		if d > 0 {
			l.reconnect = d
		}
	}
}

func WithReconnectMax(d time.Duration) Option {
	return func(l *Listener) {
		if d > 0 {
			l.reconnectMax = d
		}
	}
}

// WithBufferSize sets the largest datagram accepted; longer ones are truncated
// by the kernel.
func WithBufferSize(n int) Option {
	return func(l *Listener) {
		if n > 0 {
			l.bufSize = n
		}
	}
}

func WithReadTimeout(d time.Duration) Option {
	return func(l *Listener) {
		if d > 0 {
			l.readTimeout = d
		}
	}
}

// WithSource drops datagrams that do not come from ip.
func WithSource(ip string) Option {
	return func(l *Listener) {
		if parsed := net.ParseIP(ip); parsed != nil {
			l.source = parsed
		}
	}
}

// WithHandshake sends a single zero byte to addr after every bind. Consoles
// start streaming to the sender once they see it.
func WithHandshake(addr string) Option {
	return func(l *Listener) {
		l.handshake = addr
	}
}

func WithErrorHandler(fn func(error)) Option {
	return func(l *Listener) {
		if fn != nil {
			l.errorHandler = fn
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(l *Listener) {
		if log != nil {
			l.log = log
		}
	}
}

// StartListener binds addr and forwards every datagram to out until ctx is
// done. The first bind happens before it returns so the caller sees address
// errors directly; later socket failures are retried with backoff.
func StartListener(ctx context.Context, addr string, out chan<- []byte, opts ...Option) (*Listener, error) {
	if addr == "" {
		addr = DefaultAddr
	}
	l := &Listener{
		addr:         addr,
		out:          out,
		reconnect:    1 * time.Second,
		reconnectMax: 30 * time.Second,
		bufSize:      2048,
		readTimeout:  250 * time.Millisecond,
		log:          zap.NewNop(),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}

	conn, err := l.bind()
	if err != nil {
		return nil, err
	}
	go l.run(ctx, conn)
	return l, nil
}

// LocalAddr returns the bound address, or nil between rebinds.
func (l *Listener) LocalAddr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return nil
	}
	return l.conn.LocalAddr()
}

// Done is closed once the listener has released its socket.
func (l *Listener) Done() <-chan struct{} {
	return l.done
}

// Stats returns datagrams forwarded and datagrams filtered out.
func (l *Listener) Stats() (received, filtered uint64) {
	return l.received.Load(), l.filtered.Load()
}

func (l *Listener) bind() (*net.UDPConn, error) {
	laddr, err := net.ResolveUDPAddr("udp", l.addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", l.addr, err)
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", l.addr, err)
	}
	l.mu.Lock()
	l.conn = conn
	l.mu.Unlock()
	l.log.Info("udp bound", zap.Stringer("addr", conn.LocalAddr()))

	if l.handshake != "" {
		if err := l.sendHandshake(conn); err != nil {
			l.handleError(err)
		}
	}
	return conn, nil
}

func (l *Listener) sendHandshake(conn *net.UDPConn) error {
	raddr, err := net.ResolveUDPAddr("udp", l.handshake)
	if err != nil {
		return fmt.Errorf("resolve handshake %s: %w", l.handshake, err)
	}
	if _, err := conn.WriteToUDP([]byte{0x00}, raddr); err != nil {
		return fmt.Errorf("handshake %s: %w", l.handshake, err)
	}
	l.log.Info("handshake sent", zap.Stringer("to", raddr))
	return nil
}

func (l *Listener) release(conn *net.UDPConn) {
	_ = conn.Close()
	l.mu.Lock()
	if l.conn == conn {
		l.conn = nil
	}
	l.mu.Unlock()
}

func (l *Listener) run(ctx context.Context, conn *net.UDPConn) {
	defer close(l.done)
	attempt := 0
	for {
		err := l.readLoop(ctx, conn)
		l.release(conn)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			l.handleError(err)
		}

		for {
			attempt++
			l.sleepBackoff(ctx, attempt)
			if ctx.Err() != nil {
				return
			}
			conn, err = l.bind()
			if err == nil {
				attempt = 0
				break
			}
			l.handleError(err)
		}
	}
}

func (l *Listener) readLoop(ctx context.Context, conn *net.UDPConn) error {
	buf := make([]byte, l.bufSize)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if l.readTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(l.readTimeout))
		}
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				continue
			}
			return err
		}

		if l.source != nil && !l.source.Equal(from.IP) {
			l.filtered.Add(1)
			continue
		}
		if n < minDatagram {
			l.filtered.Add(1)
			continue
		}
		payload := append([]byte(nil), buf[:n]...)
		select {
		case l.out <- payload:
			l.received.Add(1)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (l *Listener) sleepBackoff(ctx context.Context, attempt int) {
	wait := min(l.reconnect*time.Duration(attempt), l.reconnectMax)
	timer := time.NewTimer(wait)
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
	timer.Stop()
}

func (l *Listener) handleError(err error) {
	l.log.Warn("udp listener error", zap.Error(err))
	if l.errorHandler != nil {
		l.errorHandler(err)
	}
}
