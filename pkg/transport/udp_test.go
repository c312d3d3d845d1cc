package transport_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/Wesleyxl/pitcrew-ai/pkg/transport"
)

func startListener(t *testing.T, out chan []byte, opts ...transport.Option) (*transport.Listener, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	opts = append([]transport.Option{transport.WithReadTimeout(20 * time.Millisecond)}, opts...)
	l, err := transport.StartListener(ctx, "127.0.0.1:0", out, opts...)
	if err != nil {
		cancel()
		t.Fatalf("start listener: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		select {
		case <-l.Done():
		case <-time.After(time.Second):
			t.Errorf("listener did not stop")
		}
	})
	return l, cancel
}

func dial(t *testing.T, l *transport.Listener) *net.UDPConn {
	t.Helper()
	conn, err := net.DialUDP("udp", nil, l.LocalAddr().(*net.UDPAddr))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestListenerForwardsDatagrams(t *testing.T) {
	out := make(chan []byte, 4)
	l, _ := startListener(t, out)
	conn := dial(t, l)

	first := []byte{0xE8, 0x07, 0x18, 0x01, 0x00, 0x01, 0x02, 0xAA}
	if _, err := conn.Write(first); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := conn.Write([]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x0A}); err != nil {
		t.Fatalf("write: %v", err)
	}

	got := readFrame(t, out)
	if string(got) != string(first) {
		t.Fatalf("unexpected first datagram: %v", got)
	}
	second := readFrame(t, out)
	if len(second) != 7 || second[6] != 0x0A {
		t.Fatalf("unexpected second datagram: %v", second)
	}
	first[7] = 0xBB
	if got[7] != 0xAA {
		t.Fatalf("forwarded datagram aliases caller memory")
	}
}

func TestListenerDropsTinyDatagrams(t *testing.T) {
	out := make(chan []byte, 4)
	l, _ := startListener(t, out)
	conn := dial(t, l)

	if _, err := conn.Write([]byte{1, 2, 3, 4, 5, 6}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := conn.Write([]byte{1, 2, 3, 4, 5, 6, 7}); err != nil {
		t.Fatalf("write: %v", err)
	}
	got := readFrame(t, out)
	if len(got) != 7 {
		t.Fatalf("expected the 7-byte datagram first, got %v", got)
	}
	if _, filtered := l.Stats(); filtered != 1 {
		t.Fatalf("expected 1 filtered datagram, got %d", filtered)
	}
}

func TestListenerSourceFilter(t *testing.T) {
	out := make(chan []byte, 4)
	l, _ := startListener(t, out, transport.WithSource("192.0.2.10"))
	conn := dial(t, l)

	if _, err := conn.Write(make([]byte, 32)); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case frame := <-out:
		t.Fatalf("datagram from wrong source forwarded: %v", frame)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestListenerSendsHandshake(t *testing.T) {
	console, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen console: %v", err)
	}
	defer console.Close()

	out := make(chan []byte, 1)
	l, _ := startListener(t, out, transport.WithHandshake(console.LocalAddr().String()))

	_ = console.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 8)
	n, from, err := console.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("read handshake: %v", err)
	}
	if n != 1 || buf[0] != 0x00 {
		t.Fatalf("unexpected handshake: %v", buf[:n])
	}
	if from.Port != l.LocalAddr().(*net.UDPAddr).Port {
		t.Fatalf("handshake sent from %v, listener bound to %v", from, l.LocalAddr())
	}
}

func TestListenerBindError(t *testing.T) {
	if _, err := transport.StartListener(context.Background(), "256.0.0.1:bad", make(chan []byte)); err == nil {
		t.Fatalf("expected bind error")
	}
}

func readFrame(t *testing.T, ch <-chan []byte) []byte {
	t.Helper()
	select {
	case frame := <-ch:
		return frame
	case <-time.After(1 * time.Second):
		t.Fatalf("timeout waiting for frame")
		return nil
	}
}
