package capture_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/Wesleyxl/pitcrew-ai/pkg/capture"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := capture.NewWriter(&buf)

	base := time.Unix(1700000000, 123456789)
	records := []capture.Record{
		{Time: base, Payload: []byte{0xE8, 0x07, 0x18, 0x01, 0x00, 0x01, 0x02}},
		{Time: base.Add(20 * time.Millisecond), Payload: []byte{0x00, 0x00, 0x00}},
		{Time: base.Add(40 * time.Millisecond), Payload: []byte{}},
	}
	for _, rec := range records {
		if err := w.Write(rec); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	r := capture.NewReader(&buf)
	for i, want := range records {
		got, err := r.Next()
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		if !got.Time.Equal(want.Time) {
			t.Fatalf("record %d: time %v want %v", i, got.Time, want.Time)
		}
		if !bytes.Equal(got.Payload, want.Payload) {
			t.Fatalf("record %d: payload %v want %v", i, got.Payload, want.Payload)
		}
	}
	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestReaderRejectsShortRecord(t *testing.T) {
	frame := append(capture.CobsEncode([]byte{0x01, 0x02}), 0x00)
	r := capture.NewReader(bytes.NewReader(frame))
	if _, err := r.Next(); !errors.Is(err, capture.ErrShortRecord) {
		t.Fatalf("expected ErrShortRecord, got %v", err)
	}
}

func TestConsumeRecordsUntilClosed(t *testing.T) {
	var buf bytes.Buffer
	w := capture.NewWriter(&buf)
	in := make(chan []byte, 2)
	in <- []byte{0x01}
	in <- []byte{0x02, 0x03}
	close(in)

	if err := w.Consume(context.Background(), in); err != nil {
		t.Fatalf("consume: %v", err)
	}

	r := capture.NewReader(&buf)
	count := 0
	for {
		_, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		count++
	}
	if count != 2 {
		t.Fatalf("expected 2 records, got %d", count)
	}
}

func TestConsumeDrainsQueuedOnCancel(t *testing.T) {
	var buf bytes.Buffer
	w := capture.NewWriter(&buf)
	in := make(chan []byte, 3)
	in <- []byte{0x0A}
	in <- []byte{0x0B}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Consume(ctx, in); err != nil {
		t.Fatalf("consume: %v", err)
	}

	r := capture.NewReader(&buf)
	for _, want := range []byte{0x0A, 0x0B} {
		rec, err := r.Next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if len(rec.Payload) != 1 || rec.Payload[0] != want {
			t.Fatalf("unexpected payload: %v", rec.Payload)
		}
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestConsumeReportsFlushError(t *testing.T) {
	w := capture.NewWriter(failingWriter{})
	in := make(chan []byte, 1)
	in <- []byte{0x01, 0x02}
	close(in)

	err := w.Consume(context.Background(), in)
	if err == nil {
		t.Fatalf("expected flush error")
	}
	if err.Error() != "flush capture: disk full" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestConsumeStampsWriteTime(t *testing.T) {
	var buf bytes.Buffer
	w := capture.NewWriter(&buf)
	in := make(chan []byte, 1)
	in <- []byte{0x07}
	close(in)

	before := time.Now()
	if err := w.Consume(context.Background(), in); err != nil {
		t.Fatalf("consume: %v", err)
	}
	after := time.Now()

	rec, err := capture.NewReader(&buf).Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if rec.Time.Before(before.Round(0)) || rec.Time.After(after.Round(0)) {
		t.Fatalf("record time %v outside [%v, %v]", rec.Time, before, after)
	}
}

func TestReplaySendsInOrder(t *testing.T) {
	var buf bytes.Buffer
	w := capture.NewWriter(&buf)
	base := time.Now()
	for i := 0; i < 3; i++ {
		if err := w.Write(capture.Record{Time: base.Add(time.Duration(i) * time.Millisecond), Payload: []byte{byte(i)}}); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	var got []byte
	n, err := capture.Replay(context.Background(), capture.NewReader(&buf), 0, func(p []byte) error {
		got = append(got, p...)
		return nil
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if n != 3 || !bytes.Equal(got, []byte{0, 1, 2}) {
		t.Fatalf("unexpected replay: n=%d payloads=%v", n, got)
	}
}

func TestReplayStopsOnSendError(t *testing.T) {
	var buf bytes.Buffer
	w := capture.NewWriter(&buf)
	for i := 0; i < 3; i++ {
		_ = w.Write(capture.Record{Time: time.Now(), Payload: []byte{byte(i)}})
	}
	_ = w.Flush()

	boom := errors.New("boom")
	n, err := capture.Replay(context.Background(), capture.NewReader(&buf), 0, func([]byte) error {
		return boom
	})
	if !errors.Is(err, boom) || n != 0 {
		t.Fatalf("expected send error after 0 records, got n=%d err=%v", n, err)
	}
}
