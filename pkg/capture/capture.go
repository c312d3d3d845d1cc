// Package capture records raw datagrams to a byte stream and reads them back
// for replay. Each record is the time the writer stored it (unix nanoseconds,
// little endian) followed by the datagram, COBS-encoded and terminated by 0x00.
package capture

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

const timestampSize = 8

var ErrShortRecord = errors.New("capture: record shorter than timestamp")

// Record is one captured datagram.
type Record struct {
	Time    time.Time
	Payload []byte
}

type Writer struct {
	mu sync.Mutex
	w  *bufio.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

func (cw *Writer) Write(rec Record) error {
	raw := make([]byte, timestampSize+len(rec.Payload))
	binary.LittleEndian.PutUint64(raw[:timestampSize], uint64(rec.Time.UnixNano()))
	copy(raw[timestampSize:], rec.Payload)

	cw.mu.Lock()
	defer cw.mu.Unlock()
	if _, err := cw.w.Write(CobsEncode(raw)); err != nil {
		return err
	}
	return cw.w.WriteByte(0x00)
}

func (cw *Writer) Flush() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	return cw.w.Flush()
}

// Consume records every datagram from in until ctx is done or in closes.
// Datagrams already queued on in when ctx ends are still written.
func (cw *Writer) Consume(ctx context.Context, in <-chan []byte) (err error) {
	defer func() {
		if ferr := cw.Flush(); ferr != nil && err == nil {
			err = fmt.Errorf("flush capture: %w", ferr)
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return cw.drain(in)
		case frame, ok := <-in:
			if !ok {
				return nil
			}
			if err := cw.record(frame); err != nil {
				return err
			}
		}
	}
}

func (cw *Writer) drain(in <-chan []byte) error {
	for {
		select {
		case frame, ok := <-in:
			if !ok {
				return nil
			}
			if err := cw.record(frame); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (cw *Writer) record(frame []byte) error {
	if err := cw.Write(Record{Time: time.Now(), Payload: frame}); err != nil {
		return fmt.Errorf("write capture: %w", err)
	}
	return nil
}

type Reader struct {
	r *bufio.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReaderSize(r, 64*1024)}
}

// Next returns the next record, or io.EOF when the stream ends. A trailing
// record without its delimiter is still returned.
func (cr *Reader) Next() (Record, error) {
	for {
		frame, err := cr.r.ReadBytes(0x00)
		if err != nil && (err != io.EOF || len(frame) == 0) {
			return Record{}, err
		}
		if len(frame) > 0 && frame[len(frame)-1] == 0x00 {
			frame = frame[:len(frame)-1]
		}
		if len(frame) == 0 {
			continue
		}
		raw, derr := CobsDecode(frame)
		if derr != nil {
			return Record{}, derr
		}
		if len(raw) < timestampSize {
			return Record{}, ErrShortRecord
		}
		ts := int64(binary.LittleEndian.Uint64(raw[:timestampSize]))
		return Record{
			Time:    time.Unix(0, ts),
			Payload: raw[timestampSize:],
		}, nil
	}
}

// Replay feeds every record to send, spacing them by their recorded gaps
// divided by speed. speed <= 0 sends as fast as possible.
func Replay(ctx context.Context, r *Reader, speed float64, send func([]byte) error) (int, error) {
	var prev time.Time
	sent := 0
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return sent, nil
		}
		if err != nil {
			return sent, err
		}
		if speed > 0 && !prev.IsZero() {
			if gap := rec.Time.Sub(prev); gap > 0 {
				timer := time.NewTimer(time.Duration(float64(gap) / speed))
				select {
				case <-ctx.Done():
					timer.Stop()
					return sent, ctx.Err()
				case <-timer.C:
				}
			}
		}
		prev = rec.Time
		if err := send(rec.Payload); err != nil {
			return sent, err
		}
		sent++
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
	}
}
