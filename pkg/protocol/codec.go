package protocol

import (
	"encoding/binary"
	"math"
)

// reader is a little-endian cursor. Every read is bounds-checked; the first
// out-of-range read latches ErrShortBuffer and later reads return zero values.
type reader struct {
	buf []byte
	off int
	err error
}

func newReader(buf []byte, off int) *reader {
	return &reader{buf: buf, off: off}
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.off < 0 || n < 0 || r.off+n > len(r.buf) {
		r.err = ErrShortBuffer
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

// fail latches err unless an earlier failure is already recorded.
func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *reader) skip(n int) {
	r.take(n)
}

func (r *reader) u8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) i8() int8 {
	return int8(r.u8())
}

func (r *reader) u16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *reader) i16() int16 {
	return int16(r.u16())
}

func (r *reader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) f32() float32 {
	return math.Float32frombits(r.u32())
}

func (r *reader) f64() float64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

func (r *reader) text(n int) string {
	b := r.take(n)
	if b == nil {
		return ""
	}
	return ParseText(b)
}

func (r *reader) u8x4() (v [4]uint8) {
	for i := range v {
		v[i] = r.u8()
	}
	return v
}

func (r *reader) u16x4() (v [4]uint16) {
	for i := range v {
		v[i] = r.u16()
	}
	return v
}

func (r *reader) f32x4() (v [4]float32) {
	for i := range v {
		v[i] = r.f32()
	}
	return v
}

// writer is the encoding mirror of reader. Encoders size their buffers
// up front, so an overflow is a programming error and panics.
type writer struct {
	buf []byte
	off int
}

func newWriter(buf []byte, off int) *writer {
	return &writer{buf: buf, off: off}
}

func (w *writer) skip(n int) {
	w.off += n
}

func (w *writer) u8(v uint8) {
	w.buf[w.off] = v
	w.off++
}

func (w *writer) i8(v int8) {
	w.u8(uint8(v))
}

func (w *writer) u16(v uint16) {
	binary.LittleEndian.PutUint16(w.buf[w.off:w.off+2], v)
	w.off += 2
}

func (w *writer) i16(v int16) {
	w.u16(uint16(v))
}

func (w *writer) u32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[w.off:w.off+4], v)
	w.off += 4
}

func (w *writer) f32(v float32) {
	w.u32(math.Float32bits(v))
}

func (w *writer) f64(v float64) {
	binary.LittleEndian.PutUint64(w.buf[w.off:w.off+8], math.Float64bits(v))
	w.off += 8
}

// text writes s into a fixed n-byte field, truncating and NUL-padding.
func (w *writer) text(s string, n int) {
	field := w.buf[w.off : w.off+n]
	c := copy(field, s)
	clear(field[c:])
	w.off += n
}

func (w *writer) u8x4(v [4]uint8) {
	for _, x := range v {
		w.u8(x)
	}
}

func (w *writer) u16x4(v [4]uint16) {
	for _, x := range v {
		w.u16(x)
	}
}

func (w *writer) f32x4(v [4]float32) {
	for _, x := range v {
		w.f32(x)
	}
}
