package protocol

import "fmt"

// layout describes a run of fixed-size entries inside a datagram: the offset
// of the first entry, the distance between entries and how a single entry is
// read and written. Nine packet kinds are built from one or more of these.
type layout[T any] struct {
	base   int
	stride int
	read   func(r *reader) T
	write  func(w *writer, v T)
}

// end returns the offset just past n entries.
func (l layout[T]) end(n int) int {
	return l.base + n*l.stride
}

// decode reads n entries. Each entry gets its own reader bounded to stride
// bytes, so a layout that reads too far fails instead of bleeding into the
// next entry.
func (l layout[T]) decode(buf []byte, n int) ([]T, error) {
	if n < 0 || l.end(n) > len(buf) {
		return nil, ErrShortBuffer
	}
	out := make([]T, n)
	for i := range out {
		start := l.base + i*l.stride
		r := newReader(buf[start:start+l.stride], 0)
		out[i] = l.read(r)
		if r.err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, r.err)
		}
	}
	return out, nil
}

// decodeAt reads the single entry at slot i.
func (l layout[T]) decodeAt(buf []byte, i int) (T, error) {
	var zero T
	start := l.base + i*l.stride
	if i < 0 || start+l.stride > len(buf) {
		return zero, ErrShortBuffer
	}
	r := newReader(buf[start:start+l.stride], 0)
	v := l.read(r)
	if r.err != nil {
		return zero, r.err
	}
	return v, nil
}

func (l layout[T]) encode(buf []byte, entries []T) {
	for i, v := range entries {
		l.write(newWriter(buf, l.base+i*l.stride), v)
	}
}

func (l layout[T]) encodeAt(buf []byte, i int, v T) {
	l.write(newWriter(buf, l.base+i*l.stride), v)
}
