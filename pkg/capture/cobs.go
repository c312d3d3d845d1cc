package capture

import "errors"

var (
	ErrCobsZeroCode  = errors.New("capture: invalid COBS code 0x00")
	ErrCobsTruncated = errors.New("capture: COBS frame truncated")
)

// CobsEncode encodes data so the result contains no 0x00 byte. The caller
// appends the delimiter.
func CobsEncode(data []byte) []byte {
	out := make([]byte, 1, len(data)+len(data)/254+2)
	codeIdx := 0
	code := byte(1)
	for _, b := range data {
		if b != 0 {
			out = append(out, b)
			code++
		}
		if b == 0 || code == 0xFF {
			out[codeIdx] = code
			codeIdx = len(out)
			out = append(out, 0)
			code = 1
		}
	}
	out[codeIdx] = code
	return out
}

// CobsDecode decodes a COBS frame without the trailing 0x00 delimiter.
func CobsDecode(frame []byte) ([]byte, error) {
	if len(frame) == 0 {
		return nil, nil
	}

	out := make([]byte, 0, len(frame))
	for i := 0; i < len(frame); {
		code := frame[i]
		if code == 0 {
			return nil, ErrCobsZeroCode
		}
		i++

		count := int(code) - 1
		if i+count > len(frame) {
			return nil, ErrCobsTruncated
		}

		out = append(out, frame[i:i+count]...)
		i += count

		if code != 0xFF && i < len(frame) {
			out = append(out, 0x00)
		}
	}

	return out, nil
}
