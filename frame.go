package serial

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// CarriageReturn terminates an incoming line.
const CarriageReturn byte = '\r'

// EncodeFrame builds the bytes written for one message: start + msg + end.
func EncodeFrame(start StartMarker, msg string, end EndMarker) []byte {
	var b bytes.Buffer
	b.Grow(len(msg) + 2)
	b.WriteString(start.Sequence())
	b.WriteString(msg)
	b.WriteString(end.Sequence())
	return b.Bytes()
}

// DecodeLine validates raw as UTF-8 and trims surrounding whitespace,
// including the terminating carriage return.
func DecodeLine(raw []byte) (string, error) {
	valid, _, err := transform.Bytes(encoding.UTF8Validator, raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return strings.TrimSpace(string(valid)), nil
}

// splitThrough cuts buf after the first delim. ok is false when delim is absent.
func splitThrough(buf []byte, delim byte) (line, rest []byte, ok bool) {
	idx := bytes.IndexByte(buf, delim)
	if idx < 0 {
		return nil, buf, false
	}
	line = append([]byte(nil), buf[:idx+1]...)
	rest = buf[idx+1:]
	return line, rest, true
}
