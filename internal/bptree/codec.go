package bptree

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/kavak-db/kavak/internal/config"
)

// Codec errors.
var (
	// ErrTruncatedKey signals an encoded key stream shorter than the schema
	// demands. Decoding never pads or truncates silently.
	ErrTruncatedKey = errors.New("truncated encoded key")

	// ErrEncodeBuffer signals an encode destination too small for the key.
	ErrEncodeBuffer = errors.New("encode buffer too small for key")
)

// EncodeKey writes the key's columns into buf in schema order and returns
// the number of bytes written. Numeric columns use their fixed-width
// big-endian representation; FixedString columns are written as exactly the
// declared width of raw bytes. The key must have been built with NewKey, so
// widths already match; a mismatch slipping through is still rejected here
// rather than corrupting every column after it.
func EncodeKey(key Key, schema config.Schema, buf []byte) (int, error) {
	if len(key) != len(schema) {
		return 0, fmt.Errorf("%w: got %d values for %d columns",
			ErrKeyArity, len(key), len(schema))
	}
	if len(buf) < schema.KeySize() {
		return 0, fmt.Errorf("%w: need %d bytes, have %d",
			ErrEncodeBuffer, schema.KeySize(), len(buf))
	}

	offset := 0
	for i, col := range schema {
		v := key[i]
		if v.kind != col.Type {
			return 0, fmt.Errorf("%w: column %d is %s, value is %s",
				ErrKeyColumnMismatch, i, col.Type, v.kind)
		}

		switch col.Type {
		case config.Int32:
			binary.BigEndian.PutUint32(buf[offset:], uint32(int32(v.i)))
			offset += 4
		case config.Int64:
			binary.BigEndian.PutUint64(buf[offset:], uint64(v.i))
			offset += 8
		case config.Float32:
			binary.BigEndian.PutUint32(buf[offset:], math.Float32bits(float32(v.f)))
			offset += 4
		case config.Float64:
			binary.BigEndian.PutUint64(buf[offset:], math.Float64bits(v.f))
			offset += 8
		case config.FixedString:
			if len(v.s) != col.Width {
				return 0, fmt.Errorf("%w: column %d wants %d bytes, value has %d",
					ErrKeyColumnMismatch, i, col.Width, len(v.s))
			}
			copy(buf[offset:], v.s)
			offset += col.Width
		}
	}

	return offset, nil
}

// DecodeKey reads one key from buf in schema order and returns the key and
// the number of bytes consumed. A stream shorter than the schema's key size
// is a fatal format error.
func DecodeKey(schema config.Schema, buf []byte) (Key, int, error) {
	if len(buf) < schema.KeySize() {
		return nil, 0, fmt.Errorf("%w: need %d bytes, have %d",
			ErrTruncatedKey, schema.KeySize(), len(buf))
	}

	key := make(Key, len(schema))
	offset := 0

	for i, col := range schema {
		switch col.Type {
		case config.Int32:
			key[i] = Int32Value(int32(binary.BigEndian.Uint32(buf[offset:])))
			offset += 4
		case config.Int64:
			key[i] = Int64Value(int64(binary.BigEndian.Uint64(buf[offset:])))
			offset += 8
		case config.Float32:
			key[i] = Float32Value(math.Float32frombits(binary.BigEndian.Uint32(buf[offset:])))
			offset += 4
		case config.Float64:
			key[i] = Float64Value(math.Float64frombits(binary.BigEndian.Uint64(buf[offset:])))
			offset += 8
		case config.FixedString:
			key[i] = StringValue(string(buf[offset : offset+col.Width]))
			offset += col.Width
		}
	}

	return key, offset, nil
}

// FormatKey renders the key as a bracketed, space-delimited list of column
// values in schema order. Diagnostics only; never persisted.
func FormatKey(key Key, schema config.Schema) string {
	var b strings.Builder
	b.WriteByte('[')

	for i := range schema {
		if i > 0 {
			b.WriteByte(' ')
		}
		if i >= len(key) {
			b.WriteByte('?')
			continue
		}
		v := key[i]
		switch v.kind {
		case config.Int32, config.Int64:
			fmt.Fprintf(&b, "%d", v.i)
		case config.Float32:
			fmt.Fprintf(&b, "%g", float32(v.f))
		case config.Float64:
			fmt.Fprintf(&b, "%g", v.f)
		case config.FixedString:
			b.WriteString(v.s)
		}
	}

	b.WriteByte(']')
	return b.String()
}

// FprintKey writes the diagnostic rendering of the key to w.
func FprintKey(w io.Writer, key Key, schema config.Schema) {
	fmt.Fprintln(w, FormatKey(key, schema))
}
