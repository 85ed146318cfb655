package bptree

import (
	"errors"
	"fmt"

	"github.com/kavak-db/kavak/internal/config"
)

// Errors for key construction.
var (
	// ErrKeyColumnMismatch signals a value whose type or width does not
	// match the schema column it is aligned with. Keys are validated at
	// construction so the codec never has to guess.
	ErrKeyColumnMismatch = errors.New("key value does not match schema column")

	// ErrKeyArity signals a key with the wrong number of columns.
	ErrKeyArity = errors.New("key has wrong number of columns")
)

// Value is one column value of a composite key. It is a tagged union over
// the closed column type set; use the typed constructors below. The zero
// Value is an Int32 zero.
type Value struct {
	kind config.ColumnType
	i    int64
	f    float64
	s    string
}

// Int32Value returns an Int32 column value.
func Int32Value(v int32) Value {
	return Value{kind: config.Int32, i: int64(v)}
}

// Int64Value returns an Int64 column value.
func Int64Value(v int64) Value {
	return Value{kind: config.Int64, i: v}
}

// Float32Value returns a Float32 column value.
func Float32Value(v float32) Value {
	return Value{kind: config.Float32, f: float64(v)}
}

// Float64Value returns a Float64 column value.
func Float64Value(v float64) Value {
	return Value{kind: config.Float64, f: v}
}

// StringValue returns a FixedString column value. The string's byte length
// must equal the column width declared in the schema; NewKey enforces this.
func StringValue(v string) Value {
	return Value{kind: config.FixedString, s: v}
}

// Kind returns the column type of the value.
func (v Value) Kind() config.ColumnType {
	return v.kind
}

// Int32 returns the value as int32. Only meaningful for Int32 values.
func (v Value) Int32() int32 { return int32(v.i) }

// Int64 returns the value as int64. Only meaningful for Int64 values.
func (v Value) Int64() int64 { return v.i }

// Float32 returns the value as float32. Only meaningful for Float32 values.
func (v Value) Float32() float32 { return float32(v.f) }

// Float64 returns the value as float64. Only meaningful for Float64 values.
func (v Value) Float64() float64 { return v.f }

// String returns the value as a string. Only meaningful for FixedString
// values.
func (v Value) String() string { return v.s }

// Key is an ordered tuple of column values aligned 1:1 with the schema.
type Key []Value

// NewKey builds a Key from values, validating each against the schema
// column it aligns with. A type mismatch, an arity mismatch, or a
// FixedString whose byte length differs from the declared width is a
// construction-time error; nothing downstream has to re-check boundaries.
func NewKey(schema config.Schema, values ...Value) (Key, error) {
	if len(values) != len(schema) {
		return nil, fmt.Errorf("%w: got %d values for %d columns",
			ErrKeyArity, len(values), len(schema))
	}

	for i, v := range values {
		col := schema[i]
		if v.kind != col.Type {
			return nil, fmt.Errorf("%w: column %d is %s, value is %s",
				ErrKeyColumnMismatch, i, col.Type, v.kind)
		}
		if col.Type == config.FixedString && len(v.s) != col.Width {
			return nil, fmt.Errorf("%w: column %d wants %d bytes, value has %d",
				ErrKeyColumnMismatch, i, col.Width, len(v.s))
		}
	}

	key := make(Key, len(values))
	copy(key, values)
	return key, nil
}

// Equal reports whether two keys are identical column for column.
func (k Key) Equal(other Key) bool {
	return k.Compare(other) == 0
}

// Compare orders two keys column by column. Both keys must have been built
// against the same schema; comparing keys of different shapes is a caller
// contract violation and ties break on the shorter key.
func (k Key) Compare(other Key) int {
	n := len(k)
	if len(other) < n {
		n = len(other)
	}

	for i := 0; i < n; i++ {
		if c := compareValues(k[i], other[i]); c != 0 {
			return c
		}
	}

	switch {
	case len(k) < len(other):
		return -1
	case len(k) > len(other):
		return 1
	}
	return 0
}

// compareValues orders two values of the same column type.
func compareValues(a, b Value) int {
	switch a.kind {
	case config.Int32, config.Int64:
		switch {
		case a.i < b.i:
			return -1
		case a.i > b.i:
			return 1
		}
		return 0
	case config.Float32, config.Float64:
		switch {
		case a.f < b.f:
			return -1
		case a.f > b.f:
			return 1
		}
		return 0
	case config.FixedString:
		switch {
		case a.s < b.s:
			return -1
		case a.s > b.s:
			return 1
		}
		return 0
	default:
		return 0
	}
}
