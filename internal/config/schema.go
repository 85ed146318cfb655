// Package config provides configuration for the KavakDB index engine.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ColumnType identifies the type of one key column.
type ColumnType uint8

const (
	// Int32 is a 4-byte signed integer column.
	Int32 ColumnType = iota
	// Int64 is an 8-byte signed integer column.
	Int64
	// Float32 is a 4-byte IEEE 754 column.
	Float32
	// Float64 is an 8-byte IEEE 754 column.
	Float64
	// FixedString is a fixed-width byte string column. The width is part of
	// the column descriptor; values must encode to exactly that many bytes.
	FixedString
)

// String returns the string representation of a ColumnType.
func (ct ColumnType) String() string {
	switch ct {
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case FixedString:
		return "fixed"
	default:
		return "unknown"
	}
}

// Errors for schema operations.
var (
	ErrEmptySchema        = errors.New("schema has no columns")
	ErrInvalidColumnType  = errors.New("invalid column type")
	ErrInvalidColumnWidth = errors.New("invalid column width")
	ErrMalformedSchema    = errors.New("malformed schema definition")
)

// Column describes one column of the composite key.
// Width is only meaningful for FixedString columns; for the numeric types it
// is implied by the type.
type Column struct {
	Type  ColumnType
	Width int
}

// EncodedWidth returns the number of bytes this column occupies in an
// encoded key.
func (c Column) EncodedWidth() int {
	switch c.Type {
	case Int32, Float32:
		return 4
	case Int64, Float64:
		return 8
	case FixedString:
		return c.Width
	default:
		return 0
	}
}

// Validate checks that the column descriptor is well formed.
func (c Column) Validate() error {
	switch c.Type {
	case Int32, Int64, Float32, Float64:
		return nil
	case FixedString:
		if c.Width <= 0 {
			return fmt.Errorf("%w: fixed string width %d", ErrInvalidColumnWidth, c.Width)
		}
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrInvalidColumnType, uint8(c.Type))
	}
}

// Schema is the ordered, immutable list of key column descriptors shared by
// every key in an index file.
type Schema []Column

// KeySize returns the total encoded size of one key in bytes.
func (s Schema) KeySize() int {
	size := 0
	for _, c := range s {
		size += c.EncodedWidth()
	}
	return size
}

// Validate checks that the schema is non-empty and every column is well
// formed.
func (s Schema) Validate() error {
	if len(s) == 0 {
		return ErrEmptySchema
	}
	for i, c := range s {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("column %d: %w", i, err)
		}
	}
	return nil
}

// String returns the compact text form of the schema, parseable by
// ParseSchema.
func (s Schema) String() string {
	parts := make([]string, len(s))
	for i, c := range s {
		if c.Type == FixedString {
			parts[i] = fmt.Sprintf("fixed(%d)", c.Width)
		} else {
			parts[i] = c.Type.String()
		}
	}
	return strings.Join(parts, ",")
}

// ParseSchema parses the compact text form of a schema, for example
// "int32,fixed(12),float64". Whitespace around columns is ignored.
func ParseSchema(text string) (Schema, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptySchema
	}

	parts := strings.Split(text, ",")
	schema := make(Schema, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		col, err := parseColumn(part)
		if err != nil {
			return nil, err
		}
		schema = append(schema, col)
	}

	if err := schema.Validate(); err != nil {
		return nil, err
	}

	return schema, nil
}

// parseColumn parses a single column descriptor.
func parseColumn(text string) (Column, error) {
	switch text {
	case "int32":
		return Column{Type: Int32}, nil
	case "int64":
		return Column{Type: Int64}, nil
	case "float32":
		return Column{Type: Float32}, nil
	case "float64":
		return Column{Type: Float64}, nil
	}

	// fixed(N)
	if strings.HasPrefix(text, "fixed(") && strings.HasSuffix(text, ")") {
		inner := text[len("fixed(") : len(text)-1]
		width, err := strconv.Atoi(inner)
		if err != nil {
			return Column{}, fmt.Errorf("%w: %q", ErrInvalidColumnWidth, text)
		}
		col := Column{Type: FixedString, Width: width}
		if err := col.Validate(); err != nil {
			return Column{}, err
		}
		return col, nil
	}

	return Column{}, fmt.Errorf("%w: %q", ErrMalformedSchema, text)
}
