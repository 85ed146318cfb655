// Package config provides configuration for the KavakDB index engine.
package config

import (
	"errors"
	"fmt"
)

// On-disk layout constants shared by the capacity derivation here and the
// page serializers in internal/bptree. All multi-byte fields are big-endian.
const (
	// NodeHeaderSize is the size of the common node header written at the
	// start of every node page: persisted tag (1 byte), reserved (1 byte),
	// capacity (uint16).
	NodeHeaderSize = 4

	// PageRefSize is the size of an on-disk page reference (uint64).
	PageRefSize = 8

	// RecordRefSize is the size of an on-disk record reference (uint64).
	RecordRefSize = 8

	// LeafMetaSize is the fixed overhead of a leaf page: node header plus
	// previous and next sibling references.
	LeafMetaSize = NodeHeaderSize + 2*PageRefSize

	// InternalMetaSize is the fixed overhead of an internal page.
	InternalMetaSize = NodeHeaderSize

	// OverflowMetaSize is the fixed overhead of a leaf-overflow page: node
	// header plus the next-in-chain reference.
	OverflowMetaSize = NodeHeaderSize + PageRefSize

	// LookupMetaSize is the fixed overhead of a lookup-overflow (free list)
	// page: node header plus the next-in-chain reference.
	LookupMetaSize = NodeHeaderSize + PageRefSize
)

// DefaultPageSize is the default index page size in bytes.
const DefaultPageSize = 4096

// Errors for configuration construction and validation.
var (
	ErrInvalidPageSize   = errors.New("invalid page size")
	ErrPageSizeTooSmall  = errors.New("page size too small for schema")
	ErrInvalidThresholds = errors.New("capacity thresholds are incoherent")
)

// Config holds everything the node, validator, and codec layers need: the
// page geometry, the key schema, and the per-kind capacity thresholds.
//
// The threshold fields are computed by New from the page size and key size,
// but are plain fields so callers (tests, tuning) may override them before
// use; Validate catches incoherent combinations.
type Config struct {
	// PageSize is the size of every page in the index file, in bytes.
	PageSize int

	// Schema is the composite key column layout.
	Schema Schema

	// MaxLeafKeys is the maximum number of keys in a leaf page.
	MaxLeafKeys int
	// MinLeafKeys is the merge threshold for non-root leaf pages.
	MinLeafKeys int
	// MaxInternalKeys is the maximum number of separator keys in an
	// internal page.
	MaxInternalKeys int
	// MinInternalKeys is the merge threshold for non-root internal pages.
	MinInternalKeys int
	// MaxOverflowEntries is the maximum number of continuation entries in a
	// leaf-overflow page.
	MaxOverflowEntries int
	// MaxLookupEntries is the maximum number of free-page references in a
	// lookup-overflow page.
	MaxLookupEntries int
}

// New derives a Config from the page size and schema. The capacity
// thresholds follow directly from the fixed entry sizes of each page layout.
func New(pageSize int, schema Schema) (*Config, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPageSize, pageSize)
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	keySize := schema.KeySize()

	cfg := &Config{
		PageSize:           pageSize,
		Schema:             schema,
		MaxLeafKeys:        (pageSize - LeafMetaSize) / (keySize + RecordRefSize + PageRefSize),
		MaxInternalKeys:    (pageSize - InternalMetaSize - PageRefSize) / (keySize + PageRefSize),
		MaxOverflowEntries: (pageSize - OverflowMetaSize) / (keySize + RecordRefSize),
		MaxLookupEntries:   (pageSize - LookupMetaSize) / PageRefSize,
	}
	// Splitting a full leaf leaves max/2 keys on the smaller side; splitting
	// a full internal node also promotes the separator, leaving (max-1)/2.
	// The minimums sit exactly at those floors so a fresh split is valid.
	cfg.MinLeafKeys = cfg.MaxLeafKeys / 2
	cfg.MinInternalKeys = (cfg.MaxInternalKeys - 1) / 2

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a Config for the default page size and the given schema.
func Default(schema Schema) (*Config, error) {
	return New(DefaultPageSize, schema)
}

// KeySize returns the encoded size of one key under this configuration.
func (c *Config) KeySize() int {
	return c.Schema.KeySize()
}

// Validate checks that the configuration is internally coherent: the schema
// is well formed, every maximum accommodates at least a minimal split, and
// no minimum exceeds its maximum.
func (c *Config) Validate() error {
	if c.PageSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, c.PageSize)
	}
	if err := c.Schema.Validate(); err != nil {
		return err
	}

	// A page must hold enough entries for splits and merges to make
	// progress: at least two keys per leaf/internal page, one per overflow.
	if c.MaxLeafKeys < 2 || c.MaxInternalKeys < 2 {
		return fmt.Errorf("%w: key size %d does not fit page size %d",
			ErrPageSizeTooSmall, c.KeySize(), c.PageSize)
	}
	if c.MaxOverflowEntries < 1 || c.MaxLookupEntries < 1 {
		return fmt.Errorf("%w: key size %d does not fit page size %d",
			ErrPageSizeTooSmall, c.KeySize(), c.PageSize)
	}

	if c.MinLeafKeys < 0 || c.MinLeafKeys > c.MaxLeafKeys {
		return fmt.Errorf("%w: leaf min %d, max %d",
			ErrInvalidThresholds, c.MinLeafKeys, c.MaxLeafKeys)
	}
	if c.MinInternalKeys < 0 || c.MinInternalKeys > c.MaxInternalKeys {
		return fmt.Errorf("%w: internal min %d, max %d",
			ErrInvalidThresholds, c.MinInternalKeys, c.MaxInternalKeys)
	}

	return nil
}
