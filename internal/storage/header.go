// Package storage provides the page file layer for the KavakDB index engine.
package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
)

// File header constants.
const (
	// MagicByte* spell "KVK\x00", the magic bytes identifying a KavakDB
	// index file.
	MagicByte0 = 'K'
	MagicByte1 = 'V'
	MagicByte2 = 'K'
	MagicByte3 = 0x00

	// CurrentVersion is the current file format version.
	CurrentVersion uint32 = 1

	// headerFixedSize is the size of the fixed header fields before the
	// schema text.
	// Layout:
	//   - Bytes 0-3:   Magic ("KVK\x00")
	//   - Bytes 4-7:   Version (uint32)
	//   - Bytes 8-11:  PageSize (uint32)
	//   - Bytes 12-19: TotalPages (uint64)
	//   - Bytes 20-27: RootPage (PageID/uint64)
	//   - Bytes 28-35: LookupHead (PageID/uint64)
	//   - Bytes 36-39: Checksum (uint32, CRC32 with this field zeroed)
	//   - Bytes 40-41: SchemaLen (uint16)
	//   - Bytes 42-..: Schema text
	headerFixedSize = 42
)

// Magic is the magic number for KavakDB index files.
var Magic = [4]byte{MagicByte0, MagicByte1, MagicByte2, MagicByte3}

// Errors for file header operations.
var (
	ErrInvalidMagic       = errors.New("invalid magic number: not a KavakDB index file")
	ErrUnsupportedVersion = errors.New("unsupported file format version")
	ErrHeaderChecksum     = errors.New("file header checksum mismatch")
	ErrInvalidHeaderSize  = errors.New("invalid header buffer size")
	ErrSchemaTooLarge     = errors.New("schema text does not fit in header page")
)

// FileHeader is the content of page 0 of an index file. All multi-byte
// fields are big-endian.
type FileHeader struct {
	Magic      [4]byte // "KVK\x00"
	Version    uint32  // file format version
	PageSize   uint32  // page size in bytes
	TotalPages uint64  // pages allocated, header page included
	RootPage   PageID  // root node of the tree, 0 while empty
	LookupHead PageID  // head of the free-page lookup chain, 0 if none
	Schema     string  // key schema in its compact text form
}

// NewFileHeader creates a header for a fresh index file.
func NewFileHeader(pageSize uint32, schema string) *FileHeader {
	return &FileHeader{
		Magic:      Magic,
		Version:    CurrentVersion,
		PageSize:   pageSize,
		TotalPages: 1, // the header page itself
		RootPage:   InvalidPageID,
		LookupHead: InvalidPageID,
		Schema:     schema,
	}
}

// SerializeTo writes the header into buf, which must be a full page. The
// checksum is computed over the serialized bytes with the checksum field
// zeroed, so it covers the schema text as well.
func (h *FileHeader) SerializeTo(buf []byte) error {
	need := headerFixedSize + len(h.Schema)
	if len(buf) < need {
		if need > len(buf) && len(buf) >= headerFixedSize {
			return fmt.Errorf("%w: %d bytes of schema", ErrSchemaTooLarge, len(h.Schema))
		}
		return ErrInvalidHeaderSize
	}

	for i := range buf {
		buf[i] = 0
	}

	copy(buf[0:4], h.Magic[:])
	binary.BigEndian.PutUint32(buf[4:8], h.Version)
	binary.BigEndian.PutUint32(buf[8:12], h.PageSize)
	binary.BigEndian.PutUint64(buf[12:20], h.TotalPages)
	binary.BigEndian.PutUint64(buf[20:28], uint64(h.RootPage))
	binary.BigEndian.PutUint64(buf[28:36], uint64(h.LookupHead))
	// Checksum at 36:40 stays zero until computed below.
	binary.BigEndian.PutUint16(buf[40:42], uint16(len(h.Schema)))
	copy(buf[headerFixedSize:], h.Schema)

	checksum := crc32.ChecksumIEEE(buf[:need])
	binary.BigEndian.PutUint32(buf[36:40], checksum)

	return nil
}

// DeserializeAndValidate reads the header from buf and verifies magic,
// version, and checksum. Any failure aborts the open; a header is never
// partially trusted.
func (h *FileHeader) DeserializeAndValidate(buf []byte) error {
	if len(buf) < headerFixedSize {
		return ErrInvalidHeaderSize
	}

	copy(h.Magic[:], buf[0:4])
	if h.Magic != Magic {
		return ErrInvalidMagic
	}

	h.Version = binary.BigEndian.Uint32(buf[4:8])
	if h.Version == 0 || h.Version > CurrentVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}

	h.PageSize = binary.BigEndian.Uint32(buf[8:12])
	h.TotalPages = binary.BigEndian.Uint64(buf[12:20])
	h.RootPage = PageID(binary.BigEndian.Uint64(buf[20:28]))
	h.LookupHead = PageID(binary.BigEndian.Uint64(buf[28:36]))

	stored := binary.BigEndian.Uint32(buf[36:40])
	schemaLen := int(binary.BigEndian.Uint16(buf[40:42]))
	if headerFixedSize+schemaLen > len(buf) {
		return ErrInvalidHeaderSize
	}
	h.Schema = string(buf[headerFixedSize : headerFixedSize+schemaLen])

	// Recompute with the checksum field zeroed.
	scratch := make([]byte, headerFixedSize+schemaLen)
	copy(scratch, buf[:headerFixedSize+schemaLen])
	scratch[36], scratch[37], scratch[38], scratch[39] = 0, 0, 0, 0
	if crc32.ChecksumIEEE(scratch) != stored {
		return ErrHeaderChecksum
	}

	return nil
}
