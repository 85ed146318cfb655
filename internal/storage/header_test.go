package storage

import (
	"errors"
	"testing"
)

func TestFileHeaderRoundTrip(t *testing.T) {
	h := NewFileHeader(4096, "int32,fixed(12)")
	h.TotalPages = 9
	h.RootPage = 3
	h.LookupHead = 7

	buf := make([]byte, 4096)
	if err := h.SerializeTo(buf); err != nil {
		t.Fatalf("SerializeTo failed: %v", err)
	}

	got := &FileHeader{}
	if err := got.DeserializeAndValidate(buf); err != nil {
		t.Fatalf("DeserializeAndValidate failed: %v", err)
	}

	if got.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", got.Version, CurrentVersion)
	}
	if got.PageSize != 4096 {
		t.Errorf("PageSize = %d, want 4096", got.PageSize)
	}
	if got.TotalPages != 9 {
		t.Errorf("TotalPages = %d, want 9", got.TotalPages)
	}
	if got.RootPage != 3 {
		t.Errorf("RootPage = %d, want 3", got.RootPage)
	}
	if got.LookupHead != 7 {
		t.Errorf("LookupHead = %d, want 7", got.LookupHead)
	}
	if got.Schema != "int32,fixed(12)" {
		t.Errorf("Schema = %q, want %q", got.Schema, "int32,fixed(12)")
	}
}

func TestFileHeaderRejectsBadMagic(t *testing.T) {
	h := NewFileHeader(4096, "int64")
	buf := make([]byte, 4096)
	if err := h.SerializeTo(buf); err != nil {
		t.Fatalf("SerializeTo failed: %v", err)
	}

	buf[0] = 'X'

	got := &FileHeader{}
	if err := got.DeserializeAndValidate(buf); !errors.Is(err, ErrInvalidMagic) {
		t.Errorf("expected ErrInvalidMagic, got %v", err)
	}
}

func TestFileHeaderRejectsBadVersion(t *testing.T) {
	h := NewFileHeader(4096, "int64")
	h.Version = CurrentVersion + 1
	buf := make([]byte, 4096)
	if err := h.SerializeTo(buf); err != nil {
		t.Fatalf("SerializeTo failed: %v", err)
	}

	got := &FileHeader{}
	if err := got.DeserializeAndValidate(buf); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestFileHeaderDetectsCorruption(t *testing.T) {
	h := NewFileHeader(4096, "int32,int64")
	buf := make([]byte, 4096)
	if err := h.SerializeTo(buf); err != nil {
		t.Fatalf("SerializeTo failed: %v", err)
	}

	// Flip one byte inside the root page field.
	buf[21] ^= 0xFF

	got := &FileHeader{}
	if err := got.DeserializeAndValidate(buf); !errors.Is(err, ErrHeaderChecksum) {
		t.Errorf("expected ErrHeaderChecksum, got %v", err)
	}
}

func TestFileHeaderChecksumCoversSchema(t *testing.T) {
	h := NewFileHeader(4096, "int32,fixed(3)")
	buf := make([]byte, 4096)
	if err := h.SerializeTo(buf); err != nil {
		t.Fatalf("SerializeTo failed: %v", err)
	}

	// Corrupt a schema byte past the fixed fields.
	buf[headerFixedSize] ^= 0xFF

	got := &FileHeader{}
	if err := got.DeserializeAndValidate(buf); !errors.Is(err, ErrHeaderChecksum) {
		t.Errorf("expected ErrHeaderChecksum, got %v", err)
	}
}

func TestFileHeaderSchemaTooLarge(t *testing.T) {
	schema := make([]byte, MinPageSize)
	for i := range schema {
		schema[i] = 'a'
	}

	h := NewFileHeader(MinPageSize, string(schema))
	buf := make([]byte, MinPageSize)
	if err := h.SerializeTo(buf); !errors.Is(err, ErrSchemaTooLarge) {
		t.Errorf("expected ErrSchemaTooLarge, got %v", err)
	}
}
