package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func openTestPager(t *testing.T) *Pager {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.kvk")
	opts := DefaultOptions()
	opts.Schema = "int32,fixed(8)"

	p, err := Open(path, opts)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		if !p.closed {
			p.Close()
		}
	})
	return p
}

func TestOpenCreatesFile(t *testing.T) {
	p := openTestPager(t)

	if p.TotalPages() != 1 {
		t.Errorf("TotalPages = %d, want 1 (header only)", p.TotalPages())
	}
	if p.Root() != InvalidPageID {
		t.Errorf("Root = %d, want InvalidPageID", p.Root())
	}
	if p.SchemaText() != "int32,fixed(8)" {
		t.Errorf("SchemaText = %q", p.SchemaText())
	}
}

func TestAllocateWriteRead(t *testing.T) {
	p := openTestPager(t)

	id, err := p.AllocatePage()
	if err != nil {
		t.Fatalf("AllocatePage failed: %v", err)
	}
	if id != 1 {
		t.Errorf("first allocated page = %d, want 1", id)
	}

	buf := make([]byte, p.PageSize())
	copy(buf, []byte("hello page"))
	if err := p.WritePage(id, buf); err != nil {
		t.Fatalf("WritePage failed: %v", err)
	}

	got, err := p.ReadPage(id)
	if err != nil {
		t.Fatalf("ReadPage failed: %v", err)
	}
	if string(got[:10]) != "hello page" {
		t.Errorf("page content = %q", got[:10])
	}

	// Second read exercises the cache path.
	got2, err := p.ReadPage(id)
	if err != nil {
		t.Fatalf("second ReadPage failed: %v", err)
	}
	if string(got2[:10]) != "hello page" {
		t.Errorf("cached page content = %q", got2[:10])
	}
}

func TestWriteInvalidatesCache(t *testing.T) {
	p := openTestPager(t)

	id, err := p.AllocatePage()
	if err != nil {
		t.Fatalf("AllocatePage failed: %v", err)
	}

	first := make([]byte, p.PageSize())
	copy(first, []byte("version-1"))
	if err := p.WritePage(id, first); err != nil {
		t.Fatalf("WritePage failed: %v", err)
	}
	if _, err := p.ReadPage(id); err != nil {
		t.Fatalf("ReadPage failed: %v", err)
	}

	second := make([]byte, p.PageSize())
	copy(second, []byte("version-2"))
	if err := p.WritePage(id, second); err != nil {
		t.Fatalf("WritePage failed: %v", err)
	}

	got, err := p.ReadPage(id)
	if err != nil {
		t.Fatalf("ReadPage failed: %v", err)
	}
	if string(got[:9]) != "version-2" {
		t.Errorf("stale page content after write: %q", got[:9])
	}
}

func TestPagerBoundsChecks(t *testing.T) {
	p := openTestPager(t)

	if _, err := p.ReadPage(0); !errors.Is(err, ErrInvalidPageID) {
		t.Errorf("ReadPage(0) error = %v, want ErrInvalidPageID", err)
	}
	if _, err := p.ReadPage(99); !errors.Is(err, ErrPageOutOfRange) {
		t.Errorf("ReadPage(99) error = %v, want ErrPageOutOfRange", err)
	}

	buf := make([]byte, 10)
	id, _ := p.AllocatePage()
	if err := p.WritePage(id, buf); !errors.Is(err, ErrBadPageBuffer) {
		t.Errorf("short WritePage error = %v, want ErrBadPageBuffer", err)
	}
}

func TestPagerPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.kvk")
	opts := DefaultOptions()
	opts.Schema = "int64"

	p, err := Open(path, opts)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	id, err := p.AllocatePage()
	if err != nil {
		t.Fatalf("AllocatePage failed: %v", err)
	}
	buf := make([]byte, p.PageSize())
	copy(buf, []byte("durable"))
	if err := p.WritePage(id, buf); err != nil {
		t.Fatalf("WritePage failed: %v", err)
	}
	p.SetRoot(id)
	if err := p.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := Open(path, DefaultOptions())
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	if reopened.Root() != id {
		t.Errorf("Root after reopen = %d, want %d", reopened.Root(), id)
	}
	if reopened.SchemaText() != "int64" {
		t.Errorf("SchemaText after reopen = %q", reopened.SchemaText())
	}
	got, err := reopened.ReadPage(id)
	if err != nil {
		t.Fatalf("ReadPage after reopen failed: %v", err)
	}
	if string(got[:7]) != "durable" {
		t.Errorf("page content after reopen = %q", got[:7])
	}
}

func TestOpenRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.kvk")
	if err := os.WriteFile(path, make([]byte, 4096), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	_, err := Open(path, DefaultOptions())
	if err == nil {
		t.Fatal("expected error opening zeroed file")
	}
	if !errors.Is(err, ErrInvalidMagic) {
		t.Errorf("error = %v, want ErrInvalidMagic", err)
	}
}

func TestReadOnlyPager(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ro.kvk")
	opts := DefaultOptions()
	opts.Schema = "int32"

	p, err := Open(path, opts)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	id, _ := p.AllocatePage()
	buf := make([]byte, p.PageSize())
	copy(buf, []byte("ro-data"))
	if err := p.WritePage(id, buf); err != nil {
		t.Fatalf("WritePage failed: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	roOpts := DefaultOptions()
	roOpts.ReadOnly = true
	roOpts.UseMmap = true
	ro, err := Open(path, roOpts)
	if err != nil {
		t.Fatalf("read-only Open failed: %v", err)
	}
	defer ro.Close()

	got, err := ro.ReadPage(id)
	if err != nil {
		t.Fatalf("ReadPage failed: %v", err)
	}
	if string(got[:7]) != "ro-data" {
		t.Errorf("page content = %q", got[:7])
	}

	if err := ro.WritePage(id, buf); !errors.Is(err, ErrReadOnly) {
		t.Errorf("WritePage on read-only pager error = %v, want ErrReadOnly", err)
	}
	if _, err := ro.AllocatePage(); !errors.Is(err, ErrReadOnly) {
		t.Errorf("AllocatePage on read-only pager error = %v, want ErrReadOnly", err)
	}
}
