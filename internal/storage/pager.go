// Package storage provides the page file layer for the KavakDB index engine.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// Errors for pager operations.
var (
	ErrPagerClosed    = errors.New("pager is closed")
	ErrReadOnly       = errors.New("pager is read-only")
	ErrInvalidPageID  = errors.New("invalid page ID")
	ErrPageOutOfRange = errors.New("page ID out of range")
	ErrBadPageBuffer  = errors.New("page buffer size does not match page size")
)

// Options configures the Pager.
type Options struct {
	PageSize    int    // page size for new files (default 4096)
	Schema      string // schema text for new files, required when creating
	CreateIfNew bool   // create the file if it does not exist
	ReadOnly    bool   // open in read-only mode
	SyncOnWrite bool   // fsync after every page write
	CacheBytes  int64  // read cache budget; <= 0 disables the cache
	UseMmap     bool   // map the file for reads (read-only pagers only)
}

// DefaultOptions returns the default pager options.
func DefaultOptions() Options {
	return Options{
		PageSize:    4096,
		CreateIfNew: true,
		CacheBytes:  DefaultCacheBytes,
	}
}

// Pager owns an index file handle and provides whole-page random access.
// It hands out page buffers; what the bytes mean is the tree's business.
type Pager struct {
	file        *os.File
	header      *FileHeader
	pageSize    int
	totalPages  uint64
	cache       *pageCache
	mapped      []byte
	mu          sync.RWMutex
	path        string
	readOnly    bool
	syncOnWrite bool
	closed      bool
	headerDirty bool
}

// Open opens or creates the index file at path.
func Open(path string, opts Options) (*Pager, error) {
	if opts.PageSize == 0 {
		opts.PageSize = 4096
	}
	if opts.PageSize < MinPageSize {
		return nil, fmt.Errorf("%w: %d", ErrBadPageBuffer, opts.PageSize)
	}

	p := &Pager{
		pageSize:    opts.PageSize,
		path:        path,
		readOnly:    opts.ReadOnly,
		syncOnWrite: opts.SyncOnWrite,
	}

	_, err := os.Stat(path)
	fileExists := err == nil
	if !fileExists && (!opts.CreateIfNew || opts.ReadOnly) {
		return nil, os.ErrNotExist
	}

	flags := os.O_RDWR
	if opts.ReadOnly {
		flags = os.O_RDONLY
	} else if !fileExists {
		flags |= os.O_CREATE
	}

	p.file, err = os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open index file: %w", err)
	}

	if fileExists {
		err = p.loadExisting()
	} else {
		err = p.initializeNew(opts.Schema)
	}
	if err != nil {
		p.file.Close()
		if !fileExists {
			os.Remove(path)
		}
		return nil, err
	}

	p.cache, err = newPageCache(opts.CacheBytes, p.pageSize)
	if err != nil {
		p.file.Close()
		return nil, fmt.Errorf("failed to create page cache: %w", err)
	}

	if opts.ReadOnly && opts.UseMmap {
		size := int(p.totalPages) * p.pageSize
		mapped, err := mapFile(p.file, size)
		if err == nil {
			p.mapped = mapped
		}
		// Mapping failure is not fatal; reads fall back to the file.
	}

	return p, nil
}

// loadExisting reads and validates the header of an existing file.
func (p *Pager) loadExisting() error {
	// The page size lives in the header, which we have not read yet. Read
	// a minimal prefix first, then re-read the full header page.
	prefix := make([]byte, MinPageSize)
	if _, err := p.file.ReadAt(prefix, 0); err != nil && err != io.EOF {
		return fmt.Errorf("failed to read header: %w", err)
	}

	probe := &FileHeader{}
	if err := probe.DeserializeAndValidate(prefix); err != nil {
		// The schema text or checksum may extend past the probe; retry
		// with the declared page size if the prefix parse failed on size.
		if !errors.Is(err, ErrInvalidHeaderSize) {
			return fmt.Errorf("invalid header: %w", err)
		}
	}

	pageSize := int(probe.PageSize)
	if pageSize < MinPageSize {
		return fmt.Errorf("invalid header: %w", ErrInvalidMagic)
	}

	buf := make([]byte, pageSize)
	if _, err := p.file.ReadAt(buf, 0); err != nil && err != io.EOF {
		return fmt.Errorf("failed to read header: %w", err)
	}

	p.header = &FileHeader{}
	if err := p.header.DeserializeAndValidate(buf); err != nil {
		return fmt.Errorf("invalid header: %w", err)
	}

	p.pageSize = pageSize
	p.totalPages = p.header.TotalPages
	return nil
}

// initializeNew writes the header page of a fresh file.
func (p *Pager) initializeNew(schema string) error {
	if p.readOnly {
		return ErrReadOnly
	}

	p.header = NewFileHeader(uint32(p.pageSize), schema)
	p.totalPages = 1

	if err := p.writeHeaderLocked(); err != nil {
		return err
	}

	if err := p.file.Truncate(int64(p.pageSize)); err != nil {
		return fmt.Errorf("failed to size index file: %w", err)
	}

	return p.file.Sync()
}

// writeHeaderLocked serializes the header to page 0. Callers hold the lock
// (or are in single-threaded setup).
func (p *Pager) writeHeaderLocked() error {
	buf := make([]byte, p.pageSize)
	p.header.TotalPages = p.totalPages
	if err := p.header.SerializeTo(buf); err != nil {
		return fmt.Errorf("failed to serialize header: %w", err)
	}
	if _, err := p.file.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	p.headerDirty = false
	return nil
}

// ReadPage returns a copy of the page with the given ID.
func (p *Pager) ReadPage(id PageID) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrPagerClosed
	}
	if id == 0 {
		return nil, ErrInvalidPageID
	}
	if uint64(id) >= p.totalPages {
		return nil, fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, id, p.totalPages)
	}

	if buf := p.cache.get(id); buf != nil {
		out := make([]byte, len(buf))
		copy(out, buf)
		return out, nil
	}

	buf := make([]byte, p.pageSize)
	offset := int64(id) * int64(p.pageSize)

	if p.mapped != nil && int(offset)+p.pageSize <= len(p.mapped) {
		copy(buf, p.mapped[offset:int(offset)+p.pageSize])
	} else {
		n, err := p.file.ReadAt(buf, offset)
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("failed to read page %d: %w", id, err)
		}
		if n < p.pageSize {
			return nil, fmt.Errorf("incomplete read of page %d: %d of %d bytes", id, n, p.pageSize)
		}
	}

	p.cache.put(id, buf)
	return buf, nil
}

// WritePage writes a full page buffer at the page's offset and invalidates
// any cached copy.
func (p *Pager) WritePage(id PageID, buf []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPagerClosed
	}
	if p.readOnly {
		return ErrReadOnly
	}
	if id == 0 {
		return ErrInvalidPageID
	}
	if uint64(id) >= p.totalPages {
		return fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, id, p.totalPages)
	}
	if len(buf) != p.pageSize {
		return fmt.Errorf("%w: %d bytes for page size %d", ErrBadPageBuffer, len(buf), p.pageSize)
	}

	offset := int64(id) * int64(p.pageSize)
	if _, err := p.file.WriteAt(buf, offset); err != nil {
		return fmt.Errorf("failed to write page %d: %w", id, err)
	}

	p.cache.drop(id)

	if p.syncOnWrite {
		if err := p.file.Sync(); err != nil {
			return fmt.Errorf("failed to sync after write: %w", err)
		}
	}

	return nil
}

// AllocatePage grows the file by one page and returns its ID. The new page
// is zeroed. Freed-page recycling happens above the pager, in the tree's
// lookup chain.
func (p *Pager) AllocatePage() (PageID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return InvalidPageID, ErrPagerClosed
	}
	if p.readOnly {
		return InvalidPageID, ErrReadOnly
	}

	id := PageID(p.totalPages)
	newSize := int64(p.totalPages+1) * int64(p.pageSize)
	if err := p.file.Truncate(newSize); err != nil {
		return InvalidPageID, fmt.Errorf("failed to grow index file: %w", err)
	}

	p.totalPages++
	p.headerDirty = true
	return id, nil
}

// Root returns the root page reference from the header.
func (p *Pager) Root() PageID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.header.RootPage
}

// SetRoot updates the root page reference. The header is persisted on the
// next Sync or Close.
func (p *Pager) SetRoot(id PageID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.header.RootPage = id
	p.headerDirty = true
}

// LookupHead returns the head of the free-page lookup chain.
func (p *Pager) LookupHead() PageID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.header.LookupHead
}

// SetLookupHead updates the head of the free-page lookup chain.
func (p *Pager) SetLookupHead(id PageID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.header.LookupHead = id
	p.headerDirty = true
}

// SchemaText returns the schema stored in the file header.
func (p *Pager) SchemaText() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.header.Schema
}

// PageSize returns the page size in bytes.
func (p *Pager) PageSize() int {
	return p.pageSize
}

// TotalPages returns the number of pages in the file, header included.
func (p *Pager) TotalPages() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.totalPages
}

// Path returns the index file path.
func (p *Pager) Path() string {
	return p.path
}

// IsReadOnly reports whether the pager was opened read-only.
func (p *Pager) IsReadOnly() bool {
	return p.readOnly
}

// Sync persists the header if dirty and flushes the file.
func (p *Pager) Sync() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPagerClosed
	}
	if p.readOnly {
		return nil
	}

	if p.headerDirty {
		if err := p.writeHeaderLocked(); err != nil {
			return err
		}
	}
	return p.file.Sync()
}

// Close flushes state and releases the file, cache, and mapping.
func (p *Pager) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPagerClosed
	}
	p.closed = true

	var firstErr error
	if !p.readOnly && p.headerDirty {
		if err := p.writeHeaderLocked(); err != nil {
			firstErr = err
		}
	}
	if !p.readOnly {
		if err := p.file.Sync(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if p.mapped != nil {
		if err := unmapFile(p.mapped); err != nil && firstErr == nil {
			firstErr = err
		}
		p.mapped = nil
	}

	p.cache.close()

	if err := p.file.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Stats reports pager statistics.
type Stats struct {
	TotalPages    uint64
	PageSize      int
	FileSizeBytes int64
}

// Stats returns current statistics.
func (p *Pager) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Stats{
		TotalPages:    p.totalPages,
		PageSize:      p.pageSize,
		FileSizeBytes: int64(p.totalPages) * int64(p.pageSize),
	}
}
