// Package storage provides the page file layer for the KavakDB index
// engine.
//
// # Overview
//
// An index file is a sequence of fixed-size pages. Page 0 is the file
// header (magic number, format version, page geometry, root and free-list
// references, and the key schema); every other page belongs to the B+ tree
// layered on top.
//
// The Pager owns the file handle and exposes random access to whole pages:
//
//	p, err := storage.Open(path, storage.DefaultOptions())
//	buf, err := p.ReadPage(id)
//	err = p.WritePage(id, buf)
//	id, err := p.AllocatePage()
//
// The pager does not know what is inside a page; node layout, capacity
// rules, and free-page recycling live in internal/bptree. The pager only
// grows the file; reusing freed pages is the tree's job, because the free
// list itself is stored in tree pages.
//
// # Caching
//
// Reads go through a ristretto cache keyed by page ID with the page size as
// cost, so the cache budget is expressed in bytes. Writes invalidate the
// cached copy.
//
// # Memory mapping
//
// Read-only pagers can map the file instead of issuing pread calls. The
// mapping is advisory: on platforms without mmap support the pager falls
// back to file reads.
package storage
