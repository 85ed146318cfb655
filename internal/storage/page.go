// Package storage provides the page file layer for the KavakDB index engine.
package storage

// PageID identifies one page in an index file. Page 0 holds the file
// header, so 0 doubles as the invalid/null reference for tree pages.
type PageID uint64

// InvalidPageID is the null page reference.
const InvalidPageID PageID = 0

// MinPageSize is the smallest page size the pager accepts. Below this the
// file header alone does not fit.
const MinPageSize = 512
