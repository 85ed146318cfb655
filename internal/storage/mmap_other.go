//go:build !unix

// Package storage provides the page file layer for the KavakDB index engine.
package storage

import "os"

// mapFile is unavailable on this platform; the pager falls back to file
// reads.
func mapFile(_ *os.File, _ int) ([]byte, error) {
	return nil, ErrMmapUnsupported
}

// unmapFile is unavailable on this platform.
func unmapFile(_ []byte) error {
	return ErrMmapUnsupported
}
