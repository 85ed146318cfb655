//go:build unix

// Package storage provides the page file layer for the KavakDB index engine.
package storage

import (
	"os"

	"golang.org/x/sys/unix"
)

// mapFile maps size bytes of f read-only into memory.
func mapFile(f *os.File, size int) ([]byte, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// unmapFile releases a mapping created by mapFile.
func unmapFile(data []byte) error {
	return unix.Munmap(data)
}
