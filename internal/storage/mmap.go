// Package storage provides the page file layer for the KavakDB index engine.
package storage

import "errors"

// ErrMmapUnsupported is returned by mapFile on platforms without memory
// mapping support; callers fall back to regular file reads.
var ErrMmapUnsupported = errors.New("memory mapping not supported on this platform")
