// Package config provides configuration for the KavakDB index engine.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Parser errors.
var (
	ErrFileNotFound   = errors.New("configuration file not found")
	ErrMalformedLine  = errors.New("malformed configuration line")
	ErrUnknownSetting = errors.New("unknown configuration setting")
)

// FileConfig holds the settings loadable from a kavak configuration file.
// The index geometry itself lives in the index file header; the file config
// only carries creation defaults and CLI preferences.
type FileConfig struct {
	PageSize  int    // page size used when creating new index files
	Schema    string // schema text used when creating new index files
	LogLevel  string // debug, info, warn, error
	LogFormat string // text or json
}

// DefaultFileConfig returns the built-in defaults.
func DefaultFileConfig() *FileConfig {
	return &FileConfig{
		PageSize:  DefaultPageSize,
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// LoadFile loads a configuration file from the given path.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	return ParseFileConfig(data)
}

// ParseFileConfig parses configuration data in the flat "key: value" format:
//
//	# kavak configuration
//	pageSize: 4096
//	schema: int32,fixed(12)
//	logLevel: info
//	logFormat: text
//
// Blank lines and lines starting with '#' are ignored. Unknown settings are
// rejected rather than silently dropped.
func ParseFileConfig(data []byte) (*FileConfig, error) {
	cfg := DefaultFileConfig()

	for lineNo, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, ":")
		if !found {
			return nil, fmt.Errorf("%w: line %d: %q", ErrMalformedLine, lineNo+1, line)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "pageSize":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: pageSize %q", ErrMalformedLine, lineNo+1, value)
			}
			cfg.PageSize = n
		case "schema":
			cfg.Schema = value
		case "logLevel":
			cfg.LogLevel = value
		case "logFormat":
			cfg.LogFormat = value
		default:
			return nil, fmt.Errorf("%w: line %d: %q", ErrUnknownSetting, lineNo+1, key)
		}
	}

	return cfg, nil
}
