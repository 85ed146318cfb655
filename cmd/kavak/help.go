package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage information to the given writer.
func printUsage(w io.Writer) {
	fmt.Fprint(w, `kavak - Multi-column B+ tree index

Usage:
  kavak <command> [options]

Commands:
  create      Create a new index file
  put         Insert a key and record reference
  get         Look up the references stored under a key
  del         Remove one occurrence of a key
  scan        List entries in key order
  stats       Show index statistics
  inspect     Dump a single page
  version     Show version information

Use "kavak <command> -h" for more information about a command.
`)
}

// printCreateUsage prints the create command usage.
func printCreateUsage(w io.Writer) {
	fmt.Fprint(w, `Create a new index file

Usage:
  kavak create [options]

Options:
  -index string
        Index file path (required)
  -schema string
        Key schema, e.g. "int32,fixed(8)" (required)
  -page-size int
        Page size in bytes (default 4096)
  -config string
        Path to configuration file
  -h, -help
        Show this help message

Schema column types:
  int32, int64, float32, float64, fixed(N)
`)
}

// printPutUsage prints the put command usage.
func printPutUsage(w io.Writer) {
	fmt.Fprint(w, `Insert a key and record reference

Usage:
  kavak put [options]

Options:
  -index string
        Index file path (required)
  -key string
        Comma-separated column values, e.g. "42,orhan" (required)
  -ref uint
        Record reference to store (required)
  -h, -help
        Show this help message
`)
}

// printGetUsage prints the get command usage.
func printGetUsage(w io.Writer) {
	fmt.Fprint(w, `Look up the references stored under a key

Usage:
  kavak get [options]

Options:
  -index string
        Index file path (required)
  -key string
        Comma-separated column values (required)
  -h, -help
        Show this help message
`)
}

// printDelUsage prints the del command usage.
func printDelUsage(w io.Writer) {
	fmt.Fprint(w, `Remove one occurrence of a key

Usage:
  kavak del [options]

Options:
  -index string
        Index file path (required)
  -key string
        Comma-separated column values (required)
  -h, -help
        Show this help message
`)
}

// printScanUsage prints the scan command usage.
func printScanUsage(w io.Writer) {
	fmt.Fprint(w, `List entries in key order

Usage:
  kavak scan [options]

Options:
  -index string
        Index file path (required)
  -from string
        Inclusive lower bound key (default: open)
  -to string
        Inclusive upper bound key (default: open)
  -h, -help
        Show this help message
`)
}

// printStatsUsage prints the stats command usage.
func printStatsUsage(w io.Writer) {
	fmt.Fprint(w, `Show index statistics

Usage:
  kavak stats [options]

Options:
  -index string
        Index file path (required)
  -h, -help
        Show this help message
`)
}

// printInspectUsage prints the inspect command usage.
func printInspectUsage(w io.Writer) {
	fmt.Fprint(w, `Dump a single page

Usage:
  kavak inspect [options]

Options:
  -index string
        Index file path (required)
  -page uint
        Page number to dump (required)
  -h, -help
        Show this help message
`)
}

// printVersionUsage prints the version command usage.
func printVersionUsage(w io.Writer) {
	fmt.Fprint(w, `Show version information

Usage:
  kavak version [options]

Options:
  -short
        Show only version number
  -h, -help
        Show this help message
`)
}
