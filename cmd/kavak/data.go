// Package main provides data commands for the kavak index CLI.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/kavak-db/kavak/internal/bptree"
	"github.com/kavak-db/kavak/internal/config"
)

// parseKeyArg parses a comma-separated CLI key into a Key against the
// schema. FixedString values shorter than the column width are right-padded
// with spaces; longer values are rejected.
func parseKeyArg(schema config.Schema, arg string) (bptree.Key, error) {
	parts := strings.Split(arg, ",")
	if len(parts) != len(schema) {
		return nil, fmt.Errorf("key has %d values, schema has %d columns", len(parts), len(schema))
	}

	values := make([]bptree.Value, len(parts))
	for i, part := range parts {
		col := schema[i]
		switch col.Type {
		case config.Int32:
			n, err := strconv.ParseInt(part, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("column %d: %q is not an int32", i, part)
			}
			values[i] = bptree.Int32Value(int32(n))
		case config.Int64:
			n, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("column %d: %q is not an int64", i, part)
			}
			values[i] = bptree.Int64Value(n)
		case config.Float32:
			f, err := strconv.ParseFloat(part, 32)
			if err != nil {
				return nil, fmt.Errorf("column %d: %q is not a float32", i, part)
			}
			values[i] = bptree.Float32Value(float32(f))
		case config.Float64:
			f, err := strconv.ParseFloat(part, 64)
			if err != nil {
				return nil, fmt.Errorf("column %d: %q is not a float64", i, part)
			}
			values[i] = bptree.Float64Value(f)
		case config.FixedString:
			if len(part) > col.Width {
				return nil, fmt.Errorf("column %d: %q exceeds width %d", i, part, col.Width)
			}
			padded := part + strings.Repeat(" ", col.Width-len(part))
			values[i] = bptree.StringValue(padded)
		}
	}

	return bptree.NewKey(schema, values...)
}

// openTree opens an existing index for a data command.
func openTree(path string, readOnly bool) (*bptree.BPlusTree, error) {
	if path == "" {
		return nil, errors.New("-index is required")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("index %s not found", path)
	}

	opts := bptree.DefaultOptions()
	opts.ReadOnly = readOnly
	opts.UseMmap = readOnly
	return bptree.Open(path, opts)
}

// dataCmdImpl shares the wiring of the single-key data commands.
type dataCmdImpl struct {
	stdout io.Writer
	stderr io.Writer
}

func newDataCmdImpl() *dataCmdImpl {
	return &dataCmdImpl{stdout: os.Stdout, stderr: os.Stderr}
}

// putCmd handles the put command.
func putCmd(args []string) int {
	d := newDataCmdImpl()

	fs := flag.NewFlagSet("put", flag.ContinueOnError)
	fs.SetOutput(d.stderr)

	indexPath := fs.String("index", "", "Index file path (required)")
	keyArg := fs.String("key", "", "Comma-separated column values (required)")
	ref := fs.Uint64("ref", 0, "Record reference to store (required)")
	help := fs.Bool("h", false, "Show help message")
	helpLong := fs.Bool("help", false, "Show help message")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *help || *helpLong {
		printPutUsage(d.stdout)
		return 0
	}
	if *keyArg == "" {
		fmt.Fprintln(d.stderr, "Error: -key is required")
		return 1
	}

	tree, err := openTree(*indexPath, false)
	if err != nil {
		fmt.Fprintf(d.stderr, "Error: %v\n", err)
		return 1
	}
	defer tree.Close()

	key, err := parseKeyArg(tree.Config().Schema, *keyArg)
	if err != nil {
		fmt.Fprintf(d.stderr, "Error: %v\n", err)
		return 1
	}

	if err := tree.Insert(key, *ref); err != nil {
		fmt.Fprintf(d.stderr, "Error: %v\n", err)
		return 1
	}
	if err := tree.Sync(); err != nil {
		fmt.Fprintf(d.stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintf(d.stdout, "Stored %s -> %d\n", bptree.FormatKey(key, tree.Config().Schema), *ref)
	return 0
}

// getCmd handles the get command.
func getCmd(args []string) int {
	d := newDataCmdImpl()

	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	fs.SetOutput(d.stderr)

	indexPath := fs.String("index", "", "Index file path (required)")
	keyArg := fs.String("key", "", "Comma-separated column values (required)")
	help := fs.Bool("h", false, "Show help message")
	helpLong := fs.Bool("help", false, "Show help message")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *help || *helpLong {
		printGetUsage(d.stdout)
		return 0
	}
	if *keyArg == "" {
		fmt.Fprintln(d.stderr, "Error: -key is required")
		return 1
	}

	tree, err := openTree(*indexPath, true)
	if err != nil {
		fmt.Fprintf(d.stderr, "Error: %v\n", err)
		return 1
	}
	defer tree.Close()

	key, err := parseKeyArg(tree.Config().Schema, *keyArg)
	if err != nil {
		fmt.Fprintf(d.stderr, "Error: %v\n", err)
		return 1
	}

	refs, err := tree.Search(key)
	if err != nil {
		if errors.Is(err, bptree.ErrKeyNotFound) {
			fmt.Fprintln(d.stderr, "Not found")
			return 1
		}
		fmt.Fprintf(d.stderr, "Error: %v\n", err)
		return 1
	}

	for _, ref := range refs {
		fmt.Fprintln(d.stdout, ref)
	}
	return 0
}

// delCmd handles the del command.
func delCmd(args []string) int {
	d := newDataCmdImpl()

	fs := flag.NewFlagSet("del", flag.ContinueOnError)
	fs.SetOutput(d.stderr)

	indexPath := fs.String("index", "", "Index file path (required)")
	keyArg := fs.String("key", "", "Comma-separated column values (required)")
	help := fs.Bool("h", false, "Show help message")
	helpLong := fs.Bool("help", false, "Show help message")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *help || *helpLong {
		printDelUsage(d.stdout)
		return 0
	}
	if *keyArg == "" {
		fmt.Fprintln(d.stderr, "Error: -key is required")
		return 1
	}

	tree, err := openTree(*indexPath, false)
	if err != nil {
		fmt.Fprintf(d.stderr, "Error: %v\n", err)
		return 1
	}
	defer tree.Close()

	key, err := parseKeyArg(tree.Config().Schema, *keyArg)
	if err != nil {
		fmt.Fprintf(d.stderr, "Error: %v\n", err)
		return 1
	}

	ref, err := tree.Delete(key)
	if err != nil {
		if errors.Is(err, bptree.ErrKeyNotFound) {
			fmt.Fprintln(d.stderr, "Not found")
			return 1
		}
		fmt.Fprintf(d.stderr, "Error: %v\n", err)
		return 1
	}
	if err := tree.Sync(); err != nil {
		fmt.Fprintf(d.stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintf(d.stdout, "Removed %s -> %d\n", bptree.FormatKey(key, tree.Config().Schema), ref)
	return 0
}

// scanCmd handles the scan command.
func scanCmd(args []string) int {
	d := newDataCmdImpl()

	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	fs.SetOutput(d.stderr)

	indexPath := fs.String("index", "", "Index file path (required)")
	fromArg := fs.String("from", "", "Inclusive lower bound key")
	toArg := fs.String("to", "", "Inclusive upper bound key")
	help := fs.Bool("h", false, "Show help message")
	helpLong := fs.Bool("help", false, "Show help message")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *help || *helpLong {
		printScanUsage(d.stdout)
		return 0
	}

	tree, err := openTree(*indexPath, true)
	if err != nil {
		fmt.Fprintf(d.stderr, "Error: %v\n", err)
		return 1
	}
	defer tree.Close()

	schema := tree.Config().Schema
	var from, to bptree.Key
	if *fromArg != "" {
		if from, err = parseKeyArg(schema, *fromArg); err != nil {
			fmt.Fprintf(d.stderr, "Error: %v\n", err)
			return 1
		}
	}
	if *toArg != "" {
		if to, err = parseKeyArg(schema, *toArg); err != nil {
			fmt.Fprintf(d.stderr, "Error: %v\n", err)
			return 1
		}
	}

	entries, err := tree.RangeScan(from, to)
	if err != nil {
		fmt.Fprintf(d.stderr, "Error: %v\n", err)
		return 1
	}

	for _, e := range entries {
		fmt.Fprintf(d.stdout, "%s -> %d\n", bptree.FormatKey(e.Key, schema), e.Ref)
	}
	fmt.Fprintf(d.stdout, "%d entries\n", len(entries))
	return 0
}

// statsCmd handles the stats command.
func statsCmd(args []string) int {
	d := newDataCmdImpl()

	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	fs.SetOutput(d.stderr)

	indexPath := fs.String("index", "", "Index file path (required)")
	help := fs.Bool("h", false, "Show help message")
	helpLong := fs.Bool("help", false, "Show help message")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *help || *helpLong {
		printStatsUsage(d.stdout)
		return 0
	}

	tree, err := openTree(*indexPath, true)
	if err != nil {
		fmt.Fprintf(d.stderr, "Error: %v\n", err)
		return 1
	}
	defer tree.Close()

	stats := tree.Stats()
	fmt.Fprintf(d.stdout, "Index:       %s\n", *indexPath)
	fmt.Fprintf(d.stdout, "Schema:      %s\n", stats.Schema)
	fmt.Fprintf(d.stdout, "Page size:   %d\n", stats.PageSize)
	fmt.Fprintf(d.stdout, "Total pages: %d\n", stats.TotalPages)
	fmt.Fprintf(d.stdout, "Root page:   %d\n", stats.Root)
	return 0
}
