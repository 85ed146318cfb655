package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/kavak-db/kavak/internal/storage"
)

// inspectCmd handles the inspect command.
func inspectCmd(args []string) int {
	d := newDataCmdImpl()

	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(d.stderr)

	indexPath := fs.String("index", "", "Index file path (required)")
	page := fs.Uint64("page", 0, "Page number to dump (required)")
	help := fs.Bool("h", false, "Show help message")
	helpLong := fs.Bool("help", false, "Show help message")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *help || *helpLong {
		printInspectUsage(os.Stdout)
		return 0
	}
	if *page == 0 {
		fmt.Fprintln(d.stderr, "Error: -page is required (page 0 is the file header)")
		return 1
	}

	tree, err := openTree(*indexPath, true)
	if err != nil {
		fmt.Fprintf(d.stderr, "Error: %v\n", err)
		return 1
	}
	defer tree.Close()

	if err := tree.DumpPage(d.stdout, storage.PageID(*page)); err != nil {
		fmt.Fprintf(d.stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
