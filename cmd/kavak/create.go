package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/kavak-db/kavak/internal/bptree"
	"github.com/kavak-db/kavak/internal/config"
	"github.com/kavak-db/kavak/internal/logging"
)

// createCmdImpl handles the create command with dependency injection for
// testing.
type createCmdImpl struct {
	stdout io.Writer
	stderr io.Writer
}

// createCmd handles the create command.
func createCmd(args []string) int {
	impl := &createCmdImpl{stdout: os.Stdout, stderr: os.Stderr}
	return impl.run(args)
}

func (c *createCmdImpl) run(args []string) int {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.SetOutput(c.stderr)

	indexPath := fs.String("index", "", "Index file path (required)")
	schemaText := fs.String("schema", "", "Key schema (required)")
	pageSize := fs.Int("page-size", 0, "Page size in bytes")
	configPath := fs.String("config", "", "Path to configuration file")
	help := fs.Bool("h", false, "Show help message")
	helpLong := fs.Bool("help", false, "Show help message")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *help || *helpLong {
		printCreateUsage(c.stdout)
		return 0
	}

	fileCfg := config.DefaultFileConfig()
	if *configPath != "" {
		loaded, err := config.LoadFile(*configPath)
		if err != nil {
			fmt.Fprintf(c.stderr, "Error: %v\n", err)
			return 1
		}
		fileCfg = loaded
	}
	if *schemaText == "" {
		*schemaText = fileCfg.Schema
	}
	if *pageSize == 0 {
		*pageSize = fileCfg.PageSize
	}

	if *indexPath == "" {
		fmt.Fprintln(c.stderr, "Error: -index is required")
		printCreateUsage(c.stderr)
		return 1
	}
	if *schemaText == "" {
		fmt.Fprintln(c.stderr, "Error: -schema is required (flag or config file)")
		printCreateUsage(c.stderr)
		return 1
	}

	schema, err := config.ParseSchema(*schemaText)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: invalid schema: %v\n", err)
		return 1
	}

	if _, err := os.Stat(*indexPath); err == nil {
		fmt.Fprintf(c.stderr, "Error: %s already exists\n", *indexPath)
		return 1
	}

	opts := bptree.DefaultOptions()
	opts.PageSize = *pageSize
	opts.Schema = schema
	opts.Logger = newCLILogger(fileCfg)

	tree, err := bptree.Open(*indexPath, opts)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return 1
	}
	defer tree.Close()

	conf := tree.Config()
	fmt.Fprintf(c.stdout, "Created %s\n", *indexPath)
	fmt.Fprintf(c.stdout, "  Schema:        %s\n", schema.String())
	fmt.Fprintf(c.stdout, "  Page size:     %d\n", conf.PageSize)
	fmt.Fprintf(c.stdout, "  Leaf keys:     %d-%d\n", conf.MinLeafKeys, conf.MaxLeafKeys)
	fmt.Fprintf(c.stdout, "  Internal keys: %d-%d\n", conf.MinInternalKeys, conf.MaxInternalKeys)

	return 0
}

// newCLILogger builds the logger used by CLI commands from file config.
func newCLILogger(cfg *config.FileConfig) logging.Logger {
	return logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: "stderr",
	})
}
