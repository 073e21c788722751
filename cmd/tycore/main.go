package main

import (
	"context"
	"fmt"
	"os"

	"github.com/basalt-sh/tycore/pkg/engine"
	"github.com/basalt-sh/tycore/pkg/ids"
	"github.com/basalt-sh/tycore/pkg/mcplog"
	"github.com/basalt-sh/tycore/pkg/mcpserver"
	"github.com/basalt-sh/tycore/pkg/pyparse"
	"github.com/basalt-sh/tycore/pkg/stubcatalog"
	"github.com/basalt-sh/tycore/pkg/symbols"
	"github.com/basalt-sh/tycore/pkg/types"
	"github.com/basalt-sh/tycore/pkg/util"
)

const version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	switch command {
	case "query":
		runQuery(os.Args[2:])
	case "serve":
		runServe(os.Args[2:])
	case "version":
		fmt.Printf("tycore %s\n", version)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runQuery(args []string) {
	var root, module, symbol, stubsPath, configPath string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--root":
			if i+1 < len(args) {
				i++
				root = args[i]
			}
		case "--stubs":
			if i+1 < len(args) {
				i++
				stubsPath = args[i]
			}
		case "--config":
			if i+1 < len(args) {
				i++
				configPath = args[i]
			}
		default:
			switch {
			case module == "":
				module = args[i]
			case symbol == "":
				symbol = args[i]
			}
		}
	}

	if module == "" || symbol == "" {
		fmt.Fprintln(os.Stderr, "usage: tycore query <module> <symbol> [--root path] [--stubs catalog.json] [--config tycore.yaml]")
		os.Exit(1)
	}

	e, err := buildEngine(configPath, root, stubsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start engine: %v\n", err)
		os.Exit(1)
	}
	defer e.Close()

	ctx := context.Background()
	mod, ok, err := e.ResolveModule(ctx, symbols.ModuleName(module))
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolving module %q: %v\n", module, err)
		os.Exit(1)
	}
	if !ok {
		fmt.Fprintf(os.Stderr, "module %q not found under the configured search roots\n", module)
		os.Exit(1)
	}

	table, err := e.SymbolTable(ctx, mod.File())
	if err != nil {
		fmt.Fprintf(os.Stderr, "building symbol table for %q: %v\n", module, err)
		os.Exit(1)
	}

	sym, ok := table.RootSymbolIDByName(symbol)
	if !ok {
		fmt.Fprintf(os.Stderr, "symbol %q not found at root scope of %q\n", symbol, module)
		os.Exit(1)
	}

	ty, err := e.PublicType(ctx, ids.GlobalSymbolId{File: mod.File(), Symbol: sym})
	if err != nil {
		fmt.Fprintf(os.Stderr, "inferring public type of %s.%s: %v\n", module, symbol, err)
		os.Exit(1)
	}

	fmt.Println(types.Display(ty, e.Store()))
}

func runServe(args []string) {
	var root, stubsPath, logPath, configPath string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--root":
			if i+1 < len(args) {
				i++
				root = args[i]
			}
		case "--stubs":
			if i+1 < len(args) {
				i++
				stubsPath = args[i]
			}
		case "--config":
			if i+1 < len(args) {
				i++
				configPath = args[i]
			}
		case "--log":
			if i+1 < len(args) {
				i++
				logPath = args[i]
			}
		}
	}

	e, err := buildEngine(configPath, root, stubsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start engine: %v\n", err)
		os.Exit(1)
	}
	defer e.Close()

	logger, err := mcplog.NewLogger(logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open mcp log: %v\n", err)
		os.Exit(1)
	}

	srv := mcpserver.NewServer(e, logger)
	defer srv.Close()

	if err := srv.ServeStdio(); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// buildEngine assembles an Engine Config. A --config file, when given, sets
// the search roots and stub catalog; --root and --stubs override it field
// by field so a project config can still be tweaked ad hoc from the CLI.
func buildEngine(configPath, root, stubsPath string) (*engine.Engine, error) {
	if configPath == "" && root == "" {
		root = "."
	}

	cfg := engine.Config{
		Roots:  []string{root},
		Store:  types.DefaultStoreConfig(),
		Parser: pyparse.DefaultPoolConfig(),
		Logger: util.NewLogger(util.LoggerConfig{Level: util.LevelWarn, Format: util.FormatText, Output: os.Stderr}),
	}

	if configPath != "" {
		fc, err := engine.LoadFileConfig(configPath)
		if err != nil {
			return nil, err
		}
		fromFile, err := fc.ToConfig()
		if err != nil {
			return nil, err
		}
		fromFile.Logger = cfg.Logger
		cfg = fromFile
	}

	if root != "" {
		cfg.Roots = []string{root}
	}
	if stubsPath != "" {
		stubs, err := stubcatalog.LoadFromFile(stubsPath)
		if err != nil {
			return nil, fmt.Errorf("loading stub catalog: %w", err)
		}
		cfg.Stubs = stubs
	}

	return engine.New(cfg)
}

func printUsage() {
	fmt.Println("Usage: tycore <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  query <module> <symbol>   Print the inferred public type of a root-scope symbol")
	fmt.Println("  serve                     Start the MCP server over stdio")
	fmt.Println("  version                   Print version")
	fmt.Println("  help                      Show this help message")
}
