// Package engine wires the inference core (pkg/infer) to its concrete
// collaborators: tree-sitter parsing (pkg/pyparse), symbol tables
// (pkg/pysymbols), module resolution (pkg/modresolve) and stub modules
// (pkg/stubcatalog). It is the only package that implements
// infer.Database.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/basalt-sh/tycore/pkg/ids"
	"github.com/basalt-sh/tycore/pkg/infer"
	"github.com/basalt-sh/tycore/pkg/modresolve"
	"github.com/basalt-sh/tycore/pkg/pyparse"
	"github.com/basalt-sh/tycore/pkg/pysymbols"
	"github.com/basalt-sh/tycore/pkg/stubcatalog"
	"github.com/basalt-sh/tycore/pkg/symbols"
	"github.com/basalt-sh/tycore/pkg/types"
	"github.com/basalt-sh/tycore/pkg/util"
)

// Config configures an Engine.
type Config struct {
	// Roots are the search-path roots module names resolve against, in
	// priority order.
	Roots []string
	// Stubs is consulted when a module name has no source file under any
	// root. May be nil.
	Stubs *stubcatalog.Catalog
	// Exclude holds doublestar glob patterns, matched against each
	// candidate file's path relative to the root it was found under;
	// matching files are treated as absent during module resolution.
	Exclude []string

	Store  types.StoreConfig
	Parser pyparse.PoolConfig
	Logger *slog.Logger
}

// fileView bundles the two collaborator views one file resolves to.
type fileView struct {
	parsed symbols.Parsed
	table  symbols.Table
}

type viewEntry struct {
	once sync.Once
	view *fileView
	err  error
}

// Engine is the concrete infer.Database: a Type Store plus the parser,
// symbol-table builder, module resolver, stub catalog and file cache that
// back it.
type Engine struct {
	store    *types.Store
	parser   *pyparse.Parser
	resolver *modresolve.Resolver
	stubs    *stubcatalog.Catalog
	files    *util.FileCache
	tracker  *infer.Tracker
	logger   *slog.Logger

	viewsMu sync.Mutex
	views   map[ids.FileId]*viewEntry
}

// New builds an Engine from cfg.
func New(cfg Config) (*Engine, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	if err := modresolve.ValidateGlobs(cfg.Exclude); err != nil {
		return nil, err
	}

	resolver, err := modresolve.NewResolver(cfg.Roots)
	if err != nil {
		return nil, err
	}
	if cfg.Stubs != nil {
		resolver.WithStubs(cfg.Stubs)
	}
	resolver.WithExclude(cfg.Exclude)

	return &Engine{
		store:    types.NewStore(cfg.Store),
		parser:   pyparse.NewParser(cfg.Parser, cfg.Logger),
		resolver: resolver,
		stubs:    cfg.Stubs,
		files:    util.NewFileCache(),
		tracker:  infer.NewTracker(),
		logger:   cfg.Logger,
		views:    make(map[ids.FileId]*viewEntry),
	}, nil
}

// Close releases the parser pool and unmaps every cached file.
func (e *Engine) Close() error {
	e.parser.Close()
	return e.files.Close()
}

// Store implements infer.Database.
func (e *Engine) Store() *types.Store { return e.store }

// Tracker implements infer.Database.
func (e *Engine) Tracker() *infer.Tracker { return e.tracker }

// Parse implements infer.Database.
func (e *Engine) Parse(ctx context.Context, file ids.FileId) (symbols.Parsed, error) {
	v, err := e.viewFor(ctx, file)
	if err != nil {
		return nil, err
	}
	return v.parsed, nil
}

// SymbolTable implements infer.Database.
func (e *Engine) SymbolTable(ctx context.Context, file ids.FileId) (symbols.Table, error) {
	v, err := e.viewFor(ctx, file)
	if err != nil {
		return nil, err
	}
	return v.table, nil
}

// ResolveModule implements infer.Database.
func (e *Engine) ResolveModule(_ context.Context, name symbols.ModuleName) (symbols.Module, bool, error) {
	return e.resolver.Resolve(name)
}

// ResolveGlobalSymbol implements infer.Database.
func (e *Engine) ResolveGlobalSymbol(ctx context.Context, module symbols.ModuleName, name string) (ids.GlobalSymbolId, bool, error) {
	mod, ok, err := e.resolver.Resolve(module)
	if err != nil || !ok {
		return ids.GlobalSymbolId{}, false, err
	}
	table, err := e.SymbolTable(ctx, mod.File())
	if err != nil {
		return ids.GlobalSymbolId{}, false, err
	}
	sym, ok := table.RootSymbolIDByName(name)
	if !ok {
		return ids.GlobalSymbolId{}, false, nil
	}
	return ids.GlobalSymbolId{File: mod.File(), Symbol: sym}, true, nil
}

// PublicType is a convenience wrapper around infer.PublicType for callers
// that only hold an *Engine.
func (e *Engine) PublicType(ctx context.Context, sym ids.GlobalSymbolId) (types.Type, error) {
	return infer.PublicType(ctx, e, sym)
}

// entryFor returns (creating if needed) the coordination point for
// building file's view. Holding viewsMu only while the map itself is
// touched means building file A never blocks a concurrent request for
// file B.
func (e *Engine) entryFor(file ids.FileId) *viewEntry {
	e.viewsMu.Lock()
	defer e.viewsMu.Unlock()
	ent, ok := e.views[file]
	if !ok {
		ent = &viewEntry{}
		e.views[file] = ent
	}
	return ent
}

func (e *Engine) viewFor(ctx context.Context, file ids.FileId) (*fileView, error) {
	ent := e.entryFor(file)
	ent.once.Do(func() {
		ent.view, ent.err = e.buildView(ctx, file)
	})
	return ent.view, ent.err
}

func (e *Engine) buildView(ctx context.Context, file ids.FileId) (*fileView, error) {
	if path, ok := e.resolver.PathFor(file); ok {
		source, err := e.files.Read(path)
		if err != nil {
			return nil, err
		}
		pf, err := e.parser.Parse(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("engine: parsing %s: %w", path, err)
		}
		table := pysymbols.Build(pf)
		return &fileView{parsed: pf, table: table}, nil
	}

	if e.stubs != nil {
		if name, ok := e.resolver.StubName(file); ok {
			table, parsed, ok := e.stubs.View(name)
			if !ok {
				return nil, fmt.Errorf("engine: no stub view for module %q", name)
			}
			return &fileView{parsed: parsed, table: table}, nil
		}
	}

	return nil, fmt.Errorf("engine: file %d does not resolve to a source file or stub module", file)
}

// invalidate drops file's cached view and every Type Store result, so the
// next query rebuilds them from current disk contents. The whole store is
// cleared, not only file's entries, because the Type Store keeps no reverse
// dependency edges: a cached result of another file may have been computed
// through file. Used only by the file watcher (watcher.go); the inference
// core itself never calls this.
func (e *Engine) invalidate(path string, file ids.FileId) {
	e.files.Invalidate(path)
	e.store.InvalidateAll()

	e.viewsMu.Lock()
	delete(e.views, file)
	e.viewsMu.Unlock()
}
