// Package infer is the demand-driven type inference core: the Definition
// Inferencer, the Expression Inferencer and the Public-Type Resolver. It
// depends only on the collaborator interfaces in pkg/symbols and the Type
// Store in pkg/types — never on a concrete parser, symbol table builder or
// module resolver. Those live in pkg/pyparse, pkg/pysymbols and
// pkg/modresolve and are wired together by pkg/engine.
package infer

import (
	"context"
	"sync"

	"github.com/basalt-sh/tycore/pkg/ids"
	"github.com/basalt-sh/tycore/pkg/symbols"
	"github.com/basalt-sh/tycore/pkg/types"
)

// Database is everything the core needs from its collaborators. A query
// may block inside any of these calls while awaiting a parse, a
// symbol-table build, or a module resolution; once a call returns, the
// core proceeds synchronously with no further suspension.
type Database interface {
	// Store returns the shared Type Store. Safe for concurrent use from
	// many queries running on many goroutines.
	Store() *types.Store

	// Parse returns file's AST view. May block on a parser pool.
	Parse(ctx context.Context, file ids.FileId) (symbols.Parsed, error)

	// SymbolTable returns file's symbol table. May block while the table
	// is built on first access.
	SymbolTable(ctx context.Context, file ids.FileId) (symbols.Table, error)

	// ResolveModule maps a dotted module name to a file. The bool is false
	// (with a nil error) when the module genuinely cannot be found — that
	// is a domain-undecided outcome, not a collaborator failure.
	ResolveModule(ctx context.Context, name symbols.ModuleName) (symbols.Module, bool, error)

	// ResolveGlobalSymbol looks up name as a top-level symbol of module.
	ResolveGlobalSymbol(ctx context.Context, module symbols.ModuleName, name string) (ids.GlobalSymbolId, bool, error)

	// Tracker returns the shared single-flight coordinator for concurrent
	// public_type computations. Implementations should return the same
	// *Tracker on every call for one analysis (see Tracker).
	Tracker() *Tracker
}

// Tracker single-flights concurrent public_type computations of the same
// symbol: when two goroutines race to compute the same GlobalSymbolId, the
// second blocks and receives the first's result instead of recomputing (or,
// before this existed, seeing a bare in-progress marker and falling back to
// Unknown — which made the result depend on scheduling). Tracker says
// nothing about import cycles; a symbol re-entered on its own call stack is
// handled separately, by the visiting set threaded through ctx (see
// withVisiting in resolver.go), since that is a single-goroutine recursion
// the Tracker cannot distinguish from a concurrent peer.
type Tracker struct {
	mu    sync.Mutex
	calls map[ids.GlobalSymbolId]*trackedCall
}

type trackedCall struct {
	done   chan struct{}
	result types.Type
	err    error
}

// NewTracker returns an empty Tracker, ready to share across every query
// in one analysis epoch.
func NewTracker() *Tracker {
	return &Tracker{calls: make(map[ids.GlobalSymbolId]*trackedCall)}
}

// Share runs compute for sym, or, if another goroutine is already running
// compute for the same sym, waits for that call and returns its result.
// Callers on the same goroutine must never call Share twice for the same
// sym without the first call returning first — doing so deadlocks a
// goroutine against itself, which is exactly what the ctx-scoped visiting
// set in resolver.go exists to prevent.
func (t *Tracker) Share(sym ids.GlobalSymbolId, compute func() (types.Type, error)) (types.Type, error) {
	t.mu.Lock()
	if call, ok := t.calls[sym]; ok {
		t.mu.Unlock()
		<-call.done
		return call.result, call.err
	}
	call := &trackedCall{done: make(chan struct{})}
	t.calls[sym] = call
	t.mu.Unlock()

	call.result, call.err = compute()
	close(call.done)

	t.mu.Lock()
	delete(t.calls, sym)
	t.mu.Unlock()

	return call.result, call.err
}
