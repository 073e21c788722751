package infer

import (
	"context"

	"github.com/basalt-sh/tycore/pkg/ids"
	"github.com/basalt-sh/tycore/pkg/types"
)

// visitingKey is the context key under which the set of GlobalSymbolIds
// currently being computed on this call stack is stored. It is never
// shared across goroutines: each call to PublicType derives a new set from
// whatever ctx it was given, so two goroutines computing the same symbol
// each carry their own independent visiting set even though they share the
// same Tracker.
type visitingKey struct{}

// withVisiting returns a ctx in which sym is marked as being computed on
// the current call stack, and reports whether sym was already marked —
// that is a real recursive re-entry (an import cycle), not a race with
// another goroutine, since context values never cross goroutine
// boundaries on their own.
func withVisiting(ctx context.Context, sym ids.GlobalSymbolId) (context.Context, bool) {
	visiting, _ := ctx.Value(visitingKey{}).(map[ids.GlobalSymbolId]struct{})
	if _, cyclic := visiting[sym]; cyclic {
		return ctx, true
	}

	next := make(map[ids.GlobalSymbolId]struct{}, len(visiting)+1)
	for s := range visiting {
		next[s] = struct{}{}
	}
	next[sym] = struct{}{}

	return context.WithValue(ctx, visitingKey{}, next), false
}

// PublicType computes the inferred type of sym as observed from outside its
// defining scope: the combination of every definition that binds sym,
// collapsed to Unknown (no definitions), the single definition's type (one
// definition), or a Union (two or more distinct types). Results are
// memoized in the Type Store's by_symbol cache.
//
// Concurrent calls for the same symbol, from different goroutines, single-
// flight through db.Tracker(): the second caller blocks on the first's
// computation and observes its real result, so the cached value never
// depends on scheduling. A symbol reached again on its own call stack (an
// import cycle) is a different situation — ctx's visiting set catches that
// case and returns Unknown immediately, without involving the Tracker at
// all, so the cycle can never deadlock against its own in-flight call.
func PublicType(ctx context.Context, db Database, sym ids.GlobalSymbolId) (types.Type, error) {
	store := db.Store()

	if ty, ok := store.GetCachedSymbolPublicType(sym); ok {
		return ty, nil
	}

	ctx, cyclic := withVisiting(ctx, sym)
	if cyclic {
		return types.Unknown{}, nil
	}

	return db.Tracker().Share(sym, func() (types.Type, error) {
		// Re-check: another goroutine may have finished the computation
		// while we were waiting to acquire the Tracker.
		if ty, ok := store.GetCachedSymbolPublicType(sym); ok {
			return ty, nil
		}

		table, err := db.SymbolTable(ctx, sym.File)
		if err != nil {
			return nil, err
		}

		defs := table.Definitions(sym.Symbol)

		members := make([]types.Type, 0, len(defs))
		for _, def := range defs {
			ty, err := DefinitionType(ctx, db, sym, def)
			if err != nil {
				return nil, err
			}
			members = append(members, ty)
		}

		result := collapseMembers(store, sym.File, members)
		store.CacheSymbolPublicType(sym, result)
		return result, nil
	})
}

// collapseMembers applies the zero/one/many rule after deduplication:
// AddUnion flattens nested unions and dedupes structurally equal members,
// so the branch on member count must happen after that collapse, not
// before it — two definitions that infer to the same type (e.g. a symbol
// assigned the same literal on every branch) must resolve to that single
// type, never to a malformed one-member Union.
func collapseMembers(store *types.Store, file ids.FileId, members []types.Type) types.Type {
	switch len(members) {
	case 0:
		return types.Unknown{}
	case 1:
		return members[0]
	}

	unionID, sole, isUnion := store.AddUnion(file, members)
	if !isUnion {
		return sole
	}
	return types.Union{ID: unionID}
}
