package types

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/basalt-sh/tycore/pkg/ids"
)

// ClassEntry is the interned payload behind a Class type.
type ClassEntry struct {
	Name          string
	DefiningScope ids.ScopeId
	Bases         []Type // ordered, matches source order
}

// FunctionEntry is the interned payload behind a Function type.
type FunctionEntry struct {
	Name          string
	OwningSymbol  ids.SymbolId
	BodyScope     ids.ScopeId
	Decorators    []Type // ordered, matches source order
}

// UnionEntry is the interned payload behind a Union type.
type UnionEntry struct {
	Members []Type // flat, pairwise distinct, first-insertion order
}

// StoreConfig bounds the memory the Type Store's two memo caches may use.
// Zero values fall back to defaults sized for a medium-sized project.
type StoreConfig struct {
	// MaxCachedSymbolTypes bounds the by_symbol memo.
	MaxCachedSymbolTypes int
	// MaxCachedNodeTypes bounds the by_node memo.
	MaxCachedNodeTypes int
}

// DefaultStoreConfig returns sensible defaults, mirroring the sizing the
// rest of this codebase uses for its file-level LRU caches.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		MaxCachedSymbolTypes: 50_000,
		MaxCachedNodeTypes:   50_000,
	}
}

// fileEntry holds the interned arenas for one file. Each file gets its own
// lock so that inferring file A never blocks inferring file B — see the
// concurrency notes on Store.
type fileEntry struct {
	mu sync.RWMutex

	classes   []ClassEntry
	functions []FunctionEntry
	unions    []UnionEntry

	// unionIndex de-duplicates add_union calls with an equal member set
	// within this file, so that two calls with the same members return the
	// same UnionId (structural sharing; see DESIGN.md for the rationale).
	unionIndex map[string]uint32
}

// Store is the Type Store: it interns class/function/union entries per
// file and memoizes public-type and node-type inference results.
//
// Thread safety: every mutator is safe for concurrent, shared (non
// exclusive) use from multiple inference goroutines. Per-file arenas are
// guarded by their own RWMutex; the two memo caches have their own internal
// locking (hashicorp/golang-lru). No Store method ever blocks behind
// another file's lock, which is what lets import cycles recurse through
// public_type without deadlocking (see pkg/infer).
type Store struct {
	filesMu sync.RWMutex
	files   map[ids.FileId]*fileEntry

	bySymbol *lru.Cache[ids.GlobalSymbolId, Type]
	byNode   *lru.Cache[nodeCacheKey, Type]

	hits   atomic.Int64
	misses atomic.Int64
}

type nodeCacheKey struct {
	File ids.FileId
	Node ids.NodeKey
}

// NewStore creates an empty Type Store.
func NewStore(cfg StoreConfig) *Store {
	if cfg.MaxCachedSymbolTypes <= 0 {
		cfg.MaxCachedSymbolTypes = DefaultStoreConfig().MaxCachedSymbolTypes
	}
	if cfg.MaxCachedNodeTypes <= 0 {
		cfg.MaxCachedNodeTypes = DefaultStoreConfig().MaxCachedNodeTypes
	}

	bySymbol, err := lru.New[ids.GlobalSymbolId, Type](cfg.MaxCachedSymbolTypes)
	if err != nil {
		// Only non-positive sizes cause an error, and we've just guarded
		// against that above.
		panic(fmt.Sprintf("types: failed to create symbol cache: %v", err))
	}
	byNode, err := lru.New[nodeCacheKey, Type](cfg.MaxCachedNodeTypes)
	if err != nil {
		panic(fmt.Sprintf("types: failed to create node cache: %v", err))
	}

	return &Store{
		files:    make(map[ids.FileId]*fileEntry),
		bySymbol: bySymbol,
		byNode:   byNode,
	}
}

func (s *Store) fileFor(file ids.FileId) *fileEntry {
	s.filesMu.RLock()
	fe, ok := s.files[file]
	s.filesMu.RUnlock()
	if ok {
		return fe
	}

	s.filesMu.Lock()
	defer s.filesMu.Unlock()
	if fe, ok = s.files[file]; ok {
		return fe
	}
	fe = &fileEntry{unionIndex: make(map[string]uint32)}
	s.files[file] = fe
	return fe
}

// AddClass interns a new ClassEntry. No deduplication is performed: class
// identity follows the source site, so two textually identical classes at
// different locations get distinct ClassIds.
func (s *Store) AddClass(file ids.FileId, name string, scope ids.ScopeId, bases []Type) ClassId {
	fe := s.fileFor(file)
	fe.mu.Lock()
	defer fe.mu.Unlock()

	idx := uint32(len(fe.classes))
	fe.classes = append(fe.classes, ClassEntry{
		Name:          name,
		DefiningScope: scope,
		Bases:         append([]Type(nil), bases...),
	})
	return ClassId{File: file, Index: idx}
}

// AddFunction interns a new FunctionEntry. No deduplication is performed.
func (s *Store) AddFunction(file ids.FileId, name string, owningSymbol ids.SymbolId, scope ids.ScopeId, decorators []Type) FunctionId {
	fe := s.fileFor(file)
	fe.mu.Lock()
	defer fe.mu.Unlock()

	idx := uint32(len(fe.functions))
	fe.functions = append(fe.functions, FunctionEntry{
		Name:         name,
		OwningSymbol: owningSymbol,
		BodyScope:    scope,
		Decorators:   append([]Type(nil), decorators...),
	})
	return FunctionId{File: file, Index: idx}
}

// AddUnion normalizes members (flattening nested unions, removing
// duplicates by structural equality, preserving first-insertion order) and
// interns the result. Calls with an equal resulting member set, for the
// same file, return the same UnionId.
//
// A Union always needs at least two distinct members (see UnionEntry), so
// normalization can collapse what the caller thought was a multi-member
// union down to a single type — e.g. two definitions that both infer the
// same literal. When that happens isUnion is false and sole is the
// collapsed member; id is the zero UnionId and must not be used. Callers
// must branch on isUnion, not on the size of the members slice they passed
// in, since that size is measured before normalization.
func (s *Store) AddUnion(file ids.FileId, members []Type) (id UnionId, sole Type, isUnion bool) {
	// Flatten before taking file's lock: a member can itself be a Union
	// belonging to file (e.g. a re-exported symbol whose own public type
	// is already a union), and s.GetUnion takes the same per-file lock.
	flat := s.flattenUnion(members)
	if len(flat) == 1 {
		return UnionId{}, flat[0], false
	}

	fe := s.fileFor(file)
	fe.mu.Lock()
	defer fe.mu.Unlock()

	key := unionKey(flat)
	if idx, ok := fe.unionIndex[key]; ok {
		return UnionId{File: file, Index: idx}, nil, true
	}

	idx := uint32(len(fe.unions))
	fe.unions = append(fe.unions, UnionEntry{Members: flat})
	fe.unionIndex[key] = idx
	return UnionId{File: file, Index: idx}, nil, true
}

// flattenUnion inlines nested Union members and removes structural
// duplicates, preserving the order each distinct member was first seen in.
func (s *Store) flattenUnion(members []Type) []Type {
	out := make([]Type, 0, len(members))
	var add func(Type)
	add = func(m Type) {
		if u, ok := m.(Union); ok {
			for _, nested := range s.GetUnion(u.ID).Members {
				add(nested)
			}
			return
		}
		for _, existing := range out {
			if existing.Equal(m) {
				return
			}
		}
		out = append(out, m)
	}
	for _, m := range members {
		add(m)
	}
	return out
}

// unionKey produces a canonical string for a flat member set so that equal
// sets (irrespective of discovery order) map to the same arena slot.
func unionKey(members []Type) string {
	parts := make([]string, len(members))
	for i, m := range members {
		parts[i] = typeSortKey(m)
	}
	sort.Strings(parts)
	return strings.Join(parts, "\x1f")
}

// typeSortKey renders a Type to a string stable enough to sort and compare
// for union interning purposes. It does not need to be human-readable (that
// is Display's job) and never touches the Store, so it cannot deadlock
// against the very lock AddUnion is called under.
func typeSortKey(t Type) string {
	switch v := t.(type) {
	case Unknown:
		return "U"
	case IntLiteral:
		return fmt.Sprintf("I:%d", v.Value)
	case Module:
		return fmt.Sprintf("M:%d:%s", v.File, v.Handle)
	case Class:
		return fmt.Sprintf("C:%d:%d", v.ID.File, v.ID.Index)
	case Function:
		return fmt.Sprintf("F:%d:%d", v.ID.File, v.ID.Index)
	case Union:
		return fmt.Sprintf("O:%d:%d", v.ID.File, v.ID.Index)
	default:
		panic(fmt.Sprintf("types: typeSortKey: unhandled variant %T", t))
	}
}

// GetClass returns the interned entry for id. Panics if id was never
// produced by this Store's AddClass — the Type Store's contract promises
// panic-free reads only for valid ids (invariant I1).
func (s *Store) GetClass(id ClassId) ClassEntry {
	fe := s.fileFor(id.File)
	fe.mu.RLock()
	defer fe.mu.RUnlock()
	return fe.classes[id.Index]
}

// GetFunction returns the interned entry for id.
func (s *Store) GetFunction(id FunctionId) FunctionEntry {
	fe := s.fileFor(id.File)
	fe.mu.RLock()
	defer fe.mu.RUnlock()
	return fe.functions[id.Index]
}

// GetUnion returns the interned entry for id.
func (s *Store) GetUnion(id UnionId) UnionEntry {
	fe := s.fileFor(id.File)
	fe.mu.RLock()
	defer fe.mu.RUnlock()
	return fe.unions[id.Index]
}

// GetCachedSymbolPublicType returns a previously cached public_type result.
func (s *Store) GetCachedSymbolPublicType(sym ids.GlobalSymbolId) (Type, bool) {
	ty, ok := s.bySymbol.Get(sym)
	if ok {
		s.hits.Add(1)
	} else {
		s.misses.Add(1)
	}
	return ty, ok
}

// CacheSymbolPublicType memoizes ty as the public type of sym. Racing
// writers may both compute and store a value; per the concurrency model,
// the first writer's value and any later writer's value are
// observationally equivalent, so no compare-and-swap is required.
func (s *Store) CacheSymbolPublicType(sym ids.GlobalSymbolId, ty Type) {
	s.bySymbol.Add(sym, ty)
}

// GetCachedNodeType returns a previously cached class/function definition
// type for the node identified by (file, key).
func (s *Store) GetCachedNodeType(file ids.FileId, key ids.NodeKey) (Type, bool) {
	return s.byNode.Get(nodeCacheKey{File: file, Node: key})
}

// CacheNodeType memoizes ty as the definition type of the node identified
// by (file, key).
func (s *Store) CacheNodeType(file ids.FileId, key ids.NodeKey, ty Type) {
	s.byNode.Add(nodeCacheKey{File: file, Node: key}, ty)
}

// Stats reports cache hit/miss counters for the by_symbol memo, useful for
// diagnosing whether a workload benefits from a larger StoreConfig.
type Stats struct {
	SymbolCacheHits   int64
	SymbolCacheMisses int64
	CachedSymbols     int
	CachedNodes       int
}

func (s *Store) Stats() Stats {
	return Stats{
		SymbolCacheHits:   s.hits.Load(),
		SymbolCacheMisses: s.misses.Load(),
		CachedSymbols:     s.bySymbol.Len(),
		CachedNodes:       s.byNode.Len(),
	}
}

// InvalidateFile clears the cached results keyed by file (its symbols'
// public types and its nodes' definition types) and drops file's interned
// arenas. Cached results of other files are kept, including ones computed
// through file. The core itself never calls this; it exists for a
// collaborator-side invalidation framework (pkg/engine's file watcher uses
// InvalidateAll) as described in spec.md §3/§5.
func (s *Store) InvalidateFile(file ids.FileId) {
	for _, key := range s.bySymbol.Keys() {
		if key.File == file {
			s.bySymbol.Remove(key)
		}
	}
	for _, key := range s.byNode.Keys() {
		if key.File == file {
			s.byNode.Remove(key)
		}
	}

	s.filesMu.Lock()
	delete(s.files, file)
	s.filesMu.Unlock()
}

// InvalidateAll wholesale-clears both memo caches and every interned arena.
// Used by the conservative "reindex everything" epoch transition.
func (s *Store) InvalidateAll() {
	s.bySymbol.Purge()
	s.byNode.Purge()

	s.filesMu.Lock()
	s.files = make(map[ids.FileId]*fileEntry)
	s.filesMu.Unlock()
}
