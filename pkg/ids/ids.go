// Package ids defines the opaque identifiers shared by every package in
// tycore. None of these types carry behavior of their own; they exist so
// that a file, a symbol, a lexical scope, or a syntax node can be used as a
// map key without any package depending on another package's internal
// representation of "where this thing came from".
package ids

import "fmt"

// FileId is an opaque handle to a parsed source file, assigned by the
// module resolver the first time a path is resolved.
type FileId uint32

// SymbolId is an opaque handle to a name within one file's symbol table.
// Assignment order matches the order symbols are first declared in, but
// callers must not rely on any particular numbering scheme.
type SymbolId uint32

// ScopeId is an opaque handle to a lexical scope within one file. ScopeId
// zero is reserved for the file's root (module) scope.
type ScopeId uint32

// ScopeFromNode derives the ScopeId a class or function body at key
// introduces. Deriving it from the node's own identity (rather than
// assigning scopes sequentially) lets independent collaborators — the
// parser and the symbol table builder — agree on a scope's id without
// coordinating through a third structure. +1 keeps every derived scope
// distinct from the reserved root scope 0.
func ScopeFromNode(key NodeKey) ScopeId {
	return ScopeId(key.StartByte) + 1
}

// GlobalSymbolId globally identifies one binding name within one module.
type GlobalSymbolId struct {
	File   FileId
	Symbol SymbolId
}

func (g GlobalSymbolId) String() string {
	return fmt.Sprintf("%d::%d", g.File, g.Symbol)
}

// NodeKey is a stable, hashable identity for a syntax node within a file.
// It must round-trip through re-parsing of byte-identical source, so it is
// built from the node's grammar kind and byte range rather than a pointer.
type NodeKey struct {
	Kind      string
	StartByte uint32
	EndByte   uint32
}

func (k NodeKey) String() string {
	return fmt.Sprintf("%s@%d:%d", k.Kind, k.StartByte, k.EndByte)
}
