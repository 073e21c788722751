// Package types holds the closed sum of inferred types and the Type Store
// that interns their structural payloads (classes, functions, unions) and
// memoizes inference results per symbol and per syntax node.
//
// The sum is reproduced as a Go interface with an unexported marker method,
// the same pattern used throughout this codebase's type checkers: a fixed,
// exhaustive set of concrete implementations rather than open-ended
// polymorphism. Adding a new Type variant is a deliberate extension and
// every type switch over Type in this module must be updated to match.
package types

import (
	"fmt"
	"strings"

	"github.com/basalt-sh/tycore/pkg/ids"
)

// Type is the closed sum of inferred types.
type Type interface {
	// sealed restricts implementations of Type to this package.
	sealed()
	// Equal reports structural equality, used to de-duplicate union members.
	Equal(Type) bool
}

// Unknown is the conservative top: used wherever inference is incomplete,
// undecided, or deliberately not attempted.
type Unknown struct{}

func (Unknown) sealed() {}

func (Unknown) Equal(other Type) bool {
	_, ok := other.(Unknown)
	return ok
}

// IntLiteral is a literal integer value known at analysis time.
type IntLiteral struct {
	Value int64
}

func (IntLiteral) sealed() {}

func (l IntLiteral) Equal(other Type) bool {
	o, ok := other.(IntLiteral)
	return ok && o.Value == l.Value
}

// ModuleHandle is the collaborator-supplied identity of a resolved module
// (its dotted name), carried opaquely by the Module type.
type ModuleHandle string

// Module is a first-class reference to a module.
type Module struct {
	File   ids.FileId
	Handle ModuleHandle
}

func (Module) sealed() {}

func (m Module) Equal(other Type) bool {
	o, ok := other.(Module)
	return ok && o.File == m.File && o.Handle == m.Handle
}

// ClassId indexes a ClassEntry interned in the Type Store.
type ClassId struct {
	File  ids.FileId
	Index uint32
}

// Class is a class object (user-facing form: Literal[ClassName]).
type Class struct {
	ID ClassId
}

func (Class) sealed() {}

func (c Class) Equal(other Type) bool {
	o, ok := other.(Class)
	return ok && o.ID == c.ID
}

// FunctionId indexes a FunctionEntry interned in the Type Store.
type FunctionId struct {
	File  ids.FileId
	Index uint32
}

// Function is a function object.
type Function struct {
	ID FunctionId
}

func (Function) sealed() {}

func (f Function) Equal(other Type) bool {
	o, ok := other.(Function)
	return ok && o.ID == f.ID
}

// UnionId indexes a UnionEntry interned in the Type Store.
type UnionId struct {
	File  ids.FileId
	Index uint32
}

// Union is an unordered, duplicate-free set of at least two member types.
type Union struct {
	ID UnionId
}

func (Union) sealed() {}

func (u Union) Equal(other Type) bool {
	o, ok := other.(Union)
	return ok && o.ID == u.ID
}

// Display renders ty using the normative grammar from the design: a
// human-readable, test-stable string. Union members are displayed in
// first-insertion order.
func Display(ty Type, store *Store) string {
	switch t := ty.(type) {
	case Unknown:
		return "Unknown"
	case IntLiteral:
		return fmt.Sprintf("Literal[%d]", t.Value)
	case Class:
		entry := store.GetClass(t.ID)
		return fmt.Sprintf("Literal[%s]", entry.Name)
	case Function:
		entry := store.GetFunction(t.ID)
		return fmt.Sprintf("Literal[%s]", entry.Name)
	case Module:
		return fmt.Sprintf("Module[%s]", t.Handle)
	case Union:
		entry := store.GetUnion(t.ID)
		parts := make([]string, 0, len(entry.Members))
		for _, m := range entry.Members {
			parts = append(parts, Display(m, store))
		}
		return "(" + strings.Join(parts, " | ") + ")"
	default:
		// Unreachable for a closed sum; surfaced loudly rather than
		// silently rendering an empty string.
		panic(fmt.Sprintf("types: Display: unhandled variant %T", ty))
	}
}
