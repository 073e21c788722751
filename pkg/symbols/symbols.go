// Package symbols defines the collaborator interfaces the inference core
// consumes: a parsed file's expression view, a per-file symbol table, and
// module resolution. Parsing source text, building the symbol table, and
// resolving dotted module names to files are all out of scope for the core
// itself (pkg/infer never imports a concrete implementation) — this
// package only names the shapes those collaborators must have. Concrete
// implementations live in pkg/pyparse, pkg/pysymbols and pkg/modresolve.
package symbols

import "github.com/basalt-sh/tycore/pkg/ids"

// ModuleName is a dotted module path, e.g. "a.b.c".
type ModuleName string

// Module is an opaque handle to a resolved module.
type Module interface {
	File() ids.FileId
	DottedName() string
}

// ExprKind is the closed sum of expression shapes the core can evaluate.
// It mirrors the restricted expression sublanguage named in the design:
// integer literals, name references, and attribute access. Any other
// syntactic expression is represented as ExprOther.
type ExprKind int

const (
	ExprIntLiteral ExprKind = iota
	ExprName
	ExprAttribute
	ExprOther
)

// Expr is a closed-sum view of one expression node, exposed by a Parsed
// file so that pkg/infer never needs to know the concrete AST's node
// types. Only the fields relevant to Kind are populated.
type Expr struct {
	Kind ExprKind

	// ExprIntLiteral
	IntValue    int64
	IntOverflow bool // true if the literal doesn't fit in a signed 64-bit int

	// ExprName
	Name string

	// ExprAttribute
	Base *Expr
	Attr string
}

// DefinitionKind is the closed sum of ways a symbol can be bound.
type DefinitionKind int

const (
	DefImport DefinitionKind = iota
	DefImportFrom
	DefClass
	DefFunction
	DefAssignment
	DefAnnotatedAssignment
)

// Definition is one source site that binds a symbol. Only the fields
// relevant to Kind are populated, matching the definition table in the
// design: Import/ImportFrom carry module-resolution data directly, while
// ClassDef/FunctionDef/Assignment/AnnotatedAssignment carry a NodeKey that
// a Parsed file can resolve back to a concrete node.
type Definition struct {
	Kind DefinitionKind

	// DefImport
	ImportModule ModuleName

	// DefImportFrom
	FromModule ModuleName
	FromName   string
	FromLevel  int // relative-import level; non-zero is a precondition violation

	// DefClass, DefFunction, DefAssignment, DefAnnotatedAssignment
	Node ids.NodeKey
}

// ClassNode is a Parsed file's view of one class definition site.
type ClassNode struct {
	Name  string
	Bases []Expr // in source order
	Scope ids.ScopeId
}

// FunctionNode is a Parsed file's view of one function definition site.
type FunctionNode struct {
	Name       string
	Decorators []Expr // in source order
	Scope      ids.ScopeId
}

// AssignNode is a Parsed file's view of one (possibly annotated) assignment
// site. Annotated is true only when a type annotation is present; HasValue
// is false for an annotated assignment with no value (`x: int`), the one
// case where AnnotatedAssignment yields Unknown without inspecting an
// expression at all.
type AssignNode struct {
	Annotated bool
	HasValue  bool
	Value     Expr
}

// Parsed exposes AST access for one file, keyed by the stable NodeKey
// identities a SymbolTable hands back in its Definitions. Resolving a
// NodeKey against a fresh parse of byte-identical source must yield the
// node at the same (kind, byte range); see ids.NodeKey.
type Parsed interface {
	ResolveClass(ids.NodeKey) (ClassNode, bool)
	ResolveFunction(ids.NodeKey) (FunctionNode, bool)
	ResolveAssign(ids.NodeKey) (AssignNode, bool)
}

// Table is one file's symbol table: names resolved to SymbolIds, and
// SymbolIds resolved to their list of Definitions. Names resolve in the
// file's root (module) scope and, through SymbolInScope, directly inside a
// class body; general nested-scope resolution is a non-goal of this core.
type Table interface {
	// Definitions returns sym's definitions in source order. The result
	// must be treated as order-insensitive by callers (see public_type).
	Definitions(sym ids.SymbolId) []Definition
	// RootSymbolIDByName resolves a name in the file's root scope.
	RootSymbolIDByName(name string) (ids.SymbolId, bool)
	// ScopeIDForNode returns the scope a class/function body at key
	// introduces.
	ScopeIDForNode(key ids.NodeKey) ids.ScopeId
	// SymbolInScope resolves a name declared directly within scope. It is
	// used only for own-class member lookup (spec: "a name declared
	// directly in a class body, without walking base classes") — it is not
	// a general nested-scope resolver. RootSymbolIDByName(name) is
	// equivalent to SymbolInScope(0, name).
	SymbolInScope(scope ids.ScopeId, name string) (ids.SymbolId, bool)
}
