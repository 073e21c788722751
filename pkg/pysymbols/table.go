// Package pysymbols builds a symbols.Table from a pyparse.ParsedFile in a
// single traversal: root (module) scope plus one scope per class body,
// matching the scoping limitation the inference core works under. It
// never imports pkg/infer.
package pysymbols

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/basalt-sh/tycore/pkg/ids"
	"github.com/basalt-sh/tycore/pkg/pyparse"
	"github.com/basalt-sh/tycore/pkg/symbols"
)

// Table is an in-memory, immutable-after-Build implementation of
// symbols.Table.
type Table struct {
	names map[ids.ScopeId]map[string]ids.SymbolId
	defs  map[ids.SymbolId][]symbols.Definition
}

// Definitions implements symbols.Table.
func (t *Table) Definitions(sym ids.SymbolId) []symbols.Definition {
	return t.defs[sym]
}

// RootSymbolIDByName implements symbols.Table.
func (t *Table) RootSymbolIDByName(name string) (ids.SymbolId, bool) {
	return t.SymbolInScope(0, name)
}

// ScopeIDForNode implements symbols.Table. Scope identity is derived
// directly from the node, so it needs no lookup table of its own.
func (t *Table) ScopeIDForNode(key ids.NodeKey) ids.ScopeId {
	return ids.ScopeFromNode(key)
}

// SymbolInScope implements symbols.Table.
func (t *Table) SymbolInScope(scope ids.ScopeId, name string) (ids.SymbolId, bool) {
	m, ok := t.names[scope]
	if !ok {
		return 0, false
	}
	sym, ok := m[name]
	return sym, ok
}

// Build walks pf's AST once and returns the file's Table. Only the module
// (root) scope and each class body's own scope are populated — function
// bodies are not descended into, and names bound inside an if/try/with
// body are bound into the enclosing scope rather than a new one, so that
// two branches assigning the same name produce two Definitions of one
// symbol (see public_type's union behavior).
func Build(pf *pyparse.ParsedFile) *Table {
	b := &builder{
		parsed: pf,
		source: pf.Source(),
		table: &Table{
			names: make(map[ids.ScopeId]map[string]ids.SymbolId),
			defs:  make(map[ids.SymbolId][]symbols.Definition),
		},
	}
	b.bindBlock(0, pf.Root())
	return b.table
}

type builder struct {
	parsed *pyparse.ParsedFile
	source []byte
	table  *Table
	nextID uint32
}

func (b *builder) declare(scope ids.ScopeId, name string) ids.SymbolId {
	m, ok := b.table.names[scope]
	if !ok {
		m = make(map[string]ids.SymbolId)
		b.table.names[scope] = m
	}
	if sym, ok := m[name]; ok {
		return sym
	}
	b.nextID++
	sym := ids.SymbolId(b.nextID)
	m[name] = sym
	return sym
}

func (b *builder) bind(sym ids.SymbolId, def symbols.Definition) {
	b.table.defs[sym] = append(b.table.defs[sym], def)
}

// bindBlock binds every statement found as a direct named child of node.
// node may be the module root or a class/if/try/with body.
func (b *builder) bindBlock(scope ids.ScopeId, node *sitter.Node) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		b.bindStatement(scope, node.NamedChild(i))
	}
}

func (b *builder) bindStatement(scope ids.ScopeId, stmt *sitter.Node) {
	switch stmt.Type() {
	case "import_statement":
		b.bindImport(scope, stmt)
	case "import_from_statement":
		b.bindImportFrom(scope, stmt)
	case "class_definition":
		b.bindClass(scope, stmt)
	case "function_definition":
		b.bindFunction(scope, stmt)
	case "assignment":
		b.bindAssignment(scope, stmt)
	case "expression_statement":
		// The Python grammar wraps an assignment statement in an
		// expression_statement node.
		for i := 0; i < int(stmt.NamedChildCount()); i++ {
			if c := stmt.NamedChild(i); c.Type() == "assignment" {
				b.bindAssignment(scope, c)
			}
		}
	case "decorated_definition":
		if def := definitionChild(stmt); def != nil {
			b.bindStatement(scope, def)
		}
	case "if_statement", "try_statement", "with_statement", "while_statement", "for_statement":
		// Descend into nested bodies without opening a new scope: a name
		// assigned in every branch of an if/else is still one symbol with
		// several definitions, resolved to a union.
		b.recurseIntoBodies(scope, stmt)
	}
}

func definitionChild(decorated *sitter.Node) *sitter.Node {
	for i := 0; i < int(decorated.NamedChildCount()); i++ {
		c := decorated.NamedChild(i)
		if c.Type() == "function_definition" || c.Type() == "class_definition" {
			return c
		}
	}
	return nil
}

func (b *builder) recurseIntoBodies(scope ids.ScopeId, stmt *sitter.Node) {
	for i := 0; i < int(stmt.NamedChildCount()); i++ {
		c := stmt.NamedChild(i)
		switch c.Type() {
		case "block":
			b.bindBlock(scope, c)
		case "elif_clause", "else_clause", "except_clause", "finally_clause":
			b.recurseIntoBodies(scope, c)
		}
	}
}

func (b *builder) bindImport(scope ids.ScopeId, stmt *sitter.Node) {
	for i := 0; i < int(stmt.NamedChildCount()); i++ {
		child := stmt.NamedChild(i)
		switch child.Type() {
		case "dotted_name":
			name := child.Content(b.source)
			sym := b.declare(scope, name)
			b.bind(sym, symbols.Definition{Kind: symbols.DefImport, ImportModule: symbols.ModuleName(name)})
		case "aliased_import":
			moduleNode := child.ChildByFieldName("name")
			aliasNode := child.ChildByFieldName("alias")
			if moduleNode == nil || aliasNode == nil {
				continue
			}
			moduleName := moduleNode.Content(b.source)
			alias := aliasNode.Content(b.source)
			sym := b.declare(scope, alias)
			b.bind(sym, symbols.Definition{Kind: symbols.DefImport, ImportModule: symbols.ModuleName(moduleName)})
		}
	}
}

func (b *builder) bindImportFrom(scope ids.ScopeId, stmt *sitter.Node) {
	moduleNode := stmt.ChildByFieldName("module_name")
	if moduleNode == nil {
		return
	}
	moduleName := symbols.ModuleName(moduleNode.Content(b.source))

	// A relative module name is a relative_import node whose import_prefix
	// child holds the leading dots.
	level := 0
	for i := 0; i < int(moduleNode.ChildCount()); i++ {
		if moduleNode.Child(i).Type() == "import_prefix" {
			level += len(moduleNode.Child(i).Content(b.source))
		}
	}

	for i := 0; i < int(stmt.ChildCount()); i++ {
		child := stmt.Child(i)
		if child == moduleNode {
			continue
		}
		switch child.Type() {
		case "aliased_import":
			importNameNode := child.ChildByFieldName("name")
			aliasNode := child.ChildByFieldName("alias")
			if importNameNode == nil || aliasNode == nil {
				continue
			}
			alias := aliasNode.Content(b.source)
			sym := b.declare(scope, alias)
			b.bind(sym, symbols.Definition{
				Kind:       symbols.DefImportFrom,
				FromModule: moduleName,
				FromName:   importNameNode.Content(b.source),
				FromLevel:  level,
			})
		case "dotted_name", "identifier":
			name := child.Content(b.source)
			sym := b.declare(scope, name)
			b.bind(sym, symbols.Definition{
				Kind:       symbols.DefImportFrom,
				FromModule: moduleName,
				FromName:   name,
				FromLevel:  level,
			})
		}
	}
}

func (b *builder) bindClass(scope ids.ScopeId, node *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Content(b.source)
	key := b.parsed.NodeKey(node)
	sym := b.declare(scope, name)
	b.bind(sym, symbols.Definition{Kind: symbols.DefClass, Node: key})

	if body := node.ChildByFieldName("body"); body != nil {
		b.bindBlock(ids.ScopeFromNode(key), body)
	}
}

func (b *builder) bindFunction(scope ids.ScopeId, node *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Content(b.source)
	key := b.parsed.NodeKey(node)
	sym := b.declare(scope, name)
	b.bind(sym, symbols.Definition{Kind: symbols.DefFunction, Node: key})
	// Function bodies are never descended into: nested-scope resolution is
	// out of scope for this core.
}

func (b *builder) bindAssignment(scope ids.ScopeId, node *sitter.Node) {
	left := node.ChildByFieldName("left")
	if left == nil || left.Type() != "identifier" {
		// Subscript (d[k] = v), attribute (o.f = v) and tuple-unpacking
		// targets are not simple name bindings.
		return
	}

	name := left.Content(b.source)
	key := b.parsed.NodeKey(node)
	sym := b.declare(scope, name)

	kind := symbols.DefAssignment
	if node.ChildByFieldName("type") != nil {
		kind = symbols.DefAnnotatedAssignment
	}
	b.bind(sym, symbols.Definition{Kind: kind, Node: key})
}
