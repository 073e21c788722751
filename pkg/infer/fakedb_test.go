package infer

import (
	"context"
	"fmt"

	"github.com/basalt-sh/tycore/pkg/ids"
	"github.com/basalt-sh/tycore/pkg/symbols"
	"github.com/basalt-sh/tycore/pkg/types"
)

// fakeModule is the minimal symbols.Module used by fakeDB.
type fakeModule struct {
	file ids.FileId
	name string
}

func (m fakeModule) File() ids.FileId    { return m.file }
func (m fakeModule) DottedName() string  { return m.name }

// fakeTable is a hand-built, in-memory symbols.Table for one file.
type fakeTable struct {
	byName      map[string]ids.SymbolId
	defs        map[ids.SymbolId][]symbols.Definition
	scopeOwners map[ids.ScopeId]map[string]ids.SymbolId
}

func newFakeTable() *fakeTable {
	return &fakeTable{
		byName:      make(map[string]ids.SymbolId),
		defs:        make(map[ids.SymbolId][]symbols.Definition),
		scopeOwners: make(map[ids.ScopeId]map[string]ids.SymbolId),
	}
}

func (t *fakeTable) declare(name string) ids.SymbolId {
	if sym, ok := t.byName[name]; ok {
		return sym
	}
	sym := ids.SymbolId(len(t.byName) + 1)
	t.byName[name] = sym
	if t.scopeOwners[0] == nil {
		t.scopeOwners[0] = make(map[string]ids.SymbolId)
	}
	t.scopeOwners[0][name] = sym
	return sym
}

func (t *fakeTable) declareInScope(scope ids.ScopeId, name string) ids.SymbolId {
	sym := t.declare(fmt.Sprintf("scope%d.%s", scope, name))
	if t.scopeOwners[scope] == nil {
		t.scopeOwners[scope] = make(map[string]ids.SymbolId)
	}
	t.scopeOwners[scope][name] = sym
	return sym
}

func (t *fakeTable) bind(sym ids.SymbolId, def symbols.Definition) {
	t.defs[sym] = append(t.defs[sym], def)
}

func (t *fakeTable) Definitions(sym ids.SymbolId) []symbols.Definition {
	return t.defs[sym]
}

func (t *fakeTable) RootSymbolIDByName(name string) (ids.SymbolId, bool) {
	sym, ok := t.scopeOwners[0][name]
	return sym, ok
}

func (t *fakeTable) ScopeIDForNode(key ids.NodeKey) ids.ScopeId {
	return ids.ScopeId(key.StartByte)
}

func (t *fakeTable) SymbolInScope(scope ids.ScopeId, name string) (ids.SymbolId, bool) {
	m, ok := t.scopeOwners[scope]
	if !ok {
		return 0, false
	}
	sym, ok := m[name]
	return sym, ok
}

// fakeParsed answers node resolution from maps keyed by NodeKey.
type fakeParsed struct {
	classes   map[ids.NodeKey]symbols.ClassNode
	functions map[ids.NodeKey]symbols.FunctionNode
	assigns   map[ids.NodeKey]symbols.AssignNode
}

func newFakeParsed() *fakeParsed {
	return &fakeParsed{
		classes:   make(map[ids.NodeKey]symbols.ClassNode),
		functions: make(map[ids.NodeKey]symbols.FunctionNode),
		assigns:   make(map[ids.NodeKey]symbols.AssignNode),
	}
}

func (p *fakeParsed) ResolveClass(key ids.NodeKey) (symbols.ClassNode, bool) {
	c, ok := p.classes[key]
	return c, ok
}

func (p *fakeParsed) ResolveFunction(key ids.NodeKey) (symbols.FunctionNode, bool) {
	f, ok := p.functions[key]
	return f, ok
}

func (p *fakeParsed) ResolveAssign(key ids.NodeKey) (symbols.AssignNode, bool) {
	a, ok := p.assigns[key]
	return a, ok
}

// fakeDB wires fakeTable/fakeParsed per file plus a dotted-name module
// registry, implementing Database entirely in memory so the core can be
// exercised without a real parser or module resolver.
type fakeDB struct {
	store   *types.Store
	tracker *Tracker

	tables  map[ids.FileId]*fakeTable
	parsed  map[ids.FileId]*fakeParsed
	modules map[symbols.ModuleName]fakeModule
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		store:   types.NewStore(types.DefaultStoreConfig()),
		tracker: NewTracker(),
		tables:  make(map[ids.FileId]*fakeTable),
		parsed:  make(map[ids.FileId]*fakeParsed),
		modules: make(map[symbols.ModuleName]fakeModule),
	}
}

func (d *fakeDB) fileTable(file ids.FileId) *fakeTable {
	t, ok := d.tables[file]
	if !ok {
		t = newFakeTable()
		d.tables[file] = t
	}
	return t
}

func (d *fakeDB) fileParsed(file ids.FileId) *fakeParsed {
	p, ok := d.parsed[file]
	if !ok {
		p = newFakeParsed()
		d.parsed[file] = p
	}
	return p
}

func (d *fakeDB) registerModule(name string, file ids.FileId) {
	d.modules[symbols.ModuleName(name)] = fakeModule{file: file, name: name}
}

func (d *fakeDB) Store() *types.Store { return d.store }

func (d *fakeDB) Parse(_ context.Context, file ids.FileId) (symbols.Parsed, error) {
	return d.fileParsed(file), nil
}

func (d *fakeDB) SymbolTable(_ context.Context, file ids.FileId) (symbols.Table, error) {
	return d.fileTable(file), nil
}

func (d *fakeDB) ResolveModule(_ context.Context, name symbols.ModuleName) (symbols.Module, bool, error) {
	mod, ok := d.modules[name]
	return mod, ok, nil
}

func (d *fakeDB) ResolveGlobalSymbol(_ context.Context, module symbols.ModuleName, name string) (ids.GlobalSymbolId, bool, error) {
	mod, ok := d.modules[module]
	if !ok {
		return ids.GlobalSymbolId{}, false, nil
	}
	sym, ok := d.fileTable(mod.file).RootSymbolIDByName(name)
	if !ok {
		return ids.GlobalSymbolId{}, false, nil
	}
	return ids.GlobalSymbolId{File: mod.file, Symbol: sym}, true, nil
}

func (d *fakeDB) Tracker() *Tracker { return d.tracker }

func nodeAt(kind string, start uint32) ids.NodeKey {
	return ids.NodeKey{Kind: kind, StartByte: start, EndByte: start + 1}
}

func nameExpr(name string) symbols.Expr {
	return symbols.Expr{Kind: symbols.ExprName, Name: name}
}

func attrExpr(base symbols.Expr, attr string) symbols.Expr {
	return symbols.Expr{Kind: symbols.ExprAttribute, Base: &base, Attr: attr}
}

func intExpr(v int64) symbols.Expr {
	return symbols.Expr{Kind: symbols.ExprIntLiteral, IntValue: v}
}
