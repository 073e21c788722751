// Package stubcatalog holds a JSON-loaded registry of modules the
// inference core has no source for — interpreter builtins and vendored
// dependencies — each described as a flat list of exported members. A
// stub module is handed to the core through the ordinary symbols.Table /
// symbols.Parsed collaborator interfaces, via synthetic NodeKeys, so the
// definition inferencer needs no stub-specific code path at all.
package stubcatalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/basalt-sh/tycore/pkg/ids"
	"github.com/basalt-sh/tycore/pkg/symbols"
)

// MemberKind is the closed sum of stub member shapes.
type MemberKind string

const (
	KindClass    MemberKind = "class"
	KindFunction MemberKind = "function"
	KindValue    MemberKind = "value"
)

// Member is one exported name of a stub module.
type Member struct {
	Name  string     `json:"name"`
	Kind  MemberKind `json:"kind"`
	Bases []string   `json:"bases,omitempty"` // meaningful only for KindClass
}

// ModuleStub describes one module's exported surface.
type ModuleStub struct {
	Name    string   `json:"name"`
	Members []Member `json:"members"`
}

// Catalog is the full stub registry.
type Catalog struct {
	Modules []ModuleStub `json:"modules"`

	byName map[string]*ModuleStub
}

// Validate checks the catalog for internal consistency: unique module
// names, non-empty member names, and a recognized member kind.
func (c *Catalog) Validate() []error {
	var errs []error

	moduleNames := make(map[string]bool, len(c.Modules))
	for i, mod := range c.Modules {
		if mod.Name == "" {
			errs = append(errs, fmt.Errorf("modules[%d]: name is required", i))
			continue
		}
		if moduleNames[mod.Name] {
			errs = append(errs, fmt.Errorf("modules[%d]: duplicate module name %q", i, mod.Name))
			continue
		}
		moduleNames[mod.Name] = true

		memberNames := make(map[string]bool, len(mod.Members))
		for j, mem := range mod.Members {
			if mem.Name == "" {
				errs = append(errs, fmt.Errorf("module %q members[%d]: name is required", mod.Name, j))
				continue
			}
			if memberNames[mem.Name] {
				errs = append(errs, fmt.Errorf("module %q: duplicate member name %q", mod.Name, mem.Name))
				continue
			}
			memberNames[mem.Name] = true

			switch mem.Kind {
			case KindClass, KindFunction, KindValue:
			default:
				errs = append(errs, fmt.Errorf("module %q member %q: invalid kind %q", mod.Name, mem.Name, mem.Kind))
			}
		}
	}

	return errs
}

// BuildIndex populates the name index used by HasModule and View.
// Should be called after Validate() passes.
func (c *Catalog) BuildIndex() {
	c.byName = make(map[string]*ModuleStub, len(c.Modules))
	for i := range c.Modules {
		c.byName[c.Modules[i].Name] = &c.Modules[i]
	}
}

// LoadFromFile loads, validates and indexes a catalog from a JSON file.
func LoadFromFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("stubcatalog: failed to read catalog file: %w", err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes loads, validates and indexes a catalog from raw JSON.
func LoadFromBytes(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("stubcatalog: failed to parse catalog JSON: %w", err)
	}
	if errs := cat.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("stubcatalog: validation failed: %w", errors.Join(errs...))
	}
	cat.BuildIndex()
	return &cat, nil
}

// HasModule implements modresolve.StubLookup.
func (c *Catalog) HasModule(name string) bool {
	_, ok := c.byName[name]
	return ok
}

// View returns the symbols.Table and symbols.Parsed collaborators backing
// name's stub module, for a caller (pkg/engine) that has already resolved
// name to a FileId via modresolve and now needs to serve Parse/SymbolTable
// for it.
func (c *Catalog) View(name string) (symbols.Table, symbols.Parsed, bool) {
	mod, ok := c.byName[name]
	if !ok {
		return nil, nil, false
	}
	return buildView(mod)
}

// stubNode is the synthetic NodeKey scheme for stub members: the kind
// names the member's shape and the index is its position within the
// module, which is all a stub view needs to resolve itself back.
func stubNode(kind string, index int) ids.NodeKey {
	return ids.NodeKey{Kind: kind, StartByte: uint32(index), EndByte: uint32(index) + 1}
}

func buildView(mod *ModuleStub) (symbols.Table, symbols.Parsed, bool) {
	table := &stubTable{
		names: make(map[string]ids.SymbolId, len(mod.Members)),
		defs:  make(map[ids.SymbolId][]symbols.Definition, len(mod.Members)),
	}
	parsed := &stubParsed{
		classes:   make(map[ids.NodeKey]symbols.ClassNode),
		functions: make(map[ids.NodeKey]symbols.FunctionNode),
	}

	for i, mem := range mod.Members {
		sym := ids.SymbolId(i + 1)
		table.names[mem.Name] = sym

		switch mem.Kind {
		case KindClass:
			node := stubNode("stub_class", i)
			bases := make([]symbols.Expr, 0, len(mem.Bases))
			for _, b := range mem.Bases {
				bases = append(bases, symbols.Expr{Kind: symbols.ExprName, Name: b})
			}
			parsed.classes[node] = symbols.ClassNode{Name: mem.Name, Bases: bases, Scope: ids.ScopeFromNode(node)}
			table.defs[sym] = []symbols.Definition{{Kind: symbols.DefClass, Node: node}}

		case KindFunction:
			node := stubNode("stub_function", i)
			parsed.functions[node] = symbols.FunctionNode{Name: mem.Name, Scope: ids.ScopeFromNode(node)}
			table.defs[sym] = []symbols.Definition{{Kind: symbols.DefFunction, Node: node}}

		case KindValue:
			// No definition at all: public_type of an unannotated stub
			// value we have no information about is Unknown.
		}
	}

	return table, parsed, true
}

// stubTable is a flat, single-scope symbols.Table backing one stub module.
type stubTable struct {
	names map[string]ids.SymbolId
	defs  map[ids.SymbolId][]symbols.Definition
}

func (t *stubTable) Definitions(sym ids.SymbolId) []symbols.Definition { return t.defs[sym] }

func (t *stubTable) RootSymbolIDByName(name string) (ids.SymbolId, bool) {
	sym, ok := t.names[name]
	return sym, ok
}

func (t *stubTable) ScopeIDForNode(key ids.NodeKey) ids.ScopeId {
	return ids.ScopeFromNode(key)
}

func (t *stubTable) SymbolInScope(scope ids.ScopeId, name string) (ids.SymbolId, bool) {
	if scope != 0 {
		// Stub classes never carry their own members in this catalog
		// format; only the module's own root scope resolves names.
		return 0, false
	}
	return t.RootSymbolIDByName(name)
}

// stubParsed answers node resolution for the synthetic NodeKeys stubTable
// hands out.
type stubParsed struct {
	classes   map[ids.NodeKey]symbols.ClassNode
	functions map[ids.NodeKey]symbols.FunctionNode
}

func (p *stubParsed) ResolveClass(key ids.NodeKey) (symbols.ClassNode, bool) {
	c, ok := p.classes[key]
	return c, ok
}

func (p *stubParsed) ResolveFunction(key ids.NodeKey) (symbols.FunctionNode, bool) {
	f, ok := p.functions[key]
	return f, ok
}

func (p *stubParsed) ResolveAssign(ids.NodeKey) (symbols.AssignNode, bool) {
	return symbols.AssignNode{}, false
}
