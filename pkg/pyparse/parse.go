package pyparse

import (
	"context"
	"log/slog"
	"strconv"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/basalt-sh/tycore/pkg/ids"
	"github.com/basalt-sh/tycore/pkg/symbols"
)

// Parser parses Python source text into ParsedFile views, pooling
// tree-sitter parsers across concurrent callers.
type Parser struct {
	pool *pool
}

// NewParser creates a Parser. logger may be nil, in which case a discard
// logger is used.
func NewParser(cfg PoolConfig, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Parser{pool: newPool(cfg, logger)}
}

// Close releases every pooled parser. The Parser must not be used after
// Close returns.
func (p *Parser) Close() {
	p.pool.close()
}

// Parse parses source and returns a ParsedFile exposing it through the
// symbols.Parsed collaborator interface, plus the AST-walking helpers
// pysymbols needs to build a Table.
func (p *Parser) Parse(ctx context.Context, source []byte) (*ParsedFile, error) {
	parser, err := p.pool.acquire()
	if err != nil {
		return nil, err
	}
	defer p.pool.release(parser)

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, err
	}

	pf := &ParsedFile{
		source:    source,
		tree:      tree,
		classes:   make(map[ids.NodeKey]*sitter.Node),
		functions: make(map[ids.NodeKey]*sitter.Node),
		assigns:   make(map[ids.NodeKey]*sitter.Node),
	}
	pf.index(tree.RootNode())
	return pf, nil
}

// ParsedFile is one file's parsed AST. It keeps the tree-sitter tree alive
// for as long as the ParsedFile is reachable, so node pointers captured
// during indexing remain valid.
type ParsedFile struct {
	source []byte
	tree   *sitter.Tree

	classes   map[ids.NodeKey]*sitter.Node
	functions map[ids.NodeKey]*sitter.Node
	assigns   map[ids.NodeKey]*sitter.Node
}

// Close releases the underlying tree-sitter tree.
func (pf *ParsedFile) Close() {
	pf.tree.Close()
}

// Root returns the file's root (module) node.
func (pf *ParsedFile) Root() *sitter.Node {
	return pf.tree.RootNode()
}

// Source returns the file's source bytes.
func (pf *ParsedFile) Source() []byte {
	return pf.source
}

// NodeKey derives the stable identity pysymbols binds a Definition's Node
// field to.
func (pf *ParsedFile) NodeKey(n *sitter.Node) ids.NodeKey {
	return ids.NodeKey{Kind: n.Type(), StartByte: n.StartByte(), EndByte: n.EndByte()}
}

// index walks the whole tree once, recording every class_definition,
// function_definition and assignment node by its NodeKey so Resolve* can
// answer without re-walking.
func (pf *ParsedFile) index(n *sitter.Node) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "class_definition":
		pf.classes[pf.NodeKey(n)] = n
	case "function_definition":
		pf.functions[pf.NodeKey(n)] = n
	case "assignment":
		pf.assigns[pf.NodeKey(n)] = n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		pf.index(n.Child(i))
	}
}

// ResolveClass implements symbols.Parsed.
func (pf *ParsedFile) ResolveClass(key ids.NodeKey) (symbols.ClassNode, bool) {
	n, ok := pf.classes[key]
	if !ok {
		return symbols.ClassNode{}, false
	}

	name := ""
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		name = nameNode.Content(pf.source)
	}

	var bases []symbols.Expr
	if superclasses := n.ChildByFieldName("superclasses"); superclasses != nil {
		for i := 0; i < int(superclasses.NamedChildCount()); i++ {
			child := superclasses.NamedChild(i)
			if child.Type() == "keyword_argument" {
				// e.g. `class Foo(metaclass=Meta)`: not a base class.
				continue
			}
			bases = append(bases, pf.ToExpr(child))
		}
	}

	return symbols.ClassNode{
		Name:  name,
		Bases: bases,
		Scope: ids.ScopeFromNode(key),
	}, true
}

// ResolveFunction implements symbols.Parsed.
func (pf *ParsedFile) ResolveFunction(key ids.NodeKey) (symbols.FunctionNode, bool) {
	n, ok := pf.functions[key]
	if !ok {
		return symbols.FunctionNode{}, false
	}

	name := ""
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		name = nameNode.Content(pf.source)
	}

	var decorators []symbols.Expr
	if parent := n.Parent(); parent != nil && parent.Type() == "decorated_definition" {
		for i := 0; i < int(parent.NamedChildCount()); i++ {
			child := parent.NamedChild(i)
			if child.Type() != "decorator" {
				continue
			}
			// A decorator node wraps the decorated expression as its sole
			// named child (the leading '@' is anonymous).
			if expr := child.NamedChild(0); expr != nil {
				decorators = append(decorators, pf.ToExpr(expr))
			}
		}
	}

	return symbols.FunctionNode{
		Name:       name,
		Decorators: decorators,
		Scope:      ids.ScopeFromNode(key),
	}, true
}

// ResolveAssign implements symbols.Parsed.
func (pf *ParsedFile) ResolveAssign(key ids.NodeKey) (symbols.AssignNode, bool) {
	n, ok := pf.assigns[key]
	if !ok {
		return symbols.AssignNode{}, false
	}

	annotated := n.ChildByFieldName("type") != nil
	right := n.ChildByFieldName("right")
	if right == nil {
		return symbols.AssignNode{Annotated: annotated, HasValue: false}, true
	}

	return symbols.AssignNode{
		Annotated: annotated,
		HasValue:  true,
		Value:     pf.ToExpr(right),
	}, true
}

// ToExpr classifies n into the restricted expression sublanguage the
// inference core understands. Anything outside int literals, names and
// attribute access becomes ExprOther.
func (pf *ParsedFile) ToExpr(n *sitter.Node) symbols.Expr {
	switch n.Type() {
	case "integer":
		text := n.Content(pf.source)
		v, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			return symbols.Expr{Kind: symbols.ExprIntLiteral, IntOverflow: true}
		}
		return symbols.Expr{Kind: symbols.ExprIntLiteral, IntValue: v}

	case "identifier":
		return symbols.Expr{Kind: symbols.ExprName, Name: n.Content(pf.source)}

	case "attribute":
		object := n.ChildByFieldName("object")
		attr := n.ChildByFieldName("attribute")
		if object == nil || attr == nil {
			return symbols.Expr{Kind: symbols.ExprOther}
		}
		base := pf.ToExpr(object)
		return symbols.Expr{Kind: symbols.ExprAttribute, Base: &base, Attr: attr.Content(pf.source)}

	default:
		return symbols.Expr{Kind: symbols.ExprOther}
	}
}
