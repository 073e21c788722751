package pysymbols

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basalt-sh/tycore/pkg/ids"
	"github.com/basalt-sh/tycore/pkg/pyparse"
	"github.com/basalt-sh/tycore/pkg/symbols"
)

func buildTable(t *testing.T, src string) *Table {
	t.Helper()
	p := pyparse.NewParser(pyparse.PoolConfig{MaxSize: 2}, nil)
	t.Cleanup(p.Close)

	pf, err := p.Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	t.Cleanup(pf.Close)

	return Build(pf)
}

func TestBuildBindsSimpleAssignment(t *testing.T) {
	table := buildTable(t, "x = 1\n")

	sym, ok := table.RootSymbolIDByName("x")
	require.True(t, ok)

	defs := table.Definitions(sym)
	require.Len(t, defs, 1)
	assert.Equal(t, symbols.DefAssignment, defs[0].Kind)
}

func TestBuildBindsAnnotatedAssignment(t *testing.T) {
	table := buildTable(t, "x: int = 1\n")

	sym, ok := table.RootSymbolIDByName("x")
	require.True(t, ok)

	defs := table.Definitions(sym)
	require.Len(t, defs, 1)
	assert.Equal(t, symbols.DefAnnotatedAssignment, defs[0].Kind)
}

func TestBuildBindsImport(t *testing.T) {
	table := buildTable(t, "import foo.bar\n")

	sym, ok := table.RootSymbolIDByName("foo.bar")
	require.True(t, ok)

	defs := table.Definitions(sym)
	require.Len(t, defs, 1)
	assert.Equal(t, symbols.DefImport, defs[0].Kind)
	assert.Equal(t, symbols.ModuleName("foo.bar"), defs[0].ImportModule)
}

func TestBuildBindsImportFrom(t *testing.T) {
	table := buildTable(t, "from foo import bar\n")

	sym, ok := table.RootSymbolIDByName("bar")
	require.True(t, ok)

	defs := table.Definitions(sym)
	require.Len(t, defs, 1)
	assert.Equal(t, symbols.DefImportFrom, defs[0].Kind)
	assert.Equal(t, symbols.ModuleName("foo"), defs[0].FromModule)
	assert.Equal(t, "bar", defs[0].FromName)
	assert.Equal(t, 0, defs[0].FromLevel)
}

func TestBuildBindsClassAndOwnMember(t *testing.T) {
	table := buildTable(t, "class Foo:\n    x = 1\n")

	sym, ok := table.RootSymbolIDByName("Foo")
	require.True(t, ok)

	defs := table.Definitions(sym)
	require.Len(t, defs, 1)
	require.Equal(t, symbols.DefClass, defs[0].Kind)

	scope := table.ScopeIDForNode(defs[0].Node)
	member, ok := table.SymbolInScope(scope, "x")
	require.True(t, ok)
	memberDefs := table.Definitions(member)
	require.Len(t, memberDefs, 1)
	assert.Equal(t, symbols.DefAssignment, memberDefs[0].Kind)
}

func TestBuildFunctionBodyNotDescendedInto(t *testing.T) {
	table := buildTable(t, "def foo():\n    x = 1\n")

	_, ok := table.RootSymbolIDByName("x")
	assert.False(t, ok)
}

func TestBuildMergesDefinitionsAcrossIfElseBranches(t *testing.T) {
	table := buildTable(t, "if True:\n    x = 1\nelse:\n    x = 2\n")

	sym, ok := table.RootSymbolIDByName("x")
	require.True(t, ok)

	defs := table.Definitions(sym)
	require.Len(t, defs, 2)
	for _, d := range defs {
		assert.Equal(t, symbols.DefAssignment, d.Kind)
	}
}

func TestBuildSkipsSubscriptAndAttributeTargets(t *testing.T) {
	table := buildTable(t, "d[0] = 1\no.f = 2\n")

	_, ok := table.SymbolInScope(0, "d")
	assert.False(t, ok)
}

func TestBuildRedeclarationReusesSameSymbol(t *testing.T) {
	table := buildTable(t, "x = 1\nx = 2\n")

	sym, ok := table.RootSymbolIDByName("x")
	require.True(t, ok)

	defs := table.Definitions(sym)
	require.Len(t, defs, 2)
}

func TestScopeIDForNodeMatchesIdsDerivation(t *testing.T) {
	table := buildTable(t, "class Foo:\n    pass\n")

	sym, ok := table.RootSymbolIDByName("Foo")
	require.True(t, ok)
	defs := table.Definitions(sym)
	require.Len(t, defs, 1)

	assert.Equal(t, ids.ScopeFromNode(defs[0].Node), table.ScopeIDForNode(defs[0].Node))
}
