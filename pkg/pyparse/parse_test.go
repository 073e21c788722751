package pyparse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basalt-sh/tycore/pkg/symbols"
)

func parseSource(t *testing.T, src string) *ParsedFile {
	t.Helper()
	p := NewParser(PoolConfig{MaxSize: 2}, nil)
	t.Cleanup(p.Close)

	pf, err := p.Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	t.Cleanup(pf.Close)
	return pf
}

func TestParseClassWithBases(t *testing.T) {
	pf := parseSource(t, "class Foo(Base, metaclass=Meta):\n    pass\n")

	var found *symbols.ClassNode
	for key := range pf.classes {
		node, ok := pf.ResolveClass(key)
		require.True(t, ok)
		found = &node
	}
	require.NotNil(t, found)
	assert.Equal(t, "Foo", found.Name)
	require.Len(t, found.Bases, 1)
	assert.Equal(t, symbols.ExprName, found.Bases[0].Kind)
	assert.Equal(t, "Base", found.Bases[0].Name)
}

func TestParseFunctionWithDecorators(t *testing.T) {
	pf := parseSource(t, "@staticmethod\ndef foo():\n    pass\n")

	var found *symbols.FunctionNode
	for key := range pf.functions {
		node, ok := pf.ResolveFunction(key)
		require.True(t, ok)
		found = &node
	}
	require.NotNil(t, found)
	assert.Equal(t, "foo", found.Name)
	require.Len(t, found.Decorators, 1)
	assert.Equal(t, "staticmethod", found.Decorators[0].Name)
}

func TestParseAnnotatedAssignmentWithoutValue(t *testing.T) {
	pf := parseSource(t, "x: int\n")

	var found *symbols.AssignNode
	for key := range pf.assigns {
		node, ok := pf.ResolveAssign(key)
		require.True(t, ok)
		found = &node
	}
	require.NotNil(t, found)
	assert.True(t, found.Annotated)
	assert.False(t, found.HasValue)
}

func TestParseAssignmentWithIntLiteral(t *testing.T) {
	pf := parseSource(t, "x = 42\n")

	var found *symbols.AssignNode
	for key := range pf.assigns {
		node, ok := pf.ResolveAssign(key)
		require.True(t, ok)
		found = &node
	}
	require.NotNil(t, found)
	assert.False(t, found.Annotated)
	require.True(t, found.HasValue)
	assert.Equal(t, symbols.ExprIntLiteral, found.Value.Kind)
	assert.Equal(t, int64(42), found.Value.IntValue)
}

func TestParseAttributeExpression(t *testing.T) {
	pf := parseSource(t, "x = a.b\n")

	var found *symbols.AssignNode
	for key := range pf.assigns {
		node, ok := pf.ResolveAssign(key)
		require.True(t, ok)
		found = &node
	}
	require.NotNil(t, found)
	require.Equal(t, symbols.ExprAttribute, found.Value.Kind)
	assert.Equal(t, "b", found.Value.Attr)
	require.NotNil(t, found.Value.Base)
	assert.Equal(t, symbols.ExprName, found.Value.Base.Kind)
	assert.Equal(t, "a", found.Value.Base.Name)
}

func TestParseIntOverflow(t *testing.T) {
	pf := parseSource(t, "x = 99999999999999999999999999999999\n")

	var found *symbols.AssignNode
	for key := range pf.assigns {
		node, ok := pf.ResolveAssign(key)
		require.True(t, ok)
		found = &node
	}
	require.NotNil(t, found)
	assert.True(t, found.Value.IntOverflow)
}
