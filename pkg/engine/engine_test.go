package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basalt-sh/tycore/pkg/ids"
	"github.com/basalt-sh/tycore/pkg/types"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func newTestEngine(t *testing.T, root string) *Engine {
	t.Helper()
	e, err := New(Config{Roots: []string{root}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestEngineFollowImportToClass(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.py", "import b\nE = b.Foo\n")
	writeFile(t, dir, "b.py", "class Foo:\n    pass\n")

	e := newTestEngine(t, dir)
	ctx := context.Background()

	mainMod, ok, err := e.ResolveModule(ctx, "main")
	require.NoError(t, err)
	require.True(t, ok)

	table, err := e.SymbolTable(ctx, mainMod.File())
	require.NoError(t, err)
	sym, ok := table.RootSymbolIDByName("b")
	require.True(t, ok)

	ty, err := e.PublicType(ctx, ids.GlobalSymbolId{File: mainMod.File(), Symbol: sym})
	require.NoError(t, err)
	assert.IsType(t, types.Module{}, ty)
	assert.Equal(t, "Module[b]", types.Display(ty, e.Store()))

	eSym, ok := table.RootSymbolIDByName("E")
	require.True(t, ok)

	eTy, err := e.PublicType(ctx, ids.GlobalSymbolId{File: mainMod.File(), Symbol: eSym})
	require.NoError(t, err)
	assert.IsType(t, types.Class{}, eTy)
	assert.Equal(t, "Literal[Foo]", types.Display(eTy, e.Store()))
}

func TestEngineResolveLiteral(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.py", "x = 5\n")

	e := newTestEngine(t, dir)
	ctx := context.Background()

	mod, ok, err := e.ResolveModule(ctx, "main")
	require.NoError(t, err)
	require.True(t, ok)

	table, err := e.SymbolTable(ctx, mod.File())
	require.NoError(t, err)
	sym, ok := table.RootSymbolIDByName("x")
	require.True(t, ok)

	ty, err := e.PublicType(ctx, ids.GlobalSymbolId{File: mod.File(), Symbol: sym})
	require.NoError(t, err)
	assert.Equal(t, "Literal[5]", types.Display(ty, e.Store()))
}

func TestEngineResolveUnionAcrossBranches(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.py", "if True:\n    x = 1\nelse:\n    x = 2\n")

	e := newTestEngine(t, dir)
	ctx := context.Background()

	mod, ok, err := e.ResolveModule(ctx, "main")
	require.NoError(t, err)
	require.True(t, ok)

	table, err := e.SymbolTable(ctx, mod.File())
	require.NoError(t, err)
	sym, ok := table.RootSymbolIDByName("x")
	require.True(t, ok)

	ty, err := e.PublicType(ctx, ids.GlobalSymbolId{File: mod.File(), Symbol: sym})
	require.NoError(t, err)
	assert.Equal(t, "(Literal[1] | Literal[2])", types.Display(ty, e.Store()))
}

func TestEngineResolveBaseClassByName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.py", "class Base:\n    pass\n\nclass Foo(Base):\n    pass\n")

	e := newTestEngine(t, dir)
	ctx := context.Background()

	mod, ok, err := e.ResolveModule(ctx, "main")
	require.NoError(t, err)
	require.True(t, ok)

	table, err := e.SymbolTable(ctx, mod.File())
	require.NoError(t, err)
	sym, ok := table.RootSymbolIDByName("Foo")
	require.True(t, ok)

	ty, err := e.PublicType(ctx, ids.GlobalSymbolId{File: mod.File(), Symbol: sym})
	require.NoError(t, err)
	class, ok := ty.(types.Class)
	require.True(t, ok)
	entry := e.Store().GetClass(class.ID)
	require.Len(t, entry.Bases, 1)
	assert.Equal(t, "Literal[Base]", types.Display(entry.Bases[0], e.Store()))
}

func TestEngineQueryManyMatchesIndividualQueries(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.py", "a = 1\nb = 2\nc = 3\n")

	e := newTestEngine(t, dir)
	ctx := context.Background()

	mod, ok, err := e.ResolveModule(ctx, "main")
	require.NoError(t, err)
	require.True(t, ok)

	table, err := e.SymbolTable(ctx, mod.File())
	require.NoError(t, err)

	names := []string{"a", "b", "c"}
	globals := make([]ids.GlobalSymbolId, 0, len(names))
	for _, name := range names {
		sym, ok := table.RootSymbolIDByName(name)
		require.True(t, ok)
		globals = append(globals, ids.GlobalSymbolId{File: mod.File(), Symbol: sym})
	}

	results := e.QueryMany(ctx, globals)
	require.Len(t, results, 3)
	for i, res := range results {
		require.NoError(t, res.Err)
		assert.Equal(t, globals[i], res.Symbol)
	}
	assert.Equal(t, "Literal[1]", types.Display(results[0].Type, e.Store()))
	assert.Equal(t, "Literal[2]", types.Display(results[1].Type, e.Store()))
	assert.Equal(t, "Literal[3]", types.Display(results[2].Type, e.Store()))
}

func TestEngineWatcherInvalidatesOnWrite(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.py", "x = 1\n")

	e := newTestEngine(t, dir)
	ctx := context.Background()

	mod, ok, err := e.ResolveModule(ctx, "main")
	require.NoError(t, err)
	require.True(t, ok)

	table, err := e.SymbolTable(ctx, mod.File())
	require.NoError(t, err)
	sym, ok := table.RootSymbolIDByName("x")
	require.True(t, ok)

	ty, err := e.PublicType(ctx, ids.GlobalSymbolId{File: mod.File(), Symbol: sym})
	require.NoError(t, err)
	assert.Equal(t, "Literal[1]", types.Display(ty, e.Store()))

	w, err := NewWatcher(e, WatchOptions{DebounceMs: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })
	require.NoError(t, w.Start(dir))

	writeFile(t, dir, "main.py", "x = 2\n")

	assert.Eventually(t, func() bool {
		table2, err := e.SymbolTable(ctx, mod.File())
		if err != nil {
			return false
		}
		sym2, ok := table2.RootSymbolIDByName("x")
		if !ok {
			return false
		}
		ty2, err := e.PublicType(ctx, ids.GlobalSymbolId{File: mod.File(), Symbol: sym2})
		if err != nil {
			return false
		}
		return types.Display(ty2, e.Store()) == "Literal[2]"
	}, 2*time.Second, 10*time.Millisecond)
}
