package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basalt-sh/tycore/pkg/engine"
	"github.com/basalt-sh/tycore/pkg/symbols"
)

func moduleResolvable(e *engine.Engine, name string) (bool, error) {
	_, ok, err := e.ResolveModule(context.Background(), symbols.ModuleName(name))
	return ok, err
}

func TestBuildEngineDefaultsRootToCurrentDir(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.py"), []byte("x = 1\n"), 0o644))

	e, err := buildEngine("", "", "")
	require.NoError(t, err)
	defer e.Close()

	ok, resolveErr := moduleResolvable(e, "main")
	require.NoError(t, resolveErr)
	assert.True(t, ok, "module in the current directory should resolve when neither --root nor --config is given")
}

func TestBuildEngineExplicitRootOverridesConfigRoots(t *testing.T) {
	configRoot := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(configRoot, "a.py"), []byte("x = 1\n"), 0o644))

	cliRoot := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cliRoot, "b.py"), []byte("y = 2\n"), 0o644))

	configPath := filepath.Join(t.TempDir(), "tycore.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("roots:\n  - "+configRoot+"\n"), 0o644))

	e, err := buildEngine(configPath, cliRoot, "")
	require.NoError(t, err)
	defer e.Close()

	ok, resolveErr := moduleResolvable(e, "b")
	require.NoError(t, resolveErr)
	assert.True(t, ok, "module from --root override should resolve")

	ok, resolveErr = moduleResolvable(e, "a")
	require.NoError(t, resolveErr)
	assert.False(t, ok, "module only under the overridden config root should not resolve")
}

func TestBuildEngineUsesConfigRootsWhenNoFlagGiven(t *testing.T) {
	configRoot := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(configRoot, "a.py"), []byte("x = 1\n"), 0o644))

	configPath := filepath.Join(t.TempDir(), "tycore.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("roots:\n  - "+configRoot+"\n"), 0o644))

	e, err := buildEngine(configPath, "", "")
	require.NoError(t, err)
	defer e.Close()

	ok, resolveErr := moduleResolvable(e, "a")
	require.NoError(t, resolveErr)
	assert.True(t, ok, "module under the config file's roots should resolve when --root is not given")
}

func TestBuildEngineRejectsUnreadableConfig(t *testing.T) {
	_, err := buildEngine(filepath.Join(t.TempDir(), "missing.yaml"), "", "")
	assert.Error(t, err)
}
