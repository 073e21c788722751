package mcpserver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basalt-sh/tycore/pkg/engine"
)

func newTestServer(t *testing.T, dir string) *Server {
	t.Helper()
	e, err := engine.New(engine.Config{Roots: []string{dir}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return NewServer(e, nil)
}

func callRequest(tool string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = tool
	req.Params.Arguments = args
	return req
}

func TestHandlePublicTypeReturnsDisplayedType(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.py"), []byte("x = 5\n"), 0o644))

	s := newTestServer(t, dir)
	result, err := s.handlePublicType(context.Background(), callRequest("public_type", map[string]any{
		"module": "main",
		"symbol": "x",
	}))
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	assert.Equal(t, "Literal[5]", text.Text)
}

func TestHandlePublicTypeUnknownSymbolIsToolError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.py"), []byte("x = 5\n"), 0o644))

	s := newTestServer(t, dir)
	result, err := s.handlePublicType(context.Background(), callRequest("public_type", map[string]any{
		"module": "main",
		"symbol": "nope",
	}))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)
}

func TestHandleResolveModuleNotFound(t *testing.T) {
	dir := t.TempDir()

	s := newTestServer(t, dir)
	result, err := s.handleResolveModule(context.Background(), callRequest("resolve_module", map[string]any{
		"module": "nope",
	}))
	require.NoError(t, err)
	require.NotNil(t, result)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	assert.Contains(t, text.Text, "not found")
}

func TestHandleDefinitionTypeOutOfRangeIndex(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.py"), []byte("x = 5\n"), 0o644))

	s := newTestServer(t, dir)
	result, err := s.handleDefinitionType(context.Background(), callRequest("definition_type", map[string]any{
		"module": "main",
		"symbol": "x",
		"index":  float64(3),
	}))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)
}
