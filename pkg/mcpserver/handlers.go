package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/basalt-sh/tycore/pkg/ids"
	"github.com/basalt-sh/tycore/pkg/infer"
	"github.com/basalt-sh/tycore/pkg/symbols"
	"github.com/basalt-sh/tycore/pkg/types"
)

func (s *Server) resolveRootSymbol(ctx context.Context, module, symbol string) (ids.GlobalSymbolId, bool, error) {
	mod, ok, err := s.engine.ResolveModule(ctx, symbols.ModuleName(module))
	if err != nil {
		return ids.GlobalSymbolId{}, false, err
	}
	if !ok {
		return ids.GlobalSymbolId{}, false, nil
	}

	table, err := s.engine.SymbolTable(ctx, mod.File())
	if err != nil {
		return ids.GlobalSymbolId{}, false, err
	}

	sym, ok := table.RootSymbolIDByName(symbol)
	if !ok {
		return ids.GlobalSymbolId{}, false, nil
	}
	return ids.GlobalSymbolId{File: mod.File(), Symbol: sym}, true, nil
}

func (s *Server) handlePublicType(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	module, err := req.RequireString("module")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	symbol, err := req.RequireString("symbol")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	gsym, ok, err := s.resolveRootSymbol(ctx, module, symbol)
	if err != nil {
		return nil, err
	}
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("%s.%s: not found", module, symbol)), nil
	}

	ty, err := s.engine.PublicType(ctx, gsym)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(types.Display(ty, s.engine.Store())), nil
}

func (s *Server) handleDefinitionType(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	module, err := req.RequireString("module")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	symbol, err := req.RequireString("symbol")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	index := req.GetInt("index", 0)

	gsym, ok, err := s.resolveRootSymbol(ctx, module, symbol)
	if err != nil {
		return nil, err
	}
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("%s.%s: not found", module, symbol)), nil
	}

	table, err := s.engine.SymbolTable(ctx, gsym.File)
	if err != nil {
		return nil, err
	}
	defs := table.Definitions(gsym.Symbol)
	if index < 0 || index >= len(defs) {
		return mcp.NewToolResultError(fmt.Sprintf("%s.%s: has %d definition(s), index %d out of range", module, symbol, len(defs), index)), nil
	}

	ty, err := infer.DefinitionType(ctx, s.engine, gsym, defs[index])
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(types.Display(ty, s.engine.Store())), nil
}

func (s *Server) handleResolveModule(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	module, err := req.RequireString("module")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	mod, ok, err := s.engine.ResolveModule(ctx, symbols.ModuleName(module))
	if err != nil {
		return nil, err
	}
	if !ok {
		return mcp.NewToolResultText(fmt.Sprintf("%s: not found", module)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s: file id %d", mod.DottedName(), mod.File())), nil
}
