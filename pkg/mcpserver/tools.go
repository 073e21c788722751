package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

func publicTypeTool() mcp.Tool {
	return mcp.NewTool("public_type",
		mcp.WithDescription("Resolves the inferred public type of a root-scope symbol in a module, following imports and merging multi-branch definitions into a union."),
		mcp.WithString("module", mcp.Required(), mcp.Description("Dotted module name, e.g. \"pkg.mod\"")),
		mcp.WithString("symbol", mcp.Required(), mcp.Description("Name bound at the module's root scope")),
	)
}

func definitionTypeTool() mcp.Tool {
	return mcp.NewTool("definition_type",
		mcp.WithDescription("Infers the type of one specific definition site of a symbol, without merging it with the symbol's other definitions."),
		mcp.WithString("module", mcp.Required(), mcp.Description("Dotted module name, e.g. \"pkg.mod\"")),
		mcp.WithString("symbol", mcp.Required(), mcp.Description("Name bound at the module's root scope")),
		mcp.WithNumber("index", mcp.Description("Which of the symbol's definitions to infer, in source order. Defaults to 0.")),
	)
}

func resolveModuleTool() mcp.Tool {
	return mcp.NewTool("resolve_module",
		mcp.WithDescription("Reports whether a dotted module name resolves to a source file or stub module under the configured search-path roots."),
		mcp.WithString("module", mcp.Required(), mcp.Description("Dotted module name, e.g. \"pkg.mod\"")),
	)
}
