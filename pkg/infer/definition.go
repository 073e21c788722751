package infer

import (
	"context"
	"fmt"

	"github.com/basalt-sh/tycore/pkg/ids"
	"github.com/basalt-sh/tycore/pkg/symbols"
	"github.com/basalt-sh/tycore/pkg/types"
)

// DefinitionType infers the type a single definition binds its symbol to.
// sym identifies the binding symbol itself (its File is the defining file,
// not necessarily the file being imported from); it is used to scope
// interned classes/functions and by_node cache lookups to the right file.
func DefinitionType(ctx context.Context, db Database, sym ids.GlobalSymbolId, def symbols.Definition) (types.Type, error) {
	switch def.Kind {
	case symbols.DefImport:
		return inferImport(ctx, db, def.ImportModule)

	case symbols.DefImportFrom:
		if def.FromLevel != 0 {
			// Relative imports are outside the restricted import sublanguage
			// this core understands; a collaborator producing one here is a
			// precondition violation, not a recoverable inference outcome.
			panic(fmt.Sprintf("infer: DefinitionType: relative import (level %d) is unsupported", def.FromLevel))
		}
		return inferImportFrom(ctx, db, def.FromModule, def.FromName)

	case symbols.DefClass:
		return inferClassDef(ctx, db, sym.File, def.Node)

	case symbols.DefFunction:
		return inferFunctionDef(ctx, db, sym, def.Node)

	case symbols.DefAssignment, symbols.DefAnnotatedAssignment:
		return inferAssignment(ctx, db, sym.File, def.Node)

	default:
		panic(fmt.Sprintf("infer: DefinitionType: unhandled definition kind %v", def.Kind))
	}
}

func inferImport(ctx context.Context, db Database, moduleName symbols.ModuleName) (types.Type, error) {
	mod, ok, err := db.ResolveModule(ctx, moduleName)
	if err != nil {
		return nil, err
	}
	if !ok {
		return types.Unknown{}, nil
	}
	return types.Module{File: mod.File(), Handle: types.ModuleHandle(mod.DottedName())}, nil
}

func inferImportFrom(ctx context.Context, db Database, fromModule symbols.ModuleName, name string) (types.Type, error) {
	if gsym, ok, err := db.ResolveGlobalSymbol(ctx, fromModule, name); err != nil {
		return nil, err
	} else if ok {
		return PublicType(ctx, db, gsym)
	}

	// name may itself be a submodule rather than a member of fromModule
	// (e.g. `from a import b` where a.b is a module, not a name bound in
	// a's namespace).
	submodule := symbols.ModuleName(string(fromModule) + "." + name)
	if mod, ok, err := db.ResolveModule(ctx, submodule); err != nil {
		return nil, err
	} else if ok {
		return types.Module{File: mod.File(), Handle: types.ModuleHandle(mod.DottedName())}, nil
	}

	return types.Unknown{}, nil
}

func inferClassDef(ctx context.Context, db Database, file ids.FileId, node ids.NodeKey) (types.Type, error) {
	store := db.Store()
	if ty, ok := store.GetCachedNodeType(file, node); ok {
		return ty, nil
	}

	parsed, err := db.Parse(ctx, file)
	if err != nil {
		return nil, err
	}
	class, ok := parsed.ResolveClass(node)
	if !ok {
		panic(fmt.Sprintf("infer: inferClassDef: node %s does not resolve to a class in file %d", node, file))
	}

	bases := make([]types.Type, 0, len(class.Bases))
	for _, base := range class.Bases {
		baseTy, err := InferExpr(ctx, db, file, base)
		if err != nil {
			return nil, err
		}
		bases = append(bases, baseTy)
	}

	classID := store.AddClass(file, class.Name, class.Scope, bases)
	result := types.Class{ID: classID}
	store.CacheNodeType(file, node, result)
	return result, nil
}

func inferFunctionDef(ctx context.Context, db Database, sym ids.GlobalSymbolId, node ids.NodeKey) (types.Type, error) {
	store := db.Store()
	file := sym.File
	if ty, ok := store.GetCachedNodeType(file, node); ok {
		return ty, nil
	}

	parsed, err := db.Parse(ctx, file)
	if err != nil {
		return nil, err
	}
	fn, ok := parsed.ResolveFunction(node)
	if !ok {
		panic(fmt.Sprintf("infer: inferFunctionDef: node %s does not resolve to a function in file %d", node, file))
	}

	decorators := make([]types.Type, 0, len(fn.Decorators))
	for _, dec := range fn.Decorators {
		decTy, err := InferExpr(ctx, db, file, dec)
		if err != nil {
			return nil, err
		}
		decorators = append(decorators, decTy)
	}

	fnID := store.AddFunction(file, fn.Name, sym.Symbol, fn.Scope, decorators)
	result := types.Function{ID: fnID}
	store.CacheNodeType(file, node, result)
	return result, nil
}

func inferAssignment(ctx context.Context, db Database, file ids.FileId, node ids.NodeKey) (types.Type, error) {
	parsed, err := db.Parse(ctx, file)
	if err != nil {
		return nil, err
	}
	assign, ok := parsed.ResolveAssign(node)
	if !ok {
		panic(fmt.Sprintf("infer: inferAssignment: node %s does not resolve to an assignment in file %d", node, file))
	}

	if assign.Annotated && !assign.HasValue {
		// `x: int` with no value: nothing to evaluate.
		return types.Unknown{}, nil
	}

	return InferExpr(ctx, db, file, assign.Value)
}
