package infer

import (
	"context"
	"fmt"

	"github.com/basalt-sh/tycore/pkg/ids"
	"github.com/basalt-sh/tycore/pkg/symbols"
	"github.com/basalt-sh/tycore/pkg/types"
)

// InferExpr evaluates expr, which was found within file, against the
// restricted expression sublanguage the core understands: integer
// literals, name references, and attribute access. Any other expression
// shape yields Unknown.
func InferExpr(ctx context.Context, db Database, file ids.FileId, expr symbols.Expr) (types.Type, error) {
	switch expr.Kind {
	case symbols.ExprIntLiteral:
		if expr.IntOverflow {
			return types.Unknown{}, nil
		}
		return types.IntLiteral{Value: expr.IntValue}, nil

	case symbols.ExprName:
		table, err := db.SymbolTable(ctx, file)
		if err != nil {
			return nil, err
		}
		sym, ok := table.RootSymbolIDByName(expr.Name)
		if !ok {
			return types.Unknown{}, nil
		}
		return PublicType(ctx, db, ids.GlobalSymbolId{File: file, Symbol: sym})

	case symbols.ExprAttribute:
		if expr.Base == nil {
			panic("infer: InferExpr: attribute expression with nil Base")
		}
		baseTy, err := InferExpr(ctx, db, file, *expr.Base)
		if err != nil {
			return nil, err
		}
		return memberOf(ctx, db, baseTy, expr.Attr)

	case symbols.ExprOther:
		return types.Unknown{}, nil

	default:
		panic(fmt.Sprintf("infer: InferExpr: unhandled expression kind %v", expr.Kind))
	}
}

// memberOf looks up name as a member of a value of type base. Module
// members resolve against the module's root (file-level) scope. Class
// members resolve against the class's own body scope only — base classes
// are never walked, matching the scoping limitation in the design. Every
// other variant (Unknown, IntLiteral, Function, Union) has no defined
// member access and yields Unknown.
func memberOf(ctx context.Context, db Database, base types.Type, name string) (types.Type, error) {
	switch b := base.(type) {
	case types.Module:
		table, err := db.SymbolTable(ctx, b.File)
		if err != nil {
			return nil, err
		}
		sym, ok := table.RootSymbolIDByName(name)
		if !ok {
			return types.Unknown{}, nil
		}
		return PublicType(ctx, db, ids.GlobalSymbolId{File: b.File, Symbol: sym})

	case types.Class:
		store := db.Store()
		entry := store.GetClass(b.ID)
		table, err := db.SymbolTable(ctx, b.ID.File)
		if err != nil {
			return nil, err
		}
		sym, ok := table.SymbolInScope(entry.DefiningScope, name)
		if !ok {
			return types.Unknown{}, nil
		}
		return PublicType(ctx, db, ids.GlobalSymbolId{File: b.ID.File, Symbol: sym})

	case types.Unknown, types.IntLiteral, types.Function, types.Union:
		return types.Unknown{}, nil

	default:
		panic(fmt.Sprintf("infer: memberOf: unhandled type variant %T", base))
	}
}
