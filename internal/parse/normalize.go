package parse

import "go.pktfmt.dev/pktfmt/internal/ast"

// Normalize reduces a general AlgExpr to one of the five UsableAlgExpr
// shapes (§4.2 "Algebraic-shape normalization"), or reports ExprTooComplex.
// Subtraction and division never appear in a usable shape (the closed set
// in the GLOSSARY only has +/*), so any tree using them anywhere fails.
func Normalize(e *ast.AlgExpr) (ast.UsableAlgExpr, *ast.Error) {
	if e == nil {
		return ast.UsableAlgExpr{}, ast.NewError(ast.ErrExprTooComplex, ast.Span{}, "empty length expression")
	}

	switch e.Kind {
	case ast.AlgIdent:
		return ast.UsableAlgExpr{Shape: ast.ShapeIdent, Field: e.Ident, Span: e.Span}, nil

	case ast.AlgBinary:
		switch e.Op {
		case ast.OpAdd:
			if field, k, ok := identPlusConst(e.LHS, e.RHS); ok {
				return ast.UsableAlgExpr{Shape: ast.ShapeIdentPlus, Field: field, A: k, Span: e.Span}, nil
			}
			if field, m, a, ok := timesPlusConst(e.LHS, e.RHS); ok {
				return ast.UsableAlgExpr{Shape: ast.ShapeTimesPlus, Field: field, M: m, A: a, Span: e.Span}, nil
			}
		case ast.OpMul:
			if field, m, ok := identTimesConst(e.LHS, e.RHS); ok {
				return ast.UsableAlgExpr{Shape: ast.ShapeIdentTimes, Field: field, M: m, Span: e.Span}, nil
			}
			if field, a, m, ok := plusTimesConst(e.LHS, e.RHS); ok {
				return ast.UsableAlgExpr{Shape: ast.ShapePlusTimes, Field: field, A: a, M: m, Span: e.Span}, nil
			}
		}
	}
	return ast.UsableAlgExpr{}, ast.NewError(ast.ErrExprTooComplex, e.Span,
		"length expression is not one of the supported forms (x, x+k, x*k, (x+a)*m, x*m+a)")
}

// identPlusConst matches `ident + num` in either operand order.
func identPlusConst(a, b *ast.AlgExpr) (field string, k uint64, ok bool) {
	if a.Kind == ast.AlgIdent && b.Kind == ast.AlgNum {
		return a.Ident, b.Num, true
	}
	if b.Kind == ast.AlgIdent && a.Kind == ast.AlgNum {
		return b.Ident, a.Num, true
	}
	return "", 0, false
}

// identTimesConst matches `ident * num` in either operand order.
func identTimesConst(a, b *ast.AlgExpr) (field string, m uint64, ok bool) {
	if a.Kind == ast.AlgIdent && b.Kind == ast.AlgNum {
		return a.Ident, b.Num, true
	}
	if b.Kind == ast.AlgIdent && a.Kind == ast.AlgNum {
		return b.Ident, a.Num, true
	}
	return "", 0, false
}

// plusTimesConst matches `(ident + num) * num` in either operand order,
// producing the (x+a)*m shape.
func plusTimesConst(a, b *ast.AlgExpr) (field string, addend, mul uint64, ok bool) {
	if a.Kind == ast.AlgBinary && a.Op == ast.OpAdd && b.Kind == ast.AlgNum {
		if field, addend, ok := identPlusConst(a.LHS, a.RHS); ok {
			return field, addend, b.Num, true
		}
	}
	if b.Kind == ast.AlgBinary && b.Op == ast.OpAdd && a.Kind == ast.AlgNum {
		if field, addend, ok := identPlusConst(b.LHS, b.RHS); ok {
			return field, addend, a.Num, true
		}
	}
	return "", 0, 0, false
}

// timesPlusConst matches `(ident * num) + num` in either operand order,
// producing the x*m+a shape.
func timesPlusConst(a, b *ast.AlgExpr) (field string, mul, addend uint64, ok bool) {
	if a.Kind == ast.AlgBinary && a.Op == ast.OpMul && b.Kind == ast.AlgNum {
		if field, mul, ok := identTimesConst(a.LHS, a.RHS); ok {
			return field, mul, b.Num, true
		}
	}
	if b.Kind == ast.AlgBinary && b.Op == ast.OpMul && a.Kind == ast.AlgNum {
		if field, mul, ok := identTimesConst(b.LHS, b.RHS); ok {
			return field, mul, a.Num, true
		}
	}
	return "", 0, 0, false
}
