// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package lowering

import (
	"strconv"
	"strings"

	"github.com/dolthub/vitess/go/vt/sqlparser"

	"github.com/sqlplan-dev/sqlplan/expression"
	"github.com/sqlplan-dev/sqlplan/plan"
	"github.com/sqlplan-dev/sqlplan/types"
)

// LowerExpr translates an AST expression into a TypedExpr, resolving
// column references against schema. Lowering never fails (spec.md §4.2,
// §7 surface 3): an unresolved column, unknown function, or unrecognized
// expression shape all degrade to a node typed Unknown rather than
// returning an error.
func LowerExpr(astExpr sqlparser.Expr, schema plan.RelSchema, dialect Dialect) expression.TypedExpr {
	switch e := astExpr.(type) {
	case *sqlparser.ColName:
		return lowerColName(e, schema)
	case *sqlparser.SQLVal:
		return lowerSQLVal(e)
	case *sqlparser.NullVal:
		return &expression.Literal{Value: nil, Type: types.NewUnknown("null")}
	case sqlparser.BoolVal:
		return &expression.Literal{Value: bool(e), Type: types.Boolean}
	case *sqlparser.AndExpr:
		return lowerBinary(e.Left, "AND", e.Right, schema, dialect, true)
	case *sqlparser.OrExpr:
		return lowerBinary(e.Left, "OR", e.Right, schema, dialect, true)
	case *sqlparser.NotExpr:
		return lowerUnary("NOT", e.Expr, schema, dialect)
	case *sqlparser.ParenExpr:
		return LowerExpr(e.Expr, schema, dialect)
	case *sqlparser.ComparisonExpr:
		return lowerComparison(e, schema, dialect)
	case *sqlparser.BinaryExpr:
		return lowerBinary(e.Left, e.Operator, e.Right, schema, dialect, false)
	case *sqlparser.UnaryExpr:
		return lowerUnary(e.Operator, e.Expr, schema, dialect)
	case *sqlparser.RangeCond:
		return lowerRangeCond(e, schema, dialect)
	case *sqlparser.IsExpr:
		return lowerIsExpr(e, schema, dialect)
	case *sqlparser.FuncExpr:
		return lowerFuncExpr(e, schema, dialect)
	case *sqlparser.CaseExpr:
		return lowerCaseExpr(e, schema, dialect)
	case *sqlparser.ConvertExpr:
		return lowerConvertExpr(e, schema, dialect)
	case *sqlparser.ValTuple:
		return lowerValTuple(e, schema, dialect)
	case *sqlparser.Subquery, *sqlparser.ExistsExpr:
		return &expression.Subquery{Type: types.NewUnknown("subquery"), NullabilityV: types.Unknown}
	case *sqlparser.StarExpr:
		table := ""
		if !e.TableName.IsEmpty() {
			table = e.TableName.Name.String()
		}
		return &expression.Wildcard{Table: table}
	default:
		return expression.NewUnsupported("unrecognized expression: " + sqlparser.String(astExpr))
	}
}

func lowerColName(e *sqlparser.ColName, schema plan.RelSchema) expression.TypedExpr {
	name := e.Name.String()
	table := ""
	if !e.Qualifier.IsEmpty() {
		table = e.Qualifier.Name.String()
	}

	var col plan.TypedColumn
	var ok bool
	if table != "" {
		col, ok = schema.FindQualified(table, name)
	} else {
		col, ok = schema.FindColumn(name)
	}
	if !ok {
		// spec.md §4.2: lowering never fails on unresolved columns.
		return &expression.ColumnRef{
			Table:        table,
			Column:       name,
			Type:         types.NewUnknown("unresolved"),
			NullabilityV: types.Unknown,
		}
	}
	// Tag with the resolved source table rather than the literal query
	// qualifier (which may be empty) so lineage extraction and later
	// passes can always attribute the column to its origin.
	return &expression.ColumnRef{
		Table:        col.SourceTable,
		Column:       name,
		Type:         col.Type,
		NullabilityV: col.Nullability,
	}
}

func lowerSQLVal(e *sqlparser.SQLVal) expression.TypedExpr {
	switch e.Type {
	case sqlparser.IntVal:
		v, _ := strconv.ParseInt(string(e.Val), 10, 64)
		return &expression.Literal{Value: v, Type: types.Int64}
	case sqlparser.FloatVal:
		v, _ := strconv.ParseFloat(string(e.Val), 64)
		return &expression.Literal{Value: v, Type: types.Float64}
	case sqlparser.StrVal:
		return &expression.Literal{Value: string(e.Val), Type: types.NewString(nil)}
	case sqlparser.HexVal, sqlparser.HexNum, sqlparser.BitVal:
		return &expression.Literal{Value: string(e.Val), Type: types.Binary}
	case sqlparser.ValArg:
		return &expression.Literal{Value: string(e.Val), Type: types.NewUnknown("bind variable")}
	default:
		return &expression.Literal{Value: string(e.Val), Type: types.NewUnknown("unrecognized literal")}
	}
}

var comparisonOps = map[string]bool{
	"=": true, "<": true, ">": true, "<=": true, ">=": true, "!=": true, "<>": true, "<=>": true,
	"in": true, "not in": true, "like": true, "not like": true, "regexp": true, "not regexp": true,
}

func lowerComparison(e *sqlparser.ComparisonExpr, schema plan.RelSchema, dialect Dialect) expression.TypedExpr {
	op := strings.ToLower(e.Operator)

	if tuple, ok := e.Right.(sqlparser.ValTuple); ok && (op == "in" || op == "not in") {
		return lowerInList(e.Left, tuple, op == "not in", schema, dialect)
	}

	left := LowerExpr(e.Left, schema, dialect)
	right := LowerExpr(e.Right, schema, dialect)
	return &expression.BinaryOp{
		Left:         left,
		Op:           e.Operator,
		Right:        right,
		Type:         types.Boolean,
		NullabilityV: types.Combine(left.Nullability(), right.Nullability()),
	}
}

// lowerInList desugars `x IN (a, b, ...)` into the equivalent OR-of-equalities
// binary tree `x = a OR x = b OR ...` (spec.md §4.2), so downstream passes
// never need to special-case IN_LIST. An empty tuple desugars to the boolean
// identity for OR/AND under negation: `x IN ()` is always false, `x NOT IN
// ()` is always true.
func lowerInList(lhs sqlparser.Expr, tuple sqlparser.ValTuple, negate bool, schema plan.RelSchema, dialect Dialect) expression.TypedExpr {
	if len(tuple) == 0 {
		return &expression.Literal{Value: negate, Type: types.Boolean}
	}

	left := LowerExpr(lhs, schema, dialect)

	var disjunction expression.TypedExpr
	for _, v := range tuple {
		right := LowerExpr(v, schema, dialect)
		eq := &expression.BinaryOp{Left: left, Op: "=", Right: right, Type: types.Boolean,
			NullabilityV: types.Combine(left.Nullability(), right.Nullability())}
		if disjunction == nil {
			disjunction = eq
			continue
		}
		disjunction = &expression.BinaryOp{Left: disjunction, Op: "OR", Right: eq, Type: types.Boolean,
			NullabilityV: types.Combine(disjunction.Nullability(), eq.Nullability())}
	}

	if negate {
		return &expression.UnaryOp{Arg: disjunction, Op: "NOT", Type: types.Boolean, NullabilityV: disjunction.Nullability()}
	}
	return disjunction
}

var arithmeticOps = map[string]bool{"+": true, "-": true, "*": true, "/": true, "%": true, "div": true}

// lowerBinary handles AND/OR (forceBoolean=true) and the arithmetic/binary
// operators (forceBoolean=false), applying numeric promotion per spec.md
// §4.2: "/" always promotes to Float{64} unless either side is Decimal.
func lowerBinary(leftAst sqlparser.Expr, op string, rightAst sqlparser.Expr, schema plan.RelSchema, dialect Dialect, forceBoolean bool) expression.TypedExpr {
	left := LowerExpr(leftAst, schema, dialect)
	right := LowerExpr(rightAst, schema, dialect)
	nullability := types.Combine(left.Nullability(), right.Nullability())

	if forceBoolean {
		return &expression.BinaryOp{Left: left, Op: op, Right: right, Type: types.Boolean, NullabilityV: nullability}
	}

	resultType := types.PromoteNumeric(left.ResolvedType(), right.ResolvedType())
	lowerOp := strings.ToLower(op)
	if lowerOp == "/" {
		lt, rt := left.ResolvedType(), right.ResolvedType()
		if lt.Kind() != types.KindDecimal && rt.Kind() != types.KindDecimal {
			resultType = types.Float64
		}
	}
	return &expression.BinaryOp{Left: left, Op: op, Right: right, Type: resultType, NullabilityV: nullability}
}

func lowerUnary(op string, argAst sqlparser.Expr, schema plan.RelSchema, dialect Dialect) expression.TypedExpr {
	arg := LowerExpr(argAst, schema, dialect)
	resultType := arg.ResolvedType()
	if strings.EqualFold(op, "not") || strings.EqualFold(op, "!") {
		resultType = types.Boolean
	}
	return &expression.UnaryOp{Arg: arg, Op: op, Type: resultType, NullabilityV: arg.Nullability()}
}

// lowerRangeCond desugars BETWEEN/NOT BETWEEN into the equivalent
// conjunction of comparisons, per spec.md §4.2, so downstream passes see a
// uniform BinaryOp shape.
func lowerRangeCond(e *sqlparser.RangeCond, schema plan.RelSchema, dialect Dialect) expression.TypedExpr {
	left := LowerExpr(e.Left, schema, dialect)
	from := LowerExpr(e.From, schema, dialect)
	to := LowerExpr(e.To, schema, dialect)

	ge := &expression.BinaryOp{Left: left, Op: ">=", Right: from, Type: types.Boolean,
		NullabilityV: types.Combine(left.Nullability(), from.Nullability())}
	le := &expression.BinaryOp{Left: left, Op: "<=", Right: to, Type: types.Boolean,
		NullabilityV: types.Combine(left.Nullability(), to.Nullability())}
	and := &expression.BinaryOp{Left: ge, Op: "AND", Right: le, Type: types.Boolean,
		NullabilityV: types.Combine(ge.Nullability(), le.Nullability())}

	if strings.EqualFold(e.Operator, "not between") {
		return &expression.UnaryOp{Arg: and, Op: "NOT", Type: types.Boolean, NullabilityV: and.Nullability()}
	}
	return and
}

func lowerIsExpr(e *sqlparser.IsExpr, schema plan.RelSchema, dialect Dialect) expression.TypedExpr {
	arg := LowerExpr(e.Expr, schema, dialect)
	op := strings.ToLower(e.Operator)
	if strings.Contains(op, "null") {
		return &expression.IsNull{Expr: arg, Negated: strings.Contains(op, "not")}
	}
	// IS TRUE / IS FALSE / IS UNKNOWN degrade to a boolean comparison.
	return &expression.BinaryOp{Left: arg, Op: "IS", Right: &expression.Literal{Value: op, Type: types.Boolean},
		Type: types.Boolean, NullabilityV: types.NotNull}
}

func lowerValTuple(e *sqlparser.ValTuple, schema plan.RelSchema, dialect Dialect) expression.TypedExpr {
	if len(*e) == 0 {
		return &expression.Literal{Value: false, Type: types.Boolean}
	}
	first := LowerExpr((*e)[0], schema, dialect)
	return expression.NewUnsupported("tuple literal: " + first.String())
}

func lowerConvertExpr(e *sqlparser.ConvertExpr, schema plan.RelSchema, dialect Dialect) expression.TypedExpr {
	inner := LowerExpr(e.Expr, schema, dialect)
	target := types.ParseSqlType(sqlparser.String(e.Type))

	if target.Kind() == types.KindUuid {
		if lit, ok := inner.(*expression.Literal); ok {
			if s, ok := lit.Value.(string); ok && !types.ValidateUuidLiteral(s) {
				target = types.NewUnknown("invalid UUID literal")
			}
		}
	}

	return &expression.Cast{Expr: inner, TargetType: target, TryCast: false, NullabilityV: inner.Nullability()}
}

func lowerCaseExpr(e *sqlparser.CaseExpr, schema plan.RelSchema, dialect Dialect) expression.TypedExpr {
	var operand expression.TypedExpr
	if e.Expr != nil {
		operand = LowerExpr(e.Expr, schema, dialect)
	}

	var conditions, results []expression.TypedExpr
	for _, when := range e.Whens {
		conditions = append(conditions, LowerExpr(when.Cond, schema, dialect))
		results = append(results, LowerExpr(when.Val, schema, dialect))
	}

	var elseExpr expression.TypedExpr
	if e.Else != nil {
		elseExpr = LowerExpr(e.Else, schema, dialect)
	}

	resultType := types.NewUnknown("CASE with no branches")
	if len(results) > 0 {
		resultType = results[0].ResolvedType()
	}

	nullable := elseExpr == nil
	if !nullable {
		for _, r := range results {
			if r.Nullability() == types.Nullable {
				nullable = true
				break
			}
		}
	}
	nullability := types.NotNull
	if nullable {
		nullability = types.Nullable
	}

	return &expression.Case{
		Operand: operand, Conditions: conditions, Results: results, Else: elseExpr,
		Type: resultType, NullabilityV: nullability,
	}
}

func lowerFuncExpr(e *sqlparser.FuncExpr, schema plan.RelSchema, dialect Dialect) expression.TypedExpr {
	name := strings.ToUpper(e.Name.String())

	var args []expression.TypedExpr
	for _, sel := range e.Exprs {
		switch s := sel.(type) {
		case *sqlparser.AliasedExpr:
			args = append(args, LowerExpr(s.Expr, schema, dialect))
		case *sqlparser.StarExpr:
			args = append(args, &expression.Wildcard{})
		}
	}

	resultType, nullability := builtinFunctionType(name, args)
	if resultType.Kind() == types.KindUnknown && resultType.Reason() == "unrecognized function" {
		if sig, ok := dialect.Functions.Lookup(name); ok {
			argTypes := make([]types.SqlType, len(args))
			argNull := make([]types.Nullability, len(args))
			for i, a := range args {
				argTypes[i] = a.ResolvedType()
				argNull[i] = a.Nullability()
			}
			resultType = sig.ReturnType(argTypes)
			nullability = sig.Nullability(argNull)
		} else {
			resultType = types.NewUnknown(name)
		}
	}

	return &expression.FunctionCall{Name: name, Args: args, Type: resultType, NullabilityV: nullability}
}

var stringFunctions = map[string]bool{
	"UPPER": true, "LOWER": true, "TRIM": true, "CONCAT": true, "LTRIM": true,
	"RTRIM": true, "REPLACE": true, "SUBSTRING": true, "SUBSTR": true, "LPAD": true, "RPAD": true,
}

// builtinFunctionType implements the built-in function typing rules of
// spec.md §4.2. It returns Unknown("unrecognized function") as a sentinel
// so callers can fall back to the FunctionRegistry before finally settling
// on Unknown(name).
func builtinFunctionType(name string, args []expression.TypedExpr) (types.SqlType, types.Nullability) {
	switch name {
	case "COUNT":
		return types.Int64, types.NotNull
	case "SUM", "MIN", "MAX":
		if len(args) == 0 {
			return types.NewUnknown(name + " with no arguments"), types.Nullable
		}
		return args[0].ResolvedType(), types.Nullable
	case "AVG":
		// Open Question (spec.md §9): AVG(DECIMAL) could stay Decimal;
		// this implementation follows the spec's stated default of
		// Float{64} Nullable uniformly.
		return types.Float64, types.Nullable
	case "COALESCE":
		if len(args) == 0 {
			return types.NewUnknown("COALESCE with no arguments"), types.Nullable
		}
		nullability := types.Nullable
		for _, a := range args {
			if a.Nullability() == types.NotNull {
				nullability = types.NotNull
				break
			}
		}
		return args[0].ResolvedType(), nullability
	case "LENGTH", "CHAR_LENGTH", "CHARACTER_LENGTH":
		n := types.Nullable
		if len(args) > 0 {
			n = args[0].Nullability()
		}
		return types.Int32, n
	case "NOW", "CURRENT_TIMESTAMP", "CURRENT_TIMESTAMP()":
		return types.Timestamp, types.NotNull
	case "DATE_TRUNC", "EXTRACT":
		return types.Int64, types.Nullable
	default:
		if stringFunctions[name] {
			n := types.Nullable
			if len(args) > 0 {
				n = args[0].Nullability()
			}
			return types.NewString(nil), n
		}
		return types.NewUnknown("unrecognized function"), types.Unknown
	}
}
