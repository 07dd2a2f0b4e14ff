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
	"github.com/pkg/errors"

	"github.com/sqlplan-dev/sqlplan/expression"
	"github.com/sqlplan-dev/sqlplan/plan"
)

// SchemaCatalog resolves a table name (model, external source, or seed) to
// its schema. Implemented by the catalog package; declared here, not
// imported from there, so lowering never depends on catalog (catalog
// depends on lowering to re-derive each model's schema).
type SchemaCatalog interface {
	Lookup(tableName string) (plan.RelSchema, bool)
}

// LowerStatement translates a top-level AST statement into a RelOp tree
// (spec.md §4.3, C5). Only SELECT and set operations over SELECTs are
// accepted; anything else is a structural error.
func LowerStatement(stmt sqlparser.Statement, catalog SchemaCatalog, dialect Dialect) (plan.RelOp, error) {
	switch s := stmt.(type) {
	case *sqlparser.Select:
		return lowerSelect(s, catalog, dialect)
	case *sqlparser.Union:
		return lowerUnion(s, catalog, dialect)
	case *sqlparser.ParenSelect:
		return LowerStatement(s.Select, catalog, dialect)
	default:
		return nil, ErrNotASelectStatement.New(stmt)
	}
}

func lowerUnion(u *sqlparser.Union, catalog SchemaCatalog, dialect Dialect) (plan.RelOp, error) {
	left, err := LowerStatement(u.Left, catalog, dialect)
	if err != nil {
		return nil, errors.Wrap(err, "lowering left side of set operation")
	}
	right, err := LowerStatement(u.Right, catalog, dialect)
	if err != nil {
		return nil, errors.Wrap(err, "lowering right side of set operation")
	}

	if left.Schema().Len() != right.Schema().Len() {
		return nil, ErrSetOpColumnCountMismatch.New(left.Schema().Len(), right.Schema().Len())
	}

	kind, err := setOpKind(u.Type)
	if err != nil {
		return nil, err
	}
	return plan.NewSetOp(left, right, kind), nil
}

func setOpKind(t string) (plan.SetOpKind, error) {
	switch strings.ToLower(t) {
	case sqlparser.UnionStr:
		return plan.Union, nil
	case sqlparser.UnionAllStr:
		return plan.UnionAll, nil
	case sqlparser.IntersectStr:
		return plan.Intersect, nil
	case sqlparser.ExceptStr:
		return plan.Except, nil
	default:
		return 0, ErrUnsupportedJoinKeyword.New(t)
	}
}

// lowerSelect sequences the construction steps of spec.md §4.3: FROM and
// joins, WHERE, GROUP BY with aggregates, HAVING, SELECT projection
// (with star expansion), ORDER BY, and LIMIT.
func lowerSelect(sel *sqlparser.Select, catalog SchemaCatalog, dialect Dialect) (plan.RelOp, error) {
	input, err := lowerTableExprs(sel.From, catalog, dialect)
	if err != nil {
		return nil, errors.Wrap(err, "lowering FROM clause")
	}

	if sel.Where != nil {
		pred := LowerExpr(sel.Where.Expr, input.Schema(), dialect)
		input = plan.NewFilter(input, pred)
	}

	isAggregate := len(sel.GroupBy) > 0 || selectHasAggregate(sel.SelectExprs, dialect)
	if isAggregate {
		input, err = lowerAggregate(sel, input, dialect)
		if err != nil {
			return nil, err
		}
	}

	if sel.Having != nil {
		pred := LowerExpr(sel.Having.Expr, input.Schema(), dialect)
		input = plan.NewFilter(input, pred)
	}

	// SELECT projection, only when not already subsumed by the aggregate's
	// own output columns (the Aggregate node's schema already reflects the
	// projected list in that case; spec.md §4.3 step 4).
	if !isAggregate {
		input, err = lowerProjection(sel.SelectExprs, input, dialect)
		if err != nil {
			return nil, errors.Wrap(err, "lowering SELECT list")
		}
	}

	if len(sel.OrderBy) > 0 {
		keys := make([]plan.SortKey, 0, len(sel.OrderBy))
		for _, o := range sel.OrderBy {
			keys = append(keys, plan.SortKey{
				Expr: LowerExpr(o.Expr, input.Schema(), dialect),
				Desc: o.Direction == sqlparser.DescScr,
			})
		}
		input = plan.NewSort(input, keys)
	}

	if sel.Limit != nil {
		count := lowerLimitOperand(sel.Limit.Rowcount, input.Schema(), dialect)
		offset := lowerLimitOperand(sel.Limit.Offset, input.Schema(), dialect)
		input = plan.NewLimit(input, count, offset)
	}

	return input, nil
}

func lowerLimitOperand(e sqlparser.Expr, schema plan.RelSchema, dialect Dialect) *int64 {
	if e == nil {
		return nil
	}
	val, ok := e.(*sqlparser.SQLVal)
	if !ok || val.Type != sqlparser.IntVal {
		return nil
	}
	n, err := strconv.ParseInt(string(val.Val), 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// lowerTableExprs lowers the FROM clause, left-folding successive table
// expressions as implicit CROSS joins (spec.md §4.3 step 1).
func lowerTableExprs(exprs sqlparser.TableExprs, catalog SchemaCatalog, dialect Dialect) (plan.RelOp, error) {
	var result plan.RelOp
	for _, te := range exprs {
		node, err := lowerTableExpr(te, catalog, dialect)
		if err != nil {
			return nil, err
		}
		if result == nil {
			result = node
			continue
		}
		result = plan.NewJoin(result, node, plan.Cross, nil)
	}
	if result == nil {
		return nil, errors.New("SELECT has no FROM clause")
	}
	return result, nil
}

func lowerTableExpr(te sqlparser.TableExpr, catalog SchemaCatalog, dialect Dialect) (plan.RelOp, error) {
	switch t := te.(type) {
	case *sqlparser.AliasedTableExpr:
		return lowerAliasedTableExpr(t, catalog, dialect)
	case *sqlparser.JoinTableExpr:
		return lowerJoinTableExpr(t, catalog, dialect)
	case *sqlparser.ParenTableExpr:
		return lowerTableExprs(t.Exprs, catalog, dialect)
	default:
		return nil, errors.Errorf("unsupported FROM clause element: %T", te)
	}
}

func lowerAliasedTableExpr(t *sqlparser.AliasedTableExpr, catalog SchemaCatalog, dialect Dialect) (plan.RelOp, error) {
	switch expr := t.Expr.(type) {
	case sqlparser.TableName:
		name := expr.Name.String()
		alias := t.As.String()
		schema, ok := catalog.Lookup(name)
		if !ok {
			// Unresolved upstream reference: keep lowering alive with an
			// empty schema (spec.md §4.3, "lowering never fails on a
			// structurally valid statement"); column references into this
			// table then lower as unresolved Unknown columns.
			schema = plan.EmptySchema()
		}
		return plan.NewScan(name, alias, schema), nil
	case *sqlparser.Subquery:
		inner, err := LowerStatement(expr.Select, catalog, dialect)
		if err != nil {
			return nil, errors.Wrap(err, "lowering derived table")
		}
		alias := t.As.String()
		if alias == "" {
			return inner, nil
		}
		// Re-tag the derived table's columns under alias with an
		// identity Project, keeping inner's own operator tree intact so
		// lineage extraction can still see through to its sources.
		aliasedSchema := inner.Schema().WithSourceTable(alias)
		cols := make([]plan.ProjectColumn, len(aliasedSchema.Columns))
		for i, c := range aliasedSchema.Columns {
			cols[i] = plan.ProjectColumn{
				Name: c.Name,
				Expr: &expression.ColumnRef{Table: alias, Column: c.Name, Type: c.Type, NullabilityV: c.Nullability},
			}
		}
		proj := plan.NewProject(inner, cols)
		proj.SchemaV = proj.SchemaV.WithSourceTable(alias)
		return proj, nil
	default:
		return nil, errors.Errorf("unsupported table expression: %T", t.Expr)
	}
}

func lowerJoinTableExpr(t *sqlparser.JoinTableExpr, catalog SchemaCatalog, dialect Dialect) (plan.RelOp, error) {
	left, err := lowerTableExpr(t.LeftExpr, catalog, dialect)
	if err != nil {
		return nil, err
	}
	right, err := lowerTableExpr(t.RightExpr, catalog, dialect)
	if err != nil {
		return nil, err
	}

	joinType, err := lowerJoinType(t.Join)
	if err != nil {
		return nil, err
	}

	if joinType == plan.Cross || t.Condition.On == nil {
		return plan.NewJoin(left, right, joinType, nil), nil
	}

	combined := plan.Merge(left.Schema(), right.Schema())
	cond := LowerExpr(t.Condition.On, combined, dialect)
	return plan.NewJoin(left, right, joinType, cond), nil
}

func lowerJoinType(keyword string) (plan.JoinType, error) {
	switch strings.ToLower(keyword) {
	case sqlparser.JoinStr, sqlparser.StraightJoinStr:
		return plan.Inner, nil
	case sqlparser.LeftJoinStr, sqlparser.NaturalLeftJoinStr:
		return plan.LeftOuter, nil
	case sqlparser.RightJoinStr, sqlparser.NaturalRightJoinStr:
		return plan.RightOuter, nil
	case sqlparser.NaturalJoinStr:
		return plan.Inner, nil
	case sqlparser.CrossJoinStr:
		return plan.Cross, nil
	default:
		return 0, ErrUnsupportedJoinKeyword.New(keyword)
	}
}

// exprHasAggregate reports whether expr contains an aggregate function call.
func exprHasAggregate(expr sqlparser.Expr) bool {
	found := false
	sqlparser.Walk(func(node sqlparser.SQLNode) (bool, error) {
		if fn, ok := node.(*sqlparser.FuncExpr); ok && IsAggregateFunction(fn.Name.String()) {
			found = true
			return false, nil
		}
		return true, nil
	}, expr)
	return found
}

// selectHasAggregate reports whether any top-level SELECT expression
// contains an aggregate function call (spec.md §4.3 step 4).
func selectHasAggregate(exprs sqlparser.SelectExprs, dialect Dialect) bool {
	for _, sel := range exprs {
		aliased, ok := sel.(*sqlparser.AliasedExpr)
		if !ok {
			continue
		}
		if exprHasAggregate(aliased.Expr) {
			return true
		}
	}
	return false
}

// lowerAggregate builds the Aggregate node: group-by keys from GROUP BY,
// plus one AggregateColumn per SELECT expression that itself contains an
// aggregate call. A bare group-by key re-exposed in the SELECT list is
// covered by the group-by prefix already prepended by NewAggregate, so it
// is not collected again here (matches collect_aggregates in the original
// lowering pass: only aggregate-bearing projection items become
// AggregateColumns).
func lowerAggregate(sel *sqlparser.Select, input plan.RelOp, dialect Dialect) (plan.RelOp, error) {
	schema := input.Schema()

	groupBy := make([]expression.TypedExpr, 0, len(sel.GroupBy))
	for _, g := range sel.GroupBy {
		groupBy = append(groupBy, LowerExpr(g, schema, dialect))
	}

	var aggCols []plan.AggregateColumn
	for i, sexpr := range sel.SelectExprs {
		aliased, ok := sexpr.(*sqlparser.AliasedExpr)
		if !ok {
			continue
		}
		if !exprHasAggregate(aliased.Expr) {
			continue
		}
		lowered := LowerExpr(aliased.Expr, schema, dialect)
		name := columnOutputName(aliased, i)
		aggCols = append(aggCols, plan.AggregateColumn{Name: name, Expr: lowered})
	}

	return plan.NewAggregate(input, groupBy, aggCols), nil
}

// lowerProjection builds the Project node for the SELECT list, expanding
// bare `*` and `table.*` against input's schema (spec.md §4.3 step 5).
func lowerProjection(exprs sqlparser.SelectExprs, input plan.RelOp, dialect Dialect) (plan.RelOp, error) {
	schema := input.Schema()
	var cols []plan.ProjectColumn
	usedWildcard := false

	for i, sexpr := range exprs {
		switch s := sexpr.(type) {
		case *sqlparser.StarExpr:
			usedWildcard = true
			table := ""
			if !s.TableName.IsEmpty() {
				table = s.TableName.Name.String()
			}
			for _, c := range schema.Columns {
				if table != "" && !strings.EqualFold(c.SourceTable, table) {
					continue
				}
				cols = append(cols, plan.ProjectColumn{
					Name: c.Name,
					Expr: &expression.ColumnRef{Table: c.SourceTable, Column: c.Name, Type: c.Type, NullabilityV: c.Nullability},
				})
			}
		case *sqlparser.AliasedExpr:
			lowered := LowerExpr(s.Expr, schema, dialect)
			name := columnOutputName(s, i)
			cols = append(cols, plan.ProjectColumn{Name: name, Expr: lowered})
		default:
			return nil, errors.Errorf("unsupported select expression: %T", sexpr)
		}
	}

	return plan.NewProjectWithWildcard(input, cols, usedWildcard), nil
}

// columnOutputName derives the output column name: the explicit alias, the
// bare column name for a direct ColumnRef, or a positional fallback
// (spec.md §4.3: "an expression without an alias takes the name the parser
// assigns it, falling back to a positional name").
func columnOutputName(a *sqlparser.AliasedExpr, index int) string {
	if !a.As.IsEmpty() {
		return a.As.String()
	}
	if col, ok := a.Expr.(*sqlparser.ColName); ok {
		return col.Name.String()
	}
	return "col_" + strconv.Itoa(index+1)
}
