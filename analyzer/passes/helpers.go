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

// Package passes implements the concrete analysis passes (C8, spec.md
// §4.6): A010-A041 plus the supplemented A050 classification propagation
// pass, all registered against the analyzer.Manager framework (C7).
package passes

import (
	"strings"

	"github.com/sqlplan-dev/sqlplan/expression"
	"github.com/sqlplan-dev/sqlplan/plan"
	"github.com/sqlplan-dev/sqlplan/types"
)

// rootColumnNode returns the outermost Project or Aggregate in rel, which
// is where a model's output columns are defined (spec.md §4.6's "output
// column" passes all reason about this node).
func rootColumnNode(rel plan.RelOp) plan.RelOp {
	node := rel
	for {
		switch n := node.(type) {
		case *plan.Sort:
			node = n.Input
		case *plan.Limit:
			node = n.Input
		case *plan.Filter:
			node = n.Input
		default:
			return node
		}
	}
}

// collectFilters returns every Filter on the path from rel's root down to
// (and including) the first Project/Aggregate encountered.
func collectFilters(rel plan.RelOp) []*plan.Filter {
	var out []*plan.Filter
	node := rel
	for {
		switch n := node.(type) {
		case *plan.Sort:
			node = n.Input
		case *plan.Limit:
			node = n.Input
		case *plan.Filter:
			out = append(out, n)
			node = n.Input
		default:
			return out
		}
	}
}

// guardedColumns returns the set of (table, column) pairs proven non-null
// by any filter in filters: appearing under IS NOT NULL, or on the
// non-null side of an equality with a non-null literal (spec.md §4.6,
// A010's "guarded" definition).
func guardedColumns(filters []*plan.Filter) map[string]bool {
	out := map[string]bool{}
	for _, f := range filters {
		collectGuards(f.Predicate, out)
	}
	return out
}

func collectGuards(e expression.TypedExpr, out map[string]bool) {
	switch n := e.(type) {
	case *expression.IsNull:
		if !n.Negated {
			return
		}
		if cr, ok := n.Expr.(*expression.ColumnRef); ok {
			out[guardKey(cr)] = true
		}
	case *expression.BinaryOp:
		if strings.EqualFold(n.Op, "AND") {
			collectGuards(n.Left, out)
			collectGuards(n.Right, out)
			return
		}
		if n.Op == "=" {
			markIfNonNullLiteralEquality(n.Left, n.Right, out)
			markIfNonNullLiteralEquality(n.Right, n.Left, out)
		}
	}
}

func markIfNonNullLiteralEquality(side, other expression.TypedExpr, out map[string]bool) {
	cr, ok := side.(*expression.ColumnRef)
	if !ok {
		return
	}
	lit, ok := other.(*expression.Literal)
	if !ok || lit.Value == nil {
		return
	}
	out[guardKey(cr)] = true
}

func guardKey(cr *expression.ColumnRef) string {
	return strings.ToLower(cr.Table) + "." + strings.ToLower(cr.Column)
}

// isCoalesce reports whether e is a top-level COALESCE call.
func isCoalesce(e expression.TypedExpr) bool {
	fn, ok := e.(*expression.FunctionCall)
	return ok && fn.Name == "COALESCE"
}

// splitConjuncts splits a predicate at top-level AND/OR boundaries,
// returning every leaf comparison (spec.md §4.6, A033).
func splitConjuncts(e expression.TypedExpr) []expression.TypedExpr {
	bin, ok := e.(*expression.BinaryOp)
	if !ok {
		return []expression.TypedExpr{e}
	}
	if strings.EqualFold(bin.Op, "AND") || strings.EqualFold(bin.Op, "OR") {
		return append(splitConjuncts(bin.Left), splitConjuncts(bin.Right)...)
	}
	return []expression.TypedExpr{e}
}

// eitherUnknown reports whether a or b is Unknown; all passes suppress
// diagnostics when either side of a comparison is Unknown (spec.md §4.6).
func eitherUnknown(a, b types.SqlType) bool {
	return a.Kind() == types.KindUnknown || b.Kind() == types.KindUnknown
}
