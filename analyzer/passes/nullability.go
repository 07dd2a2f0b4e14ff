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

package passes

import (
	"fmt"

	"github.com/sqlplan-dev/sqlplan/analyzer"
	"github.com/sqlplan-dev/sqlplan/catalog"
	"github.com/sqlplan-dev/sqlplan/diagnostic"
	"github.com/sqlplan-dev/sqlplan/expression"
	"github.com/sqlplan-dev/sqlplan/plan"
	"github.com/sqlplan-dev/sqlplan/types"
)

// NullableWithoutGuard is A010 (spec.md §4.6).
type NullableWithoutGuard struct{}

func (NullableWithoutGuard) Name() string        { return "NullableWithoutGuard" }
func (NullableWithoutGuard) Description() string { return "flags a Nullable output column reached without a null guard or COALESCE" }
func (NullableWithoutGuard) DefaultSeverity() diagnostic.Severity { return diagnostic.Warning }

func (NullableWithoutGuard) RunModel(name string, model catalog.PlannedModel, ctx analyzer.Context) []diagnostic.Diagnostic {
	if model.Plan == nil {
		return nil
	}
	root := rootColumnNode(model.Plan)
	guards := guardedColumns(collectFilters(model.Plan))

	var out []diagnostic.Diagnostic
	for _, oc := range outputColumns(root) {
		if oc.schemaCol.Nullability != types.Nullable {
			continue
		}
		if isCoalesce(oc.expr) {
			continue
		}
		if declaredNullable(model.DeclaredSchema, oc.schemaCol.Name) {
			continue
		}
		if anyRefGuarded(oc.expr, guards) {
			continue
		}
		out = append(out, diagnostic.Diagnostic{
			Code:     diagnostic.NullableWithoutGuard,
			Severity: diagnostic.Warning,
			Message:  fmt.Sprintf("column %q may be null without a guard", oc.schemaCol.Name),
			Model:    name,
			Column:   oc.schemaCol.Name,
			PassName: "NullableWithoutGuard",
		})
	}
	return out
}

func declaredNullable(declared plan.RelSchema, column string) bool {
	col, ok := declared.FindColumn(column)
	return ok && col.Nullability == types.Nullable
}

func anyRefGuarded(e expression.TypedExpr, guards map[string]bool) bool {
	for _, ref := range expression.CollectColumnRefs(e) {
		if guards[guardKey(ref)] {
			return true
		}
	}
	return false
}

type outputColumn struct {
	schemaCol plan.TypedColumn
	expr      expression.TypedExpr
}

// outputColumns pairs each schema column of node with the expression that
// produced it (for Project/Aggregate); other node kinds contribute nothing.
func outputColumns(node plan.RelOp) []outputColumn {
	switch n := node.(type) {
	case *plan.Project:
		out := make([]outputColumn, len(n.Columns))
		schema := n.Schema()
		for i, c := range n.Columns {
			out[i] = outputColumn{schemaCol: schema.Columns[i], expr: c.Expr}
		}
		return out
	case *plan.Aggregate:
		schema := n.Schema()
		var out []outputColumn
		offset := 0
		for range n.GroupBy {
			out = append(out, outputColumn{schemaCol: schema.Columns[offset], expr: n.GroupBy[offset]})
			offset++
		}
		for _, a := range n.Aggregates {
			out = append(out, outputColumn{schemaCol: schema.Columns[offset], expr: a.Expr})
			offset++
		}
		return out
	default:
		return nil
	}
}

// YamlNotNullContradiction is A011 (spec.md §4.6).
type YamlNotNullContradiction struct{}

func (YamlNotNullContradiction) Name() string        { return "YamlNotNullContradiction" }
func (YamlNotNullContradiction) Description() string { return "flags a column declared NotNull whose inferred type is Nullable" }
func (YamlNotNullContradiction) DefaultSeverity() diagnostic.Severity { return diagnostic.Warning }

func (YamlNotNullContradiction) RunModel(name string, model catalog.PlannedModel, ctx analyzer.Context) []diagnostic.Diagnostic {
	var out []diagnostic.Diagnostic
	for _, m := range model.Mismatches {
		if m.Kind != catalog.NullabilityMismatch {
			continue
		}
		out = append(out, diagnostic.Diagnostic{
			Code:     diagnostic.YamlNotNullContradiction,
			Severity: diagnostic.Warning,
			Message:  fmt.Sprintf("column %q is declared NotNull but inferred Nullable", m.Column),
			Model:    name,
			Column:   m.Column,
			PassName: "YamlNotNullContradiction",
		})
	}
	return out
}

// RedundantNullCheck is A012 (spec.md §4.6).
type RedundantNullCheck struct{}

func (RedundantNullCheck) Name() string        { return "RedundantNullCheck" }
func (RedundantNullCheck) Description() string { return "flags an IS [NOT] NULL check against a column that can never be null" }
func (RedundantNullCheck) DefaultSeverity() diagnostic.Severity { return diagnostic.Info }

func (RedundantNullCheck) RunModel(name string, model catalog.PlannedModel, ctx analyzer.Context) []diagnostic.Diagnostic {
	if model.Plan == nil {
		return nil
	}
	var out []diagnostic.Diagnostic
	plan.Walk(model.Plan, func(node plan.RelOp) {
		f, ok := node.(*plan.Filter)
		if !ok {
			return
		}
		expression.Walk(f.Predicate, func(e expression.TypedExpr) {
			isNull, ok := e.(*expression.IsNull)
			if !ok {
				return
			}
			cr, ok := isNull.Expr.(*expression.ColumnRef)
			if !ok || cr.Nullability() != types.NotNull {
				return
			}
			out = append(out, diagnostic.Diagnostic{
				Code:     diagnostic.RedundantNullCheck,
				Severity: diagnostic.Info,
				Message:  fmt.Sprintf("column %q is NotNull; this null check is redundant", cr.Column),
				Model:    name,
				Column:   cr.Column,
				PassName: "RedundantNullCheck",
			})
		})
	})
	return out
}
