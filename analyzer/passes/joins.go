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
)

// JoinKeyTypeMismatch is A030 (spec.md §4.6): a join condition equates two
// columns whose types are not IsCompatibleWith, almost always an accidental
// cross-type join that silently returns zero or wrong rows.
type JoinKeyTypeMismatch struct{}

func (JoinKeyTypeMismatch) Name() string        { return "JoinKeyTypeMismatch" }
func (JoinKeyTypeMismatch) Description() string { return "flags a join condition equating two incompatible column types" }
func (JoinKeyTypeMismatch) DefaultSeverity() diagnostic.Severity { return diagnostic.Warning }

func (JoinKeyTypeMismatch) RunModel(name string, model catalog.PlannedModel, ctx analyzer.Context) []diagnostic.Diagnostic {
	if model.Plan == nil {
		return nil
	}
	var out []diagnostic.Diagnostic
	plan.Walk(model.Plan, func(node plan.RelOp) {
		j, ok := node.(*plan.Join)
		if !ok || j.Condition == nil {
			return
		}
		for _, eq := range equalityPairs(j.Condition) {
			left, right := eq[0], eq[1]
			if eitherUnknown(left.ResolvedType(), right.ResolvedType()) {
				continue
			}
			if left.ResolvedType().IsCompatibleWith(right.ResolvedType()) {
				continue
			}
			out = append(out, diagnostic.Diagnostic{
				Code:     diagnostic.JoinKeyTypeMismatch,
				Severity: diagnostic.Warning,
				Message:  fmt.Sprintf("join condition equates %s (%s) with %s (%s)", left, left.ResolvedType(), right, right.ResolvedType()),
				Model:    name,
				PassName: "JoinKeyTypeMismatch",
			})
		}
	})
	return out
}

// equalityPairs returns the [left, right] operand pairs of every top-level
// `=` comparison reachable through AND in e.
func equalityPairs(e expression.TypedExpr) [][2]expression.TypedExpr {
	var out [][2]expression.TypedExpr
	bin, ok := e.(*expression.BinaryOp)
	if !ok {
		return out
	}
	if bin.Op == "AND" {
		out = append(out, equalityPairs(bin.Left)...)
		out = append(out, equalityPairs(bin.Right)...)
		return out
	}
	if bin.Op == "=" {
		out = append(out, [2]expression.TypedExpr{bin.Left, bin.Right})
	}
	return out
}

// CrossJoinOrMissingOn is A032 (spec.md §4.6): a CROSS join, or any join
// with no ON condition, almost always an unintended cartesian product.
type CrossJoinOrMissingOn struct{}

func (CrossJoinOrMissingOn) Name() string        { return "CrossJoinOrMissingOn" }
func (CrossJoinOrMissingOn) Description() string { return "flags a CROSS join or a join missing its ON condition" }
func (CrossJoinOrMissingOn) DefaultSeverity() diagnostic.Severity { return diagnostic.Info }

func (CrossJoinOrMissingOn) RunModel(name string, model catalog.PlannedModel, ctx analyzer.Context) []diagnostic.Diagnostic {
	if model.Plan == nil {
		return nil
	}
	var out []diagnostic.Diagnostic
	plan.Walk(model.Plan, func(node plan.RelOp) {
		j, ok := node.(*plan.Join)
		if !ok {
			return
		}
		if j.JoinTypeV != plan.Cross && j.Condition != nil {
			return
		}
		out = append(out, diagnostic.Diagnostic{
			Code:     diagnostic.CrossJoinOrMissingOn,
			Severity: diagnostic.Info,
			Message:  fmt.Sprintf("%s join has no ON condition", j.JoinTypeV),
			Model:    name,
			PassName: "CrossJoinOrMissingOn",
		})
	})
	return out
}

// NonEquiJoin is A033 (spec.md §4.6): a join condition contains a
// comparison operator other than `=` at the top level (<, >, <=, >=, <>),
// which defeats most engines' hash-join planning and deserves a second look.
type NonEquiJoin struct{}

func (NonEquiJoin) Name() string        { return "NonEquiJoin" }
func (NonEquiJoin) Description() string { return "flags a join condition using a non-equality comparison" }
func (NonEquiJoin) DefaultSeverity() diagnostic.Severity { return diagnostic.Info }

var nonEquiOps = map[string]bool{"<": true, ">": true, "<=": true, ">=": true, "<>": true, "!=": true}

func (NonEquiJoin) RunModel(name string, model catalog.PlannedModel, ctx analyzer.Context) []diagnostic.Diagnostic {
	if model.Plan == nil {
		return nil
	}
	var out []diagnostic.Diagnostic
	plan.Walk(model.Plan, func(node plan.RelOp) {
		j, ok := node.(*plan.Join)
		if !ok || j.Condition == nil {
			return
		}
		for _, leaf := range splitConjuncts(j.Condition) {
			bin, ok := leaf.(*expression.BinaryOp)
			if !ok || !nonEquiOps[bin.Op] {
				continue
			}
			out = append(out, diagnostic.Diagnostic{
				Code:     diagnostic.NonEquiJoin,
				Severity: diagnostic.Info,
				Message:  fmt.Sprintf("join condition %s is a non-equality comparison", bin),
				Model:    name,
				PassName: "NonEquiJoin",
			})
		}
	})
	return out
}
