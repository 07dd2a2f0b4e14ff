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

// Package lineage implements column-level lineage extraction (C9, spec.md
// §4.7): table-driven edge extraction over plan.RelOp, deduplication, and
// recursive BFS tracing across model boundaries.
package lineage

import (
	"fmt"

	"github.com/mitchellh/hashstructure"

	"github.com/sqlplan-dev/sqlplan/expression"
	"github.com/sqlplan-dev/sqlplan/plan"
)

// Kind classifies how an output column relates to the column(s) it reads,
// ordered weakest to strongest per spec.md §4.7's "strongest wins" rule.
type Kind int

const (
	Inspect Kind = iota
	Copy
	Rename
	Transform
)

func (k Kind) String() string {
	switch k {
	case Copy:
		return "Copy"
	case Rename:
		return "Rename"
	case Transform:
		return "Transform"
	default:
		return "Inspect"
	}
}

// stronger reports whether a beats b under Transform > Rename > Copy > Inspect.
func stronger(a, b Kind) bool { return a > b }

// Edge is one lineage hop: column OutputColumn of Model was derived from
// SourceColumn of SourceTable with the given Kind.
type Edge struct {
	Model        string
	OutputColumn string
	SourceTable  string
	SourceColumn string
	Kind         Kind
}

func (e Edge) dedupKey() (uint64, error) {
	return hashstructure.Hash(struct {
		Model, Output, Table, Column string
	}{e.Model, e.OutputColumn, e.SourceTable, e.SourceColumn}, nil)
}

func (e Edge) String() string {
	return fmt.Sprintf("%s.%s <- %s.%s (%s)", e.Model, e.OutputColumn, e.SourceTable, e.SourceColumn, e.Kind)
}

// ExtractModelEdges walks rel and returns the lineage edges it produces,
// per the table-driven rules of spec.md §4.7. model is the owning model's
// name, stamped onto every edge produced.
func ExtractModelEdges(model string, rel plan.RelOp) []Edge {
	var out []Edge
	plan.Walk(rel, func(node plan.RelOp) {
		switch n := node.(type) {
		case *plan.Project:
			out = append(out, extractProjectEdges(model, n)...)
		case *plan.Filter:
			out = append(out, extractPredicateEdges(model, n.Predicate)...)
		case *plan.Join:
			if n.Condition != nil {
				out = append(out, extractPredicateEdges(model, n.Condition)...)
			}
		case *plan.Aggregate:
			out = append(out, extractAggregateEdges(model, n)...)
		}
	})
	return dedupe(out)
}

func extractProjectEdges(model string, p *plan.Project) []Edge {
	var out []Edge
	for _, col := range p.Columns {
		refs := expression.CollectColumnRefs(col.Expr)
		if cr, ok := col.Expr.(*expression.ColumnRef); ok && len(refs) == 1 {
			kind := Rename
			if cr.Column == col.Name {
				kind = Copy
			}
			out = append(out, Edge{Model: model, OutputColumn: col.Name, SourceTable: cr.Table, SourceColumn: cr.Column, Kind: kind})
			continue
		}
		for _, ref := range refs {
			out = append(out, Edge{Model: model, OutputColumn: col.Name, SourceTable: ref.Table, SourceColumn: ref.Column, Kind: Transform})
		}
	}
	return out
}

func extractPredicateEdges(model string, e expression.TypedExpr) []Edge {
	var out []Edge
	for _, ref := range expression.CollectColumnRefs(e) {
		out = append(out, Edge{Model: model, OutputColumn: "", SourceTable: ref.Table, SourceColumn: ref.Column, Kind: Inspect})
	}
	return out
}

func extractAggregateEdges(model string, a *plan.Aggregate) []Edge {
	var out []Edge
	produced := map[string]bool{}

	for _, col := range a.Aggregates {
		refs := expression.CollectColumnRefs(col.Expr)
		if cr, ok := col.Expr.(*expression.ColumnRef); ok && len(refs) == 1 {
			kind := Rename
			if cr.Column == col.Name {
				kind = Copy
			}
			out = append(out, Edge{Model: model, OutputColumn: col.Name, SourceTable: cr.Table, SourceColumn: cr.Column, Kind: kind})
		} else {
			for _, ref := range refs {
				out = append(out, Edge{Model: model, OutputColumn: col.Name, SourceTable: ref.Table, SourceColumn: ref.Column, Kind: Transform})
			}
		}
		produced[col.Name] = true
	}

	for _, g := range a.GroupBy {
		cr, ok := g.(*expression.ColumnRef)
		if !ok || produced[cr.Column] {
			continue
		}
		out = append(out, Edge{Model: model, OutputColumn: "", SourceTable: cr.Table, SourceColumn: cr.Column, Kind: Inspect})
	}
	return out
}

// dedupe collapses edges sharing (output_column, source_table,
// source_column), keeping the strongest Kind (spec.md §8, "Lineage
// deduplication").
func dedupe(edges []Edge) []Edge {
	best := make(map[uint64]Edge, len(edges))
	order := make([]uint64, 0, len(edges))
	for _, e := range edges {
		key, err := e.dedupKey()
		if err != nil {
			continue
		}
		prior, seen := best[key]
		if !seen {
			order = append(order, key)
			best[key] = e
			continue
		}
		if stronger(e.Kind, prior.Kind) {
			best[key] = e
		}
	}
	out := make([]Edge, 0, len(order))
	for _, key := range order {
		out = append(out, best[key])
	}
	return out
}
