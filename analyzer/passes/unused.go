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
	"sort"

	"github.com/sqlplan-dev/sqlplan/analyzer"
	"github.com/sqlplan-dev/sqlplan/diagnostic"
	"github.com/sqlplan-dev/sqlplan/lineage"
	"github.com/sqlplan-dev/sqlplan/plan"
)

// UnusedProducedColumn is A020 (spec.md §4.6): a non-terminal model produces
// a column that no downstream model ever consumes. Terminal models (nothing
// in the project reads from them) are exempt, since their whole purpose is
// to be the final output. Models whose root SELECT uses `*` are exempt too,
// since their column list follows the upstream schema rather than a choice
// made in the model.
type UnusedProducedColumn struct{}

func (UnusedProducedColumn) Name() string        { return "UnusedProducedColumn" }
func (UnusedProducedColumn) Description() string { return "flags a column no downstream model ever reads" }
func (UnusedProducedColumn) DefaultSeverity() diagnostic.Severity { return diagnostic.Info }

func (UnusedProducedColumn) RunProject(ctx analyzer.Context) []diagnostic.Diagnostic {
	plans := make(map[string]plan.RelOp, len(ctx.Propagation.ModelPlans))
	for name, m := range ctx.Propagation.ModelPlans {
		if m.Plan != nil {
			plans[name] = m.Plan
		}
	}
	pl := lineage.BuildProjectLineage(plans)

	terminal := terminalModels(pl)

	var out []diagnostic.Diagnostic
	for name, model := range ctx.Propagation.ModelPlans {
		if model.Plan == nil || terminal[name] {
			continue
		}
		if proj, ok := rootColumnNode(model.Plan).(*plan.Project); ok && proj.UsedWildcard {
			continue
		}
		for _, col := range model.InferredSchema.Columns {
			if len(pl.ColumnConsumersRecursive(name, col.Name)) > 0 {
				continue
			}
			out = append(out, diagnostic.Diagnostic{
				Code:     diagnostic.UnusedProducedColumn,
				Severity: diagnostic.Info,
				Message:  fmt.Sprintf("column %q is never read by a downstream model", col.Name),
				Model:    name,
				Column:   col.Name,
				PassName: "UnusedProducedColumn",
			})
		}
	}
	return out
}

// terminalModels returns the set of models that no edge anywhere in the
// project reads from — i.e. a model with no rows in the
// "consumed by" direction for any of its columns.
func terminalModels(pl lineage.ProjectLineage) map[string]bool {
	consumed := map[string]bool{}
	for _, edges := range pl.EdgesByModel {
		for _, e := range edges {
			if _, isModel := pl.EdgesByModel[e.SourceTable]; isModel {
				consumed[e.SourceTable] = true
			}
		}
	}
	out := map[string]bool{}
	for name := range pl.EdgesByModel {
		if !consumed[name] {
			out[name] = true
		}
	}
	return out
}

// SelectStarInNonTerminal is A021 (spec.md §4.6): a non-terminal model's
// root SELECT uses `*` or `table.*`, which silently changes that model's
// shape whenever the upstream schema changes.
type SelectStarInNonTerminal struct{}

func (SelectStarInNonTerminal) Name() string        { return "SelectStarInNonTerminal" }
func (SelectStarInNonTerminal) Description() string { return "flags SELECT * used in a model other models read from" }
func (SelectStarInNonTerminal) DefaultSeverity() diagnostic.Severity { return diagnostic.Info }

func (SelectStarInNonTerminal) RunProject(ctx analyzer.Context) []diagnostic.Diagnostic {
	plans := make(map[string]plan.RelOp, len(ctx.Propagation.ModelPlans))
	for name, m := range ctx.Propagation.ModelPlans {
		if m.Plan != nil {
			plans[name] = m.Plan
		}
	}
	pl := lineage.BuildProjectLineage(plans)
	terminal := terminalModels(pl)

	names := make([]string, 0, len(ctx.Propagation.ModelPlans))
	for name := range ctx.Propagation.ModelPlans {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []diagnostic.Diagnostic
	for _, name := range names {
		model := ctx.Propagation.ModelPlans[name]
		if model.Plan == nil || terminal[name] {
			continue
		}
		proj, ok := rootColumnNode(model.Plan).(*plan.Project)
		if !ok || !proj.UsedWildcard {
			continue
		}
		out = append(out, diagnostic.Diagnostic{
			Code:     diagnostic.SelectStarInNonTerminal,
			Severity: diagnostic.Info,
			Message:  fmt.Sprintf("model %q uses SELECT * but is read by other models", name),
			Model:    name,
			PassName: "SelectStarInNonTerminal",
		})
	}
	return out
}
