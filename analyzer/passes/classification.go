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

// ClassificationPropagation is the supplemented A050 pass: a declared-schema
// column tagged with a sensitivity classification (e.g. "pii") flows,
// through lineage, into a downstream column that carries no classification
// of its own — a likely missed tag on the consuming model's contract.
// Recovered from the original implementation's classification propagation,
// which spec.md's distillation dropped.
type ClassificationPropagation struct{}

func (ClassificationPropagation) Name() string { return "ClassificationPropagation" }
func (ClassificationPropagation) Description() string {
	return "flags a classified column whose lineage reaches an unclassified downstream column"
}
func (ClassificationPropagation) DefaultSeverity() diagnostic.Severity { return diagnostic.Info }

func (ClassificationPropagation) RunProject(ctx analyzer.Context) []diagnostic.Diagnostic {
	plans := make(map[string]plan.RelOp, len(ctx.Propagation.ModelPlans))
	for name, m := range ctx.Propagation.ModelPlans {
		if m.Plan != nil {
			plans[name] = m.Plan
		}
	}
	pl := lineage.BuildProjectLineage(plans)

	names := make([]string, 0, len(ctx.Propagation.ModelPlans))
	for name := range ctx.Propagation.ModelPlans {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []diagnostic.Diagnostic
	for _, name := range names {
		model := ctx.Propagation.ModelPlans[name]
		for _, col := range model.DeclaredSchema.Columns {
			if col.Classification == "" {
				continue
			}
			for _, edge := range pl.ColumnConsumersRecursive(name, col.Name) {
				consumer, ok := ctx.Propagation.ModelPlans[edge.Model]
				if !ok {
					continue
				}
				declaredCol, hasDeclared := consumer.DeclaredSchema.FindColumn(edge.OutputColumn)
				if hasDeclared && declaredCol.Classification != "" {
					continue
				}
				out = append(out, diagnostic.Diagnostic{
					Code:     diagnostic.ClassificationPropagation,
					Severity: diagnostic.Info,
					Message: fmt.Sprintf("column %q (classified %q in %q) reaches unclassified column %q in %q",
						col.Name, col.Classification, name, edge.OutputColumn, edge.Model),
					Model:    edge.Model,
					Column:   edge.OutputColumn,
					PassName: "ClassificationPropagation",
				})
			}
		}
	}
	return out
}
