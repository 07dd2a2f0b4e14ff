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

package lineage

import "github.com/sqlplan-dev/sqlplan/plan"

// ProjectLineage holds the extracted edges for every model in a project,
// keyed by model name, enabling cross-model traversal: a SourceTable that
// is itself a key of EdgesByModel is another model in this project, not an
// external source or seed.
type ProjectLineage struct {
	EdgesByModel map[string][]Edge
}

// BuildProjectLineage extracts lineage edges for every plan in plans.
func BuildProjectLineage(plans map[string]plan.RelOp) ProjectLineage {
	pl := ProjectLineage{EdgesByModel: make(map[string][]Edge, len(plans))}
	for name, rel := range plans {
		pl.EdgesByModel[name] = ExtractModelEdges(name, rel)
	}
	return pl
}

type visitKey struct{ model, column string }

// TraceColumnRecursive performs BFS upstream from (model, column): every
// edge that produces column in model, then recursing into the edge's
// source table if that table is itself a model in this project. A visited
// set keyed by (model, column) guarantees termination on cycles (spec.md
// §8, "Recursive lineage termination").
func (pl ProjectLineage) TraceColumnRecursive(model, column string) []Edge {
	visited := map[visitKey]bool{}
	var out []Edge

	queue := []visitKey{{model, column}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur] {
			continue
		}
		visited[cur] = true

		for _, e := range pl.EdgesByModel[cur.model] {
			if e.OutputColumn != cur.column {
				continue
			}
			out = append(out, e)
			if _, isModel := pl.EdgesByModel[e.SourceTable]; isModel {
				queue = append(queue, visitKey{e.SourceTable, e.SourceColumn})
			}
		}
	}
	return out
}

// ColumnConsumersRecursive performs BFS downstream from (model, column):
// every edge elsewhere in the project whose SourceTable/SourceColumn match,
// then recursing into that edge's own (model, output_column).
func (pl ProjectLineage) ColumnConsumersRecursive(model, column string) []Edge {
	visited := map[visitKey]bool{}
	var out []Edge

	queue := []visitKey{{model, column}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur] {
			continue
		}
		visited[cur] = true

		for _, edges := range pl.EdgesByModel {
			for _, e := range edges {
				if e.SourceTable != cur.model || e.SourceColumn != cur.column {
					continue
				}
				out = append(out, e)
				queue = append(queue, visitKey{e.Model, e.OutputColumn})
			}
		}
	}
	return out
}
