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
	"sort"

	"github.com/dolthub/vitess/go/vt/sqlparser"
)

// ExtractDependencies returns the distinct table names a statement
// references, excluding any name bound by a WITH clause (a CTE is not an
// upstream model or source, it's local to the statement). It needs no schema
// resolution, so a caller can use it before lowering to build the project's
// dependency graph.
func ExtractDependencies(stmt sqlparser.Statement) []string {
	ctes := map[string]bool{}
	refs := map[string]bool{}

	sqlparser.Walk(func(node sqlparser.SQLNode) (bool, error) {
		if with, ok := node.(*sqlparser.With); ok {
			for _, cte := range with.CTEs {
				ctes[cte.ID.String()] = true
			}
		}
		if aliased, ok := node.(*sqlparser.AliasedTableExpr); ok {
			if tn, ok := aliased.Expr.(sqlparser.TableName); ok {
				refs[tn.Name.String()] = true
			}
		}
		return true, nil
	}, stmt)

	out := make([]string, 0, len(refs))
	for name := range refs {
		if !ctes[name] {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
