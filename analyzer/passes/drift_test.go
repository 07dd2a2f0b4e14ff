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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlplan-dev/sqlplan/analyzer"
	"github.com/sqlplan-dev/sqlplan/catalog"
	"github.com/sqlplan-dev/sqlplan/diagnostic"
	"github.com/sqlplan-dev/sqlplan/lowering"
	"github.com/sqlplan-dev/sqlplan/plan"
	"github.com/sqlplan-dev/sqlplan/types"
)

func planModelWithDeclared(t *testing.T, sql string, schemas map[string]plan.RelSchema, declared plan.RelSchema) catalog.PropagationResult {
	t.Helper()
	cat := catalog.New(schemas)
	result := catalog.Run(nil, []string{"m"}, map[string]string{"m": sql}, map[string]plan.RelSchema{"m": declared}, cat, lowering.DefaultDialect())
	require.Empty(t, result.Failures)
	return result
}

func TestSchemaDriftNamesFlagsMissingColumn(t *testing.T) {
	orders := plan.NewSchema(plan.TypedColumn{Name: "id", Type: types.Int32, Nullability: types.NotNull})
	declared := plan.NewSchema(
		plan.TypedColumn{Name: "id", Type: types.Int32, Nullability: types.NotNull},
		plan.TypedColumn{Name: "total", Type: types.NewDecimal(nil, nil), Nullability: types.NotNull},
	)
	result := planModelWithDeclared(t, "select id from orders", map[string]plan.RelSchema{"orders": orders}, declared)

	ctx := analyzer.Context{Propagation: result}
	diags := SchemaDriftNames{}.RunModel("m", result.ModelPlans["m"], ctx)
	require.Len(t, diags, 1)
	assert.Equal(t, diagnostic.SchemaDriftNames, diags[0].Code)
	assert.Equal(t, "total", diags[0].Column)
	assert.Equal(t, diagnostic.Warning, diags[0].Severity)
}

func TestSchemaDriftNamesExtraIsNonBreakingInfo(t *testing.T) {
	orders := plan.NewSchema(
		plan.TypedColumn{Name: "id", Type: types.Int32, Nullability: types.NotNull},
		plan.TypedColumn{Name: "extra", Type: types.NewString(nil), Nullability: types.Nullable},
	)
	declared := plan.NewSchema(plan.TypedColumn{Name: "id", Type: types.Int32, Nullability: types.NotNull})
	result := planModelWithDeclared(t, "select id, extra from orders", map[string]plan.RelSchema{"orders": orders}, declared)

	ctx := analyzer.Context{Propagation: result}
	diags := SchemaDriftNames{}.RunModel("m", result.ModelPlans["m"], ctx)
	require.Len(t, diags, 1)
	assert.Equal(t, "extra", diags[0].Column)
	assert.Equal(t, diagnostic.Info, diags[0].Severity)
}

func TestSchemaDriftTypesFlagsTypeMismatch(t *testing.T) {
	orders := plan.NewSchema(plan.TypedColumn{Name: "id", Type: types.NewString(nil), Nullability: types.NotNull})
	declared := plan.NewSchema(plan.TypedColumn{Name: "id", Type: types.Int32, Nullability: types.NotNull})
	result := planModelWithDeclared(t, "select id from orders", map[string]plan.RelSchema{"orders": orders}, declared)

	ctx := analyzer.Context{Propagation: result}
	diags := SchemaDriftTypes{}.RunModel("m", result.ModelPlans["m"], ctx)
	require.Len(t, diags, 1)
	assert.Equal(t, diagnostic.SchemaDriftTypes, diags[0].Code)
	assert.Equal(t, diagnostic.Warning, diags[0].Severity)
}
