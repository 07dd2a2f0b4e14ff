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

func planSingleModel(t *testing.T, sql string, schemas map[string]plan.RelSchema) catalog.PropagationResult {
	t.Helper()
	cat := catalog.New(schemas)
	result := catalog.Run(nil, []string{"m"}, map[string]string{"m": sql}, nil, cat, lowering.DefaultDialect())
	require.Empty(t, result.Failures)
	return result
}

func TestJoinKeyTypeMismatchFlagsIncompatibleTypes(t *testing.T) {
	orders := plan.NewSchema(
		plan.TypedColumn{Name: "id", Type: types.Int32, Nullability: types.NotNull},
		plan.TypedColumn{Name: "cust_id", Type: types.NewString(nil), Nullability: types.NotNull},
	)
	customers := plan.NewSchema(
		plan.TypedColumn{Name: "id", Type: types.Int32, Nullability: types.NotNull},
	)
	result := planSingleModel(t, "select o.id from orders o join customers c on o.cust_id = c.id",
		map[string]plan.RelSchema{"orders": orders, "customers": customers})

	ctx := analyzer.Context{Propagation: result}
	diags := JoinKeyTypeMismatch{}.RunModel("m", result.ModelPlans["m"], ctx)
	require.Len(t, diags, 1)
	assert.Equal(t, diagnostic.JoinKeyTypeMismatch, diags[0].Code)
}

func TestJoinKeyTypeMismatchSilentOnCompatibleTypes(t *testing.T) {
	orders := plan.NewSchema(
		plan.TypedColumn{Name: "id", Type: types.Int32, Nullability: types.NotNull},
		plan.TypedColumn{Name: "cust_id", Type: types.Int32, Nullability: types.NotNull},
	)
	customers := plan.NewSchema(
		plan.TypedColumn{Name: "id", Type: types.Int32, Nullability: types.NotNull},
	)
	result := planSingleModel(t, "select o.id from orders o join customers c on o.cust_id = c.id",
		map[string]plan.RelSchema{"orders": orders, "customers": customers})

	ctx := analyzer.Context{Propagation: result}
	diags := JoinKeyTypeMismatch{}.RunModel("m", result.ModelPlans["m"], ctx)
	assert.Empty(t, diags)
}

func TestCrossJoinOrMissingOnFlagsImplicitCrossJoin(t *testing.T) {
	orders := plan.NewSchema(plan.TypedColumn{Name: "id", Type: types.Int32, Nullability: types.NotNull})
	customers := plan.NewSchema(plan.TypedColumn{Name: "id", Type: types.Int32, Nullability: types.NotNull})
	result := planSingleModel(t, "select o.id from orders o, customers c",
		map[string]plan.RelSchema{"orders": orders, "customers": customers})

	ctx := analyzer.Context{Propagation: result}
	diags := CrossJoinOrMissingOn{}.RunModel("m", result.ModelPlans["m"], ctx)
	require.Len(t, diags, 1)
	assert.Equal(t, diagnostic.CrossJoinOrMissingOn, diags[0].Code)
}

func TestCrossJoinOrMissingOnSilentOnInnerJoinWithOn(t *testing.T) {
	orders := plan.NewSchema(plan.TypedColumn{Name: "id", Type: types.Int32, Nullability: types.NotNull})
	customers := plan.NewSchema(plan.TypedColumn{Name: "id", Type: types.Int32, Nullability: types.NotNull})
	result := planSingleModel(t, "select o.id from orders o join customers c on o.id = c.id",
		map[string]plan.RelSchema{"orders": orders, "customers": customers})

	ctx := analyzer.Context{Propagation: result}
	diags := CrossJoinOrMissingOn{}.RunModel("m", result.ModelPlans["m"], ctx)
	assert.Empty(t, diags)
}

func TestNonEquiJoinFlagsRangeComparison(t *testing.T) {
	events := plan.NewSchema(
		plan.TypedColumn{Name: "start_id", Type: types.Int32, Nullability: types.NotNull},
	)
	windows := plan.NewSchema(
		plan.TypedColumn{Name: "end_id", Type: types.Int32, Nullability: types.NotNull},
	)
	result := planSingleModel(t, "select e.start_id from events e join windows w on e.start_id < w.end_id",
		map[string]plan.RelSchema{"events": events, "windows": windows})

	ctx := analyzer.Context{Propagation: result}
	diags := NonEquiJoin{}.RunModel("m", result.ModelPlans["m"], ctx)
	require.Len(t, diags, 1)
	assert.Equal(t, diagnostic.NonEquiJoin, diags[0].Code)
}
