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

package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlplan-dev/sqlplan/lowering"
	"github.com/sqlplan-dev/sqlplan/plan"
	"github.com/sqlplan-dev/sqlplan/types"
)

func TestRunLinearChainScenario(t *testing.T) {
	// spec.md §8 scenario 1.
	rawSchema := plan.NewSchema(
		plan.TypedColumn{Name: "id", Type: types.Int32, Nullability: types.NotNull},
		plan.TypedColumn{Name: "val", Type: types.NewString(nil), Nullability: types.Nullable},
	)
	cat := New(map[string]plan.RelSchema{"raw": rawSchema})

	sqlSources := map[string]string{
		"stg":  "select id, val from raw",
		"mart": "select id from stg",
	}

	result := Run(nil, []string{"stg", "mart"}, sqlSources, nil, cat, lowering.DefaultDialect())

	require.Empty(t, result.Failures)
	require.Contains(t, result.ModelPlans, "stg")
	require.Contains(t, result.ModelPlans, "mart")

	martSchema := result.ModelPlans["mart"].InferredSchema
	require.Equal(t, 1, martSchema.Len())
	col, ok := martSchema.FindColumn("id")
	require.True(t, ok)
	assert.Equal(t, types.NotNull, col.Nullability)

	assert.ElementsMatch(t, []string{"raw", "stg", "mart"}, result.FinalCatalog.Names())
}

func TestRunRenameFanOutScenario(t *testing.T) {
	// spec.md §8 scenario 2.
	sourceSchema := plan.NewSchema(
		plan.TypedColumn{Name: "id", Type: types.Int32, Nullability: types.NotNull},
		plan.TypedColumn{Name: "val", Type: types.NewString(nil), Nullability: types.Nullable},
	)
	cat := New(map[string]plan.RelSchema{"source": sourceSchema})

	sqlSources := map[string]string{
		"b": "select id, val as b_val from source",
		"c": "select id, val as c_val from source",
		"d": "select b.id, b.b_val, c.c_val from b join c on b.id = c.id",
	}

	result := Run(nil, []string{"b", "c", "d"}, sqlSources, nil, cat, lowering.DefaultDialect())

	require.Empty(t, result.Failures)
	dSchema := result.ModelPlans["d"].InferredSchema
	assert.Equal(t, 3, dSchema.Len())
}

func TestRunLeftJoinNullabilityMismatchScenario(t *testing.T) {
	// spec.md §8 scenario 3.
	orders := plan.NewSchema(
		plan.TypedColumn{Name: "id", Type: types.Int32, Nullability: types.NotNull},
		plan.TypedColumn{Name: "cust_id", Type: types.Int32, Nullability: types.NotNull},
	)
	customers := plan.NewSchema(
		plan.TypedColumn{Name: "id", Type: types.Int32, Nullability: types.NotNull},
		plan.TypedColumn{Name: "name", Type: types.NewString(nil), Nullability: types.NotNull},
	)
	cat := New(map[string]plan.RelSchema{"orders": orders, "customers": customers})

	declared := plan.NewSchema(
		plan.TypedColumn{Name: "id", Type: types.Int32, Nullability: types.NotNull},
		plan.TypedColumn{Name: "name", Type: types.NewString(nil), Nullability: types.NotNull},
	)

	sqlSources := map[string]string{
		"m": "select o.id, c.name from orders o left join customers c on o.cust_id = c.id",
	}
	yamlSchemas := map[string]plan.RelSchema{"m": declared}

	result := Run(nil, []string{"m"}, sqlSources, yamlSchemas, cat, lowering.DefaultDialect())

	require.Empty(t, result.Failures)
	mismatches := result.ModelPlans["m"].Mismatches
	require.Len(t, mismatches, 1)
	assert.Equal(t, NullabilityMismatch, mismatches[0].Kind)
	assert.Equal(t, "name", mismatches[0].Column)
	assert.Equal(t, Breaking, mismatches[0].ClassifyMismatch())
}

func TestRunIsolatesFailedModel(t *testing.T) {
	cat := New(nil)
	sqlSources := map[string]string{
		"broken": "not valid sql at all (((",
		"ok":     "select 1 as x from dual",
	}

	result := Run(nil, []string{"broken", "ok"}, sqlSources, nil, cat, lowering.DefaultDialect())

	require.Contains(t, result.Failures, "broken")
	require.Contains(t, result.ModelPlans, "ok")
	assert.NotContains(t, result.FinalCatalog.Names(), "broken")
}

func TestCatalogLookupFallsBackToLastComponent(t *testing.T) {
	cat := New(map[string]plan.RelSchema{"orders": plan.NewSchema()})
	schema, ok := cat.Lookup("raw.orders")
	require.True(t, ok)
	assert.Equal(t, 0, schema.Len())
}

func TestCatalogLookupMiss(t *testing.T) {
	cat := New(nil)
	_, ok := cat.Lookup("missing")
	assert.False(t, ok)
}
