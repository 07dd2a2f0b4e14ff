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

func buildUnusedColumnProject(t *testing.T) catalog.PropagationResult {
	t.Helper()
	rawSchema := plan.NewSchema(
		plan.TypedColumn{Name: "id", Type: types.Int32, Nullability: types.NotNull},
		plan.TypedColumn{Name: "val", Type: types.NewString(nil), Nullability: types.Nullable},
	)
	cat := catalog.New(map[string]plan.RelSchema{"raw": rawSchema})

	sqlSources := map[string]string{
		"stg":  "select id, val from raw",
		"mart": "select id from stg",
	}
	result := catalog.Run(nil, []string{"stg", "mart"}, sqlSources, nil, cat, lowering.DefaultDialect())
	require.Empty(t, result.Failures)
	return result
}

func TestUnusedProducedColumnFlagsColumnNoDownstreamReads(t *testing.T) {
	result := buildUnusedColumnProject(t)
	ctx := analyzer.Context{Propagation: result}

	diags := UnusedProducedColumn{}.RunProject(ctx)
	require.Len(t, diags, 1)
	assert.Equal(t, "stg", diags[0].Model)
	assert.Equal(t, "val", diags[0].Column)
	assert.Equal(t, diagnostic.UnusedProducedColumn, diags[0].Code)
}

func TestUnusedProducedColumnExemptsTerminalModel(t *testing.T) {
	result := buildUnusedColumnProject(t)
	ctx := analyzer.Context{Propagation: result}

	diags := UnusedProducedColumn{}.RunProject(ctx)
	for _, d := range diags {
		assert.NotEqual(t, "mart", d.Model, "terminal model must never be flagged")
	}
}

func TestSelectStarInNonTerminalFlagsWildcard(t *testing.T) {
	rawSchema := plan.NewSchema(
		plan.TypedColumn{Name: "id", Type: types.Int32, Nullability: types.NotNull},
	)
	cat := catalog.New(map[string]plan.RelSchema{"raw": rawSchema})
	sqlSources := map[string]string{
		"stg":  "select * from raw",
		"mart": "select id from stg",
	}
	result := catalog.Run(nil, []string{"stg", "mart"}, sqlSources, nil, cat, lowering.DefaultDialect())
	require.Empty(t, result.Failures)

	ctx := analyzer.Context{Propagation: result}
	diags := SelectStarInNonTerminal{}.RunProject(ctx)
	require.Len(t, diags, 1)
	assert.Equal(t, "stg", diags[0].Model)
}

func TestSelectStarInNonTerminalAllowsTerminalWildcard(t *testing.T) {
	rawSchema := plan.NewSchema(
		plan.TypedColumn{Name: "id", Type: types.Int32, Nullability: types.NotNull},
	)
	cat := catalog.New(map[string]plan.RelSchema{"raw": rawSchema})
	sqlSources := map[string]string{
		"mart": "select * from raw",
	}
	result := catalog.Run(nil, []string{"mart"}, sqlSources, nil, cat, lowering.DefaultDialect())
	require.Empty(t, result.Failures)

	ctx := analyzer.Context{Propagation: result}
	diags := SelectStarInNonTerminal{}.RunProject(ctx)
	assert.Empty(t, diags)
}
