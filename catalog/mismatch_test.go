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

	"github.com/sqlplan-dev/sqlplan/plan"
	"github.com/sqlplan-dev/sqlplan/types"
)

func TestComputeMismatchesEmptyWhenIdentical(t *testing.T) {
	schema := plan.NewSchema(plan.TypedColumn{Name: "id", Type: types.Int32, Nullability: types.NotNull})
	assert.Empty(t, computeMismatches(schema, schema))
}

func TestComputeMismatchesMissingFromSql(t *testing.T) {
	inferred := plan.NewSchema()
	declared := plan.NewSchema(plan.TypedColumn{Name: "id", Type: types.Int32, Nullability: types.NotNull})
	got := computeMismatches(inferred, declared)
	assert.Equal(t, MissingFromSql, got[0].Kind)
}

func TestComputeMismatchesExtraInSql(t *testing.T) {
	inferred := plan.NewSchema(plan.TypedColumn{Name: "id", Type: types.Int32, Nullability: types.NotNull})
	declared := plan.NewSchema()
	got := computeMismatches(inferred, declared)
	assert.Equal(t, ExtraInSql, got[0].Kind)
}

func TestComputeMismatchesNullabilityOnlyReportsNotNullToNullableDirection(t *testing.T) {
	inferred := plan.NewSchema(plan.TypedColumn{Name: "id", Type: types.Int32, Nullability: types.NotNull})
	declared := plan.NewSchema(plan.TypedColumn{Name: "id", Type: types.Int32, Nullability: types.Nullable})
	assert.Empty(t, computeMismatches(inferred, declared))
}

func TestComputeMismatchesTypeMismatch(t *testing.T) {
	inferred := plan.NewSchema(plan.TypedColumn{Name: "id", Type: types.NewString(nil), Nullability: types.NotNull})
	declared := plan.NewSchema(plan.TypedColumn{Name: "id", Type: types.Int32, Nullability: types.NotNull})
	got := computeMismatches(inferred, declared)
	assert.Equal(t, TypeMismatch, got[0].Kind)
}

func TestClassifyMismatchLevels(t *testing.T) {
	assert.Equal(t, Breaking, SchemaMismatch{Kind: MissingFromSql}.ClassifyMismatch())
	assert.Equal(t, Breaking, SchemaMismatch{Kind: TypeMismatch}.ClassifyMismatch())
	assert.Equal(t, Breaking, SchemaMismatch{Kind: NullabilityMismatch}.ClassifyMismatch())
	assert.Equal(t, NonBreaking, SchemaMismatch{Kind: ExtraInSql}.ClassifyMismatch())
}

func TestMissingFromSqlCarriesHint(t *testing.T) {
	inferred := plan.NewSchema(plan.TypedColumn{Name: "customer_id", Type: types.Int32, Nullability: types.NotNull})
	declared := plan.NewSchema(plan.TypedColumn{Name: "custommer_id", Type: types.Int32, Nullability: types.NotNull})
	got := computeMismatches(inferred, declared)
	assert.Contains(t, got[0].Hint, "customer_id")
}
