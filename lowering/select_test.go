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
	"testing"

	"github.com/dolthub/vitess/go/vt/sqlparser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlplan-dev/sqlplan/plan"
	"github.com/sqlplan-dev/sqlplan/types"
)

type fakeCatalog map[string]plan.RelSchema

func (f fakeCatalog) Lookup(table string) (plan.RelSchema, bool) {
	s, ok := f[table]
	return s, ok
}

func parseSelect(t *testing.T, sql string) sqlparser.Statement {
	t.Helper()
	stmt, err := sqlparser.Parse(sql)
	require.NoError(t, err)
	return stmt
}

func ordersSchema() plan.RelSchema {
	return plan.NewSchema(
		plan.TypedColumn{Name: "id", Type: types.Int64, Nullability: types.NotNull},
		plan.TypedColumn{Name: "customer_id", Type: types.Int64, Nullability: types.NotNull},
		plan.TypedColumn{Name: "amount", Type: types.Float64, Nullability: types.Nullable},
	)
}

func TestLowerStatementRejectsNonSelect(t *testing.T) {
	stmt := parseSelect(t, "insert into orders (id) values (1)")
	_, err := LowerStatement(stmt, fakeCatalog{}, DefaultDialect())
	assert.Error(t, err)
}

func TestLowerStatementSimpleProjection(t *testing.T) {
	cat := fakeCatalog{"orders": ordersSchema()}
	stmt := parseSelect(t, "select id, amount from orders")

	got, err := LowerStatement(stmt, cat, DefaultDialect())
	require.NoError(t, err)

	proj, ok := got.(*plan.Project)
	require.True(t, ok)
	assert.Equal(t, []string{"id", "amount"}, proj.Schema().ColumnNames())
}

func TestLowerStatementStarExpansion(t *testing.T) {
	cat := fakeCatalog{"orders": ordersSchema()}
	stmt := parseSelect(t, "select * from orders")

	got, err := LowerStatement(stmt, cat, DefaultDialect())
	require.NoError(t, err)
	assert.Equal(t, 3, got.Schema().Len())
}

func TestLowerStatementUnresolvedTableYieldsEmptySchema(t *testing.T) {
	stmt := parseSelect(t, "select * from missing_model")
	got, err := LowerStatement(stmt, fakeCatalog{}, DefaultDialect())
	require.NoError(t, err)
	assert.Equal(t, 0, got.Schema().Len())
}

func TestLowerStatementLeftJoinNullifiesRightSide(t *testing.T) {
	customers := plan.NewSchema(plan.TypedColumn{Name: "id", Type: types.Int64, Nullability: types.NotNull})
	cat := fakeCatalog{"orders": ordersSchema(), "customers": customers}
	stmt := parseSelect(t, "select o.id, c.id from orders o left join customers c on o.customer_id = c.id")

	got, err := LowerStatement(stmt, cat, DefaultDialect())
	require.NoError(t, err)

	proj, ok := got.(*plan.Project)
	require.True(t, ok)
	join, ok := proj.Input.(*plan.Join)
	require.True(t, ok)
	assert.Equal(t, plan.LeftOuter, join.JoinTypeV)

	rightCol, ok := join.Schema().FindQualified("c", "id")
	require.True(t, ok)
	assert.Equal(t, types.Nullable, rightCol.Nullability)
}

func TestLowerStatementGroupByAggregate(t *testing.T) {
	cat := fakeCatalog{"orders": ordersSchema()}
	stmt := parseSelect(t, "select customer_id, sum(amount) as total from orders group by customer_id")

	got, err := LowerStatement(stmt, cat, DefaultDialect())
	require.NoError(t, err)

	agg, ok := got.(*plan.Aggregate)
	require.True(t, ok)
	assert.Equal(t, []string{"customer_id", "total"}, agg.Schema().ColumnNames())
}

func TestLowerStatementUnionColumnCountMismatch(t *testing.T) {
	cat := fakeCatalog{"orders": ordersSchema()}
	stmt := parseSelect(t, "select id from orders union select id, amount from orders")

	_, err := LowerStatement(stmt, cat, DefaultDialect())
	assert.Error(t, err)
}

func TestLowerStatementUnionAllMatchingColumns(t *testing.T) {
	cat := fakeCatalog{"orders": ordersSchema()}
	stmt := parseSelect(t, "select id from orders union all select id from orders")

	got, err := LowerStatement(stmt, cat, DefaultDialect())
	require.NoError(t, err)

	setOp, ok := got.(*plan.SetOp)
	require.True(t, ok)
	assert.Equal(t, plan.UnionAll, setOp.Op)
}

func TestLowerStatementLimit(t *testing.T) {
	cat := fakeCatalog{"orders": ordersSchema()}
	stmt := parseSelect(t, "select id from orders limit 10")

	got, err := LowerStatement(stmt, cat, DefaultDialect())
	require.NoError(t, err)

	lim, ok := got.(*plan.Limit)
	require.True(t, ok)
	require.NotNil(t, lim.Count)
	assert.Equal(t, int64(10), *lim.Count)
}

func TestExtractDependenciesExcludesCTEs(t *testing.T) {
	stmt := parseSelect(t, "with recent as (select id from orders) select id from recent join customers on recent.id = customers.id")
	deps := ExtractDependencies(stmt)
	assert.Equal(t, []string{"customers", "orders"}, deps)
}
