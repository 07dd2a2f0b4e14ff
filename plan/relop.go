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

package plan

import (
	"github.com/sqlplan-dev/sqlplan/expression"
	"github.com/sqlplan-dev/sqlplan/types"
)

// JoinType enumerates the supported join kinds (spec.md §3).
type JoinType int

const (
	Inner JoinType = iota
	LeftOuter
	RightOuter
	FullOuter
	Cross
)

func (j JoinType) String() string {
	switch j {
	case LeftOuter:
		return "LEFT OUTER"
	case RightOuter:
		return "RIGHT OUTER"
	case FullOuter:
		return "FULL OUTER"
	case Cross:
		return "CROSS"
	default:
		return "INNER"
	}
}

// SetOpKind enumerates UNION / UNION ALL / INTERSECT / EXCEPT.
type SetOpKind int

const (
	Union SetOpKind = iota
	UnionAll
	Intersect
	Except
)

// RelOp is the relational operator tree. Every node owns a schema computed
// at construction time (spec.md §3: "node.schema() is the output of that
// node under the current typing rules"). RelOp is a strict tree, never a
// DAG (spec.md §9).
type RelOp interface {
	Schema() RelSchema
	Children() []RelOp
	String() string
}

// Scan reads a base table — a model, external source, or seed — by name.
type Scan struct {
	TableName string
	Alias     string
	SchemaV   RelSchema
}

func (s *Scan) Schema() RelSchema  { return s.SchemaV }
func (s *Scan) Children() []RelOp  { return nil }
func (s *Scan) String() string     { return "Scan(" + s.displayName() + ")" }
func (s *Scan) displayName() string {
	if s.Alias != "" {
		return s.TableName + " AS " + s.Alias
	}
	return s.TableName
}

// NewScan builds a Scan, tagging the resolved schema's columns with the
// alias (or table name if unaliased) as their source table so that
// `table.*` expansion later has a stable key (spec.md §4.3 step 1).
func NewScan(tableName, alias string, schema RelSchema) *Scan {
	label := alias
	if label == "" {
		label = tableName
	}
	return &Scan{TableName: tableName, Alias: alias, SchemaV: schema.WithSourceTable(label)}
}

// ProjectColumn is one (output name, expression) pair in a Project.
type ProjectColumn struct {
	Name string
	Expr expression.TypedExpr
}

// Project evaluates a list of expressions over its input.
type Project struct {
	Input   RelOp
	Columns []ProjectColumn
	SchemaV RelSchema

	// UsedWildcard records whether this Project was lowered from a `*` or
	// `table.*` in the SELECT list, even though the column list below is
	// always fully expanded (spec.md §9, "Wildcard expansion vs. late
	// binding"). Consumed by A020/A021.
	UsedWildcard bool
}

func (p *Project) Schema() RelSchema { return p.SchemaV }
func (p *Project) Children() []RelOp { return []RelOp{p.Input} }
func (p *Project) String() string    { return "Project" }

// NewProject builds a Project node, computing its schema from the
// projected expressions' resolved types/nullability.
func NewProject(input RelOp, columns []ProjectColumn) *Project {
	return NewProjectWithWildcard(input, columns, false)
}

// NewProjectWithWildcard is NewProject plus the usedWildcard marker.
func NewProjectWithWildcard(input RelOp, columns []ProjectColumn, usedWildcard bool) *Project {
	cols := make([]TypedColumn, len(columns))
	for i, c := range columns {
		cols[i] = TypedColumn{
			Name:        c.Name,
			Type:        c.Expr.ResolvedType(),
			Nullability: c.Expr.Nullability(),
		}
	}
	return &Project{Input: input, Columns: columns, SchemaV: RelSchema{Columns: cols}, UsedWildcard: usedWildcard}
}

// Filter applies predicate to input; schema is unchanged (spec.md §4.3 step 3).
type Filter struct {
	Input     RelOp
	Predicate expression.TypedExpr
}

func (f *Filter) Schema() RelSchema { return f.Input.Schema() }
func (f *Filter) Children() []RelOp { return []RelOp{f.Input} }
func (f *Filter) String() string    { return "Filter" }

func NewFilter(input RelOp, predicate expression.TypedExpr) *Filter {
	return &Filter{Input: input, Predicate: predicate}
}

// Join combines Left and Right. Its schema is Merge(left, right) with
// outer-join nullability adjustment applied only to the Join node's own
// schema, never mutating the children (spec.md §4.3 step 2).
type Join struct {
	Left, Right RelOp
	JoinTypeV   JoinType
	Condition   expression.TypedExpr // nil for a Cross join or a missing ON
	SchemaV     RelSchema
}

func (j *Join) Schema() RelSchema { return j.SchemaV }
func (j *Join) Children() []RelOp { return []RelOp{j.Left, j.Right} }
func (j *Join) String() string    { return "Join(" + j.JoinTypeV.String() + ")" }

// NewJoin builds a Join node and computes its output schema, forcing the
// nullable side(s) per spec.md §4.3: LEFT_OUTER forces the right side
// Nullable, RIGHT_OUTER forces the left side, FULL_OUTER forces both,
// INNER/CROSS preserve input nullability.
func NewJoin(left, right RelOp, joinType JoinType, condition expression.TypedExpr) *Join {
	leftSchema := left.Schema()
	rightSchema := right.Schema()

	switch joinType {
	case LeftOuter:
		rightSchema = rightSchema.WithNullability(types.Nullable)
	case RightOuter:
		leftSchema = leftSchema.WithNullability(types.Nullable)
	case FullOuter:
		leftSchema = leftSchema.WithNullability(types.Nullable)
		rightSchema = rightSchema.WithNullability(types.Nullable)
	}

	return &Join{
		Left:      left,
		Right:     right,
		JoinTypeV: joinType,
		Condition: condition,
		SchemaV:   Merge(leftSchema, rightSchema),
	}
}

// AggregateColumn is one (output name, expression) pair for an
// aggregate-bearing SELECT item; group-by keys are held in Aggregate.GroupBy.
type AggregateColumn struct {
	Name string
	Expr expression.TypedExpr
}

// Aggregate groups Input by GroupBy and computes Aggregates.
type Aggregate struct {
	Input      RelOp
	GroupBy    []expression.TypedExpr
	Aggregates []AggregateColumn
	SchemaV    RelSchema
}

func (a *Aggregate) Schema() RelSchema { return a.SchemaV }
func (a *Aggregate) Children() []RelOp { return []RelOp{a.Input} }
func (a *Aggregate) String() string    { return "Aggregate" }

// NewAggregate builds an Aggregate node. Output schema is the group-by key
// columns (as typed refs) followed by the aggregate result columns
// (spec.md §4.3 step 4).
func NewAggregate(input RelOp, groupBy []expression.TypedExpr, aggregates []AggregateColumn) *Aggregate {
	var cols []TypedColumn
	for _, g := range groupBy {
		name := g.String()
		if cr, ok := g.(*expression.ColumnRef); ok {
			name = cr.Column
		}
		cols = append(cols, TypedColumn{Name: name, Type: g.ResolvedType(), Nullability: g.Nullability()})
	}
	for _, agg := range aggregates {
		cols = append(cols, TypedColumn{Name: agg.Name, Type: agg.Expr.ResolvedType(), Nullability: agg.Expr.Nullability()})
	}
	return &Aggregate{Input: input, GroupBy: groupBy, Aggregates: aggregates, SchemaV: RelSchema{Columns: cols}}
}

// SortKey is one ORDER BY term.
type SortKey struct {
	Expr expression.TypedExpr
	Desc bool
}

// Sort orders Input; schema is unchanged.
type Sort struct {
	Input RelOp
	Keys  []SortKey
}

func (s *Sort) Schema() RelSchema { return s.Input.Schema() }
func (s *Sort) Children() []RelOp { return []RelOp{s.Input} }
func (s *Sort) String() string    { return "Sort" }

func NewSort(input RelOp, keys []SortKey) *Sort { return &Sort{Input: input, Keys: keys} }

// Limit restricts Input to at most Count rows, skipping Offset first;
// schema is unchanged.
type Limit struct {
	Input  RelOp
	Count  *int64
	Offset *int64
}

func (l *Limit) Schema() RelSchema { return l.Input.Schema() }
func (l *Limit) Children() []RelOp { return []RelOp{l.Input} }
func (l *Limit) String() string    { return "Limit" }

func NewLimit(input RelOp, count, offset *int64) *Limit {
	return &Limit{Input: input, Count: count, Offset: offset}
}

// SetOp combines Left and Right via Op (UNION [ALL] / INTERSECT / EXCEPT).
// Its schema is Left's schema (column names); a column-count mismatch is a
// lowering-time error, type differences are reported by the pass layer via
// the compatibility predicate (spec.md §4.3).
type SetOp struct {
	Left, Right RelOp
	Op          SetOpKind
}

func (s *SetOp) Schema() RelSchema { return s.Left.Schema() }
func (s *SetOp) Children() []RelOp { return []RelOp{s.Left, s.Right} }
func (s *SetOp) String() string    { return "SetOp" }

func NewSetOp(left, right RelOp, op SetOpKind) *SetOp {
	return &SetOp{Left: left, Right: right, Op: op}
}
