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

// Package plan implements the relational IR (spec.md §3-4, C3): RelOp
// operator nodes over expression.TypedExpr, each owning an immutable
// RelSchema computed at construction time.
package plan

import (
	"strings"

	"github.com/sqlplan-dev/sqlplan/types"
)

// ColumnProvenance records one origin hop for a TypedColumn: direct
// pass-through vs. derived.
type ColumnProvenance struct {
	SourceTable  string
	SourceColumn string
	IsDirect     bool
}

// TypedColumn is one column of a RelSchema.
type TypedColumn struct {
	Name        string
	SourceTable string // alias or physical name that originated the column
	Type        types.SqlType
	Nullability types.Nullability
	Provenance  []ColumnProvenance

	// Classification is an optional declared-schema tag (e.g. "pii"),
	// set only on declared schemas supplied by the caller; inferred
	// schemas never populate it. Consumed by the classification
	// propagation pass.
	Classification string
}

// WithSourceTable returns a copy of c tagged with the given source table.
func (c TypedColumn) WithSourceTable(table string) TypedColumn {
	c.SourceTable = table
	return c
}

// RelSchema is an ordered sequence of TypedColumn.
type RelSchema struct {
	Columns []TypedColumn
}

// EmptySchema returns a RelSchema with no columns, used when a Scan's
// table name cannot be resolved in the catalog (spec.md §4.3).
func EmptySchema() RelSchema { return RelSchema{} }

// NewSchema builds a RelSchema from the given columns.
func NewSchema(cols ...TypedColumn) RelSchema { return RelSchema{Columns: cols} }

// FindColumn returns the first column matching name case-insensitively, or
// (_, false) if none matches.
func (s RelSchema) FindColumn(name string) (TypedColumn, bool) {
	for _, c := range s.Columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return TypedColumn{}, false
}

// FindQualified returns the first column matching both table and name
// case-insensitively.
func (s RelSchema) FindQualified(table, name string) (TypedColumn, bool) {
	for _, c := range s.Columns {
		if strings.EqualFold(c.SourceTable, table) && strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return TypedColumn{}, false
}

// Merge concatenates left and right, used when building a Join's schema.
func Merge(left, right RelSchema) RelSchema {
	cols := make([]TypedColumn, 0, len(left.Columns)+len(right.Columns))
	cols = append(cols, left.Columns...)
	cols = append(cols, right.Columns...)
	return RelSchema{Columns: cols}
}

// WithSourceTable tags every column in s as originating from label,
// preserving all other fields, used right after a Scan is given an alias.
func (s RelSchema) WithSourceTable(label string) RelSchema {
	cols := make([]TypedColumn, len(s.Columns))
	for i, c := range s.Columns {
		cols[i] = c.WithSourceTable(label)
	}
	return RelSchema{Columns: cols}
}

// WithNullability returns a copy of s with every column's nullability
// combined with n — used to implement outer-join nullability adjustment
// (spec.md §4.3, invariant in §8 "Outer-join nullability") without
// mutating the child schema it was derived from.
func (s RelSchema) WithNullability(n types.Nullability) RelSchema {
	cols := make([]TypedColumn, len(s.Columns))
	for i, c := range s.Columns {
		c.Nullability = types.Combine(c.Nullability, n)
		cols[i] = c
	}
	return RelSchema{Columns: cols}
}

// ColumnNames returns the schema's column names in order.
func (s RelSchema) ColumnNames() []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Name
	}
	return out
}

// Len returns the number of columns.
func (s RelSchema) Len() int { return len(s.Columns) }
