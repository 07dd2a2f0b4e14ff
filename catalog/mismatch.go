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
	"fmt"

	"github.com/sqlplan-dev/sqlplan/internal/similartext"
	"github.com/sqlplan-dev/sqlplan/plan"
	"github.com/sqlplan-dev/sqlplan/types"
)

// MismatchKind discriminates the SchemaMismatch variants of spec.md §3.
type MismatchKind int

const (
	MissingFromSql MismatchKind = iota
	ExtraInSql
	TypeMismatch
	NullabilityMismatch
)

func (k MismatchKind) String() string {
	switch k {
	case MissingFromSql:
		return "MissingFromSql"
	case ExtraInSql:
		return "ExtraInSql"
	case TypeMismatch:
		return "TypeMismatch"
	case NullabilityMismatch:
		return "NullabilityMismatch"
	default:
		return "Unknown"
	}
}

// SchemaMismatch is one discrepancy between a model's declared and inferred
// schema (spec.md §3).
type SchemaMismatch struct {
	Kind                MismatchKind
	Column              string
	SqlType             types.SqlType // TypeMismatch only
	DeclaredType        types.SqlType // TypeMismatch only
	SqlNullability      types.Nullability
	DeclaredNullability types.Nullability
	Hint                string // "maybe you mean X?" for Missing/Extra, "" otherwise
}

func (m SchemaMismatch) String() string {
	switch m.Kind {
	case TypeMismatch:
		return fmt.Sprintf("%s{column: %q, sql_type: %s, declared_type: %s}", m.Kind, m.Column, m.SqlType, m.DeclaredType)
	case NullabilityMismatch:
		return fmt.Sprintf("%s{column: %q, sql_nullability: %s, declared_nullability: %s}", m.Kind, m.Column, m.SqlNullability, m.DeclaredNullability)
	default:
		return fmt.Sprintf("%s{column: %q}", m.Kind, m.Column)
	}
}

// BreakingChangeLevel classifies whether a mismatch would break a
// downstream consumer of the declared contract.
type BreakingChangeLevel int

const (
	NonBreaking BreakingChangeLevel = iota
	Breaking
	UnknownBreakage
)

func (l BreakingChangeLevel) String() string {
	switch l {
	case Breaking:
		return "Breaking"
	case UnknownBreakage:
		return "Unknown"
	default:
		return "NonBreaking"
	}
}

// ClassifyMismatch implements the breaking-change classification recovered
// from the original implementation's breaking_changes.rs: MissingFromSql and
// TypeMismatch are Breaking (a downstream consumer of the declared contract
// would fail); ExtraInSql is NonBreaking; a NullabilityMismatch is Breaking
// only in the NotNull->Nullable direction, which is the only direction this
// analyzer ever reports (spec.md §4.4 step 4: "the reverse direction is not
// reported").
func (m SchemaMismatch) ClassifyMismatch() BreakingChangeLevel {
	switch m.Kind {
	case MissingFromSql, TypeMismatch, NullabilityMismatch:
		return Breaking
	case ExtraInSql:
		return NonBreaking
	default:
		return UnknownBreakage
	}
}

// computeMismatches implements spec.md §4.4 step 4.
func computeMismatches(inferred, declared plan.RelSchema) []SchemaMismatch {
	var out []SchemaMismatch

	for _, d := range declared.Columns {
		inf, ok := inferred.FindColumn(d.Name)
		if !ok {
			out = append(out, SchemaMismatch{Kind: MissingFromSql, Column: d.Name, Hint: suggestColumn(inferred, d.Name)})
			continue
		}
		if !inf.Type.IsCompatibleWith(d.Type) {
			out = append(out, SchemaMismatch{Kind: TypeMismatch, Column: d.Name, SqlType: inf.Type, DeclaredType: d.Type})
		}
		if inf.Nullability == types.Nullable && d.Nullability == types.NotNull {
			out = append(out, SchemaMismatch{Kind: NullabilityMismatch, Column: d.Name, SqlNullability: inf.Nullability, DeclaredNullability: d.Nullability})
		}
	}

	for _, inf := range inferred.Columns {
		if _, ok := declared.FindColumn(inf.Name); !ok {
			out = append(out, SchemaMismatch{Kind: ExtraInSql, Column: inf.Name, Hint: suggestColumn(declared, inf.Name)})
		}
	}

	return out
}

// suggestColumn formats a "maybe you mean X?" hint for an unresolved
// column name against a schema, used by diagnostics built on top of a
// mismatch.
func suggestColumn(schema plan.RelSchema, name string) string {
	return similartext.Find(schema.ColumnNames(), name)
}
