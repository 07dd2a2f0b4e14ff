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
	"fmt"

	"github.com/sqlplan-dev/sqlplan/analyzer"
	"github.com/sqlplan-dev/sqlplan/catalog"
	"github.com/sqlplan-dev/sqlplan/diagnostic"
)

// SchemaDriftNames is A040 (spec.md §4.6): the inferred SQL shape no longer
// matches the declared contract's column names (MissingFromSql/ExtraInSql).
type SchemaDriftNames struct{}

func (SchemaDriftNames) Name() string        { return "SchemaDriftNames" }
func (SchemaDriftNames) Description() string { return "flags a declared column missing from the inferred shape, or an extra inferred column" }
func (SchemaDriftNames) DefaultSeverity() diagnostic.Severity { return diagnostic.Warning }

func (SchemaDriftNames) RunModel(name string, model catalog.PlannedModel, ctx analyzer.Context) []diagnostic.Diagnostic {
	var out []diagnostic.Diagnostic
	for _, m := range model.Mismatches {
		if m.Kind != catalog.MissingFromSql && m.Kind != catalog.ExtraInSql {
			continue
		}
		out = append(out, driftDiagnostic(diagnostic.SchemaDriftNames, "SchemaDriftNames", name, m))
	}
	return out
}

// SchemaDriftTypes is A041 (spec.md §4.6): the inferred type for a declared
// column no longer matches the declared type.
type SchemaDriftTypes struct{}

func (SchemaDriftTypes) Name() string        { return "SchemaDriftTypes" }
func (SchemaDriftTypes) Description() string { return "flags a declared column whose inferred type no longer matches" }
func (SchemaDriftTypes) DefaultSeverity() diagnostic.Severity { return diagnostic.Warning }

func (SchemaDriftTypes) RunModel(name string, model catalog.PlannedModel, ctx analyzer.Context) []diagnostic.Diagnostic {
	var out []diagnostic.Diagnostic
	for _, m := range model.Mismatches {
		if m.Kind != catalog.TypeMismatch {
			continue
		}
		out = append(out, driftDiagnostic(diagnostic.SchemaDriftTypes, "SchemaDriftTypes", name, m))
	}
	return out
}

// driftDiagnostic renders a SchemaMismatch as a Diagnostic, surfacing its
// breaking-change classification in the message so a reviewer can triage at
// a glance (spec.md §6.8).
func driftDiagnostic(code diagnostic.Code, passName, model string, m catalog.SchemaMismatch) diagnostic.Diagnostic {
	breaking := m.ClassifyMismatch()
	message := fmt.Sprintf("%s (%s)", m, breaking)

	severity := diagnostic.Warning
	if breaking == catalog.NonBreaking {
		severity = diagnostic.Info
	}

	return diagnostic.Diagnostic{
		Code:     code,
		Severity: severity,
		Message:  message,
		Model:    model,
		Column:   m.Column,
		Hint:     m.Hint,
		PassName: passName,
	}
}
