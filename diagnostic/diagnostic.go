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

// Package diagnostic defines the Diagnostic value type and the stable
// DiagnosticCode identifiers shared by the pass framework (C7) and the
// concrete passes (C8).
package diagnostic

// Severity has the total order Info < Warning < Error (spec.md §7).
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// Code is a stable diagnostic identifier, e.g. "A010". New passes register
// new codes; existing codes never change meaning (spec.md §6).
type Code string

const (
	NullableWithoutGuard     Code = "A010"
	YamlNotNullContradiction Code = "A011"
	RedundantNullCheck       Code = "A012"
	UnusedProducedColumn     Code = "A020"
	SelectStarInNonTerminal  Code = "A021"
	JoinKeyTypeMismatch      Code = "A030"
	CrossJoinOrMissingOn     Code = "A032"
	NonEquiJoin              Code = "A033"
	SchemaDriftNames         Code = "A040"
	SchemaDriftTypes         Code = "A041"
	ClassificationPropagation Code = "A050"

	// PassInternal is emitted by the pass runner itself when a pass panics
	// (spec.md §7): "one failed pass never aborts the others".
	PassInternal Code = "PASS_INTERNAL"
)

// Diagnostic is a single analysis finding.
type Diagnostic struct {
	Code     Code
	Severity Severity
	Message  string
	Model    string
	Column   string // optional, "" if not column-specific
	Hint     string // optional
	PassName string
}
