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

// Package lowering implements the translation from the parser's AST to the
// typed IR: expression lowering (C4, spec.md §4.2) and relational
// statement lowering (C5, spec.md §4.3).
package lowering

import errors "gopkg.in/src-d/go-errors.v1"

// Structural lowering failures (spec.md §7, surface 2: "Lowering
// failures"). LowerStatement also returns plain errors for a SELECT with no
// FROM clause and for unsupported FROM elements, table expressions and
// select expressions; expression lowering itself never fails (surface 3,
// "soft" failures become Unknown nodes instead).
var (
	// ErrNotASelectStatement is returned when LowerStatement is asked to
	// lower anything other than a SELECT (spec.md §4.3: "accepting only
	// SELECT statements; any other kind returns an error").
	ErrNotASelectStatement = errors.NewKind("statement is not a SELECT: %T")

	// ErrSetOpColumnCountMismatch is returned by a set operation whose
	// sides project a different number of columns (spec.md §4.3: "it is an
	// error only if the column counts differ").
	ErrSetOpColumnCountMismatch = errors.NewKind("set operation column count mismatch: left has %d, right has %d")

	// ErrUnsupportedJoinKeyword is returned for a join or set-operation
	// keyword the lowerer does not recognize at all (distinct from an
	// unsupported expression, which degrades to Unsupported rather than
	// failing).
	ErrUnsupportedJoinKeyword = errors.NewKind("unsupported join keyword: %q")
)
