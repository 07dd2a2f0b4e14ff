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
	"strings"

	"github.com/sqlplan-dev/sqlplan/types"
)

// FunctionSignature is a resolved user-defined scalar or table function
// signature, supplied by the external function/macro registration layer
// (spec.md §1: "function/macro registration ... supplies scalar/table UDF
// signatures to the planner").
type FunctionSignature struct {
	Name        string
	ReturnType  func(args []types.SqlType) types.SqlType
	Nullability func(args []types.Nullability) types.Nullability
}

// FunctionRegistry resolves user-defined function names to signatures.
// Built-in functions (COUNT, SUM, UPPER, ...) are always handled directly
// by the lowerer per spec.md §4.2 and never consult the registry.
type FunctionRegistry struct {
	signatures map[string]FunctionSignature
}

// NewFunctionRegistry builds an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{signatures: make(map[string]FunctionSignature)}
}

// Register adds or replaces a signature.
func (r *FunctionRegistry) Register(sig FunctionSignature) {
	r.signatures[strings.ToUpper(sig.Name)] = sig
}

// Lookup returns the registered signature for name, if any.
func (r *FunctionRegistry) Lookup(name string) (FunctionSignature, bool) {
	if r == nil {
		return FunctionSignature{}, false
	}
	sig, ok := r.signatures[strings.ToUpper(name)]
	return sig, ok
}

// Dialect carries the parser-supplied, dialect-specific knobs: a
// case-folding function and the registry of resolved user-defined
// functions.
type Dialect struct {
	// FoldCase is the dialect's identifier case-folding function. Lowering's
	// column and table lookups do not consult it: they always go through
	// RelSchema, which compares names case-insensitively.
	FoldCase func(string) string

	Functions *FunctionRegistry
}

// DefaultDialect is case-insensitive with no registered user functions.
func DefaultDialect() Dialect {
	return Dialect{Functions: NewFunctionRegistry()}
}

func (d Dialect) fold(s string) string {
	if d.FoldCase == nil {
		return strings.ToLower(s)
	}
	return d.FoldCase(s)
}

// aggregateFunctionNames is the fixed recognition set from spec.md §4.3
// step 4.
var aggregateFunctionNames = map[string]bool{
	"COUNT": true, "SUM": true, "AVG": true, "MIN": true, "MAX": true,
	"BOOL_AND": true, "BOOL_OR": true, "EVERY": true, "STRING_AGG": true,
	"ARRAY_AGG": true, "LISTAGG": true, "GROUP_CONCAT": true,
}

// IsAggregateFunction reports whether name (case-insensitive) is one of
// the recognized aggregate functions.
func IsAggregateFunction(name string) bool {
	return aggregateFunctionNames[strings.ToUpper(name)]
}
