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
	"strings"

	yaml "gopkg.in/yaml.v2"

	"github.com/sqlplan-dev/sqlplan/lowering"
	"github.com/sqlplan-dev/sqlplan/types"
)

// defaultFunctionsYAML is a small built-in registry of function signatures
// common across analytical SQL dialects, covering the scalar functions
// that fall outside the fixed built-in set the lowerer handles directly
// (spec.md §4.2's "registered UDFs"). Project-level function registration
// is out of scope (Non-goal), but shipping this default keeps a fresh
// project from tripping A-series passes on names like DATE_ADD.
const defaultFunctionsYAML = `
functions:
  - name: date_add
    returns: date
  - name: date_sub
    returns: date
  - name: to_char
    returns: string
  - name: md5
    returns: string
  - name: row_number
    returns: int64
`

type functionDoc struct {
	Name    string `yaml:"name"`
	Returns string `yaml:"returns"`
}

type functionsDoc struct {
	Functions []functionDoc `yaml:"functions"`
}

// DefaultFunctionRegistry decodes defaultFunctionsYAML into a
// lowering.FunctionRegistry. Every entry returns its declared type as
// NotNull; callers needing per-call nullability override by re-registering.
func DefaultFunctionRegistry() *lowering.FunctionRegistry {
	var doc functionsDoc
	if err := yaml.Unmarshal([]byte(defaultFunctionsYAML), &doc); err != nil {
		// The embedded document is a compile-time constant; a decode
		// failure here means a code change broke it, not a runtime
		// condition worth propagating.
		panic("catalog: invalid embedded default function document: " + err.Error())
	}

	registry := lowering.NewFunctionRegistry()
	for _, fn := range doc.Functions {
		returnType := types.ParseSqlType(strings.ToUpper(fn.Returns))
		registry.Register(lowering.FunctionSignature{
			Name:        fn.Name,
			ReturnType:  func(args []types.SqlType) types.SqlType { return returnType },
			Nullability: func(args []types.Nullability) types.Nullability { return types.NotNull },
		})
	}
	return registry
}

// DefaultDialect returns lowering.DefaultDialect() with DefaultFunctionRegistry
// wired in, the catalog package's analogue of the teacher's sqle.Config.
func DefaultDialect() lowering.Dialect {
	return lowering.Dialect{Functions: DefaultFunctionRegistry()}
}
