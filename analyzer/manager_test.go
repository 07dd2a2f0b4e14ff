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

package analyzer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlplan-dev/sqlplan/analyzer"
	"github.com/sqlplan-dev/sqlplan/catalog"
	"github.com/sqlplan-dev/sqlplan/diagnostic"
)

type stubModelPass struct {
	name  string
	diags []diagnostic.Diagnostic
	panic bool
}

func (s stubModelPass) Name() string                            { return s.name }
func (s stubModelPass) Description() string                     { return "stub" }
func (s stubModelPass) DefaultSeverity() diagnostic.Severity     { return diagnostic.Warning }
func (s stubModelPass) RunModel(name string, model catalog.PlannedModel, ctx analyzer.Context) []diagnostic.Diagnostic {
	if s.panic {
		panic("boom")
	}
	return s.diags
}

func TestManagerRunSortsDeterministically(t *testing.T) {
	m := analyzer.NewManager()
	m.RegisterModelPass(stubModelPass{name: "Z", diags: []diagnostic.Diagnostic{
		{PassName: "Z", Model: "m", Code: "A010", Column: "b"},
	}})
	m.RegisterModelPass(stubModelPass{name: "A", diags: []diagnostic.Diagnostic{
		{PassName: "A", Model: "m", Code: "A010", Column: "a"},
	}})

	ctx := analyzer.Context{Propagation: catalog.PropagationResult{
		ModelPlans: map[string]catalog.PlannedModel{"m": {}},
	}}

	diags := m.Run(nil, ctx, nil)
	require.Len(t, diags, 2)
	assert.Equal(t, "A", diags[0].PassName)
	assert.Equal(t, "Z", diags[1].PassName)
}

func TestManagerRunRecoversPanickingPass(t *testing.T) {
	m := analyzer.NewManager()
	m.RegisterModelPass(stubModelPass{name: "Boom", panic: true})

	ctx := analyzer.Context{Propagation: catalog.PropagationResult{
		ModelPlans: map[string]catalog.PlannedModel{"m": {}},
	}}

	diags := m.Run(nil, ctx, nil)
	require.Len(t, diags, 1)
	assert.Equal(t, diagnostic.PassInternal, diags[0].Code)
	assert.Equal(t, diagnostic.Error, diags[0].Severity)
}

func TestManagerRunAppliesFilter(t *testing.T) {
	m := analyzer.NewManager()
	m.RegisterModelPass(stubModelPass{name: "Included", diags: []diagnostic.Diagnostic{{PassName: "Included", Model: "m"}}})
	m.RegisterModelPass(stubModelPass{name: "Excluded", diags: []diagnostic.Diagnostic{{PassName: "Excluded", Model: "m"}}})

	ctx := analyzer.Context{Propagation: catalog.PropagationResult{
		ModelPlans: map[string]catalog.PlannedModel{"m": {}},
	}}

	diags := m.Run(nil, ctx, func(name string) bool { return name == "Included" })
	require.Len(t, diags, 1)
	assert.Equal(t, "Included", diags[0].PassName)
}
