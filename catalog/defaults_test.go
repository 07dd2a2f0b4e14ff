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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFunctionRegistryResolvesDateAdd(t *testing.T) {
	registry := DefaultFunctionRegistry()
	sig, ok := registry.Lookup("date_add")
	require.True(t, ok)
	rt := sig.ReturnType(nil)
	assert.Equal(t, "DATE", rt.Kind().String())
}

func TestDefaultDialectHasFunctions(t *testing.T) {
	dialect := DefaultDialect()
	_, ok := dialect.Functions.Lookup("md5")
	assert.True(t, ok)
}
