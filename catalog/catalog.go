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

// Package catalog implements the schema catalog and the propagation engine
// (C6, spec.md §4.4): a topological walk that plans every model's SQL
// against a live schema catalog, publishing each inferred schema back so
// downstream models see it.
package catalog

import (
	"strings"

	"github.com/mitchellh/hashstructure"

	"github.com/sqlplan-dev/sqlplan/plan"
)

// Catalog maps a table name to its schema. It grows monotonically within a
// single propagation run (spec.md §3) and is owned exclusively by the
// propagation engine while a Run is in flight.
type Catalog struct {
	schemas map[string]plan.RelSchema
}

// New builds a Catalog seeded with the given external source / seed
// schemas.
func New(seed map[string]plan.RelSchema) Catalog {
	c := Catalog{schemas: make(map[string]plan.RelSchema, len(seed))}
	for name, schema := range seed {
		c.schemas[name] = schema
	}
	return c
}

// Lookup resolves name per spec.md §6: try the full name first (which may
// be schema-qualified, e.g. "raw.orders"), then fall back to its last
// dotted component.
func (c Catalog) Lookup(name string) (plan.RelSchema, bool) {
	if s, ok := c.schemas[name]; ok {
		return s, true
	}
	if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
		if s, ok := c.schemas[name[idx+1:]]; ok {
			return s, true
		}
	}
	return plan.RelSchema{}, false
}

// Set publishes schema under name, overwriting any prior entry (spec.md
// §4.4 step 5).
func (c Catalog) Set(name string, schema plan.RelSchema) {
	c.schemas[name] = schema
}

// Names returns every table name currently known to the catalog.
func (c Catalog) Names() []string {
	out := make([]string, 0, len(c.schemas))
	for name := range c.schemas {
		out = append(out, name)
	}
	return out
}

// Clone returns an independent copy of c, used by the propagation engine to
// seed final_catalog from initial_catalog without aliasing the caller's map.
func (c Catalog) Clone() Catalog {
	out := make(map[string]plan.RelSchema, len(c.schemas))
	for name, schema := range c.schemas {
		out[name] = schema
	}
	return Catalog{schemas: out}
}

// Hash returns a stable structural hash of the catalog's current contents,
// so a caller can compare two catalogs to tell whether a re-propagation run
// changed anything.
func (c Catalog) Hash() (uint64, error) {
	return hashstructure.Hash(c.schemas, nil)
}
