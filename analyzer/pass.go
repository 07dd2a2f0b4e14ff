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

// Package analyzer implements the pass framework (C7, spec.md §4.5): a
// registry of per-model and per-project passes run over a project's
// planned models, producing a deterministically ordered diagnostic set.
package analyzer

import (
	"github.com/sqlplan-dev/sqlplan/catalog"
	"github.com/sqlplan-dev/sqlplan/diagnostic"
)

// Context is the shared, read-only state every pass receives: the full set
// of planned models (for cross-model lookups) and the propagation result
// they were built from (for SchemaDrift and similar passes that need
// mismatches or failures).
type Context struct {
	Propagation catalog.PropagationResult
}

// ModelPass runs once per model (spec.md §4.5: "run_model(name, plan,
// context) -> [Diagnostic]").
type ModelPass interface {
	Name() string
	Description() string
	DefaultSeverity() diagnostic.Severity
	RunModel(name string, model catalog.PlannedModel, ctx Context) []diagnostic.Diagnostic
}

// ProjectPass runs once over every model (spec.md §4.5: "run_project(all_plans,
// context) -> [Diagnostic]").
type ProjectPass interface {
	Name() string
	Description() string
	DefaultSeverity() diagnostic.Severity
	RunProject(ctx Context) []diagnostic.Diagnostic
}
