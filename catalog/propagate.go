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
	"github.com/dolthub/vitess/go/vt/sqlparser"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sqlplan-dev/sqlplan/lowering"
	"github.com/sqlplan-dev/sqlplan/plan"
)

// ModelMeta is purely descriptive per-model metadata the caller may attach
// alongside a PlannedModel; no pass ever reads it, it exists so an external
// CLI can key its own output on materialization/tags (recovered from
// node.rs in the original implementation).
type ModelMeta struct {
	Name            string
	Materialization string
	Tags            []string
}

// PlannedModel is the result of successfully planning one model (spec.md §3).
type PlannedModel struct {
	Plan           plan.RelOp
	InferredSchema plan.RelSchema
	DeclaredSchema plan.RelSchema // zero value if the caller declared none
	Mismatches     []SchemaMismatch
	Meta           *ModelMeta // nil if the caller supplied none
}

// PropagationResult is the output of Run (spec.md §3).
type PropagationResult struct {
	ModelPlans   map[string]PlannedModel
	Failures     map[string]string
	FinalCatalog Catalog
}

// Run executes the propagation algorithm of spec.md §4.4 over topoOrder,
// exactly as stated: each model is parsed and lowered against the catalog
// state left by its predecessors, mismatches against any declared schema
// are computed, and the inferred schema is published before moving to the
// next model. A parse or lowering failure is recorded in Failures and does
// not block any other model.
//
// logger may be nil, in which case logging is a no-op.
func Run(
	logger *logrus.Entry,
	topoOrder []string,
	sqlSources map[string]string,
	yamlSchemas map[string]plan.RelSchema,
	initialCatalog Catalog,
	dialect lowering.Dialect,
) PropagationResult {
	result := PropagationResult{
		ModelPlans:   make(map[string]PlannedModel),
		Failures:     make(map[string]string),
		FinalCatalog: initialCatalog.Clone(),
	}

	for _, name := range topoOrder {
		sql, hasSQL := sqlSources[name]
		if !hasSQL {
			continue
		}

		span := opentracing.StartSpan("catalog.propagate_model")
		span.SetTag("model", name)

		planned, err := planModel(logger, name, sql, yamlSchemas[name], result.FinalCatalog, dialect)
		if err != nil {
			logTrace(logger, name, "planning failed: %v", err)
			result.Failures[name] = err.Error()
			span.SetTag("error", true)
			span.Finish()
			continue
		}

		result.FinalCatalog.Set(name, planned.InferredSchema)
		result.ModelPlans[name] = planned
		logTrace(logger, name, "planned with %d columns, %d mismatches", planned.InferredSchema.Len(), len(planned.Mismatches))
		span.Finish()
	}

	return result
}

func planModel(logger *logrus.Entry, name, sql string, declared plan.RelSchema, cat Catalog, dialect lowering.Dialect) (PlannedModel, error) {
	stmt, err := sqlparser.Parse(sql)
	if err != nil {
		return PlannedModel{}, errors.Wrapf(err, "parsing model %q", name)
	}

	rel, err := lowering.LowerStatement(stmt, cat, dialect)
	if err != nil {
		return PlannedModel{}, errors.Wrapf(err, "lowering model %q", name)
	}

	inferred := rel.Schema()
	var mismatches []SchemaMismatch
	if declared.Len() > 0 {
		mismatches = computeMismatches(inferred, declared)
	}

	return PlannedModel{Plan: rel, InferredSchema: inferred, DeclaredSchema: declared, Mismatches: mismatches}, nil
}

func logTrace(logger *logrus.Entry, model, format string, args ...interface{}) {
	if logger == nil {
		return
	}
	logger.WithField("model", model).Tracef(format, args...)
}
