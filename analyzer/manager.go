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

package analyzer

import (
	"fmt"
	"sort"

	"github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"

	"github.com/sqlplan-dev/sqlplan/catalog"
	"github.com/sqlplan-dev/sqlplan/diagnostic"
)

// Manager owns the registered pass set and runs a filtered subset over a
// project (spec.md §4.5: "The pass manager accepts a registered set, a
// filter ... and returns the concatenation of their outputs").
type Manager struct {
	modelPasses   []ModelPass
	projectPasses []ProjectPass
}

// NewManager builds an empty Manager.
func NewManager() *Manager { return &Manager{} }

// RegisterModelPass adds a per-model pass, in registration order.
func (m *Manager) RegisterModelPass(p ModelPass) { m.modelPasses = append(m.modelPasses, p) }

// RegisterProjectPass adds a per-project pass, in registration order.
func (m *Manager) RegisterProjectPass(p ProjectPass) { m.projectPasses = append(m.projectPasses, p) }

// Filter selects which registered passes to run by name; a nil Filter
// means "run everything registered".
type Filter func(passName string) bool

// Run executes every registered pass accepted by filter over ctx, in
// registration order, then returns the concatenated diagnostics sorted by
// (pass_name, model, code, column) for deterministic output (spec.md §5).
// A pass that panics is recovered and converted into a single
// PASS_INTERNAL Error diagnostic naming the failing pass; it never aborts
// the rest of the run (spec.md §7).
func (m *Manager) Run(logger *logrus.Entry, ctx Context, filter Filter) []diagnostic.Diagnostic {
	var out []diagnostic.Diagnostic

	names := make([]string, 0, len(ctx.Propagation.ModelPlans))
	for name := range ctx.Propagation.ModelPlans {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		planned := ctx.Propagation.ModelPlans[name]
		for _, p := range m.modelPasses {
			if filter != nil && !filter(p.Name()) {
				continue
			}
			out = append(out, m.runModelPassSafely(logger, p, name, planned, ctx)...)
		}
	}

	for _, p := range m.projectPasses {
		if filter != nil && !filter(p.Name()) {
			continue
		}
		out = append(out, m.runProjectPassSafely(logger, p, ctx)...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.PassName != b.PassName {
			return a.PassName < b.PassName
		}
		if a.Model != b.Model {
			return a.Model < b.Model
		}
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.Column < b.Column
	})
	return out
}

func (m *Manager) runModelPassSafely(logger *logrus.Entry, p ModelPass, name string, planned catalog.PlannedModel, ctx Context) (result []diagnostic.Diagnostic) {
	span := opentracing.StartSpan("analyzer.run_model_pass")
	span.SetTag("pass", p.Name())
	span.SetTag("model", name)
	defer span.Finish()

	if logger != nil {
		logger.WithField("pass", p.Name()).WithField("model", name).Debug("running model pass")
	}

	defer func() {
		if r := recover(); r != nil {
			if logger != nil {
				logger.WithField("pass", p.Name()).WithField("model", name).Errorf("pass panicked: %v", r)
			}
			span.SetTag("error", true)
			result = []diagnostic.Diagnostic{{
				Code:     diagnostic.PassInternal,
				Severity: diagnostic.Error,
				Message:  fmt.Sprintf("pass %q panicked: %v", p.Name(), r),
				Model:    name,
				PassName: p.Name(),
			}}
		}
	}()
	return p.RunModel(name, planned, ctx)
}

func (m *Manager) runProjectPassSafely(logger *logrus.Entry, p ProjectPass, ctx Context) (result []diagnostic.Diagnostic) {
	span := opentracing.StartSpan("analyzer.run_project_pass")
	span.SetTag("pass", p.Name())
	defer span.Finish()

	if logger != nil {
		logger.WithField("pass", p.Name()).Debug("running project pass")
	}

	defer func() {
		if r := recover(); r != nil {
			if logger != nil {
				logger.WithField("pass", p.Name()).Errorf("pass panicked: %v", r)
			}
			span.SetTag("error", true)
			result = []diagnostic.Diagnostic{{
				Code:     diagnostic.PassInternal,
				Severity: diagnostic.Error,
				Message:  fmt.Sprintf("pass %q panicked: %v", p.Name(), r),
				PassName: p.Name(),
			}}
		}
	}()
	return p.RunProject(ctx)
}
