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

// Package expression implements the typed expression IR (spec.md §3, C2):
// a tree of TypedExpr nodes, each carrying a resolved SqlType and
// Nullability computed once at lowering time.
package expression

import (
	"fmt"
	"strings"

	"github.com/sqlplan-dev/sqlplan/types"
)

// TypedExpr is the sum type of typed expression nodes. Every variant
// exposes ResolvedType/Nullability accessors and a String for diagnostics.
type TypedExpr interface {
	ResolvedType() types.SqlType
	Nullability() types.Nullability
	// Children returns the direct sub-expressions, used by tree walks in
	// the analysis passes and lineage extraction.
	Children() []TypedExpr
	String() string
}

// ColumnRef resolves to a column by (optional) qualifier + name.
type ColumnRef struct {
	Table        string // "" if unqualified
	Column       string
	Type         types.SqlType
	NullabilityV types.Nullability
}

func (c *ColumnRef) ResolvedType() types.SqlType       { return c.Type }
func (c *ColumnRef) Nullability() types.Nullability     { return c.NullabilityV }
func (c *ColumnRef) Children() []TypedExpr              { return nil }
func (c *ColumnRef) String() string {
	if c.Table == "" {
		return c.Column
	}
	return c.Table + "." + c.Column
}

// Literal is a constant value with its type; a nil Value is the NULL literal.
type Literal struct {
	Value interface{}
	Type  types.SqlType
}

func (l *Literal) ResolvedType() types.SqlType   { return l.Type }
func (l *Literal) Nullability() types.Nullability {
	if l.Value == nil {
		return types.Nullable
	}
	return types.NotNull
}
func (l *Literal) Children() []TypedExpr { return nil }
func (l *Literal) String() string        { return fmt.Sprintf("%v", l.Value) }

// BinaryOp is any two-argument operator (comparison, logical, arithmetic).
type BinaryOp struct {
	Left, Right  TypedExpr
	Op           string
	Type         types.SqlType
	NullabilityV types.Nullability
}

func (b *BinaryOp) ResolvedType() types.SqlType   { return b.Type }
func (b *BinaryOp) Nullability() types.Nullability { return b.NullabilityV }
func (b *BinaryOp) Children() []TypedExpr          { return []TypedExpr{b.Left, b.Right} }
func (b *BinaryOp) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

// UnaryOp is a single-argument operator (NOT, unary -, unary +).
type UnaryOp struct {
	Arg          TypedExpr
	Op           string
	Type         types.SqlType
	NullabilityV types.Nullability
}

func (u *UnaryOp) ResolvedType() types.SqlType   { return u.Type }
func (u *UnaryOp) Nullability() types.Nullability { return u.NullabilityV }
func (u *UnaryOp) Children() []TypedExpr          { return []TypedExpr{u.Arg} }
func (u *UnaryOp) String() string                 { return fmt.Sprintf("%s%s", u.Op, u.Arg) }

// FunctionCall is a scalar or aggregate function application.
type FunctionCall struct {
	Name         string // uppercased
	Args         []TypedExpr
	Type         types.SqlType
	NullabilityV types.Nullability
}

func (f *FunctionCall) ResolvedType() types.SqlType   { return f.Type }
func (f *FunctionCall) Nullability() types.Nullability { return f.NullabilityV }
func (f *FunctionCall) Children() []TypedExpr          { return f.Args }
func (f *FunctionCall) String() string {
	parts := make([]string, len(f.Args))
	for i, a := range f.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", f.Name, strings.Join(parts, ", "))
}

// Cast is CAST(Expr AS TargetType) or TRY_CAST; TryCast forces Nullable.
type Cast struct {
	Expr         TypedExpr
	TargetType   types.SqlType
	TryCast      bool
	NullabilityV types.Nullability
}

func (c *Cast) ResolvedType() types.SqlType   { return c.TargetType }
func (c *Cast) Nullability() types.Nullability { return c.NullabilityV }
func (c *Cast) Children() []TypedExpr          { return []TypedExpr{c.Expr} }
func (c *Cast) String() string {
	name := "CAST"
	if c.TryCast {
		name = "TRY_CAST"
	}
	return fmt.Sprintf("%s(%s AS %s)", name, c.Expr, c.TargetType)
}

// Case is a CASE expression; Operand is nil for the searched form.
type Case struct {
	Operand      TypedExpr // may be nil
	Conditions   []TypedExpr
	Results      []TypedExpr
	Else         TypedExpr // may be nil
	Type         types.SqlType
	NullabilityV types.Nullability
}

func (c *Case) ResolvedType() types.SqlType   { return c.Type }
func (c *Case) Nullability() types.Nullability { return c.NullabilityV }
func (c *Case) Children() []TypedExpr {
	var out []TypedExpr
	if c.Operand != nil {
		out = append(out, c.Operand)
	}
	out = append(out, c.Conditions...)
	out = append(out, c.Results...)
	if c.Else != nil {
		out = append(out, c.Else)
	}
	return out
}
func (c *Case) String() string { return "CASE ... END" }

// IsNull is IS NULL / IS NOT NULL.
type IsNull struct {
	Expr    TypedExpr
	Negated bool
}

func (i *IsNull) ResolvedType() types.SqlType   { return types.Boolean }
func (i *IsNull) Nullability() types.Nullability { return types.NotNull }
func (i *IsNull) Children() []TypedExpr          { return []TypedExpr{i.Expr} }
func (i *IsNull) String() string {
	if i.Negated {
		return fmt.Sprintf("%s IS NOT NULL", i.Expr)
	}
	return fmt.Sprintf("%s IS NULL", i.Expr)
}

// Wildcard is `*` or `table.*` used as an operand, as in COUNT(*). A star in
// the SELECT list is expanded during relational lowering and recorded on
// plan.Project.UsedWildcard instead of as a Wildcard node.
type Wildcard struct {
	Table string // "" for bare *
}

func (w *Wildcard) ResolvedType() types.SqlType   { return types.NewUnknown("wildcard") }
func (w *Wildcard) Nullability() types.Nullability { return types.Unknown }
func (w *Wildcard) Children() []TypedExpr          { return nil }
func (w *Wildcard) String() string {
	if w.Table == "" {
		return "*"
	}
	return w.Table + ".*"
}

// Subquery stands in for any scalar/EXISTS subquery; always Unknown/Unknown
// per spec.md §4.2 ("Subquery / EXISTS / LIKE ... produce Unsupported").
// Kept as its own variant rather than folded into Unsupported, so a subquery
// stays distinguishable from other unsupported syntax in the tree.
type Subquery struct {
	Type         types.SqlType
	NullabilityV types.Nullability
}

func (s *Subquery) ResolvedType() types.SqlType   { return s.Type }
func (s *Subquery) Nullability() types.Nullability { return s.NullabilityV }
func (s *Subquery) Children() []TypedExpr          { return nil }
func (s *Subquery) String() string                 { return "(SUBQUERY)" }

// Unsupported wraps any expression lowering does not recognize. Downstream
// analysis never crashes on these; it treats them like any Unknown node.
type Unsupported struct {
	Description  string
	Type         types.SqlType
	NullabilityV types.Nullability
}

func (u *Unsupported) ResolvedType() types.SqlType   { return u.Type }
func (u *Unsupported) Nullability() types.Nullability { return u.NullabilityV }
func (u *Unsupported) Children() []TypedExpr          { return nil }
func (u *Unsupported) String() string                 { return fmt.Sprintf("UNSUPPORTED(%s)", u.Description) }

// NewUnsupported builds an Unsupported node with Unknown type/nullability,
// the standard shape described in spec.md §4.2 and §7.
func NewUnsupported(description string) *Unsupported {
	return &Unsupported{
		Description:  description,
		Type:         types.NewUnknown(description),
		NullabilityV: types.Unknown,
	}
}

// Walk visits e and every descendant in pre-order, calling visit(e) for
// each node. Shared by the analysis passes and lineage extractor so tree
// traversal logic lives in one place.
func Walk(e TypedExpr, visit func(TypedExpr)) {
	if e == nil {
		return
	}
	visit(e)
	for _, c := range e.Children() {
		Walk(c, visit)
	}
}

// CollectColumnRefs returns every ColumnRef reachable from e, in
// left-to-right, pre-order.
func CollectColumnRefs(e TypedExpr) []*ColumnRef {
	var out []*ColumnRef
	Walk(e, func(n TypedExpr) {
		if cr, ok := n.(*ColumnRef); ok {
			out = append(out, cr)
		}
	})
	return out
}
