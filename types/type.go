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

// Package types implements the SqlType sum type, the Nullability lattice,
// and the parser that turns a dialect's type spelling into a SqlType.
package types

import (
	"fmt"
	"strings"
)

// Kind discriminates the SqlType sum type.
type Kind int

const (
	KindBoolean Kind = iota
	KindInteger
	KindFloat
	KindDecimal
	KindString
	KindDate
	KindTime
	KindTimestamp
	KindInterval
	KindBinary
	KindJson
	KindUuid
	KindHugeInt
	KindArray
	KindStruct
	KindMap
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindBoolean:
		return "BOOLEAN"
	case KindInteger:
		return "INTEGER"
	case KindFloat:
		return "FLOAT"
	case KindDecimal:
		return "DECIMAL"
	case KindString:
		return "STRING"
	case KindDate:
		return "DATE"
	case KindTime:
		return "TIME"
	case KindTimestamp:
		return "TIMESTAMP"
	case KindInterval:
		return "INTERVAL"
	case KindBinary:
		return "BINARY"
	case KindJson:
		return "JSON"
	case KindUuid:
		return "UUID"
	case KindHugeInt:
		return "HUGEINT"
	case KindArray:
		return "ARRAY"
	case KindStruct:
		return "STRUCT"
	case KindMap:
		return "MAP"
	default:
		return "UNKNOWN"
	}
}

// StructField is one named member of a Struct SqlType.
type StructField struct {
	Name string
	Type SqlType
}

// SqlType is the tagged variant described in spec.md §3. The zero value is
// not a valid SqlType; always construct via the package-level constructors
// or ParseSqlType.
type SqlType struct {
	kind Kind

	// Integer / Float
	bits int

	// Decimal
	precision, scale *int

	// String
	maxLength *int

	// Unknown
	reason string

	// Array / Map element types, Map key type lives in elem, value in elem2
	elem, elem2 *SqlType

	// Struct
	fields []StructField
}

// Boolean is the BOOLEAN SqlType.
var Boolean = SqlType{kind: KindBoolean}

// Date, Time, Timestamp, Interval, Binary, Json, Uuid, HugeInt are the
// singleton non-parametric SqlTypes.
var (
	Date      = SqlType{kind: KindDate}
	Time      = SqlType{kind: KindTime}
	Timestamp = SqlType{kind: KindTimestamp}
	Interval  = SqlType{kind: KindInterval}
	Binary    = SqlType{kind: KindBinary}
	Json      = SqlType{kind: KindJson}
	Uuid      = SqlType{kind: KindUuid}
	HugeInt   = SqlType{kind: KindHugeInt}
)

var allowedIntBits = map[int]bool{8: true, 16: true, 32: true, 64: true}
var allowedFloatBits = map[int]bool{32: true, 64: true}

// NewInteger constructs an Integer{bits} SqlType. bits must be one of
// 8/16/32/64; an invalid width panics, matching the construction-time
// validation invariant in spec.md §3 ("validated at construction").
func NewInteger(bits int) SqlType {
	if !allowedIntBits[bits] {
		panic(fmt.Sprintf("types: invalid integer width %d", bits))
	}
	return SqlType{kind: KindInteger, bits: bits}
}

// NewFloat constructs a Float{bits} SqlType. bits must be 32 or 64.
func NewFloat(bits int) SqlType {
	if !allowedFloatBits[bits] {
		panic(fmt.Sprintf("types: invalid float width %d", bits))
	}
	return SqlType{kind: KindFloat, bits: bits}
}

// Int8, Int16, Int32, Int64, Float32, Float64 are the commonly used widths.
var (
	Int8    = NewInteger(8)
	Int16   = NewInteger(16)
	Int32   = NewInteger(32)
	Int64   = NewInteger(64)
	Float32 = NewFloat(32)
	Float64 = NewFloat(64)
)

// NewDecimal constructs a Decimal SqlType with optional precision/scale.
func NewDecimal(precision, scale *int) SqlType {
	return SqlType{kind: KindDecimal, precision: precision, scale: scale}
}

// NewString constructs a String SqlType with an optional max length.
func NewString(maxLength *int) SqlType {
	return SqlType{kind: KindString, maxLength: maxLength}
}

// NewUnknown constructs the Unknown SqlType. reason is mandatory: every
// Unknown node carries a human-readable explanation per spec.md §3.
func NewUnknown(reason string) SqlType {
	if reason == "" {
		reason = "unspecified"
	}
	return SqlType{kind: KindUnknown, reason: reason}
}

// NewArray constructs an Array(elem) SqlType.
func NewArray(elem SqlType) SqlType {
	e := elem
	return SqlType{kind: KindArray, elem: &e}
}

// NewStruct constructs a Struct([(name, type)]) SqlType.
func NewStruct(fields []StructField) SqlType {
	return SqlType{kind: KindStruct, fields: fields}
}

// NewMap constructs a Map(key, value) SqlType.
func NewMap(key, value SqlType) SqlType {
	k, v := key, value
	return SqlType{kind: KindMap, elem: &k, elem2: &v}
}

// Kind returns the discriminant of the type.
func (t SqlType) Kind() Kind { return t.kind }

// Bits returns the Integer/Float width, or 0 if not applicable.
func (t SqlType) Bits() int { return t.bits }

// Precision returns the Decimal precision, if set.
func (t SqlType) Precision() *int { return t.precision }

// Scale returns the Decimal scale, if set.
func (t SqlType) Scale() *int { return t.scale }

// MaxLength returns the String max length, if set.
func (t SqlType) MaxLength() *int { return t.maxLength }

// Reason returns the Unknown reason, or "" for any other kind.
func (t SqlType) Reason() string { return t.reason }

// Elem returns the Array element type, or the Map key type. Panics if
// called on a non-Array, non-Map type; callers must check Kind() first.
func (t SqlType) Elem() SqlType { return *t.elem }

// MapValue returns the Map value type.
func (t SqlType) MapValue() SqlType { return *t.elem2 }

// Fields returns the Struct field list.
func (t SqlType) Fields() []StructField { return t.fields }

// IsNumeric reports whether the type is Integer, Float, Decimal, or HugeInt.
func (t SqlType) IsNumeric() bool {
	switch t.kind {
	case KindInteger, KindFloat, KindDecimal, KindHugeInt:
		return true
	default:
		return false
	}
}

func numericRank(t SqlType) int {
	switch t.kind {
	case KindInteger:
		return 0
	case KindHugeInt:
		return 1
	case KindFloat:
		return 2
	case KindDecimal:
		return 3
	default:
		return -1
	}
}

// PromoteNumeric applies the widening rule used by arithmetic binary
// operators in expression lowering: Decimal > Float > HugeInt > Integer,
// widths unify by max.
func PromoteNumeric(a, b SqlType) SqlType {
	if a.kind == KindUnknown || b.kind == KindUnknown {
		return NewUnknown("numeric promotion over unknown operand")
	}
	if numericRank(a) < 0 || numericRank(b) < 0 {
		return NewUnknown("numeric promotion over non-numeric operand")
	}
	winner := a
	if numericRank(b) > numericRank(a) {
		winner = b
	} else if numericRank(b) == numericRank(a) && b.bits > a.bits {
		winner = b
	}
	if winner.kind == KindInteger || winner.kind == KindFloat {
		bits := a.bits
		if b.bits > bits {
			bits = b.bits
		}
		if winner.kind == KindInteger {
			if !allowedIntBits[bits] {
				bits = 64
			}
			return NewInteger(bits)
		}
		if !allowedFloatBits[bits] {
			bits = 64
		}
		return NewFloat(bits)
	}
	return winner
}

// equivClass groups types that are mutually compatible per spec.md §3.
func equivClass(t SqlType) int {
	switch t.kind {
	case KindInteger, KindFloat, KindDecimal, KindHugeInt:
		return 1 // numerics
	case KindString:
		return 2 // strings (also joined by Json/Uuid below)
	case KindDate, KindTimestamp:
		return 3
	case KindJson:
		return 4 // Json <-> String handled specially
	case KindUuid:
		return 5 // Uuid <-> String handled specially
	default:
		return 0
	}
}

// IsCompatibleWith implements the symmetric, reflexive compatibility
// predicate of spec.md §3 and §1. Unknown is compatible with everything
// (Testable Properties, "Unknown idempotence").
func (t SqlType) IsCompatibleWith(other SqlType) bool {
	if t.kind == KindUnknown || other.kind == KindUnknown {
		return true
	}
	if t.kind == other.kind {
		return t.compatibleSameKind(other)
	}

	// Cross-kind equivalence classes from spec.md §3.
	ec1, ec2 := equivClass(t), equivClass(other)
	switch {
	case ec1 == 1 && ec2 == 1:
		return true
	case ec1 == 3 && ec2 == 3:
		return true
	case (t.kind == KindJson && other.kind == KindString) || (t.kind == KindString && other.kind == KindJson):
		return true
	case (t.kind == KindUuid && other.kind == KindString) || (t.kind == KindString && other.kind == KindUuid):
		return true
	default:
		return false
	}
}

func (t SqlType) compatibleSameKind(other SqlType) bool {
	switch t.kind {
	case KindArray:
		return t.elem.IsCompatibleWith(*other.elem)
	case KindMap:
		return t.elem.IsCompatibleWith(*other.elem) && t.elem2.IsCompatibleWith(*other.elem2)
	case KindStruct:
		if len(t.fields) != len(other.fields) {
			return false
		}
		for i, f := range t.fields {
			of := other.fields[i]
			if !strings.EqualFold(f.Name, of.Name) || !f.Type.IsCompatibleWith(of.Type) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// DisplayName renders the type the way a dialect-neutral SQL type string
// would be written.
func (t SqlType) DisplayName() string {
	switch t.kind {
	case KindInteger:
		return fmt.Sprintf("INTEGER(%d)", t.bits)
	case KindFloat:
		return fmt.Sprintf("FLOAT(%d)", t.bits)
	case KindDecimal:
		if t.precision != nil && t.scale != nil {
			return fmt.Sprintf("DECIMAL(%d,%d)", *t.precision, *t.scale)
		}
		return "DECIMAL"
	case KindString:
		if t.maxLength != nil {
			return fmt.Sprintf("VARCHAR(%d)", *t.maxLength)
		}
		return "VARCHAR"
	case KindArray:
		return t.elem.DisplayName() + "[]"
	case KindStruct:
		parts := make([]string, len(t.fields))
		for i, f := range t.fields {
			parts[i] = f.Name + " " + f.Type.DisplayName()
		}
		return "STRUCT(" + strings.Join(parts, ", ") + ")"
	case KindMap:
		return fmt.Sprintf("MAP(%s, %s)", t.elem.DisplayName(), t.elem2.DisplayName())
	case KindUnknown:
		return fmt.Sprintf("UNKNOWN(%s)", t.reason)
	default:
		return t.kind.String()
	}
}

func (t SqlType) String() string { return t.DisplayName() }

// Equal reports structural equality, used by tests and by RelSchema diffing.
func (t SqlType) Equal(other SqlType) bool {
	return t.DisplayName() == other.DisplayName() && t.kind == other.kind
}
