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

package types

import (
	"strings"

	"github.com/spf13/cast"
	uuid "github.com/satori/go.uuid"
)

// ParseSqlType accepts a superset of SQL type spellings (spec.md §4.1):
// INT, INTEGER, INT4, BIGINT, INT8, VARCHAR(255), DECIMAL(10,2),
// INTEGER[], STRUCT(name VARCHAR, age INT), MAP(VARCHAR, INTEGER). Unknown
// width suffixes or unrecognized spellings yield Unknown(reason) rather
// than an error: lowering never fails on a type string it cannot place.
func ParseSqlType(raw string) SqlType {
	s := strings.TrimSpace(raw)
	if s == "" {
		return NewUnknown("empty type string")
	}

	// Array suffix: recurse on the element, any number of trailing "[]".
	if strings.HasSuffix(s, "[]") {
		elem := ParseSqlType(s[:len(s)-2])
		return NewArray(elem)
	}

	upper := strings.ToUpper(s)
	name, args, hasArgs := splitParenForm(upper)

	switch name {
	case "BOOL", "BOOLEAN":
		return Boolean
	case "INT", "INTEGER", "INT4", "SIGNED":
		return Int32
	case "SMALLINT", "INT2":
		return Int16
	case "TINYINT", "INT1":
		return Int8
	case "BIGINT", "INT8":
		return Int64
	case "HUGEINT":
		return HugeInt
	case "FLOAT", "FLOAT4", "REAL":
		return Float32
	case "DOUBLE", "FLOAT8", "DOUBLE PRECISION":
		return Float64
	case "DECIMAL", "NUMERIC":
		return parseDecimal(args, hasArgs)
	case "VARCHAR", "CHAR", "TEXT", "STRING", "CHARACTER VARYING", "BPCHAR":
		return parseString(args, hasArgs)
	case "DATE":
		return Date
	case "TIME":
		return Time
	case "TIMESTAMP", "TIMESTAMPTZ", "DATETIME":
		return Timestamp
	case "INTERVAL":
		return Interval
	case "BINARY", "VARBINARY", "BLOB", "BYTEA":
		return Binary
	case "JSON", "JSONB":
		return Json
	case "UUID", "GUID":
		return Uuid
	case "ARRAY":
		if hasArgs && len(args) == 1 {
			return NewArray(ParseSqlType(args[0]))
		}
		return NewArray(NewUnknown("ARRAY with no element type"))
	case "STRUCT", "ROW":
		if hasArgs {
			return parseStruct(args)
		}
		return NewUnknown("STRUCT with no fields")
	case "MAP":
		if hasArgs && len(args) == 2 {
			return NewMap(ParseSqlType(args[0]), ParseSqlType(args[1]))
		}
		return NewUnknown("MAP requires exactly two type arguments")
	default:
		return NewUnknown("unrecognized type spelling: " + raw)
	}
}

// splitParenForm splits "NAME(arg1, arg2)" into ("NAME", ["arg1","arg2"], true)
// respecting balanced parens so nested parameterized types split correctly.
// "NAME" with no parens returns ("NAME", nil, false).
func splitParenForm(s string) (string, []string, bool) {
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return strings.TrimSpace(s), nil, false
	}
	if !strings.HasSuffix(s, ")") {
		return strings.TrimSpace(s), nil, false
	}
	name := strings.TrimSpace(s[:open])
	inner := s[open+1 : len(s)-1]
	return name, splitTopLevel(inner), true
}

// splitTopLevel splits inner on top-level commas, i.e. commas not nested
// inside balanced parens.
func splitTopLevel(inner string) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range inner {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(inner[start:i]))
				start = i + 1
			}
		}
	}
	parts = append(parts, strings.TrimSpace(inner[start:]))
	return parts
}

func parseDecimal(args []string, hasArgs bool) SqlType {
	if !hasArgs || len(args) == 0 {
		return NewDecimal(nil, nil)
	}
	p, err := cast.ToIntE(args[0])
	if err != nil {
		return NewDecimal(nil, nil)
	}
	if len(args) == 1 {
		return NewDecimal(&p, nil)
	}
	sc, err := cast.ToIntE(args[1])
	if err != nil {
		return NewDecimal(&p, nil)
	}
	return NewDecimal(&p, &sc)
}

func parseString(args []string, hasArgs bool) SqlType {
	if !hasArgs || len(args) == 0 {
		return NewString(nil)
	}
	n, err := cast.ToIntE(args[0])
	if err != nil {
		return NewString(nil)
	}
	return NewString(&n)
}

func parseStruct(args []string) SqlType {
	fields := make([]StructField, 0, len(args))
	for _, a := range args {
		a = strings.TrimSpace(a)
		sp := strings.IndexAny(a, " \t")
		if sp < 0 {
			fields = append(fields, StructField{Name: a, Type: NewUnknown("struct field missing type")})
			continue
		}
		name := a[:sp]
		typ := strings.TrimSpace(a[sp+1:])
		fields = append(fields, StructField{Name: name, Type: ParseSqlType(typ)})
	}
	return NewStruct(fields)
}

// ValidateUuidLiteral reports whether raw parses as an RFC 4122 UUID.
// Used by expression lowering when typing CAST(x AS UUID) literal
// arguments so a malformed literal doesn't silently get typed Uuid.
func ValidateUuidLiteral(raw string) bool {
	_, err := uuid.FromString(raw)
	return err == nil
}
