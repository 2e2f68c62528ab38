// Copyright 2025 Magnus Pierre
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

package quiver

import (
	"fmt"
	"strings"
)

// Kind is the semantic type of a column. It selects formatting and is
// derived once from the type name.
type Kind int

const (
	// KindUnknown is any type name not listed below.
	KindUnknown Kind = iota
	// KindRange is a generated range index.
	KindRange
	// KindBool represents boolean data.
	KindBool
	// KindInt represents signed integers of any width.
	KindInt
	// KindUint represents unsigned integers of any width.
	KindUint
	// KindFloat represents float16 and float32 data.
	KindFloat
	// KindFloat64 represents float64 data.
	KindFloat64
	// KindUnicode represents text.
	KindUnicode
	// KindBytes represents binary data.
	KindBytes
	// KindDate represents dates without time.
	KindDate
	// KindTime represents times of day.
	KindTime
	// KindDatetime represents naive timestamps.
	KindDatetime
	// KindDatetimeTZ represents timezone-aware timestamps.
	KindDatetimeTZ
	// KindTimedelta represents durations.
	KindTimedelta
	// KindInterval represents intervals; the type name carries subtype and
	// closed side.
	KindInterval
	// KindCategorical represents dictionary-encoded data.
	KindCategorical
	// KindDecimal represents fixed-point decimals.
	KindDecimal
	// KindObject represents mixed or nested python objects.
	KindObject
	// KindList represents list data.
	KindList
	// KindEmpty represents columns with no values.
	KindEmpty
	// KindPeriod represents calendar periods.
	KindPeriod
)

var kindNames = [...]string{
	KindUnknown:     "unknown",
	KindRange:       "range",
	KindBool:        "bool",
	KindInt:         "int",
	KindUint:        "uint",
	KindFloat:       "float",
	KindFloat64:     "float64",
	KindUnicode:     "unicode",
	KindBytes:       "bytes",
	KindDate:        "date",
	KindTime:        "time",
	KindDatetime:    "datetime",
	KindDatetimeTZ:  "datetimetz",
	KindTimedelta:   "timedelta",
	KindInterval:    "interval",
	KindCategorical: "categorical",
	KindDecimal:     "decimal",
	KindObject:      "object",
	KindList:        "list",
	KindEmpty:       "empty",
	KindPeriod:      "period",
}

// String returns the string representation of a Kind.
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Unknown(%d)", int(k))
}

// ClassifyTypeName maps a semantic type name to its Kind.
func ClassifyTypeName(name string) Kind {
	switch name {
	case "range":
		return KindRange
	case "bool", "boolean":
		return KindBool
	case "int8", "int16", "int32", "int64":
		return KindInt
	case "uint8", "uint16", "uint32", "uint64":
		return KindUint
	case "float16", "float32":
		return KindFloat
	case "float64":
		return KindFloat64
	case "unicode", "string", "str":
		return KindUnicode
	case "bytes":
		return KindBytes
	case "date":
		return KindDate
	case "time":
		return KindTime
	case "datetimetz":
		return KindDatetimeTZ
	case "categorical":
		return KindCategorical
	case "decimal":
		return KindDecimal
	case "object":
		return KindObject
	case "empty":
		return KindEmpty
	}
	switch {
	case strings.HasPrefix(name, "datetime"):
		return KindDatetime
	case strings.HasPrefix(name, "timedelta"):
		return KindTimedelta
	case strings.HasPrefix(name, "interval"):
		return KindInterval
	case strings.HasPrefix(name, "list"):
		return KindList
	case strings.HasPrefix(name, "period"):
		return KindPeriod
	}
	return KindUnknown
}

// TypeName returns the semantic type name for a pandas/numpy type pair.
// The numpy type is more specific for object columns.
func TypeName(pandasType, numpyType string) string {
	if pandasType == "object" {
		return numpyType
	}
	return pandasType
}

// TypeMeta holds the type-specific extras of a column.
type TypeMeta struct {
	// Range is set for range indexes.
	Range *RangeSpec

	// Timezone is set for datetimetz columns.
	Timezone string

	// Precision and Scale are set for decimal columns.
	Precision *int
	Scale     *int

	// NumCategories and Ordered are set for categorical columns.
	NumCategories *int
	Ordered       bool

	// Raw is the metadata as found in the schema.
	Raw map[string]any
}

// Type describes the semantic type of an index level or data column.
type Type struct {
	PandasType string
	NumpyType  string
	Meta       TypeMeta
}

// Name returns the semantic type name.
func (t Type) Name() string {
	return TypeName(t.PandasType, t.NumpyType)
}

// Kind returns the semantic type tag.
func (t Type) Kind() Kind {
	return ClassifyTypeName(t.Name())
}

// String implements fmt.Stringer.
func (t Type) String() string {
	return t.Name()
}

// Types holds the index and data column types of a table.
type Types struct {
	Index []Type
	Data  []Type
}

// unicodeType is the type of every column header label.
var unicodeType = Type{PandasType: "unicode", NumpyType: "object"}

// typeFromColumn builds a Type from a schema entry.
func typeFromColumn(c ColumnSchema) Type {
	return Type{
		PandasType: c.PandasType,
		NumpyType:  c.NumpyType,
		Meta:       parseTypeMeta(c.Metadata),
	}
}

// rangeType builds the Type of a range index.
func rangeType(spec RangeSpec) Type {
	return Type{
		PandasType: "range",
		NumpyType:  "range",
		Meta:       TypeMeta{Range: &spec},
	}
}

func parseTypeMeta(raw map[string]any) TypeMeta {
	meta := TypeMeta{Raw: raw}
	if raw == nil {
		return meta
	}
	if tz, ok := raw["timezone"].(string); ok {
		meta.Timezone = tz
	}
	meta.Precision = intMeta(raw, "precision")
	meta.Scale = intMeta(raw, "scale")
	meta.NumCategories = intMeta(raw, "num_categories")
	if ordered, ok := raw["ordered"].(bool); ok {
		meta.Ordered = ordered
	}
	return meta
}

func intMeta(raw map[string]any, key string) *int {
	switch v := raw[key].(type) {
	case float64:
		n := int(v)
		return &n
	case int64:
		n := int(v)
		return &n
	case int:
		return &v
	}
	return nil
}

// typeNames returns the semantic names of types, in order.
func typeNames(types []Type) []string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.Name()
	}
	return names
}
