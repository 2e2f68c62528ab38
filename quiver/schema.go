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
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"
)

// PandasMetadataKey is the schema metadata key holding the table schema.
const PandasMetadataKey = "pandas"

// anonymousIndexPrefix marks index fields that had no name in the producer.
const anonymousIndexPrefix = "__index_level_"

// Schema is the structured form of the pandas metadata attached to a
// payload.
type Schema struct {
	IndexColumns  []IndexColumn  `json:"index_columns"`
	ColumnIndexes []ColumnSchema `json:"column_indexes"`
	Columns       []ColumnSchema `json:"columns"`
	Creator       *Creator       `json:"creator,omitempty"`
	PandasVersion string         `json:"pandas_version,omitempty"`
}

// Creator identifies the library that produced a payload.
type Creator struct {
	Library string `json:"library"`
	Version string `json:"version"`
}

// ColumnSchema describes one stored field, or one column header level when
// found in Schema.ColumnIndexes.
type ColumnSchema struct {
	Name       any            `json:"name"`
	FieldName  string         `json:"field_name"`
	PandasType string         `json:"pandas_type"`
	NumpyType  string         `json:"numpy_type"`
	Metadata   map[string]any `json:"metadata"`
}

// TypeName returns the semantic type name of the column.
func (c ColumnSchema) TypeName() string {
	return TypeName(c.PandasType, c.NumpyType)
}

// RangeSpec describes an index whose values are generated from
// start, stop and step rather than stored.
type RangeSpec struct {
	Kind  string  `json:"kind"`
	Name  *string `json:"name"`
	Start int64   `json:"start"`
	Stop  int64   `json:"stop"`
	Step  int64   `json:"step"`
}

// Len returns the number of values the range generates.
func (r RangeSpec) Len() int {
	return rangeLen(r.Start, r.Stop, r.Step)
}

// IndexColumn is one entry of Schema.IndexColumns: either the name of a
// stored field or a range descriptor.
type IndexColumn struct {
	Field string
	Range *RangeSpec
}

// IsRange reports whether the entry describes a range index.
func (c IndexColumn) IsRange() bool {
	return c.Range != nil
}

// UnmarshalJSON accepts either a JSON string or a range object.
func (c *IndexColumn) UnmarshalJSON(b []byte) error {
	var field string
	if err := json.Unmarshal(b, &field); err == nil {
		*c = IndexColumn{Field: field}
		return nil
	}
	var spec RangeSpec
	if err := json.Unmarshal(b, &spec); err != nil {
		return err
	}
	if spec.Kind != "range" {
		return errors.Newf("unknown index column kind %q", spec.Kind)
	}
	if spec.Step == 0 {
		return errors.New("range index with zero step")
	}
	*c = IndexColumn{Range: &spec}
	return nil
}

// MarshalJSON writes the entry back in the form it was read.
func (c IndexColumn) MarshalJSON() ([]byte, error) {
	if c.Range != nil {
		return json.Marshal(c.Range)
	}
	return json.Marshal(c.Field)
}

// ParseSchema parses the pandas metadata string of a payload.
func ParseSchema(metadata string) (*Schema, error) {
	if strings.TrimSpace(metadata) == "" {
		return nil, ErrSchemaMissing
	}
	var s Schema
	if err := json.Unmarshal([]byte(metadata), &s); err != nil {
		return nil, errors.Wrapf(ErrMalformedSchema, "%v", err)
	}
	return &s, nil
}

// schemaFromArrow locates and parses the pandas metadata of an arrow schema.
func schemaFromArrow(s *arrow.Schema) (*Schema, error) {
	md := s.Metadata()
	i := md.FindKey(PandasMetadataKey)
	if i < 0 {
		return nil, ErrSchemaMissing
	}
	return ParseSchema(md.Values()[i])
}

// Marshal encodes the schema as pandas metadata.
func (s *Schema) Marshal() (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", errors.Wrap(err, "encoding table schema")
	}
	return string(b), nil
}

// RawColumns returns the field names of the data columns: every stored
// field that is not an index column, in schema order.
func (s *Schema) RawColumns() []string {
	indexFields := make(map[string]struct{}, len(s.IndexColumns))
	for _, ic := range s.IndexColumns {
		if !ic.IsRange() {
			indexFields[ic.Field] = struct{}{}
		}
	}
	raw := make([]string, 0, len(s.Columns))
	for _, c := range s.Columns {
		if _, ok := indexFields[c.FieldName]; ok {
			continue
		}
		raw = append(raw, c.FieldName)
	}
	return raw
}

// Column returns the schema entry of the named field.
func (s *Schema) Column(fieldName string) (ColumnSchema, bool) {
	for _, c := range s.Columns {
		if c.FieldName == fieldName {
			return c, true
		}
	}
	return ColumnSchema{}, false
}

// HeaderLevels returns the number of column header levels.
func (s *Schema) HeaderLevels() int {
	return len(s.ColumnIndexes)
}
