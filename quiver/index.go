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
)

// IndexVector is one level of a table index.
type IndexVector interface {
	// Len returns the number of rows.
	Len() int
	// Value returns the value at row i, which must be in [0, Len()).
	Value(i int) any
}

// IndexValues materializes an index vector.
func IndexValues(v IndexVector) []any {
	out := make([]any, v.Len())
	for i := range out {
		out[i] = v.Value(i)
	}
	return out
}

// RangeIndex is an arithmetic sequence [Start, Stop) with stride Step. Its
// values are computed on access.
type RangeIndex struct {
	Start int64
	Stop  int64
	Step  int64
}

// Len implements IndexVector.
func (r RangeIndex) Len() int {
	return rangeLen(r.Start, r.Stop, r.Step)
}

// Value implements IndexVector.
func (r RangeIndex) Value(i int) any {
	return r.Start + int64(i)*r.Step
}

func rangeLen(start, stop, step int64) int {
	switch {
	case step > 0 && stop > start:
		return int((stop - start + step - 1) / step)
	case step < 0 && stop < start:
		return int((start - stop - step - 1) / -step)
	}
	return 0
}

// ArrowIndex is an index level stored as a column of the payload.
type ArrowIndex struct {
	chunked *arrow.Chunked
}

// NewArrowIndex wraps a chunked column as an index level. The column is
// retained.
func NewArrowIndex(c *arrow.Chunked) *ArrowIndex {
	c.Retain()
	return &ArrowIndex{chunked: c}
}

// Len implements IndexVector.
func (a *ArrowIndex) Len() int {
	return a.chunked.Len()
}

// Value implements IndexVector.
func (a *ArrowIndex) Value(i int) any {
	return chunkedValue(a.chunked, i)
}

// Chunked returns the underlying column for consumers that need direct
// vector access.
func (a *ArrowIndex) Chunked() *arrow.Chunked {
	return a.chunked
}

// DataType returns the arrow type of the level.
func (a *ArrowIndex) DataType() arrow.DataType {
	return a.chunked.DataType()
}

// ConcatIndex joins index vectors end to end without copying them.
type ConcatIndex struct {
	parts []IndexVector
	n     int
}

// NewConcatIndex returns the concatenation of parts.
func NewConcatIndex(parts ...IndexVector) *ConcatIndex {
	c := &ConcatIndex{}
	for _, p := range parts {
		if inner, ok := p.(*ConcatIndex); ok {
			c.parts = append(c.parts, inner.parts...)
		} else {
			c.parts = append(c.parts, p)
		}
		c.n += p.Len()
	}
	return c
}

// Len implements IndexVector.
func (c *ConcatIndex) Len() int {
	return c.n
}

// Value implements IndexVector.
func (c *ConcatIndex) Value(i int) any {
	for _, p := range c.parts {
		if i < p.Len() {
			return p.Value(i)
		}
		i -= p.Len()
	}
	return nil
}

// Parts returns the concatenated vectors.
func (c *ConcatIndex) Parts() []IndexVector {
	return c.parts
}

func retainIndex(v IndexVector) {
	switch v := v.(type) {
	case *ArrowIndex:
		v.chunked.Retain()
	case *ConcatIndex:
		for _, p := range v.parts {
			retainIndex(p)
		}
	}
}

func releaseIndex(v IndexVector) {
	switch v := v.(type) {
	case *ArrowIndex:
		v.chunked.Release()
	case *ConcatIndex:
		for _, p := range v.parts {
			releaseIndex(p)
		}
	}
}

// indexLevel is an index level resolved from the schema, kept together with
// the descriptor and type it came from so that they stay parallel.
type indexLevel struct {
	column IndexColumn
	vector IndexVector
	name   string
	typ    Type
}

// parseIndex resolves every index column of the schema against the decoded
// payload. A stored index column of null type is dropped together with its
// name and type: an index that cannot be represented degrades to no index.
func parseIndex(tbl arrow.Table, s *Schema, logger Logger) (_ []indexLevel, err error) {
	levels := make([]indexLevel, 0, len(s.IndexColumns))
	defer func() {
		if err != nil {
			for _, l := range levels {
				releaseIndex(l.vector)
			}
		}
	}()
	for _, ic := range s.IndexColumns {
		if ic.IsRange() {
			spec := *ic.Range
			levels = append(levels, indexLevel{
				column: IndexColumn{Range: &spec},
				vector: RangeIndex{Start: spec.Start, Stop: spec.Stop, Step: spec.Step},
				name:   indexName(ic),
				typ:    rangeType(spec),
			})
			continue
		}
		col, ok := findColumn(tbl, ic.Field)
		if !ok {
			return nil, errors.Wrapf(ErrMalformedSchema, "index column %q not in payload", ic.Field)
		}
		if col.DataType().ID() == arrow.NULL {
			logger.Infof("quiver: dropping index column %q of null type", ic.Field)
			continue
		}
		cs, ok := s.Column(ic.Field)
		if !ok {
			return nil, errors.Wrapf(ErrMalformedSchema, "index column %q has no schema entry", ic.Field)
		}
		levels = append(levels, indexLevel{
			column: ic,
			vector: NewArrowIndex(col.Data()),
			name:   indexName(ic),
			typ:    typeFromColumn(cs),
		})
	}
	return levels, nil
}

// indexName returns the display name of an index level.
func indexName(ic IndexColumn) string {
	if ic.IsRange() {
		if ic.Range.Name != nil {
			return *ic.Range.Name
		}
		return ""
	}
	if strings.HasPrefix(ic.Field, anonymousIndexPrefix) {
		return ""
	}
	return ic.Field
}

func findColumn(tbl arrow.Table, name string) (*arrow.Column, bool) {
	idx := tbl.Schema().FieldIndices(name)
	if len(idx) == 0 {
		return nil, false
	}
	return tbl.Column(idx[0]), true
}
