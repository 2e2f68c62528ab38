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
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/cockroachdb/errors"
)

// AddRows returns a table holding the rows of t followed by the rows of
// other. Neither input is modified; the result shares their arrays and must
// be released on its own.
//
// The result keeps the column labels, index names, fields and types of t.
// A range index is renumbered from its stop value instead of taking the
// index values of other. When other has more data columns than t, the
// trailing ones are dropped.
func (t *Table) AddRows(other *Table) (*Table, error) {
	if t.styler != nil || other.styler != nil {
		return nil, ErrUnsupportedStylerAppend
	}
	if other.IsEmpty() {
		t.Retain()
		return t, nil
	}
	if t.IsEmpty() {
		other.Retain()
		return other, nil
	}
	if err := t.checkIndexSignature(other); err != nil {
		return nil, err
	}
	if err := t.checkDataSignature(other); err != nil {
		return nil, err
	}

	out := &Table{
		columns: t.columns,
		fields:  t.fields,
		schema:  t.schema,
		mem:     t.mem,
	}
	t.concatIndex(other, out)
	out.data = t.concatData(other)
	out.types.Data = t.types.Data
	if t.data.NumCols() == 0 {
		// The data comes from other; so must its labels.
		out.columns = other.columns
		out.fields = other.fields
		out.types.Data = other.types.Data
	}
	if err := out.checkDimensions(); err != nil {
		out.Release()
		return nil, err
	}
	return out, nil
}

// sameTypes compares the semantic type names of expected against received,
// position by position. Only as many positions as expected has are
// compared unless exact is set.
func sameTypes(expected, received []Type, exact bool) bool {
	if exact && len(expected) != len(received) {
		return false
	}
	for i, e := range expected {
		if i >= len(received) || e.Name() != received[i].Name() {
			return false
		}
	}
	return true
}

func (t *Table) checkIndexSignature(other *Table) error {
	if len(t.index) == 0 || len(other.index) == 0 {
		return nil
	}
	if !sameTypes(t.types.Index, other.types.Index, true) {
		return errors.Wrapf(ErrIndexSignatureMismatch,
			"the added rows must have the same index signature as the original data; expected %v, received %v",
			typeNames(t.types.Index), typeNames(other.types.Index))
	}
	return nil
}

func (t *Table) checkDataSignature(other *Table) error {
	if t.data.NumCols() == 0 || other.data.NumCols() == 0 {
		return nil
	}
	if !sameTypes(t.types.Data, other.types.Data, false) {
		return errors.Wrapf(ErrDataSignatureMismatch,
			"the added rows must have the same data signature as the original data; expected %v, received %v",
			typeNames(t.types.Data), typeNames(other.types.Data))
	}
	for i := 0; i < int(t.data.NumCols()); i++ {
		want, got := t.data.Column(i).DataType(), other.data.Column(i).DataType()
		if !arrow.TypeEqual(want, got) {
			return errors.Wrapf(ErrDataSignatureMismatch,
				"column %d has arrow type %s, received %s", i, want, got)
		}
	}
	return nil
}

// concatIndex joins the index levels of t and other into out. The vectors
// stored in out are owned by it.
func (t *Table) concatIndex(other *Table, out *Table) {
	if len(t.index) == 0 {
		for _, v := range other.index {
			retainIndex(v)
		}
		out.index, out.indexColumns = other.index, other.indexColumns
		out.indexNames, out.types.Index = other.indexNames, other.types.Index
		return
	}

	out.indexNames = t.indexNames
	if first := t.types.Index[0]; len(t.index) == 1 && first.Kind() == KindRange && first.Meta.Range != nil {
		vec, spec := extendRange(t.index[0], *first.Meta.Range, int(other.data.NumRows()))
		typ := first
		typ.Meta.Range = &spec
		out.index = []IndexVector{vec}
		out.indexColumns = []IndexColumn{{Range: &spec}}
		out.types.Index = []Type{typ}
		return
	}

	out.indexColumns, out.types.Index = t.indexColumns, t.types.Index
	if len(other.index) == 0 {
		for _, v := range t.index {
			retainIndex(v)
		}
		out.index = t.index
		return
	}
	out.index = make([]IndexVector, len(t.index))
	for i := range t.index {
		out.index[i] = concatIndexVectors(t.index[i], other.index[i])
	}
}

// extendRange continues a range index by n rows starting at its stop value.
// When the existing values end exactly at stop the result stays a single
// RangeIndex.
func extendRange(v IndexVector, spec RangeSpec, n int) (IndexVector, RangeSpec) {
	next := RangeIndex{Start: spec.Stop, Stop: spec.Stop + int64(n)*spec.Step, Step: spec.Step}
	spec.Stop = next.Stop
	if r, ok := v.(RangeIndex); ok && r.Step == next.Step && r.Start+int64(r.Len())*r.Step == next.Start {
		return RangeIndex{Start: r.Start, Stop: next.Stop, Step: r.Step}, spec
	}
	retainIndex(v)
	return NewConcatIndex(v, next), spec
}

func concatIndexVectors(a, b IndexVector) IndexVector {
	aa, aok := a.(*ArrowIndex)
	ba, bok := b.(*ArrowIndex)
	if aok && bok && arrow.TypeEqual(aa.DataType(), ba.DataType()) {
		return &ArrowIndex{chunked: concatChunked(aa.chunked, ba.chunked)}
	}
	retainIndex(a)
	retainIndex(b)
	return NewConcatIndex(a, b)
}

// concatChunked returns a chunked column sharing the chunks of a and b.
func concatChunked(a, b *arrow.Chunked) *arrow.Chunked {
	chunks := make([]arrow.Array, 0, len(a.Chunks())+len(b.Chunks()))
	chunks = append(chunks, a.Chunks()...)
	chunks = append(chunks, b.Chunks()...)
	return arrow.NewChunked(a.DataType(), chunks)
}

// concatData joins the data of t and other, keeping only the first
// t.data.NumCols() columns of other. The returned table is owned by the
// caller.
func (t *Table) concatData(other *Table) arrow.Table {
	if t.data.NumCols() == 0 {
		other.data.Retain()
		return other.data
	}
	if other.data.NumCols() == 0 {
		t.data.Retain()
		return t.data
	}

	n := int(t.data.NumCols())
	cols := make([]arrow.Column, n)
	for i := 0; i < n; i++ {
		base := t.data.Column(i)
		chunked := concatChunked(base.Data(), other.data.Column(i).Data())
		cols[i] = *arrow.NewColumn(base.Field(), chunked)
		chunked.Release()
	}
	defer func() {
		for i := range cols {
			cols[i].Release()
		}
	}()
	return array.NewTable(t.data.Schema(), cols, t.data.NumRows()+other.data.NumRows())
}
