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

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/cockroachdb/errors"
)

// ToArrow rebuilds an arrow table holding the stored index levels followed
// by the data columns, with pandas metadata describing the table as it is
// now. Range indexes stay in the metadata only. The caller owns the result.
func (t *Table) ToArrow() (arrow.Table, error) {
	schema := Schema{
		ColumnIndexes: t.schema.ColumnIndexes,
		Creator:       t.schema.Creator,
		PandasVersion: t.schema.PandasVersion,
	}
	var (
		fields []arrow.Field
		cols   []arrow.Column
	)
	defer func() {
		for i := range cols {
			cols[i].Release()
		}
	}()

	for i, v := range t.index {
		ic := t.indexColumns[i]
		if r, ok := v.(RangeIndex); ok && ic.IsRange() {
			spec := *ic.Range
			spec.Kind, spec.Start, spec.Stop, spec.Step = "range", r.Start, r.Stop, r.Step
			schema.IndexColumns = append(schema.IndexColumns, IndexColumn{Range: &spec})
			continue
		}

		chunked, err := t.indexChunked(v)
		if err != nil {
			return nil, errors.Wrapf(err, "index level %d", i)
		}
		name := ic.Field
		cs, ok := t.schema.Column(name)
		if ic.IsRange() || !ok {
			// A range index that no longer is one is stored as a column.
			name = fmt.Sprintf("%s%d__", anonymousIndexPrefix, i)
			typ := t.types.Index[i]
			if typ.Kind() == KindRange {
				typ = Type{PandasType: "int64", NumpyType: "int64"}
			}
			cs = ColumnSchema{FieldName: name, PandasType: typ.PandasType, NumpyType: typ.NumpyType}
		}
		field := arrow.Field{Name: name, Type: chunked.DataType(), Nullable: true}
		cols = append(cols, *arrow.NewColumn(field, chunked))
		chunked.Release()
		fields = append(fields, field)
		schema.IndexColumns = append(schema.IndexColumns, IndexColumn{Field: name})
		schema.Columns = append(schema.Columns, cs)
	}

	for i := 0; i < int(t.data.NumCols()); i++ {
		col := t.data.Column(i)
		col.Retain()
		cols = append(cols, *col)
		fields = append(fields, col.Field())
		cs, ok := t.schema.Column(col.Name())
		if !ok {
			typ := t.types.Data[i]
			cs = ColumnSchema{Name: col.Name(), FieldName: col.Name(), PandasType: typ.PandasType, NumpyType: typ.NumpyType}
		}
		schema.Columns = append(schema.Columns, cs)
	}

	meta, err := schema.Marshal()
	if err != nil {
		return nil, err
	}
	md := arrow.NewMetadata([]string{PandasMetadataKey}, []string{meta})
	return array.NewTable(arrow.NewSchema(fields, &md), cols, t.data.NumRows()), nil
}

// indexChunked returns a stored index level as a chunked column. Range
// parts are materialized as int64.
func (t *Table) indexChunked(v IndexVector) (*arrow.Chunked, error) {
	switch v := v.(type) {
	case *ArrowIndex:
		v.chunked.Retain()
		return v.chunked, nil
	case *ConcatIndex:
		var (
			dt     arrow.DataType
			chunks []arrow.Array
		)
		defer func() {
			for _, c := range chunks {
				c.Release()
			}
		}()
		for _, p := range v.parts {
			pc, err := t.indexChunked(p)
			if err != nil {
				return nil, err
			}
			if dt == nil {
				dt = pc.DataType()
			}
			if !arrow.TypeEqual(dt, pc.DataType()) {
				pc.Release()
				return nil, errors.Newf("cannot store index of mixed types %s and %s", dt, pc.DataType())
			}
			for _, c := range pc.Chunks() {
				c.Retain()
				chunks = append(chunks, c)
			}
			pc.Release()
		}
		if dt == nil {
			dt = arrow.PrimitiveTypes.Int64
		}
		return arrow.NewChunked(dt, chunks), nil
	case RangeIndex:
		b := array.NewInt64Builder(t.mem)
		defer b.Release()
		b.Reserve(v.Len())
		for i := 0; i < v.Len(); i++ {
			b.Append(v.Start + int64(i)*v.Step)
		}
		arr := b.NewArray()
		defer arr.Release()
		return arrow.NewChunked(arrow.PrimitiveTypes.Int64, []arrow.Array{arr}), nil
	}
	return nil, errors.Newf("unsupported index vector %T", v)
}
