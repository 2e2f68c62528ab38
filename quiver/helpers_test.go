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
	"bytes"
	"fmt"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/require"
)

type testLogger struct{ t testing.TB }

func (l testLogger) Infof(format string, args ...interface{})  { l.t.Logf(format, args...) }
func (l testLogger) Errorf(format string, args ...interface{}) { l.t.Logf(format, args...) }

func testConfig(t testing.TB) Config {
	return Config{Allocator: memory.DefaultAllocator, Logger: testLogger{t}}
}

// testColumn is a stored field of a test frame: an index level or a data
// column.
type testColumn struct {
	field      string
	pandasType string
	numpyType  string
	metadata   map[string]any
	fieldMeta  arrow.Metadata
	arr        arrow.Array
}

// testFrame describes a dataframe to be encoded the way a pandas producer
// would.
type testFrame struct {
	index   []IndexColumn
	levels  int
	rows    int64
	columns []testColumn
}

func rangeIndex(name string, start, stop, step int64) IndexColumn {
	spec := RangeSpec{Kind: "range", Start: start, Stop: stop, Step: step}
	if name != "" {
		spec.Name = &name
	}
	return IndexColumn{Range: &spec}
}

func storedIndex(field string) IndexColumn {
	return IndexColumn{Field: field}
}

func (f testFrame) payload(t testing.TB) []byte {
	t.Helper()
	schema := Schema{IndexColumns: f.index, PandasVersion: "2.2.0"}
	for i := 0; i < max(1, f.levels); i++ {
		schema.ColumnIndexes = append(schema.ColumnIndexes, ColumnSchema{
			FieldName: fmt.Sprintf("level_%d", i), PandasType: "unicode", NumpyType: "object",
		})
	}

	var (
		fields []arrow.Field
		arrs   []arrow.Array
	)
	rows := f.rows
	for _, c := range f.columns {
		schema.Columns = append(schema.Columns, ColumnSchema{
			Name: c.field, FieldName: c.field, PandasType: c.pandasType, NumpyType: c.numpyType, Metadata: c.metadata,
		})
		fields = append(fields, arrow.Field{Name: c.field, Type: c.arr.DataType(), Nullable: true, Metadata: c.fieldMeta})
		arrs = append(arrs, c.arr)
		rows = int64(c.arr.Len())
	}
	meta, err := schema.Marshal()
	require.NoError(t, err)

	md := arrow.NewMetadata([]string{PandasMetadataKey}, []string{meta})
	as := arrow.NewSchema(fields, &md)
	rec := array.NewRecord(as, arrs, rows)
	defer rec.Release()

	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(as))
	require.NoError(t, w.Write(rec))
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func (f testFrame) decode(t testing.TB) *Table {
	t.Helper()
	tbl, err := New(f.payload(t), testConfig(t))
	require.NoError(t, err)
	return tbl
}

func int64s(vals ...int64) arrow.Array {
	b := array.NewInt64Builder(memory.DefaultAllocator)
	defer b.Release()
	b.AppendValues(vals, nil)
	return b.NewArray()
}

func float64s(vals ...float64) arrow.Array {
	b := array.NewFloat64Builder(memory.DefaultAllocator)
	defer b.Release()
	b.AppendValues(vals, nil)
	return b.NewArray()
}

func strs(vals ...string) arrow.Array {
	b := array.NewStringBuilder(memory.DefaultAllocator)
	defer b.Release()
	b.AppendValues(vals, nil)
	return b.NewArray()
}

func categories(t testing.TB, vals ...string) arrow.Array {
	dt := &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int8, ValueType: arrow.BinaryTypes.String}
	b := array.NewDictionaryBuilder(memory.DefaultAllocator, dt).(*array.BinaryDictionaryBuilder)
	defer b.Release()
	for _, v := range vals {
		require.NoError(t, b.AppendString(v))
	}
	return b.NewArray()
}

func int64Col(field string, vals ...int64) testColumn {
	return testColumn{field: field, pandasType: "int64", numpyType: "int64", arr: int64s(vals...)}
}

func float64Col(field string, vals ...float64) testColumn {
	return testColumn{field: field, pandasType: "float64", numpyType: "float64", arr: float64s(vals...)}
}

func unicodeCol(field string, vals ...string) testColumn {
	return testColumn{field: field, pandasType: "unicode", numpyType: "object", arr: strs(vals...)}
}

// displayStrings returns the display string of every grid cell.
func displayStrings(t testing.TB, g Grid) [][]string {
	t.Helper()
	d := g.Dimensions()
	out := make([][]string, d.Rows)
	for r := range out {
		out[r] = make([]string, d.Columns)
		for c := range out[r] {
			cell, err := g.Cell(r, c)
			require.NoError(t, err)
			out[r][c], err = cell.Display()
			require.NoError(t, err)
		}
	}
	return out
}
