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
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func emptyTable(t *testing.T) *Table {
	return testFrame{}.decode(t)
}

func dataColumn(t *testing.T, tbl *Table, col int) []any {
	t.Helper()
	out := make([]any, tbl.Dimensions().DataRows)
	for row := range out {
		v, err := tbl.DataValue(row, col)
		require.NoError(t, err)
		out[row] = v
	}
	return out
}

func TestAddRowsRangeContinuation(t *testing.T) {
	base := testFrame{
		index:   []IndexColumn{rangeIndex("", 0, 10, 2)},
		columns: []testColumn{int64Col("a", 1, 2, 3, 4, 5)},
	}.decode(t)
	defer base.Release()
	other := testFrame{
		index:   []IndexColumn{rangeIndex("", 0, 3, 1)},
		columns: []testColumn{int64Col("a", 6, 7, 8)},
	}.decode(t)
	defer other.Release()

	out, err := base.AddRows(other)
	require.NoError(t, err)
	defer out.Release()

	require.Equal(t, RangeIndex{Start: 0, Stop: 16, Step: 2}, out.Index()[0])
	values := IndexValues(out.Index()[0])
	require.Equal(t, []any{int64(10), int64(12), int64(14)}, values[5:])
	require.Equal(t, int64(16), out.Types().Index[0].Meta.Range.Stop)
	require.Equal(t, []any{int64(1), int64(2), int64(3), int64(4), int64(5), int64(6), int64(7), int64(8)},
		dataColumn(t, out, 0))

	// The inputs are untouched.
	require.Equal(t, 5, base.Index()[0].Len())
	require.Equal(t, int64(10), base.Types().Index[0].Meta.Range.Stop)
	require.Equal(t, 3, other.Dimensions().DataRows)
}

func TestAddRowsRangeWithoutIncomingIndex(t *testing.T) {
	base := testFrame{
		index:   []IndexColumn{rangeIndex("n", 0, 2, 1)},
		columns: []testColumn{int64Col("a", 1, 2)},
	}.decode(t)
	defer base.Release()
	other := testFrame{columns: []testColumn{int64Col("a", 3)}}.decode(t)
	defer other.Release()

	out, err := base.AddRows(other)
	require.NoError(t, err)
	defer out.Release()

	require.Equal(t, []any{int64(0), int64(1), int64(2)}, IndexValues(out.Index()[0]))
	require.Equal(t, []string{"n"}, out.IndexNames())
}

func TestAddRowsIdentity(t *testing.T) {
	base := smallFrame().decode(t)
	defer base.Release()
	empty := emptyTable(t)
	defer empty.Release()
	require.True(t, empty.IsEmpty())

	out, err := base.AddRows(empty)
	require.NoError(t, err)
	require.Same(t, base, out)
	out.Release()

	out, err = empty.AddRows(base)
	require.NoError(t, err)
	require.Same(t, base, out)
	out.Release()
}

func TestAddRowsIndexSignatureMismatch(t *testing.T) {
	base := testFrame{
		index:   []IndexColumn{storedIndex("k")},
		columns: []testColumn{int64Col("k", 1, 2), int64Col("a", 1, 2)},
	}.decode(t)
	defer base.Release()
	other := testFrame{
		index:   []IndexColumn{storedIndex("k")},
		columns: []testColumn{unicodeCol("k", "x"), int64Col("a", 3)},
	}.decode(t)
	defer other.Release()

	before := displayStrings(t, base)
	_, err := base.AddRows(other)
	require.True(t, errors.Is(err, ErrIndexSignatureMismatch))
	require.Contains(t, err.Error(), "[int64]")
	require.Contains(t, err.Error(), "[unicode]")
	require.Equal(t, before, displayStrings(t, base))
	require.Equal(t, 1, other.Dimensions().DataRows)
}

func TestAddRowsDataSignatureMismatch(t *testing.T) {
	base := testFrame{columns: []testColumn{int64Col("a", 1)}}.decode(t)
	defer base.Release()
	other := testFrame{columns: []testColumn{float64Col("a", 1.5)}}.decode(t)
	defer other.Release()

	_, err := base.AddRows(other)
	require.True(t, errors.Is(err, ErrDataSignatureMismatch))

	b := array.NewInt32Builder(memory.DefaultAllocator)
	defer b.Release()
	b.AppendValues([]int32{1}, nil)
	narrow := testFrame{columns: []testColumn{
		{field: "a", pandasType: "int64", numpyType: "int64", arr: b.NewArray()},
	}}.decode(t)
	defer narrow.Release()

	_, err = base.AddRows(narrow)
	require.True(t, errors.Is(err, ErrDataSignatureMismatch))
}

func TestAddRowsDropsTrailingColumns(t *testing.T) {
	base := testFrame{columns: []testColumn{int64Col("a", 1)}}.decode(t)
	defer base.Release()
	other := testFrame{columns: []testColumn{int64Col("a", 2), unicodeCol("extra", "x")}}.decode(t)
	defer other.Release()

	out, err := base.AddRows(other)
	require.NoError(t, err)
	defer out.Release()

	d := out.Dimensions()
	require.Equal(t, 1, d.DataColumns)
	require.Equal(t, 2, d.DataRows)
	require.Equal(t, [][]string{{"a"}}, out.Columns())
	require.Equal(t, []any{int64(1), int64(2)}, dataColumn(t, out, 0))
}

func TestAddRowsStoredIndex(t *testing.T) {
	base := testFrame{
		index:   []IndexColumn{storedIndex("k")},
		columns: []testColumn{int64Col("k", 1, 2), unicodeCol("a", "x", "y")},
	}.decode(t)
	defer base.Release()
	other := testFrame{
		index:   []IndexColumn{storedIndex("k")},
		columns: []testColumn{int64Col("k", 3), unicodeCol("a", "z")},
	}.decode(t)
	defer other.Release()

	out, err := base.AddRows(other)
	require.NoError(t, err)
	defer out.Release()

	idx, ok := out.Index()[0].(*ArrowIndex)
	require.True(t, ok)
	require.Len(t, idx.Chunked().Chunks(), 2)
	require.Equal(t, []any{int64(1), int64(2), int64(3)}, IndexValues(idx))
	require.Equal(t, [][]string{
		{"", "a"},
		{"1", "x"},
		{"2", "y"},
		{"3", "z"},
	}, displayStrings(t, out))

	// Appending again keeps sharing chunks.
	again, err := out.AddRows(other)
	require.NoError(t, err)
	defer again.Release()
	require.Equal(t, 4, again.Dimensions().DataRows)
	require.Len(t, again.Data().Column(0).Data().Chunks(), 3)
}

func TestAddRowsStyled(t *testing.T) {
	styled := styledTable(t)
	defer styled.Release()
	plain := smallFrame().decode(t)
	defer plain.Release()

	_, err := styled.AddRows(plain)
	require.True(t, errors.Is(err, ErrUnsupportedStylerAppend))
	_, err = plain.AddRows(styled)
	require.True(t, errors.Is(err, ErrUnsupportedStylerAppend))
}
