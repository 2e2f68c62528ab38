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
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestDimensions(t *testing.T) {
	frames := map[string]testFrame{
		"small": smallFrame(),
		"empty": {},
		"no-index": {
			columns: []testColumn{int64Col("a", 1, 2, 3)},
		},
		"two-levels": {
			index:   []IndexColumn{storedIndex("k"), storedIndex("j")},
			columns: []testColumn{unicodeCol("k", "x"), unicodeCol("j", "y"), int64Col("a", 1), int64Col("b", 2), int64Col("c", 3)},
		},
	}
	want := map[string]Dimensions{
		"small":      {HeaderRows: 1, HeaderColumns: 1, DataRows: 2, DataColumns: 2, Rows: 3, Columns: 3},
		"empty":      {HeaderRows: 1, HeaderColumns: 1, DataRows: 0, DataColumns: 0, Rows: 1, Columns: 1},
		"no-index":   {HeaderRows: 1, HeaderColumns: 1, DataRows: 3, DataColumns: 1, Rows: 4, Columns: 2},
		"two-levels": {HeaderRows: 1, HeaderColumns: 2, DataRows: 1, DataColumns: 3, Rows: 2, Columns: 5},
	}
	for name, f := range frames {
		t.Run(name, func(t *testing.T) {
			tbl := f.decode(t)
			defer tbl.Release()
			d := tbl.Dimensions()
			require.Equal(t, want[name], d)
			require.Equal(t, d.HeaderRows+d.DataRows, d.Rows)
			require.Equal(t, d.HeaderColumns+d.DataColumns, d.Columns)
		})
	}
}

func TestCategoricalOptions(t *testing.T) {
	tbl := testFrame{
		columns: []testColumn{
			{field: "level", pandasType: "categorical", numpyType: "int8",
				metadata: map[string]any{"num_categories": 2, "ordered": true},
				arr:      categories(t, "low", "high", "low")},
			int64Col("n", 1, 2, 3),
		},
	}.decode(t)
	defer tbl.Release()

	opts, err := tbl.CategoricalOptions(0)
	require.NoError(t, err)
	require.Equal(t, []any{"low", "high"}, opts)

	typ := tbl.Types().Data[0]
	require.Equal(t, KindCategorical, typ.Kind())
	require.True(t, typ.Meta.Ordered)
	require.Equal(t, 2, *typ.Meta.NumCategories)

	opts, err = tbl.CategoricalOptions(1)
	require.NoError(t, err)
	require.Nil(t, opts)

	_, err = tbl.CategoricalOptions(2)
	require.True(t, errors.Is(err, ErrIndexOutOfRange))
	_, err = tbl.CategoricalOptions(-1)
	require.True(t, errors.Is(err, ErrIndexOutOfRange))

	v, err := tbl.DataValue(2, 0)
	require.NoError(t, err)
	require.Equal(t, "low", v)

	require.Equal(t, [][]string{
		{"", "level", "n"},
		{"", "low", "1"},
		{"", "high", "2"},
		{"", "low", "3"},
	}, displayStrings(t, tbl))
}

func TestDataValueOutOfRange(t *testing.T) {
	tbl := smallFrame().decode(t)
	defer tbl.Release()

	for _, pos := range [][2]int{{2, 0}, {0, 2}, {-1, 0}, {0, -1}} {
		_, err := tbl.DataValue(pos[0], pos[1])
		require.True(t, errors.Is(err, ErrIndexOutOfRange), "%v", pos)
	}
}

func TestCheckDimensions(t *testing.T) {
	tbl := smallFrame().decode(t)
	defer tbl.Release()
	require.NoError(t, tbl.checkDimensions())

	short := *tbl
	short.index = []IndexVector{RangeIndex{Start: 0, Stop: 5, Step: 1}}
	require.True(t, errors.Is(short.checkDimensions(), ErrDimensionMismatch))

	labels := *tbl
	labels.columns = [][]string{{"a", "b", "c"}}
	require.True(t, errors.Is(labels.checkDimensions(), ErrDimensionMismatch))

	names := *tbl
	names.indexNames = nil
	require.True(t, errors.Is(names.checkDimensions(), ErrDimensionMismatch))
}

func TestToArrowRoundTrip(t *testing.T) {
	stored := func(labels ...string) testFrame {
		f := testFrame{index: []IndexColumn{storedIndex("__index_level_0__")}}
		var a []int64
		var b []float64
		for i := range labels {
			a = append(a, int64(i))
			b = append(b, float64(i)+0.5)
		}
		f.columns = []testColumn{unicodeCol("__index_level_0__", labels...), int64Col("a", a...), float64Col("b", b...)}
		return f
	}
	ranged := func(n int64) testFrame {
		var a []int64
		for i := int64(0); i < n; i++ {
			a = append(a, i*10)
		}
		return testFrame{index: []IndexColumn{rangeIndex("n", 0, n, 1)}, columns: []testColumn{int64Col("a", a...)}}
	}

	for _, tc := range []struct {
		name        string
		base, other testFrame
	}{
		{"stored", stored("x", "y"), stored("z")},
		{"range", ranged(2), ranged(3)},
	} {
		base := tc.base.decode(t)
		defer base.Release()
		other := tc.other.decode(t)
		defer other.Release()
		appended, err := base.AddRows(other)
		require.NoError(t, err)
		defer appended.Release()

		for name, tbl := range map[string]*Table{"decoded": base, "appended": appended} {
			t.Run(tc.name+"/"+name, func(t *testing.T) {
				at, err := tbl.ToArrow()
				require.NoError(t, err)
				defer at.Release()

				back, err := FromArrow(at, nil, testConfig(t))
				require.NoError(t, err)
				defer back.Release()

				require.Equal(t, tbl.IndexNames(), back.IndexNames())
				require.Equal(t, typeNames(tbl.Types().Index), typeNames(back.Types().Index))
				require.Equal(t, typeNames(tbl.Types().Data), typeNames(back.Types().Data))
				require.Equal(t, displayStrings(t, tbl), displayStrings(t, back))
			})
		}
	}
}

func TestToArrowMaterializesBrokenRange(t *testing.T) {
	base := testFrame{
		index:   []IndexColumn{rangeIndex("", 0, 3, 1)},
		columns: []testColumn{int64Col("a", 1, 2, 3)},
	}.decode(t)
	defer base.Release()

	// Pretend the range was built from two disjoint parts.
	broken := *base
	broken.index = []IndexVector{NewConcatIndex(RangeIndex{Start: 0, Stop: 2, Step: 1}, RangeIndex{Start: 7, Stop: 8, Step: 1})}

	at, err := broken.ToArrow()
	require.NoError(t, err)
	defer at.Release()
	require.Equal(t, fmt.Sprintf("%s0__", anonymousIndexPrefix), at.Schema().Field(0).Name)
	require.True(t, arrow.TypeEqual(arrow.PrimitiveTypes.Int64, at.Schema().Field(0).Type))

	back, err := FromArrow(at, nil, testConfig(t))
	require.NoError(t, err)
	defer back.Release()
	require.Equal(t, []any{int64(0), int64(1), int64(7)}, IndexValues(back.Index()[0]))
	require.Equal(t, "int64", back.Types().Index[0].Name())
}

func TestNoLeaks(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)
	cfg := Config{Allocator: mem, Logger: testLogger{t}}

	base, err := New(smallFrame().payload(t), cfg)
	require.NoError(t, err)
	other, err := New(smallFrame().payload(t), cfg)
	require.NoError(t, err)

	out, err := base.AddRows(other)
	require.NoError(t, err)
	base.Release()
	other.Release()

	require.Equal(t, 4, out.Dimensions().DataRows)
	require.Equal(t, []any{int64(1), int64(2), int64(1), int64(2)}, dataColumn(t, out, 0))
	out.Release()
}
