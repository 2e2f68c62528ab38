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

// Package quiver decodes dataframes shipped as Arrow IPC payloads with
// pandas metadata into a row/column addressable table.
//
// A Table is immutable once constructed. AddRows returns a new Table that
// shares arrays with its inputs, so tables may be read from any number of
// goroutines without locking.
package quiver

import (
	"bytes"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/cockroachdb/errors"
)

// StylerPayload is the wire form of a styler: CSS metadata and a parallel
// payload of pre-formatted display strings.
type StylerPayload struct {
	UUID          string
	Caption       *string
	Styles        *string
	DisplayValues []byte
}

// Styler holds the styling of a table. DisplayValues has the same shape as
// the table it belongs to.
type Styler struct {
	UUID          string
	Caption       string
	CSSStyles     string
	DisplayValues *Table
}

// Table is a decoded dataframe.
type Table struct {
	index        []IndexVector
	indexColumns []IndexColumn
	indexNames   []string
	columns      [][]string
	data         arrow.Table
	types        Types
	fields       []arrow.Field
	styler       *Styler
	schema       *Schema
	mem          memory.Allocator
}

// Dimensions describes the full grid of a table: header rows and columns
// followed by data.
type Dimensions struct {
	HeaderRows    int
	HeaderColumns int
	DataRows      int
	DataColumns   int
	Rows          int
	Columns       int
}

// New decodes an Arrow IPC stream payload.
func New(payload []byte, cfg Config) (*Table, error) {
	return NewWithStyler(payload, nil, cfg)
}

// NewWithStyler decodes an Arrow IPC stream payload together with its
// styler. A styler without display values is ignored.
func NewWithStyler(payload []byte, sp *StylerPayload, cfg Config) (*Table, error) {
	cfg = cfg.withDefaults()
	tbl, err := readPayload(payload, cfg.Allocator)
	if err != nil {
		return nil, err
	}
	defer tbl.Release()
	return FromArrow(tbl, sp, cfg)
}

func readPayload(payload []byte, mem memory.Allocator) (arrow.Table, error) {
	rdr, err := ipc.NewReader(bytes.NewReader(payload), ipc.WithAllocator(mem))
	if err != nil {
		return nil, errors.Wrap(err, "opening payload")
	}
	defer rdr.Release()

	var recs []arrow.Record
	defer func() {
		for _, rec := range recs {
			rec.Release()
		}
	}()
	for rdr.Next() {
		rec := rdr.Record()
		rec.Retain()
		recs = append(recs, rec)
	}
	if err := rdr.Err(); err != nil {
		return nil, errors.Wrap(err, "reading payload")
	}
	return array.NewTableFromRecords(rdr.Schema(), recs), nil
}

// FromArrow decodes an arrow table carrying pandas metadata. The table is
// not consumed; the result retains the arrays it uses.
func FromArrow(tbl arrow.Table, sp *StylerPayload, cfg Config) (*Table, error) {
	cfg = cfg.withDefaults()
	schema, err := schemaFromArrow(tbl.Schema())
	if err != nil {
		return nil, err
	}

	levels, err := parseIndex(tbl, schema, cfg.Logger)
	if err != nil {
		return nil, err
	}
	t := &Table{schema: schema, mem: cfg.Allocator}
	for _, l := range levels {
		t.index = append(t.index, l.vector)
		t.indexColumns = append(t.indexColumns, l.column)
		t.indexNames = append(t.indexNames, l.name)
		t.types.Index = append(t.types.Index, l.typ)
	}

	if t.columns, err = parseColumns(schema); err != nil {
		t.Release()
		return nil, err
	}
	if err := t.selectData(tbl); err != nil {
		t.Release()
		return nil, err
	}
	if sp != nil && len(sp.DisplayValues) > 0 {
		if t.styler, err = newStyler(sp, cfg); err != nil {
			t.Release()
			return nil, err
		}
	}
	if err := t.checkDimensions(); err != nil {
		t.Release()
		return nil, err
	}
	return t, nil
}

// selectData keeps the non-index fields of tbl, in schema order, as the
// data of t.
func (t *Table) selectData(tbl arrow.Table) error {
	raw := t.schema.RawColumns()
	fields := make([]arrow.Field, 0, len(raw))
	cols := make([]arrow.Column, 0, len(raw))
	types := make([]Type, 0, len(raw))
	for _, name := range raw {
		col, ok := findColumn(tbl, name)
		if !ok {
			return errors.Wrapf(ErrMalformedSchema, "column %q not in payload", name)
		}
		cs, _ := t.schema.Column(name)
		fields = append(fields, col.Field())
		cols = append(cols, *col)
		types = append(types, typeFromColumn(cs))
	}
	md := tbl.Schema().Metadata()
	t.data = array.NewTable(arrow.NewSchema(fields, &md), cols, tbl.NumRows())
	t.fields = fields
	t.types.Data = types
	return nil
}

func newStyler(sp *StylerPayload, cfg Config) (*Styler, error) {
	dv, err := New(sp.DisplayValues, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "decoding styler display values")
	}
	s := &Styler{UUID: sp.UUID, DisplayValues: dv}
	if sp.Caption != nil {
		s.Caption = *sp.Caption
	}
	if sp.Styles != nil {
		s.CSSStyles = *sp.Styles
	}
	return s, nil
}

// checkDimensions verifies that the headers agree with the data.
func (t *Table) checkDimensions() error {
	dataRows := int(t.data.NumRows())
	dataCols := int(t.data.NumCols())
	if len(t.types.Data) != dataCols || len(t.fields) != dataCols {
		return errors.Wrapf(ErrDimensionMismatch,
			"%d data columns, %d data types, %d fields", dataCols, len(t.types.Data), len(t.fields))
	}
	if len(t.index) != len(t.indexNames) || len(t.index) != len(t.types.Index) {
		return errors.Wrapf(ErrDimensionMismatch,
			"%d index levels, %d names, %d types", len(t.index), len(t.indexNames), len(t.types.Index))
	}
	for i, v := range t.index {
		if n := v.Len(); n != 0 && dataRows != 0 && n != dataRows {
			return errors.Wrapf(ErrDimensionMismatch, "index level %d has %d rows, data has %d", i, n, dataRows)
		}
	}
	for level, labels := range t.columns {
		if n := len(labels); n != 0 && dataCols != 0 && n != dataCols {
			return errors.Wrapf(ErrDimensionMismatch,
				"column header level %d has %d labels, data has %d columns", level, n, dataCols)
		}
	}
	return nil
}

// Dimensions returns the size of the full grid.
func (t *Table) Dimensions() Dimensions {
	d := Dimensions{
		HeaderRows:    max(1, len(t.columns)),
		HeaderColumns: max(1, len(t.index)),
		DataRows:      int(t.data.NumRows()),
		DataColumns:   int(t.data.NumCols()),
	}
	if d.DataColumns == 0 && len(t.columns) > 0 {
		d.DataColumns = len(t.columns[0])
	}
	d.Rows = d.HeaderRows + d.DataRows
	d.Columns = d.HeaderColumns + d.DataColumns
	return d
}

// IsEmpty reports whether the table has no index, no columns and no data.
func (t *Table) IsEmpty() bool {
	return len(t.index) == 0 && len(t.columns) == 0 &&
		t.data.NumRows() == 0 && t.data.NumCols() == 0
}

// IndexValue returns the value of index level col at data row row.
func (t *Table) IndexValue(row, col int) (any, error) {
	if col < 0 || col >= len(t.index) {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "index level %d not in [0, %d)", col, len(t.index))
	}
	v := t.index[col]
	if row < 0 || row >= v.Len() {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "index row %d not in [0, %d)", row, v.Len())
	}
	return v.Value(row), nil
}

// DataValue returns the value of data column col at data row row.
func (t *Table) DataValue(row, col int) (any, error) {
	if col < 0 || col >= int(t.data.NumCols()) {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "data column %d not in [0, %d)", col, t.data.NumCols())
	}
	if row < 0 || row >= int(t.data.NumRows()) {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "data row %d not in [0, %d)", row, t.data.NumRows())
	}
	return chunkedValue(t.data.Column(col).Data(), row), nil
}

// CategoricalOptions returns the categories of a dictionary-encoded data
// column, or nil if the column is not categorical.
func (t *Table) CategoricalOptions(col int) ([]any, error) {
	n := t.Dimensions().DataColumns
	if col < 0 || col >= n {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "column index %d not in [0, %d)", col, n)
	}
	if col >= len(t.fields) {
		return nil, nil
	}
	if _, ok := t.fields[col].Type.(*arrow.DictionaryType); !ok {
		return nil, nil
	}
	chunks := t.data.Column(col).Data().Chunks()
	if len(chunks) == 0 {
		return nil, nil
	}
	dict, ok := chunks[0].(*array.Dictionary)
	if !ok {
		return nil, nil
	}
	values := dict.Dictionary()
	options := make([]any, values.Len())
	for i := range options {
		options[i] = valueAt(values, i)
	}
	return options, nil
}

// CSSID returns the id of the styled table, or "" without a styler.
func (t *Table) CSSID() string {
	if t.styler == nil {
		return ""
	}
	return "T_" + t.styler.UUID
}

// CSSStyles returns the CSS text of the styler.
func (t *Table) CSSStyles() string {
	if t.styler == nil {
		return ""
	}
	return t.styler.CSSStyles
}

// Caption returns the styler caption.
func (t *Table) Caption() string {
	if t.styler == nil {
		return ""
	}
	return t.styler.Caption
}

// Index returns the index levels. The slice must not be modified.
func (t *Table) Index() []IndexVector { return t.index }

// IndexNames returns the display name of each index level.
func (t *Table) IndexNames() []string { return t.indexNames }

// Columns returns the header labels as columns[level][col].
func (t *Table) Columns() [][]string { return t.columns }

// Data returns the data columns.
func (t *Table) Data() arrow.Table { return t.data }

// Types returns the index and data column types.
func (t *Table) Types() Types { return t.types }

// Fields returns the arrow field of each data column.
func (t *Table) Fields() []arrow.Field { return t.fields }

// Styler returns the styler, or nil.
func (t *Table) Styler() *Styler { return t.styler }

// Schema returns the parsed pandas metadata the table was decoded from.
func (t *Table) Schema() *Schema { return t.schema }

// Retain increases the reference count of every array the table holds.
func (t *Table) Retain() {
	if t.data != nil {
		t.data.Retain()
	}
	for _, v := range t.index {
		retainIndex(v)
	}
	if t.styler != nil && t.styler.DisplayValues != nil {
		t.styler.DisplayValues.Retain()
	}
}

// Release decreases the reference count of every array the table holds.
func (t *Table) Release() {
	if t.data != nil {
		t.data.Release()
	}
	for _, v := range t.index {
		releaseIndex(v)
	}
	if t.styler != nil && t.styler.DisplayValues != nil {
		t.styler.DisplayValues.Release()
	}
}
