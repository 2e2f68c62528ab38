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
	"github.com/cockroachdb/errors"
)

// CellKind classifies a position of the full grid.
type CellKind int

const (
	// CellBlank is the corner above the index and left of the headers.
	CellBlank CellKind = iota
	// CellIndex holds an index value.
	CellIndex
	// CellColumns holds a column header label.
	CellColumns
	// CellData holds a data value.
	CellData
)

// String returns the string representation of a CellKind.
func (k CellKind) String() string {
	switch k {
	case CellBlank:
		return "blank"
	case CellIndex:
		return "index"
	case CellColumns:
		return "columns"
	case CellData:
		return "data"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Cell is the content of one grid position.
type Cell struct {
	Kind CellKind

	// Content is the raw value. Header labels are strings.
	Content any

	// ContentType is the type of Content; nil for blank cells.
	ContentType *Type

	// Field is the arrow field of a data cell.
	Field *arrow.Field

	// DisplayContent is the styler's pre-formatted string for a data cell,
	// valid when HasDisplayContent is set.
	DisplayContent    string
	HasDisplayContent bool

	// CSSClass classifies the cell for renderers.
	CSSClass string

	// CSSID identifies the cell; only set on styled tables.
	CSSID string
}

// Display returns the string to show for the cell: the styler's display
// value if there is one, otherwise the formatted content.
func (c Cell) Display() (string, error) {
	if c.Kind == CellBlank {
		return "", nil
	}
	if c.HasDisplayContent {
		return c.DisplayContent, nil
	}
	if s, ok := c.Content.(string); ok && c.ContentType == nil {
		return s, nil
	}
	return Format(c.Content, c.ContentType, c.Field)
}

// Cell returns the cell at (row, col) of the full grid, where the first
// HeaderRows rows and HeaderColumns columns hold the headers.
func (t *Table) Cell(row, col int) (Cell, error) {
	d := t.Dimensions()
	if row < 0 || row >= d.Rows {
		return Cell{}, errors.Wrapf(ErrIndexOutOfRange, "row index %d not in [0, %d)", row, d.Rows)
	}
	if col < 0 || col >= d.Columns {
		return Cell{}, errors.Wrapf(ErrIndexOutOfRange, "column index %d not in [0, %d)", col, d.Columns)
	}

	switch {
	case row < d.HeaderRows && col < d.HeaderColumns:
		return Cell{Kind: CellBlank, Content: "", CSSClass: "blank"}, nil
	case col < d.HeaderColumns:
		return t.indexCell(row-d.HeaderRows, col), nil
	case row < d.HeaderRows:
		return t.columnsCell(row, col-d.HeaderColumns), nil
	default:
		return t.dataCell(row, col, d)
	}
}

func (t *Table) indexCell(dataRow, level int) Cell {
	c := Cell{
		Kind:     CellIndex,
		Content:  "",
		CSSClass: fmt.Sprintf("row_heading level%d row%d", level, dataRow),
	}
	if level < len(t.index) && dataRow < t.index[level].Len() {
		typ := t.types.Index[level]
		c.Content = t.index[level].Value(dataRow)
		c.ContentType = &typ
	}
	if t.styler != nil {
		c.CSSID = fmt.Sprintf("T_%slevel%d_row%d", t.styler.UUID, level, dataRow)
	}
	return c
}

func (t *Table) columnsCell(level, dataCol int) Cell {
	typ := unicodeType
	c := Cell{
		Kind:        CellColumns,
		Content:     "",
		ContentType: &typ,
		CSSClass:    fmt.Sprintf("col_heading level%d col%d", level, dataCol),
	}
	if level < len(t.columns) && dataCol < len(t.columns[level]) {
		c.Content = t.columns[level][dataCol]
	}
	return c
}

func (t *Table) dataCell(row, col int, d Dimensions) (Cell, error) {
	dataRow, dataCol := row-d.HeaderRows, col-d.HeaderColumns
	c := Cell{
		Kind:     CellData,
		CSSClass: fmt.Sprintf("data row%d col%d", dataRow, dataCol),
	}
	if dataCol < int(t.data.NumCols()) {
		typ := t.types.Data[dataCol]
		field := t.fields[dataCol]
		c.Content = chunkedValue(t.data.Column(dataCol).Data(), dataRow)
		c.ContentType = &typ
		c.Field = &field
	}
	if t.styler == nil {
		return c, nil
	}
	c.CSSID = fmt.Sprintf("T_%srow%d_col%d", t.styler.UUID, dataRow, dataCol)
	if dv := t.styler.DisplayValues; dv != nil {
		dc, err := dv.Cell(row, col)
		if err != nil {
			return Cell{}, errors.Wrap(err, "looking up display value")
		}
		if dc.Content != nil {
			if s := stringify(dc.Content); s != "" {
				c.DisplayContent, c.HasDisplayContent = s, true
			}
		}
	}
	return c, nil
}
