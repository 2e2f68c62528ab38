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

// Package render draws a decoded table as a text grid.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/magpierre/quiver/quiver"
	"github.com/olekukonko/tablewriter"
)

// Config holds the rendering options.
type Config struct {
	// MaxRows limits the number of data rows drawn; 0 draws all of them.
	MaxRows int

	// Border draws the outer border of the grid.
	Border bool
}

// DefaultConfig returns the default rendering options.
func DefaultConfig() Config {
	return Config{
		MaxRows: 50,
		Border:  true,
	}
}

// Render writes g to w. Header levels are joined into one multi-line
// header; the corner holds the index names.
func Render(w io.Writer, g quiver.Grid, cfg Config) error {
	d := g.Dimensions()
	header, err := headerRow(g, d)
	if err != nil {
		return err
	}

	tbl := tablewriter.NewWriter(w)
	tbl.SetAutoFormatHeaders(false)
	tbl.SetAutoWrapText(false)
	tbl.SetBorder(cfg.Border)
	tbl.SetHeader(header)
	if caption := g.Caption(); caption != "" {
		tbl.SetCaption(true, caption)
	}

	rows := d.DataRows
	if cfg.MaxRows > 0 && rows > cfg.MaxRows {
		rows = cfg.MaxRows
	}
	for r := 0; r < rows; r++ {
		line := make([]string, d.Columns)
		for c := range line {
			if line[c], err = display(g, d.HeaderRows+r, c); err != nil {
				return err
			}
		}
		tbl.Append(line)
	}
	tbl.Render()

	if hidden := d.DataRows - rows; hidden > 0 {
		noun := "rows"
		if hidden == 1 {
			noun = "row"
		}
		if _, err := fmt.Fprintf(w, "... %d more %s\n", hidden, noun); err != nil {
			return err
		}
	}
	return nil
}

func headerRow(g quiver.Grid, d quiver.Dimensions) ([]string, error) {
	names := g.IndexNames()
	header := make([]string, d.Columns)
	for c := range header {
		levels := make([]string, d.HeaderRows)
		for r := range levels {
			s, err := display(g, r, c)
			if err != nil {
				return nil, err
			}
			levels[r] = s
		}
		if c < d.HeaderColumns && c < len(names) {
			levels[d.HeaderRows-1] = names[c]
		}
		header[c] = strings.Join(levels, "\n")
	}
	return header, nil
}

func display(g quiver.Grid, row, col int) (string, error) {
	cell, err := g.Cell(row, col)
	if err != nil {
		return "", err
	}
	s, err := cell.Display()
	if err != nil {
		return "", errors.Wrapf(err, "formatting cell (%d, %d)", row, col)
	}
	return s, nil
}
