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

package loader

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/cockroachdb/errors"
	"github.com/magpierre/quiver/quiver"
)

// ExportIPC writes the table as an Arrow IPC stream carrying pandas
// metadata, so that the output decodes back into an equivalent table.
func ExportIPC(ctx context.Context, w io.Writer, tbl *quiver.Table, cfg Config) error {
	cfg = cfg.withDefaults()
	at, err := tbl.ToArrow()
	if err != nil {
		return err
	}
	defer at.Release()
	return writeStream(ctx, w, at, cfg)
}

// ExportParquet writes the table as a Parquet file. The arrow schema,
// including the pandas metadata, is stored in the file.
func ExportParquet(ctx context.Context, w io.Writer, tbl *quiver.Table, cfg Config) error {
	cfg = cfg.withDefaults()
	at, err := tbl.ToArrow()
	if err != nil {
		return err
	}
	defer at.Release()

	props := parquet.NewWriterProperties(
		parquet.WithCompression(cfg.Compression),
		parquet.WithAllocator(cfg.Allocator),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(
		pqarrow.WithStoreSchema(),
		pqarrow.WithAllocator(cfg.Allocator),
	)
	writer, err := pqarrow.NewFileWriter(at.Schema(), w, props, arrowProps)
	if err != nil {
		return errors.Wrap(err, "failed to create parquet writer")
	}
	if err := ctx.Err(); err != nil {
		_ = writer.Close()
		return err
	}
	if err := writer.WriteTable(at, cfg.BatchSize); err != nil {
		_ = writer.Close()
		return errors.Wrap(err, "failed to write table to parquet")
	}
	return errors.Wrap(writer.Close(), "failed to close parquet writer")
}

// ExportCSV writes the display string of every grid cell, headers
// included, one grid row per record.
func ExportCSV(w io.Writer, g quiver.Grid) error {
	writer := csv.NewWriter(w)
	d := g.Dimensions()
	row := make([]string, d.Columns)
	for r := 0; r < d.Rows; r++ {
		for c := range row {
			cell, err := g.Cell(r, c)
			if err != nil {
				return err
			}
			if row[c], err = cell.Display(); err != nil {
				return errors.Wrapf(err, "formatting cell (%d, %d)", r, c)
			}
		}
		if err := writer.Write(row); err != nil {
			return errors.Wrap(err, "failed to write CSV row")
		}
	}
	writer.Flush()
	return errors.Wrap(writer.Error(), "failed to flush CSV")
}

// ExportFile writes the table to filePath in the format its extension
// names: .parquet, .csv, or Arrow IPC stream otherwise.
func ExportFile(ctx context.Context, filePath string, tbl *quiver.Table, cfg Config) (err error) {
	fileType := DetectFileType(filePath, nil)
	f, err := os.Create(filePath)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", filePath)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	switch fileType {
	case FileTypeParquet:
		err = ExportParquet(ctx, f, tbl, cfg)
	case FileTypeCSV:
		err = ExportCSV(f, tbl)
	default:
		fileType = FileTypeIPCStream
		err = ExportIPC(ctx, f, tbl, cfg)
	}
	if err != nil {
		return errors.Wrapf(err, "failed to export %s", filepath.Base(filePath))
	}
	cfg.withDefaults().Logger.Infof("exported %s file: %s", fileType, filepath.Base(filePath))
	return nil
}
