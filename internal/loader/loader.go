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

// Package loader reads dataframe files into Arrow IPC stream payloads and
// writes decoded tables back out.
package loader

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/cockroachdb/errors"
	"github.com/magpierre/quiver/quiver"
)

// ErrUnsupportedFileType is returned for files that are neither Arrow IPC
// nor Parquet.
var ErrUnsupportedFileType = errors.New("unsupported file type")

// FileType represents the type of data file
type FileType int

const (
	FileTypeUnknown FileType = iota
	FileTypeIPCStream
	FileTypeIPCFile
	FileTypeParquet
	FileTypeCSV
)

var (
	ipcFileMagic = []byte("ARROW1")
	parquetMagic = []byte("PAR1")
)

// String returns the string representation of a FileType.
func (t FileType) String() string {
	switch t {
	case FileTypeIPCStream:
		return "arrow stream"
	case FileTypeIPCFile:
		return "arrow file"
	case FileTypeParquet:
		return "parquet"
	case FileTypeCSV:
		return "csv"
	default:
		return "unknown"
	}
}

// DetectFileType determines the type of file based on extension and content.
// head may hold the first bytes of the file, or be nil when the file does
// not exist yet.
func DetectFileType(filePath string, head []byte) FileType {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".parquet", ".pq":
		return FileTypeParquet
	case ".csv":
		return FileTypeCSV
	case ".arrows":
		return FileTypeIPCStream
	case ".arrow", ".feather", ".ipc":
		if head != nil && !bytes.HasPrefix(head, ipcFileMagic) {
			return FileTypeIPCStream
		}
		return FileTypeIPCFile
	}
	switch {
	case bytes.HasPrefix(head, parquetMagic):
		return FileTypeParquet
	case bytes.HasPrefix(head, ipcFileMagic):
		return FileTypeIPCFile
	}
	return FileTypeUnknown
}

// Config holds the settings used to read and write files.
type Config struct {
	// Allocator backs every buffer read or written.
	Allocator memory.Allocator

	// BatchSize is the number of rows per record batch when converting
	// tables to streams.
	BatchSize int64

	// Compression is the codec used for Parquet export.
	Compression compress.Compression

	// Logger receives progress notices.
	Logger quiver.Logger
}

// DefaultConfig returns the default loader configuration.
func DefaultConfig() Config {
	return Config{
		Allocator:   memory.DefaultAllocator,
		BatchSize:   64 * 1024,
		Compression: compress.Codecs.Snappy,
		Logger:      quiver.DefaultLogger{},
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Allocator == nil {
		c.Allocator = d.Allocator
	}
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.Logger == nil {
		c.Logger = d.Logger
	}
	return c
}

// DecodeConfig returns the quiver configuration matching c.
func (c Config) DecodeConfig() quiver.Config {
	c = c.withDefaults()
	return quiver.Config{Allocator: c.Allocator, Logger: c.Logger}
}

// LoadFile reads an Arrow IPC or Parquet file and returns its content as an
// Arrow IPC stream payload.
func LoadFile(ctx context.Context, filePath string, cfg Config) ([]byte, error) {
	cfg = cfg.withDefaults()
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", filePath)
	}

	fileType := DetectFileType(filePath, content)
	var payload []byte
	switch fileType {
	case FileTypeIPCStream:
		payload = content
	case FileTypeIPCFile:
		payload, err = ipcFileToStream(ctx, content, cfg)
	case FileTypeParquet:
		payload, err = parquetToStream(ctx, content, cfg)
	default:
		return nil, errors.Wrapf(ErrUnsupportedFileType, "%s", filepath.Base(filePath))
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s file %s", fileType, filepath.Base(filePath))
	}
	cfg.Logger.Infof("loaded %s file: %s (%.2f MB)",
		fileType, filepath.Base(filePath), float64(len(content))/(1024*1024))
	return payload, nil
}

// LoadTable reads and decodes a file.
func LoadTable(ctx context.Context, filePath string, cfg Config) (*quiver.Table, error) {
	payload, err := LoadFile(ctx, filePath, cfg)
	if err != nil {
		return nil, err
	}
	return quiver.New(payload, cfg.DecodeConfig())
}

func ipcFileToStream(ctx context.Context, content []byte, cfg Config) ([]byte, error) {
	rdr, err := ipc.NewFileReader(bytes.NewReader(content), ipc.WithAllocator(cfg.Allocator))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open arrow file")
	}
	defer rdr.Close()

	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(rdr.Schema()), ipc.WithAllocator(cfg.Allocator))
	for i := 0; i < rdr.NumRecords(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := rdr.RecordAt(i)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read record %d", i)
		}
		err = w.Write(rec)
		rec.Release()
		if err != nil {
			return nil, errors.Wrap(err, "failed to write stream")
		}
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to close stream")
	}
	return buf.Bytes(), nil
}

func parquetToStream(ctx context.Context, content []byte, cfg Config) ([]byte, error) {
	pf, err := file.NewParquetReader(bytes.NewReader(content), file.WithReadProps(parquet.NewReaderProperties(cfg.Allocator)))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create parquet reader")
	}
	defer pf.Close()

	arrowReader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{BatchSize: cfg.BatchSize}, cfg.Allocator)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create arrow reader")
	}
	tbl, err := arrowReader.ReadTable(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read parquet data")
	}
	defer tbl.Release()

	var buf bytes.Buffer
	if err := writeStream(ctx, &buf, tbl, cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeStream writes tbl as an Arrow IPC stream in batches of
// cfg.BatchSize rows.
func writeStream(ctx context.Context, w io.Writer, tbl arrow.Table, cfg Config) error {
	sw := ipc.NewWriter(w, ipc.WithSchema(tbl.Schema()), ipc.WithAllocator(cfg.Allocator))
	tr := array.NewTableReader(tbl, cfg.BatchSize)
	defer tr.Release()
	for tr.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := sw.Write(tr.Record()); err != nil {
			return errors.Wrap(err, "failed to write stream")
		}
	}
	if err := tr.Err(); err != nil {
		return errors.Wrap(err, "error reading table")
	}
	return errors.Wrap(sw.Close(), "failed to close stream")
}
