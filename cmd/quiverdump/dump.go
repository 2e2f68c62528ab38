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

package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"
	"github.com/magpierre/quiver/internal/loader"
	"github.com/magpierre/quiver/internal/render"
	"github.com/magpierre/quiver/quiver"
	"github.com/spf13/cobra"
)

// dumpT holds the commands of the tool together with their flag state.
type dumpT struct {
	Root   *cobra.Command
	Show   *cobra.Command
	Append *cobra.Command
	Schema *cobra.Command
	Export *cobra.Command

	timeoutSeconds int
	verbose        bool
	batchSize      int64

	maxRows  int
	noBorder bool

	stylerDisplay string
	stylerUUID    string
	caption       string
	stylesFile    string

	output      string
	compression string
}

func newDump() *dumpT {
	d := &dumpT{}
	d.Root = &cobra.Command{
		Use:          "quiverdump [command] (flags)",
		Short:        "dataframe payload inspection tool",
		SilenceUsage: true,
	}
	d.Show = &cobra.Command{
		Use:   "show <file>",
		Short: "print a table",
		Long: `
Decode an Arrow IPC or Parquet file carrying pandas metadata and print its
index, column headers and formatted values.
`,
		Args: cobra.ExactArgs(1),
		RunE: d.runShow,
	}
	d.Append = &cobra.Command{
		Use:   "append <base> <incoming>...",
		Short: "append the rows of tables to a base table",
		Long: `
Append the rows of each incoming table to the base table in order and print
the result, or write it with --output.
`,
		Args: cobra.MinimumNArgs(2),
		RunE: d.runAppend,
	}
	d.Schema = &cobra.Command{
		Use:   "schema <file>",
		Short: "print the pandas metadata and column types",
		Args:  cobra.ExactArgs(1),
		RunE:  d.runSchema,
	}
	d.Export = &cobra.Command{
		Use:   "export <file> <output>",
		Short: "convert a table to .arrows, .parquet or .csv",
		Args:  cobra.ExactArgs(2),
		RunE:  d.runExport,
	}
	d.Root.AddCommand(d.Show, d.Append, d.Schema, d.Export)

	d.Root.PersistentFlags().IntVar(
		&d.timeoutSeconds, "timeout", 60, "timeout in seconds for each command")
	d.Root.PersistentFlags().BoolVarP(
		&d.verbose, "verbose", "v", false, "log loader progress")
	d.Root.PersistentFlags().Int64Var(
		&d.batchSize, "batch-size", loader.DefaultConfig().BatchSize, "rows per record batch")

	for _, cmd := range []*cobra.Command{d.Show, d.Append} {
		cmd.Flags().IntVarP(
			&d.maxRows, "max-rows", "n", render.DefaultConfig().MaxRows, "maximum number of data rows to print (0, all)")
		cmd.Flags().BoolVar(
			&d.noBorder, "no-border", false, "omit the outer border")
	}
	d.Show.Flags().StringVar(
		&d.stylerDisplay, "styler-display", "", "file holding the pre-formatted display values")
	d.Show.Flags().StringVar(
		&d.stylerUUID, "styler-uuid", "", "styler uuid used in CSS ids")
	d.Show.Flags().StringVar(
		&d.caption, "caption", "", "styler caption")
	d.Show.Flags().StringVar(
		&d.stylesFile, "styles", "", "file holding the styler CSS")
	d.Append.Flags().StringVarP(
		&d.output, "output", "o", "", "write the result to this file instead of printing it")
	for _, cmd := range []*cobra.Command{d.Append, d.Export} {
		cmd.Flags().StringVar(
			&d.compression, "compression", "snappy", "parquet codec: none, snappy, gzip, zstd, lz4, brotli")
	}
	return d
}

// createTimeoutContext creates a context bounding a single command.
// timeoutSeconds specifies the timeout duration in seconds (default: 60 seconds if <= 0)
func createTimeoutContext(timeoutSeconds int) (context.Context, context.CancelFunc) {
	if timeoutSeconds <= 0 {
		timeoutSeconds = 60
	}
	return context.WithTimeout(context.Background(), time.Duration(timeoutSeconds)*time.Second)
}

// quietLogger drops informational messages.
type quietLogger struct{}

func (quietLogger) Infof(format string, args ...interface{}) {}

func (quietLogger) Errorf(format string, args ...interface{}) {
	log.Printf("error: "+format, args...)
}

var codecs = map[string]compress.Compression{
	"none":   compress.Codecs.Uncompressed,
	"snappy": compress.Codecs.Snappy,
	"gzip":   compress.Codecs.Gzip,
	"zstd":   compress.Codecs.Zstd,
	"lz4":    compress.Codecs.Lz4Raw,
	"brotli": compress.Codecs.Brotli,
}

func (d *dumpT) loaderConfig() (loader.Config, error) {
	cfg := loader.DefaultConfig()
	cfg.BatchSize = d.batchSize
	if !d.verbose {
		cfg.Logger = quietLogger{}
	}
	if d.compression != "" {
		codec, ok := codecs[strings.ToLower(d.compression)]
		if !ok {
			return cfg, errors.Newf("unknown compression %q", d.compression)
		}
		cfg.Compression = codec
	}
	return cfg, nil
}

func (d *dumpT) renderConfig() render.Config {
	cfg := render.DefaultConfig()
	cfg.MaxRows = d.maxRows
	cfg.Border = !d.noBorder
	return cfg
}

func (d *dumpT) runShow(cmd *cobra.Command, args []string) error {
	ctx, cancel := createTimeoutContext(d.timeoutSeconds)
	defer cancel()
	cfg, err := d.loaderConfig()
	if err != nil {
		return err
	}

	payload, err := loader.LoadFile(ctx, args[0], cfg)
	if err != nil {
		return err
	}
	styler, err := d.stylerPayload(ctx, cfg)
	if err != nil {
		return err
	}
	tbl, err := quiver.NewWithStyler(payload, styler, cfg.DecodeConfig())
	if err != nil {
		return errors.Wrapf(err, "decoding %s", args[0])
	}
	defer tbl.Release()
	return render.Render(cmd.OutOrStdout(), tbl, d.renderConfig())
}

// stylerPayload assembles the styler from the show flags, or returns nil
// when no display values were given.
func (d *dumpT) stylerPayload(ctx context.Context, cfg loader.Config) (*quiver.StylerPayload, error) {
	if d.stylerDisplay == "" {
		return nil, nil
	}
	display, err := loader.LoadFile(ctx, d.stylerDisplay, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "loading styler display values")
	}
	sp := &quiver.StylerPayload{UUID: d.stylerUUID, DisplayValues: display}
	if d.caption != "" {
		sp.Caption = &d.caption
	}
	if d.stylesFile != "" {
		b, err := os.ReadFile(d.stylesFile)
		if err != nil {
			return nil, errors.Wrap(err, "reading styles")
		}
		styles := string(b)
		sp.Styles = &styles
	}
	return sp, nil
}

func (d *dumpT) runAppend(cmd *cobra.Command, args []string) error {
	ctx, cancel := createTimeoutContext(d.timeoutSeconds)
	defer cancel()
	cfg, err := d.loaderConfig()
	if err != nil {
		return err
	}

	tbl, err := loader.LoadTable(ctx, args[0], cfg)
	if err != nil {
		return err
	}
	defer func() { tbl.Release() }()

	for _, arg := range args[1:] {
		incoming, err := loader.LoadTable(ctx, arg, cfg)
		if err != nil {
			return err
		}
		out, err := tbl.AddRows(incoming)
		incoming.Release()
		if err != nil {
			return errors.Wrapf(err, "appending %s", arg)
		}
		tbl.Release()
		tbl = out
	}

	if d.output != "" {
		return loader.ExportFile(ctx, d.output, tbl, cfg)
	}
	return render.Render(cmd.OutOrStdout(), tbl, d.renderConfig())
}

func (d *dumpT) runSchema(cmd *cobra.Command, args []string) error {
	ctx, cancel := createTimeoutContext(d.timeoutSeconds)
	defer cancel()
	cfg, err := d.loaderConfig()
	if err != nil {
		return err
	}

	tbl, err := loader.LoadTable(ctx, args[0], cfg)
	if err != nil {
		return err
	}
	defer tbl.Release()
	return writeSchema(cmd.OutOrStdout(), tbl)
}

func writeSchema(w io.Writer, tbl *quiver.Table) error {
	data, err := json.MarshalIndent(tbl.Schema(), "", "\t")
	if err != nil {
		return errors.Wrap(err, "encoding schema")
	}
	fmt.Fprintf(w, "%s\n", data)

	types := tbl.Types()
	names := tbl.IndexNames()
	for i, typ := range types.Index {
		fmt.Fprintf(w, "index %d %q: %s (%s)\n", i, names[i], typ, typ.Kind())
	}
	fields := tbl.Fields()
	for i, typ := range types.Data {
		fmt.Fprintf(w, "column %d %q: %s (%s) %s\n", i, fields[i].Name, typ, typ.Kind(), fields[i].Type)
	}
	dims := tbl.Dimensions()
	fmt.Fprintf(w, "%d rows x %d columns\n", dims.DataRows, dims.DataColumns)
	return nil
}

func (d *dumpT) runExport(cmd *cobra.Command, args []string) error {
	ctx, cancel := createTimeoutContext(d.timeoutSeconds)
	defer cancel()
	cfg, err := d.loaderConfig()
	if err != nil {
		return err
	}

	tbl, err := loader.LoadTable(ctx, args[0], cfg)
	if err != nil {
		return err
	}
	defer tbl.Release()
	return loader.ExportFile(ctx, args[1], tbl, cfg)
}
