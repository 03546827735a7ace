package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/codeOCE/MBSync/internal/config"
	"github.com/codeOCE/MBSync/internal/decoder"
	"github.com/codeOCE/MBSync/internal/inventory"
	"github.com/codeOCE/MBSync/internal/layout"
	"github.com/codeOCE/MBSync/internal/report"
	"github.com/codeOCE/MBSync/internal/sheet"
)

func newParseCmd(opts *cliOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "parse <report>",
		Short:   "Parse a report and print its line items",
		Example: "  mbsync parse inventory.pdf\n  mbsync parse inventory.pdf --json > items.json",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := opts.parseReport(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res.Items)
			}
			if err := writeItemTable(out, res.Items); err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%s %d items, %d lines skipped, %d duplicates\n",
				titleStyle.Sprint("Parsed:"), len(res.Items), res.Skipped, res.Duplicates)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print items as JSON")
	return cmd
}

func newFillCmd(opts *cliOptions) *cobra.Command {
	var (
		output    string
		tmplPath  string
		sheetName string
	)
	cmd := &cobra.Command{
		Use:   "fill <report>",
		Short: "Parse a report and write every item into a change request form",
		Example: "  mbsync fill inventory.pdf -o form.xlsx\n" +
			"  mbsync fill inventory.pdf -o form.xlsx --template store.xlsx",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = trimExt(filepath.Base(args[0])) + ".xlsx"
			}
			res, err := opts.parseReport(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			tmpl := sheet.DefaultTemplateConfig()
			tmpl.Path = tmplPath
			if sheetName != "" {
				tmpl.SheetName = sheetName
			}
			rows := sheet.Rows(inventory.NewBatch(res.Items), sheet.ModeFull)

			var buf bytes.Buffer
			if err := sheet.NewWriter(tmpl, opts.logger()).Fill(rows, &buf); err != nil {
				return fmt.Errorf("fill form: %w", err)
			}
			if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d items to %s\n", titleStyle.Sprint("Wrote"), len(rows), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output workbook (defaults to <report>.xlsx)")
	cmd.Flags().StringVarP(&tmplPath, "template", "t", "", "Workbook template to fill instead of the built-in form")
	cmd.Flags().StringVar(&sheetName, "sheet", "", "Worksheet holding the item table")
	return cmd
}

func newSchemaCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the column schema in effect",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.schemaFile()
			s, err := report.LoadSchemaFile(path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if path == "" {
				fmt.Fprintln(out, "# built-in schema")
			} else {
				fmt.Fprintf(out, "# %s\n", path)
			}
			return s.WriteTOML(out)
		},
	}
}

func (o *cliOptions) schemaFile() string {
	if o.schemaPath != "" {
		return o.schemaPath
	}
	return config.DefaultSchemaFile()
}

// parseReport runs the same decode, reconstruct and parse chain as the
// server's job worker, synchronously.
func (o *cliOptions) parseReport(ctx context.Context, path string) (report.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	log := o.logger()

	schema, err := report.LoadSchemaFile(o.schemaFile())
	if err != nil {
		return report.Result{}, err
	}
	dec, err := decoder.ForFile(path, decoder.Options{FallbackPdftotext: !o.noFallback})
	if err != nil {
		return report.Result{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return report.Result{}, err
	}
	defer f.Close()

	doc, err := dec.Decode(f, filepath.Base(path))
	if err != nil {
		return report.Result{}, err
	}
	lines, err := layout.ReconstructDocument(ctx, doc,
		layout.Config{RowTolerance: o.rowTolerance, GapThreshold: o.gapThreshold}, o.pageWorkers)
	if err != nil {
		return report.Result{}, err
	}

	res := report.NewParser(schema, log).Parse(lines)
	log.Info("report parsed",
		slog.String("file", path),
		slog.Int("pages", len(doc.Pages)),
		slog.Int("lines", res.Lines),
		slog.Int("items", len(res.Items)),
	)
	if len(res.Items) == 0 {
		return report.Result{}, fmt.Errorf("%w: no data rows found in %s", decoder.ErrInvalidReport, path)
	}
	return res, nil
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}

