/*
Copyright © 2025 Ambor <saltbo@foxmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eslsoft/yorlect/internal/app"
	"github.com/eslsoft/yorlect/internal/infrastructure/objectstore"
	"github.com/eslsoft/yorlect/internal/usecase"
)

const (
	exportKindKey   = "export.kind"
	exportOutputKey = "export.output"
	exportFilterKey = "export.filter"
	exportGzipKey   = "export.gzip"
	exportS3Key     = "export.upload"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export metadata, translations or progress as CSV",
	Example: `  yorlect export --kind translations -o -
  yorlect export --kind metadata --filter 'country == "Nigeria"'
  yorlect export --kind progress --s3`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()

		kind, err := usecase.ParseExportKind(viper.GetString(exportKindKey))
		if err != nil {
			return err
		}

		reporting, cleanup, err := app.InitializeReporting()
		if err != nil {
			return err
		}
		defer cleanup()

		filter := viper.GetString(exportFilterKey)
		if viper.GetBool(exportS3Key) {
			return uploadExport(ctx, cmd, reporting, kind, filter)
		}

		outputPath, gzipEnabled := resolveExportOutput(viper.GetString(exportOutputKey), kind, viper.GetBool(exportGzipKey))

		var (
			writer   = cmd.OutOrStdout()
			closeFns []func() error
		)

		if outputPath != "-" {
			if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
			file, openErr := os.Create(outputPath)
			if openErr != nil {
				return fmt.Errorf("create export file: %w", openErr)
			}
			writer = file
			closeFns = append(closeFns, file.Close)
		}

		if gzipEnabled {
			gz := gzip.NewWriter(writer)
			writer = gz
			closeFns = append([]func() error{gz.Close}, closeFns...)
		}

		defer func() {
			for _, closer := range closeFns {
				if cerr := closer(); cerr != nil && err == nil {
					err = cerr
				}
			}
		}()

		if err := reporting.Reports.WriteCSV(ctx, writer, kind, filter); err != nil {
			return fmt.Errorf("export %s: %w", kind, err)
		}

		if outputPath != "-" {
			cmd.Printf("export complete: %s\n", outputPath)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("kind", string(usecase.ExportTranslations), "projection to export: metadata, translations or progress")
	exportCmd.Flags().StringP("output", "o", "", "output file, - for stdout (default user_<kind>.csv)")
	exportCmd.Flags().String("filter", "", `CEL filter over users, e.g. 'progress >= 50.0'`)
	exportCmd.Flags().Bool("gzip", false, "gzip the output")
	exportCmd.Flags().Bool("s3", false, "upload to the configured export.s3 bucket instead of writing a file")

	bindExportConfig()
}

func bindExportConfig() {
	bindFlagToViper(exportKindKey, exportCmd.Flags().Lookup("kind"))
	bindFlagToViper(exportOutputKey, exportCmd.Flags().Lookup("output"))
	bindFlagToViper(exportFilterKey, exportCmd.Flags().Lookup("filter"))
	bindFlagToViper(exportGzipKey, exportCmd.Flags().Lookup("gzip"))
	bindFlagToViper(exportS3Key, exportCmd.Flags().Lookup("s3"))
}

// resolveExportOutput picks the default file name for the kind and turns on
// gzip for .gz paths.
func resolveExportOutput(output string, kind usecase.ExportKind, gzipEnabled bool) (string, bool) {
	output = strings.TrimSpace(output)
	if output == "" {
		output = kind.FileName()
		if gzipEnabled {
			output += ".gz"
		}
	}
	if !gzipEnabled && output != "-" && strings.HasSuffix(strings.ToLower(output), ".gz") {
		gzipEnabled = true
	}
	return output, gzipEnabled
}

func uploadExport(ctx context.Context, cmd *cobra.Command, reporting *app.Reporting, kind usecase.ExportKind, filter string) error {
	uploader, err := objectstore.NewUploader(ctx, reporting.Config.Export.S3)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := reporting.Reports.WriteCSV(ctx, &buf, kind, filter); err != nil {
		return fmt.Errorf("export %s: %w", kind, err)
	}
	key, err := uploader.Upload(ctx, kind.FileName(), "text/csv; charset=utf-8", buf.Bytes())
	if err != nil {
		return err
	}
	reporting.Logger.WithField("key", key).Info("export uploaded")
	_, err = io.WriteString(cmd.OutOrStdout(), key+"\n")
	return err
}
