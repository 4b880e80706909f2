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
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	adapterrepo "github.com/eslsoft/yorlect/internal/adapter/repository"
	"github.com/eslsoft/yorlect/internal/app"
	"github.com/eslsoft/yorlect/internal/entity"
)

const importGzipKey = "import.gzip"

var importCmd = &cobra.Command{
	Use:   "import <progress.json>",
	Short: "Copy a progress JSON file into the configured store",
	Long: `Reads a progress file in the web app's JSON format (use - for stdin) and
replaces the contents of the configured store with it. Registration order is
kept, so contributors keep their assigned sentence blocks.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()
		inputPath := args[0]
		gzipEnabled := viper.GetBool(importGzipKey)
		if !gzipEnabled && inputPath != "-" && strings.HasSuffix(strings.ToLower(inputPath), ".gz") {
			gzipEnabled = true
		}

		var (
			reader  = cmd.InOrStdin()
			closers []func() error
		)

		if inputPath != "-" {
			file, openErr := os.Open(filepath.Clean(inputPath))
			if openErr != nil {
				return fmt.Errorf("open progress file: %w", openErr)
			}
			reader = file
			closers = append(closers, file.Close)
		}

		defer func() {
			for _, closer := range closers {
				if cerr := closer(); cerr != nil && err == nil {
					err = cerr
				}
			}
		}()

		snapshot, err := readProgressFile(reader, gzipEnabled)
		if err != nil {
			return err
		}

		reporting, cleanup, err := app.InitializeReporting()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := reporting.Store.Save(ctx, snapshot); err != nil {
			return fmt.Errorf("save progress: %w", err)
		}

		cmd.Printf("import complete: %d users\n", snapshot.Len())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().Bool("gzip", false, "input is gzip compressed")

	bindFlagToViper(importGzipKey, importCmd.Flags().Lookup("gzip"))
}

func readProgressFile(r io.Reader, gzipEnabled bool) (*entity.ProgressSnapshot, error) {
	if gzipEnabled {
		gzr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("open gzip reader: %w", err)
		}
		defer gzr.Close()
		r = gzr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read progress file: %w", err)
	}
	snapshot, err := adapterrepo.DecodeProgressJSON(data)
	if err != nil {
		return nil, fmt.Errorf("decode progress file: %w", err)
	}
	return snapshot, nil
}
