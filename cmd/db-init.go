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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eslsoft/yorlect/internal/infrastructure/config"
	"github.com/eslsoft/yorlect/internal/infrastructure/database"
)

// dbInitCmd applies the embedded migrations to the configured SQL store.
var dbInitCmd = &cobra.Command{
	Use:   "db-init",
	Short: "Create or upgrade the progress tables",
	Long:  "Runs the embedded migrations against the sqlite3 or postgres store. Note: go-sqlite3 needs CGO_ENABLED=1.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		driver, err := cfg.DatabaseDriver()
		if err != nil {
			return err
		}
		if driver == "json" {
			return fmt.Errorf("db-init needs a sql store driver, got %q", driver)
		}

		db, cleanup, err := database.NewConnection(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := database.RunMigrations(cmd.Context(), db, driver); err != nil {
			return err
		}
		cmd.Printf("migrations applied (%s)\n", driver)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbInitCmd)

	dbInitCmd.Flags().String("dsn", "", "database connection string, overrides database.* settings")
	bindFlagToViper("database.dsn", dbInitCmd.Flags().Lookup("dsn"))
}
