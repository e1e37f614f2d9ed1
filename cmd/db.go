package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pythonkids/pad/internal/config"
	"github.com/pythonkids/pad/internal/store"
	"github.com/pythonkids/pad/internal/utils"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Back up and restore the application database",
}

var dbExportCmd = &cobra.Command{
	Use:   "export [dest]",
	Short: "Copy the application database to a file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := config.AppDBPath()
		if err != nil {
			return err
		}
		var dst string
		if len(args) == 1 {
			dst = args[0]
		} else {
			dst = defaultExportPath()
		}
		if err := store.ExportDatabase(src, dst); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported database to %s\n", dst)
		return nil
	},
}

var dbImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the application database from a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")

		dst, err := config.AppDBPath()
		if err != nil {
			return err
		}
		overwrite := false
		if _, err := os.Stat(dst); err == nil {
			if !yes && !utils.Confirm(fmt.Sprintf("Replace %s? (a .bak copy is kept)", dst)) {
				cmd.Println("aborted")
				return nil
			}
			overwrite = true
		}
		if err := store.ImportDatabase(args[0], dst, overwrite); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %s to %s\n", args[0], dst)
		return nil
	},
}

// defaultExportPath picks pad-export-<date>.db in the working directory,
// suffixing a counter when the name is taken.
func defaultExportPath() string {
	date := time.Now().UTC().Format("2006-01-02")
	dst := fmt.Sprintf("pad-export-%s.db", date)
	for i := 1; ; i++ {
		if _, err := os.Stat(dst); os.IsNotExist(err) {
			return dst
		}
		dst = fmt.Sprintf("pad-export-%s-%d.db", date, i)
	}
}

func init() {
	dbImportCmd.Flags().Bool("yes", false, "Replace an existing database without asking")
	dbCmd.AddCommand(dbExportCmd)
	dbCmd.AddCommand(dbImportCmd)
	rootCmd.AddCommand(dbCmd)
}
