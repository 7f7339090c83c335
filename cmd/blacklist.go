package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var blacklistCmd = &cobra.Command{
	Use:   "blacklist",
	Short: "Maintain the recipient blacklist",
}

var blacklistExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write every blacklist entry as JSON to a file or stdout",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := blacklistUsecase.Export(cmd.Context())
		if err != nil {
			return err
		}
		if len(args) == 0 {
			_, err = cmd.OutOrStdout().Write(append(data, '\n'))
			return err
		}
		if err := os.WriteFile(args[0], data, 0o644); err != nil {
			return err
		}
		logrus.Infof("[BLACKLIST] Exported to %s", args[0])
		return nil
	},
}

var blacklistImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Merge a previous export into the blacklist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		imported, err := blacklistUsecase.Import(cmd.Context(), data)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d entries imported\n", imported)
		return nil
	},
}

var blacklistSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Purge entries older than the maximum age",
	RunE: func(cmd *cobra.Command, _ []string) error {
		removed, err := blacklistUsecase.Sweep(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d entries purged\n", removed)
		return nil
	},
}

func init() {
	blacklistCmd.PersistentPostRun = func(*cobra.Command, []string) { StopApp() }
	blacklistCmd.AddCommand(blacklistExportCmd, blacklistImportCmd, blacklistSweepCmd)
	rootCmd.AddCommand(blacklistCmd)
}
