package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Deletes the ledger state",
	Long:  `Removes the state database so the next run starts a fresh chain.`,
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := os.Remove(cfg.DB.Path); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "remove %s", cfg.DB.Path)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", cfg.DB.Path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
