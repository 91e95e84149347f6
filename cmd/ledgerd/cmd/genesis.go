package cmd

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blockberries/ledger/genesis"
)

// genesisCmd represents the genesis command
var genesisCmd = &cobra.Command{
	Use:   "genesis",
	Short: "Prints a freshly generated validator roster",
	Long:  `Generates a validator roster with the configured shape and prints one validator per line.`,
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		params, err := genesis.Bootstrap(rand.Reader, cfg.Chain)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for i, v := range params.Validators {
			fmt.Fprintf(out, "%d\ted25519:%s\t%d\n", i, hex.EncodeToString(v.PubKey.Data), v.VotingPower)
		}
		fmt.Fprintf(out, "total voting power: %d\n", params.TotalVotingPower())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(genesisCmd)
}
