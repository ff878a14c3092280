package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/psantana5/timekeeper/pkg/auth"
)

var generateKey bool

var hashKeyCmd = &cobra.Command{
	Use:   "hash-key [key]",
	Short: "Print the bcrypt hash of an API key",
	Long: `Prints the bcrypt hash to set as auth.api_key_hash in the server config.
With --generate a random key is created and printed along with its hash.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHashKey,
}

func init() {
	rootCmd.AddCommand(hashKeyCmd)
	hashKeyCmd.Flags().BoolVar(&generateKey, "generate", false, "generate a random key")
}

func runHashKey(cmd *cobra.Command, args []string) error {
	var key string
	switch {
	case generateKey && len(args) == 0:
		var err error
		if key, err = auth.GenerateAPIKey(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "key:  %s\n", key)
	case !generateKey && len(args) == 1:
		key = args[0]
	default:
		return fmt.Errorf("pass either a key or --generate")
	}

	hash, err := auth.HashAPIKey(key)
	if err != nil {
		return err
	}
	if generateKey {
		fmt.Fprintf(cmd.OutOrStdout(), "hash: %s\n", hash)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}
