package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"boxer-arena/internal/config"
)

// balanceCmd prints the effective balance table
var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print the effective balance as YAML",
	Long: `Prints the default balance, overlaid with --file or BALANCE_FILE
when given. The output is itself a valid balance file.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		path, _ := cmd.Flags().GetString("file")
		if path == "" {
			path = config.SimFromEnv().BalancePath
		}

		b, err := config.LoadBalance(path)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		out, err := config.EncodeBalance(b)
		if err != nil {
			fmt.Printf("Error encoding balance: %v\n", err)
			os.Exit(1)
		}
		cmd.OutOrStdout().Write(out)
	},
}

func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().StringP("file", "f", "", "Balance YAML to overlay on the defaults")
}
