// Command boxer-sim runs combat scenarios headless, without a clock,
// audio or network.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "boxer-sim",
	Short: "Headless boxer-arena combat runner",
	Long: `Runs scripted fights against the combat simulation and prints
what happened. Scripts are YAML files listing intents per tick.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
