package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"boxer-arena/internal/scenario"
)

// runCmd plays one or more scenario files
var runCmd = &cobra.Command{
	Use:   "run [scenario.yaml...]",
	Short: "Run scenario files and print a summary",
	Long: `Steps a fresh simulation through each script and prints the final
state and event counts. Exits non-zero if any expectation fails.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		events, _ := cmd.Flags().GetBool("events")
		asJSON, _ := cmd.Flags().GetBool("json")
		out := cmd.OutOrStdout()

		failed := false
		for _, path := range args {
			sc, err := scenario.Load(path)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}

			res := sc.Run()
			if asJSON {
				writeJSONResult(out, res)
			} else {
				printSummary(out, path, res, events)
			}
			if !res.Passed() {
				failed = true
			}
		}

		if failed {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolP("events", "e", false, "List every event, not just counts")
	runCmd.Flags().Bool("json", false, "Print results as JSON")
}

func printSummary(w io.Writer, path string, res *scenario.Result, events bool) {
	name := res.Name
	if name == "" {
		name = path
	}
	snap := res.Final

	fmt.Fprintf(w, "== %s (%d ticks)\n", name, res.Ticks)
	fmt.Fprintf(w, "phase:    %s\n", snap.Phase)
	fmt.Fprintf(w, "player:   %s hp %d/%d dmg %d def %d x %d\n",
		snap.Player.State, snap.Player.Health, snap.Player.MaxHealth,
		snap.Player.Damage, snap.Player.Defense, snap.Player.X)
	fmt.Fprintf(w, "enemy:    %s hp %d/%d x %d boss %t\n",
		snap.Enemy.State, snap.Enemy.Health, snap.Enemy.MaxHealth, snap.Enemy.X, snap.Enemy.Boss)
	fmt.Fprintf(w, "score:    %d  coins: %d  killed: %d  combo: %d  power: %d/%d\n",
		snap.Score, snap.Coins, snap.EnemiesKilled, snap.Combo, snap.Power, snap.PowerMax)

	fmt.Fprintln(w, "events:")
	for _, c := range res.EventCounts() {
		fmt.Fprintf(w, "  %-18s %d\n", c.Type, c.Count)
	}

	if events {
		fmt.Fprintln(w, "timeline:")
		for _, ev := range res.Events {
			fmt.Fprintf(w, "  %6d %7dms %s\n", ev.Tick, ev.AtMs, ev.Type)
		}
	}

	if res.Passed() {
		fmt.Fprintln(w, "result:   ok")
		return
	}
	fmt.Fprintln(w, "result:   FAILED")
	for _, f := range res.Failures {
		fmt.Fprintf(w, "  - %s\n", f)
	}
}

func writeJSONResult(w io.Writer, res *scenario.Result) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(map[string]interface{}{
		"name":     res.Name,
		"ticks":    res.Ticks,
		"final":    res.Final,
		"events":   res.Events,
		"failures": res.Failures,
	})
}
