package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ternarybob/pitwall/internal/scenarios"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List verification scenarios",
	Run: func(cmd *cobra.Command, args []string) {
		enabled := map[string]bool{}
		for _, name := range config.Scenarios.Enabled {
			enabled[name] = true
		}

		for _, s := range scenarios.All() {
			marker := " "
			if len(enabled) == 0 || enabled[s.Name] {
				marker = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %-20s %s\n", marker, s.Name, s.Description)
		}
	},
}
