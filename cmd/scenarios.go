package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sagecrest/cme-engine/internal/scenario"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List the built-in stress scenarios",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		fmt.Fprintln(w, "Available stress scenarios:")
		fmt.Fprintln(w)
		for _, name := range scenario.PresetNames {
			s, err := scenario.Preset(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "  %-28s %s\n", name, s.Description)
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Run one with: cme run --scenario <name>")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scenariosCmd)
}
