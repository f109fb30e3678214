package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sagecrest/cme-engine/internal/catalog"
)

var defaultsFormat string

var defaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Print the full defaults catalog",
	Long:  "Prints every baseline assumption as an overridable dotted path, the same paths --override accepts.",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()

		if defaultsFormat == "json" {
			return writeJSON(w, catalog.AllDefaults())
		}

		fmt.Fprintf(w, "%-45s %s\n", "Path", "Default")
		fmt.Fprintln(w, strings.Repeat("-", 60))
		for _, d := range catalog.FlatDefaults() {
			fmt.Fprintf(w, "%-45s %s\n", d.Path, strconv.FormatFloat(d.Value, 'g', -1, 64))
		}
		return nil
	},
}

func init() {
	defaultsCmd.Flags().StringVar(&defaultsFormat, "format", "table", "output format: table or json")
	rootCmd.AddCommand(defaultsCmd)
}
