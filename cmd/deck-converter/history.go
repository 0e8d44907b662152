// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/deck-converter/internal/client"
	"github.com/pdiddy/deck-converter/internal/history"
	"github.com/pdiddy/deck-converter/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent conversions",
	Long: `History prints the most recent conversions from the local history
database (history.path), newest first, followed by totals per direction
and status. With --server the list is fetched from a running service.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", history.DefaultLimit, "maximum number of conversions to list")
	historyCmd.Flags().Bool("json", false, "output as JSON")
	historyCmd.Flags().Bool("yaml", false, "output as YAML")
	historyCmd.Flags().String("server", "", "base URL of a deck-converter service to query")
	historyCmd.MarkFlagsMutuallyExclusive("json", "yaml")

	rootCmd.AddCommand(historyCmd)
}

// historyReport is the --json and --yaml document.
type historyReport struct {
	Conversions []types.ConversionRecord                           `json:"conversions" yaml:"conversions"`
	Totals      map[types.Direction]map[types.ConversionStatus]int `json:"totals,omitempty" yaml:"totals,omitempty"`
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")
	asYAML, _ := cmd.Flags().GetBool("yaml")
	serverURL, _ := cmd.Flags().GetString("server")
	ctx := cmd.Context()

	var report historyReport
	if serverURL != "" {
		c, err := client.New(serverURL, log)
		if err != nil {
			return err
		}
		if report.Conversions, err = c.Conversions(ctx, limit); err != nil {
			return err
		}
	} else {
		if cfg.History.Path == "" {
			return fmt.Errorf("history is disabled: set history.path")
		}
		st, err := history.Open(cfg.History.Path, log)
		if err != nil {
			return err
		}
		defer st.Close()

		if report.Conversions, err = st.Recent(ctx, limit); err != nil {
			return err
		}
		if report.Totals, err = st.Counts(ctx); err != nil {
			return err
		}
	}
	if report.Conversions == nil {
		report.Conversions = []types.ConversionRecord{}
	}

	w := cmd.OutOrStdout()
	switch {
	case asJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case asYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(report)
	default:
		printHistory(w, report)
		return nil
	}
}

func printHistory(w io.Writer, report historyReport) {
	if len(report.Conversions) == 0 {
		fmt.Fprintln(w, "No conversions recorded.")
	} else {
		fmt.Fprintf(w, "%-20s  %-9s  %-10s  %-12s  %9s  %s\n", "STARTED", "DIRECTION", "STATUS", "METHOD", "DURATION", "FILE")
		for _, r := range report.Conversions {
			method := r.Method
			if method == "" {
				method = "-"
			}
			fmt.Fprintf(w, "%-20s  %-9s  %-10s  %-12s  %9s  %s\n",
				r.StartedAt.Local().Format(time.DateTime),
				r.Direction, r.Status, method,
				r.Duration.Round(time.Millisecond), r.Source)
		}
	}

	if len(report.Totals) == 0 {
		return
	}
	dirs := make([]string, 0, len(report.Totals))
	for d := range report.Totals {
		dirs = append(dirs, string(d))
	}
	sort.Strings(dirs)

	fmt.Fprintln(w)
	for _, d := range dirs {
		counts := report.Totals[types.Direction(d)]
		fmt.Fprintf(w, "%s: %d converted, %d failed\n", d,
			counts[types.ConversionDone], counts[types.ConversionFailed])
	}
}
