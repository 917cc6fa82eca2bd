package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/listing-atlas/internal/tier"
)

// tiersCmd takes no flags so that negative prices such as -5 reach
// classifyArgs instead of the flag parser.
var tiersCmd = &cobra.Command{
	Use:                "tiers [price...]",
	Short:              "Print the price tier table, or classify the given prices",
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		args, help := priceArgs(args)
		if help {
			return cmd.Help()
		}
		table, err := cfg.TierTable()
		if err != nil {
			return err
		}
		if len(args) == 0 {
			return printTiers(cmd.OutOrStdout(), table)
		}
		return classifyArgs(cmd.OutOrStdout(), table, args)
	},
}

func init() {
	rootCmd.AddCommand(tiersCmd)
}

// priceArgs drops a "--" separator and reports whether help was requested.
func priceArgs(args []string) ([]string, bool) {
	out := make([]string, 0, len(args))
	for _, a := range args {
		switch a {
		case "-h", "--help":
			return nil, true
		case "--":
			continue
		}
		out = append(out, a)
	}
	return out, false
}

func printTiers(out io.Writer, table *tier.Table) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "UP TO\tTIER\tMARKER SIZE")
	for _, b := range table.Bounds() {
		_, _ = fmt.Fprintf(w, "%g\t%s\t%g\n", b.Max, b.Tier.Label, b.Tier.Size)
	}
	top := table.Top()
	_, _ = fmt.Fprintf(w, "above\t%s\t%g\n", top.Label, top.Size)
	return w.Flush()
}

func classifyArgs(out io.Writer, table *tier.Table, args []string) error {
	values := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return eris.Wrapf(err, "tiers: parse %q", a)
		}
		values[i] = v
	}

	tiers, err := table.Classify(values)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PRICE\tTIER\tMARKER SIZE")
	for i, t := range tiers {
		_, _ = fmt.Fprintf(w, "%g\t%s\t%g\n", values[i], t.Label, t.Size)
	}
	return w.Flush()
}
