package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/bitfantasy/rmqc/internal/config"
	"github.com/bitfantasy/rmqc/internal/rm/engine"
	"github.com/spf13/cobra"
)

var limitsCmd = &cobra.Command{
	Use:   "limits",
	Short: "Print the effective spec limits and tolerance bands",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		eng, err := cfg.Inspection.NewEngine()
		if err != nil {
			return fmt.Errorf("invalid inspection config: %w", err)
		}
		return printLimits(cmd.OutOrStdout(), eng)
	},
}

func printLimits(out io.Writer, eng *engine.Engine) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ATTRIBUTE\tMIN\tMAX")
	for _, l := range eng.Validator().Limits().All() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", l.Attribute.Label(), bound(l.Min), bound(l.Max))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "CLASS\tSTANDARD\tMIN\tMAX")
	for _, b := range eng.Bands().Bands() {
		fmt.Fprintf(w, "%s\t%g\t%g\t%g\n", b.Class, b.Standard, b.Min, b.Max)
	}
	fmt.Fprintf(w, "\nladle check gates material: %v\n", eng.LadleGates())
	return w.Flush()
}

func bound(p *float64) string {
	if p == nil {
		return "-"
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}
