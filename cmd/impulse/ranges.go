package main

import (
	"fmt"
	"text/tabwriter"

	"rational-assistant/internal/analyzer"
	"rational-assistant/internal/models"

	"github.com/spf13/cobra"
)

func rangesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ranges",
		Short: "Show the default price ranges and their cooling-off periods",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, titleStyle.Render("FROM")+"\t"+titleStyle.Render("TO")+"\t"+titleStyle.Render("COOLING-OFF"))
			for _, r := range models.DefaultPriceRanges() {
				upper := "and more"
				if r.MaxPrice != nil {
					upper = analyzer.FormatMoney(*r.MaxPrice)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", analyzer.FormatMoney(r.MinPrice), upper, analyzer.Days(r.CoolingDays))
			}
			return w.Flush()
		},
	}
}
