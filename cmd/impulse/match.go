package main

import (
	"encoding/json"
	"fmt"

	"rational-assistant/internal/categories"

	"github.com/spf13/cobra"
)

func matchCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "match <category> <blacklisted>...",
		Short:   "Compare a product category with blacklisted categories",
		Example: `  impulse match "video games" games food`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := categories.MatchAll(args[0], args[1:])
			out := cmd.OutOrStdout()
			if asJSON {
				return json.NewEncoder(out).Encode(res)
			}
			if len(res.Matches) == 0 {
				fmt.Fprintln(out, "No similar blacklisted categories")
				return nil
			}
			for _, m := range res.Matches {
				fmt.Fprintf(out, "%3d%%  %s  (%s)\n", m.SimilarityScore, m.BlacklistedCategory, m.Reason)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}
