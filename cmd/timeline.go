package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/davestroud/publix/internal/expansion"
	"github.com/davestroud/publix/internal/store"
)

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Show the chain's expansion history in a state",
	Long: `Reconstructs when the chain entered each city of a state from store
opening dates, with per-year counts, expansion velocity, and a market
maturity classification.

Examples:
  timeline --state FL
  timeline --state GA --format json`,
	RunE: runTimeline,
}

func init() {
	f := timelineCmd.Flags()
	f.String("state", "", "two-letter state code (required)")
	f.String("format", "table", "output format: table or json")
	_ = timelineCmd.MarkFlagRequired("state")

	rootCmd.AddCommand(timelineCmd)
}

func runTimeline(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	state, _ := cmd.Flags().GetString("state")
	format, _ := cmd.Flags().GetString("format")

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	stores, err := st.ListStores(ctx, store.StoreFilter{Chain: cfg.Chain.Name, State: state})
	if err != nil {
		return eris.Wrap(err, "timeline: list stores")
	}

	tl := expansion.AnalyzeTimeline(stores, state)
	if tl == nil {
		return eris.Errorf("timeline: no dated %s stores in %s", cfg.Chain.Name, state)
	}
	maturity := expansion.ClassifyMaturity(tl.TotalStores, tl.ExpansionVelocity)

	if format == "json" {
		return printJSON(map[string]any{
			"timeline": tl,
			"maturity": maturity,
		})
	}

	formatTimeline(os.Stdout, tl, maturity)
	return nil
}

func formatTimeline(out io.Writer, tl *expansion.Timeline, maturity expansion.Maturity) {
	fmt.Fprintf(out, "%s expansion in %s\n", cfg.Chain.Name, tl.State)
	fmt.Fprintf(out, "First store: %s\n", tl.FirstStoreDate.Format("2006-01-02"))
	fmt.Fprintf(out, "Total stores: %d\n", tl.TotalStores)
	fmt.Fprintf(out, "Velocity: %.1f stores/year\n", tl.ExpansionVelocity)
	fmt.Fprintf(out, "Maturity: %s\n\n", maturity)

	years := make([]int, 0, len(tl.StoresByYear))
	for y := range tl.StoresByYear {
		years = append(years, y)
	}
	sort.Ints(years)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "YEAR\tSTORES OPENED")
	for _, y := range years {
		_, _ = fmt.Fprintf(w, "%d\t%d\n", y, tl.StoresByYear[y])
	}
	_ = w.Flush()

	fmt.Fprintln(out)
	cw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(cw, "CITY\tENTERED")
	for _, e := range tl.CitiesEntered {
		_, _ = fmt.Fprintf(cw, "%s, %s\t%s\n", e.City, e.State, e.EnteredAt.Format("2006-01-02"))
	}
	_ = cw.Flush()
}
