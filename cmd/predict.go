package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/davestroud/publix/internal/expansion"
	"github.com/davestroud/publix/internal/model"
	"github.com/davestroud/publix/internal/narrative"
	"github.com/davestroud/publix/internal/store"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict the chain's next expansion cities",
	Long: `Ranks a state's cities by expansion opportunity, drops cities the
chain has already entered, and saves the top predictions. With an Anthropic
API key configured, each prediction gets a narrative evaluation.

Examples:
  predict --state GA
  predict --state GA --top 3
  predict --list --state GA --limit 20`,
	RunE: runPredict,
}

func init() {
	f := predictCmd.Flags()
	f.String("state", "", "two-letter state code (required)")
	f.Int("top", 5, "number of opportunities to consider")
	f.Int("limit", 50, "max predictions to display with --list")
	f.Bool("list", false, "list saved predictions instead of generating new ones")
	f.Bool("no-save", false, "print predictions without persisting them")
	f.String("format", "table", "output format: table or json")
	_ = predictCmd.MarkFlagRequired("state")

	rootCmd.AddCommand(predictCmd)
}

func runPredict(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	state, _ := cmd.Flags().GetString("state")
	top, _ := cmd.Flags().GetInt("top")
	limit, _ := cmd.Flags().GetInt("limit")
	list, _ := cmd.Flags().GetBool("list")
	noSave, _ := cmd.Flags().GetBool("no-save")
	format, _ := cmd.Flags().GetString("format")

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	if list {
		predictions, err := st.ListPredictions(ctx, state, limit)
		if err != nil {
			return eris.Wrap(err, "predict: list")
		}
		if format == "json" {
			return printJSON(predictions)
		}
		if len(predictions) == 0 {
			fmt.Fprintln(os.Stderr, "No saved predictions.")
			return nil
		}
		formatPredictions(os.Stdout, predictions)
		return nil
	}

	ranked, err := rankState(ctx, st, state, cfg.Analytics.MinPopulation, 8)
	if err != nil {
		return err
	}

	chainStores, err := st.ListStores(ctx, store.StoreFilter{Chain: cfg.Chain.Name, State: state})
	if err != nil {
		return eris.Wrap(err, "predict: list stores")
	}
	timeline := expansion.AnalyzeTimeline(chainStores, state)

	predictions := expansion.PredictNextCities(ranked, timeline, top)
	if len(predictions) == 0 {
		fmt.Fprintln(os.Stderr, "No new cities to predict.")
		return nil
	}

	synth := initSynthesizer()
	if synth != nil {
		attachNarratives(ctx, synth, predictions, ranked)
	}

	if !noSave {
		for _, p := range predictions {
			if err := st.SavePrediction(ctx, p); err != nil {
				return eris.Wrapf(err, "predict: save %s, %s", p.City, p.State)
			}
		}
		zap.L().Info("predictions saved",
			zap.String("state", state),
			zap.Int("count", len(predictions)),
		)
	}

	if format == "json" {
		return printJSON(predictions)
	}
	formatPredictions(os.Stdout, predictions)
	for _, p := range predictions {
		if p.Narrative != "" {
			fmt.Printf("\n%s, %s:\n%s\n", p.City, p.State, p.Narrative)
		}
	}
	return nil
}

// attachNarratives fills each prediction's Narrative in place. A failed
// evaluation leaves the field empty; the prediction is still useful.
func attachNarratives(ctx context.Context, synth *narrative.Synthesizer, predictions []model.Prediction, ranked []model.OpportunityScore) {
	byCity := make(map[string]model.OpportunityScore, len(ranked))
	for _, o := range ranked {
		byCity[o.City+"|"+o.State] = o
	}

	for i := range predictions {
		p := &predictions[i]
		cc := narrative.CityContext{City: p.City, State: p.State}
		if opp, ok := byCity[p.City+"|"+p.State]; ok {
			cc.Opportunity = &opp
		}

		result, err := synth.EvaluateCity(ctx, cc)
		if err != nil {
			zap.L().Warn("predict: narrative failed",
				zap.String("city", p.City),
				zap.String("state", p.State),
				zap.Error(err),
			)
			continue
		}
		if result.IsStructured() {
			p.Narrative = result.Structured.Summary
		} else {
			p.Narrative = result.Raw
		}
	}
}

func formatPredictions(out io.Writer, predictions []model.Prediction) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CITY\tPOPULATION\tSCORE\tCONFIDENCE\tFACTORS")
	for _, p := range predictions {
		factors := ""
		if len(p.ReasoningFactors) > 0 {
			factors = p.ReasoningFactors[0]
			if len(p.ReasoningFactors) > 1 {
				factors += fmt.Sprintf(" (+%d more)", len(p.ReasoningFactors)-1)
			}
		}
		_, _ = fmt.Fprintf(w, "%s, %s\t%d\t%.3f\t%.2f\t%s\n",
			p.City, p.State, p.Population, p.OpportunityScore, p.Confidence, factors)
	}
	_ = w.Flush()
}
