package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shelfmetrics/enrich-cli/internal/model"
	"github.com/shelfmetrics/enrich-cli/internal/seed"
	"github.com/shelfmetrics/enrich-cli/internal/store"
)

var (
	enrichMode    string
	enrichLocale  string
	enrichStrict  bool
	enrichNoStore bool
)

var enrichCmd = &cobra.Command{
	Use:   "enrich <query>",
	Short: "Research a single product query and print the enriched record",
	Long: `Runs the full research loop for one unstructured product query
(for example "HP W1331X") and prints the enriched record, the gate
report, and the run log as JSON.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEnrich,
}

func init() {
	enrichCmd.Flags().StringVar(&enrichMode, "mode", "standard", "Budget mode: fast, standard, or exhaustive")
	enrichCmd.Flags().StringVar(&enrichLocale, "locale", "", "Locale hint for search queries (defaults to config)")
	enrichCmd.Flags().BoolVar(&enrichStrict, "strict-sources", false, "Restrict logistics extraction to catalog sources")
	enrichCmd.Flags().BoolVar(&enrichNoStore, "no-store", false, "Skip persisting the run")
	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	query := strings.Join(args, " ")

	mode := model.Mode(enrichMode)
	budget, err := cfg.BudgetFor(mode, enrichStrict)
	if err != nil {
		return err
	}
	locale := enrichLocale
	if locale == "" {
		locale = cfg.Research.Locale
	}

	id := seed.Parse(query)
	if id.Model == "" {
		zap.L().Warn("no model number recognized in query", zap.String("query", query))
	}

	var (
		st    store.Store
		runID string
	)
	if !enrichNoStore {
		st, err = initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return err
		}
		run, err := st.CreateRun(ctx, query, mode)
		if err != nil {
			return err
		}
		runID = run.ID
	}

	zap.L().Info("starting research run",
		zap.String("query", query),
		zap.String("mode", string(mode)),
		zap.String("locale", locale),
	)

	orch := buildOrchestrator(budget, locale)
	result := orch.Run(ctx, id, mode, locale, budget)

	if !enrichNoStore {
		if err := st.SaveResult(ctx, runID, result.Record, result.Logs, result.Status); err != nil {
			zap.L().Error("failed to persist run result", zap.String("run_id", runID), zap.Error(err))
		}
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return eris.Wrap(err, "enrich: marshal result")
	}
	fmt.Fprintln(os.Stdout, string(out))

	if result.Status == model.StatusFailed {
		return eris.New("enrich: run failed, see logs")
	}
	return nil
}
