package main

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/shelfmetrics/enrich-cli/internal/model"
	"github.com/shelfmetrics/enrich-cli/internal/research"
	"github.com/shelfmetrics/enrich-cli/internal/seed"
	"github.com/shelfmetrics/enrich-cli/internal/store"
)

var (
	batchFile        string
	batchMode        string
	batchLocale      string
	batchStrict      bool
	batchLimit       int
	batchConcurrency int
	batchOutput      string
	batchNoStore     bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Research a file of product queries concurrently",
	Long: `Reads product queries from a CSV or XLSX file (one query per row,
first column) and runs the research loop for each. Per-query results are
persisted and a JSON summary is written to --output or stdout.`,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "", "path to CSV or XLSX file of queries (required)")
	batchCmd.Flags().StringVar(&batchMode, "mode", "fast", "Budget mode: fast, standard, or exhaustive")
	batchCmd.Flags().StringVar(&batchLocale, "locale", "", "Locale hint for search queries (defaults to config)")
	batchCmd.Flags().BoolVar(&batchStrict, "strict-sources", false, "Restrict logistics extraction to catalog sources")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max queries to process (0 = all)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "max queries in flight (default: config batch.max_concurrent)")
	batchCmd.Flags().StringVar(&batchOutput, "output", "", "write results JSON to file (default: stdout)")
	batchCmd.Flags().BoolVar(&batchNoStore, "no-store", false, "Skip persisting runs")
	_ = batchCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(batchCmd)
}

// batchEntry is one query's outcome in the summary output.
type batchEntry struct {
	Query  string                 `json:"query"`
	RunID  string                 `json:"run_id,omitempty"`
	Status model.AutomationStatus `json:"status"`
	Record *model.EnrichedRecord  `json:"record,omitempty"`
	Report *research.GateReport   `json:"report,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

func runBatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	queries, err := readQueries(batchFile)
	if err != nil {
		return err
	}
	if batchLimit > 0 && len(queries) > batchLimit {
		queries = queries[:batchLimit]
	}
	if len(queries) == 0 {
		zap.L().Info("no queries found in file", zap.String("file", batchFile))
		return nil
	}

	mode := model.Mode(batchMode)
	budget, err := cfg.BudgetFor(mode, batchStrict)
	if err != nil {
		return err
	}
	locale := batchLocale
	if locale == "" {
		locale = cfg.Research.Locale
	}
	concurrency := batchConcurrency
	if concurrency <= 0 {
		concurrency = cfg.Batch.MaxConcurrent
	}

	var st store.Store
	if !batchNoStore {
		st, err = initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return err
		}
	}

	zap.L().Info("processing batch",
		zap.Int("queries", len(queries)),
		zap.String("mode", string(mode)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var mu sync.Mutex
	entries := make([]batchEntry, len(queries))
	var succeeded, failed atomic.Int64

	for i, query := range queries {
		i, query := i, query
		g.Go(func() error {
			log := zap.L().With(zap.String("query", query))

			entry := batchEntry{Query: query}
			if st != nil {
				run, createErr := st.CreateRun(gctx, query, mode)
				if createErr != nil {
					log.Error("failed to create run", zap.Error(createErr))
					entry.Status = model.StatusFailed
					entry.Error = createErr.Error()
					failed.Add(1)
					mu.Lock()
					entries[i] = entry
					mu.Unlock()
					return nil // don't abort batch on individual failure
				}
				entry.RunID = run.ID
			}

			orch := buildOrchestrator(budget, locale)
			result := orch.Run(gctx, seed.Parse(query), mode, locale, budget)

			entry.Status = result.Status
			entry.Record = result.Record
			entry.Report = &result.Report

			if st != nil {
				if saveErr := st.SaveResult(gctx, entry.RunID, result.Record, result.Logs, result.Status); saveErr != nil {
					log.Error("failed to persist run result", zap.Error(saveErr))
				}
			}

			if result.Status == model.StatusFailed {
				failed.Add(1)
				log.Error("research failed", zap.Strings("warnings", result.Record.Meta.Warnings))
			} else {
				succeeded.Add(1)
				log.Info("research complete",
					zap.String("status", string(result.Status)),
					zap.Float64("score", result.Report.OverallScore),
					zap.Bool("publish_ready", result.Report.PublishReady),
				)
			}

			mu.Lock()
			entries[i] = entry
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()

	zap.L().Info("batch complete",
		zap.Int("total", len(queries)),
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)

	return writeBatchResults(entries)
}

// readQueries loads one query per row from the first column of a CSV or
// XLSX file. A leading "query" header row is skipped.
func readQueries(path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return readXLSXQueries(path)
	default:
		return readCSVQueries(path)
	}
}

func readCSVQueries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "batch: open csv")
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "batch: read csv")
	}

	var queries []string
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		queries = appendQuery(queries, row[0])
	}
	return queries, nil
}

func readXLSXQueries(path string) ([]string, error) {
	file, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "batch: open xlsx")
	}
	if len(file.Sheets) == 0 {
		return nil, eris.New("batch: xlsx file has no sheets")
	}

	var queries []string
	for _, row := range file.Sheets[0].Rows {
		if len(row.Cells) == 0 {
			continue
		}
		queries = appendQuery(queries, row.Cells[0].String())
	}
	return queries, nil
}

func appendQuery(queries []string, raw string) []string {
	q := strings.TrimSpace(raw)
	if q == "" || strings.EqualFold(q, "query") {
		return queries
	}
	return append(queries, q)
}

// writeBatchResults writes the summary to the output file or stdout.
func writeBatchResults(entries []batchEntry) error {
	var w *os.File
	if batchOutput != "" {
		f, err := os.Create(batchOutput)
		if err != nil {
			return eris.Wrap(err, "batch: create output file")
		}
		defer f.Close() //nolint:errcheck
		w = f
	} else {
		w = os.Stdout
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}
