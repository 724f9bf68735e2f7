package research

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shelfmetrics/enrich-cli/internal/model"
)

// Warning codes attached to a run's metadata when it ends without a
// complete record.
const (
	WarnNixNotFound            = "NIX_NOT_FOUND"
	WarnCompatibilityUncertain = "COMPATIBILITY_UNCERTAIN"
	WarnRelatedMissing         = "RELATED_MISSING"
	WarnFAQMissing             = "FAQ_MISSING"
	WarnImagesMissing          = "IMAGES_MISSING"
	WarnBudgetExhausted        = "BUDGET_EXHAUSTED"
	WarnNoProgress             = "NO_PROGRESS"
)

// consecutive zero-URL collect passes that end the loop
const noProgressLimit = 2

// RunResult is the outcome of one research run.
type RunResult struct {
	Record *model.EnrichedRecord  `json:"record"`
	Report GateReport             `json:"report"`
	Logs   []string               `json:"logs,omitempty"`
	Status model.AutomationStatus `json:"status"`
}

// Orchestrator drives the Plan, Collect, Extract, Merge, Gate loop for a
// single record until the record validates, a budget runs out, or a
// critical provider error aborts the run. One iteration completes fully
// before the next begins so budget accounting stays exact.
type Orchestrator struct {
	planner   *Planner
	collector *Collector
	extractor *Extractor
	merger    *Merger
	gate      *Gate

	now func() time.Time
}

// NewOrchestrator wires the loop components together.
func NewOrchestrator(planner *Planner, collector *Collector, extractor *Extractor, merger *Merger, gate *Gate) *Orchestrator {
	return &Orchestrator{
		planner:   planner,
		collector: collector,
		extractor: extractor,
		merger:    merger,
		gate:      gate,
		now:       time.Now,
	}
}

// Run executes the research loop for the given identity. The returned
// record always carries one of done, needs_review, or failed; a run never
// reports done unless the record validated at exit.
func (o *Orchestrator) Run(ctx context.Context, id model.Identity, mode model.Mode, locale string, budget model.Budget) RunResult {
	rec := model.NewRecord(id)
	rec.Meta = model.RunMeta{
		RunID:  uuid.NewString(),
		Mode:   mode,
		Locale: locale,
		Budget: budget,
	}

	log := zap.L().With(zap.String("run_id", rec.Meta.RunID))
	start := o.now()
	seen := make(map[string]bool)

	// logs is the append-only audit trace exposed to the caller. It is
	// never read back for control flow.
	var logs []string
	logf := func(format string, args ...any) {
		line := fmt.Sprintf(format, args...)
		logs = append(logs, line)
		log.Info(line)
	}

	logf("run started: %q mode=%s locale=%s", id.Raw, mode, locale)

	stats := &rec.Meta.Stats
	emptyCollects := 0
	var exitWarning string

loop:
	for iteration := 1; ; iteration++ {
		stats.ElapsedMS = o.now().Sub(start).Milliseconds()

		// Budgets are checked only at iteration boundaries; provider calls
		// carry their own bounded latency.
		if stats.ElapsedMS >= budget.TimeMS || stats.SearchCalls >= budget.MaxCalls {
			exitWarning = WarnBudgetExhausted
			logf("iteration %d: budget exhausted (elapsed=%dms calls=%d)", iteration, stats.ElapsedMS, stats.SearchCalls)
			break
		}

		missing, escalate := o.assess(rec)
		plan := o.planner.Plan(rec, missing, escalate)
		if plan.Empty() {
			logf("iteration %d: empty plan, stopping", iteration)
			break
		}
		stats.Iterations = iteration
		needed := 0
		for _, cp := range plan.Categories {
			if cp.Needed {
				needed++
			}
		}
		logf("iteration %d: planning %d categories", iteration, needed)

		findings, err := o.collector.Collect(ctx, plan, iteration, budget, stats, seen)
		if err != nil {
			// Collect surfaces only critical provider errors; everything
			// recoverable is absorbed inside the pass.
			rec.Status = model.StatusFailed
			logf("iteration %d: aborted on critical provider error: %v", iteration, err)
			o.finish(rec, start, exitWarning)
			return RunResult{Record: rec, Report: o.gate.Evaluate(rec), Logs: logs, Status: rec.Status}
		}

		newURLs := 0
		for _, f := range findings {
			newURLs += len(f.URLs)
		}
		logf("iteration %d: collected %d new sources", iteration, newURLs)

		if newURLs == 0 {
			emptyCollects++
			if emptyCollects >= noProgressLimit {
				exitWarning = WarnNoProgress
				logf("iteration %d: no progress after %d empty passes, stopping", iteration, emptyCollects)
				break loop
			}
			continue
		}
		emptyCollects = 0

		result := o.extractor.Extract(ctx, findings, rec, budget.StrictSources, stats)
		for _, note := range result.ExclusionNotes {
			o.merger.AppendExclusionNote(rec, note)
		}

		merged := 0
		for _, partial := range result.Partials {
			if o.merger.Merge(rec, partial) {
				merged++
			}
		}
		logf("iteration %d: extracted %d partials, %d merged", iteration, len(result.Partials), merged)

		if IsValidationSatisfied(rec) {
			rec.Status = model.StatusDone
			logf("iteration %d: record complete", iteration)
			break
		}
	}

	o.finish(rec, start, exitWarning)
	logf("run finished: status=%s warnings=%v", rec.Status, rec.Meta.Warnings)
	return RunResult{Record: rec, Report: o.gate.Evaluate(rec), Logs: logs, Status: rec.Status}
}

// assess derives the categories still missing from the record and which
// of them deserve escalated queries next round.
func (o *Orchestrator) assess(rec *model.EnrichedRecord) ([]model.Category, map[model.Category]bool) {
	var missing []model.Category
	escalate := make(map[model.Category]bool)

	if rec.Packaging == nil {
		missing = append(missing, model.CategoryLogistics)
	}
	comp := rec.Compatibility
	if len(comp.Printers) == 0 || !comp.Trusted {
		missing = append(missing, model.CategoryCompatibility)
		if len(comp.Printers) > 0 || comp.NeedsReview {
			escalate[model.CategoryCompatibility] = true
		}
	}
	if len(rec.Related) == 0 {
		missing = append(missing, model.CategoryRelated)
	}
	if len(rec.Images) == 0 {
		missing = append(missing, model.CategoryImages)
	}
	if len(rec.FAQ) == 0 {
		missing = append(missing, model.CategoryFAQ)
	}
	return missing, escalate
}

// finish seals the record: final elapsed time and warnings for whatever
// remains unresolved. Status stays needs_review unless the loop already
// promoted it to done or demoted it to failed.
func (o *Orchestrator) finish(rec *model.EnrichedRecord, start time.Time, exitWarning string) {
	rec.Meta.Stats.ElapsedMS = o.now().Sub(start).Milliseconds()

	if exitWarning != "" {
		rec.Meta.Warnings = model.AppendUnique(rec.Meta.Warnings, exitWarning)
	}
	if rec.Status == model.StatusDone {
		return
	}

	if rec.Packaging == nil {
		rec.Meta.Warnings = model.AppendUnique(rec.Meta.Warnings, WarnNixNotFound)
	}
	if len(rec.Compatibility.Printers) == 0 || !rec.Compatibility.Trusted {
		rec.Meta.Warnings = model.AppendUnique(rec.Meta.Warnings, WarnCompatibilityUncertain)
	}
	if len(rec.Related) == 0 {
		rec.Meta.Warnings = model.AppendUnique(rec.Meta.Warnings, WarnRelatedMissing)
	}
	if len(rec.FAQ) == 0 {
		rec.Meta.Warnings = model.AppendUnique(rec.Meta.Warnings, WarnFAQMissing)
	}
	if len(rec.Images) == 0 {
		rec.Meta.Warnings = model.AppendUnique(rec.Meta.Warnings, WarnImagesMissing)
	}
}
