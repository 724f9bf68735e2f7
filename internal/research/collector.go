package research

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/shelfmetrics/enrich-cli/internal/model"
	"github.com/shelfmetrics/enrich-cli/internal/resilience"
)

// CollectorConfig holds the provider-facing collect settings. Run
// ceilings (calls, sources, per-category URL limits) come from the run
// budget passed to Collect, never from here.
type CollectorConfig struct {
	// SearchLimit is the per-query result count requested from the provider.
	SearchLimit int
	// Locale is passed through to the provider.
	Locale string
	// RateLimitBackoff is the single fixed pause applied after a 429.
	RateLimitBackoff time.Duration
	// RatePerSec/RateBurst configure the shared limiter in front of the
	// provider. Zero disables limiting.
	RatePerSec float64
	RateBurst  int
}

// Collector executes the plan's search queries against the Search
// capability under budget. Categories run sequentially: the provider's
// rate limit is shared across them.
type Collector struct {
	search  SearchClient
	limiter *rate.Limiter
	cfg     CollectorConfig
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewCollector creates a Collector.
func NewCollector(search SearchClient, cfg CollectorConfig) *Collector {
	var limiter *rate.Limiter
	if cfg.RatePerSec > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), burst)
	}
	return &Collector{
		search:  search,
		limiter: limiter,
		cfg:     cfg,
		sleep:   sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Collect runs one pass over the plan under the run budget. It returns
// the per-category unique URL sets and updates stats for budget
// accounting. seen is the run-global dedup set; URLs already in it are
// not reported again.
//
// Error policy: auth/billing failures abort immediately (critical); a 429
// gets one fixed backoff and the query is retried once; any other failure
// is logged and the query skipped.
func (c *Collector) Collect(ctx context.Context, plan model.ResearchPlan, iteration int, budget model.Budget, stats *model.RunStats, seen map[string]bool) ([]model.Finding, error) {
	perCategory := budget.BaseURLLimit
	if iteration > 1 {
		perCategory += iteration - 1
	}

	var findings []model.Finding
	for _, cat := range model.AllCategories() {
		cp, ok := plan.Categories[cat]
		if !ok || len(cp.Queries) == 0 {
			continue
		}

		urls, err := c.collectCategory(ctx, cat, cp.Queries, perCategory, budget, stats, seen)
		if err != nil {
			return nil, eris.Wrap(err, "collector: category "+string(cat))
		}
		findings = append(findings, model.Finding{Category: cat, URLs: urls})
	}
	return findings, nil
}

func (c *Collector) collectCategory(ctx context.Context, cat model.Category, queries []string, limit int, budget model.Budget, stats *model.RunStats, seen map[string]bool) ([]string, error) {
	log := zap.L().With(zap.String("category", string(cat)))

	var urls []string
	for _, query := range queries {
		if len(urls) >= limit {
			break
		}
		if stats.SearchCalls >= budget.MaxCalls || stats.SourcesSeen >= budget.MaxSources {
			log.Debug("collector: budget reached mid-pass",
				zap.Int("search_calls", stats.SearchCalls),
				zap.Int("sources_seen", stats.SourcesSeen),
			)
			break
		}

		results, err := c.searchOnce(ctx, cat, query, stats)
		if err != nil {
			if resilience.IsCritical(err) {
				return nil, err
			}
			if resilience.IsRateLimited(err) {
				// One fixed backoff, then retry this query once.
				log.Warn("collector: rate limited, backing off",
					zap.Duration("backoff", c.cfg.RateLimitBackoff))
				if sleepErr := c.sleep(ctx, c.cfg.RateLimitBackoff); sleepErr != nil {
					return urls, nil
				}
				if stats.SearchCalls >= budget.MaxCalls {
					break
				}
				results, err = c.searchOnce(ctx, cat, query, stats)
				if err != nil {
					if resilience.IsCritical(err) {
						return nil, err
					}
					log.Warn("collector: query failed after backoff, skipping",
						zap.String("query", query), zap.Error(err))
					continue
				}
			} else {
				log.Warn("collector: query failed, skipping",
					zap.String("query", query), zap.Error(err))
				continue
			}
		}

		for _, r := range results {
			if len(urls) >= limit || stats.SourcesSeen >= budget.MaxSources {
				break
			}
			if r.URL == "" || seen[r.URL] {
				continue
			}
			seen[r.URL] = true
			urls = append(urls, r.URL)
			stats.SourcesSeen++
		}
	}
	return urls, nil
}

func (c *Collector) searchOnce(ctx context.Context, cat model.Category, query string, stats *model.RunStats) ([]SearchResult, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "collector: limiter wait")
		}
	}

	kind := ResultKindWeb
	if cat == model.CategoryImages {
		kind = ResultKindImages
	}

	stats.SearchCalls++
	return c.search.Search(ctx, query, SearchOptions{
		Limit:  c.cfg.SearchLimit,
		Locale: c.cfg.Locale,
		Kind:   kind,
	})
}
