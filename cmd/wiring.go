package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/shelfmetrics/enrich-cli/internal/llmextract"
	"github.com/shelfmetrics/enrich-cli/internal/model"
	"github.com/shelfmetrics/enrich-cli/internal/providers"
	"github.com/shelfmetrics/enrich-cli/internal/research"
	"github.com/shelfmetrics/enrich-cli/internal/scrape"
	"github.com/shelfmetrics/enrich-cli/internal/store"
	anthropicpkg "github.com/shelfmetrics/enrich-cli/pkg/anthropic"
	"github.com/shelfmetrics/enrich-cli/pkg/firecrawl"
	"github.com/shelfmetrics/enrich-cli/pkg/jina"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		path := cfg.Store.Path
		if path == "" {
			path = "enrich.db"
		}
		return store.NewSQLite(path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func sourceConfig() research.SourceConfig {
	return research.SourceConfig{
		OEMDomains:       cfg.Sources.OEMDomains,
		RetailerDomains:  cfg.Sources.RetailerDomains,
		CatalogDomains:   cfg.Sources.CatalogDomains,
		MarketplaceHosts: cfg.Sources.MarketplaceHosts,
		ForumMarkers:     cfg.Sources.ForumMarkers,
	}
}

// buildOrchestrator wires the provider clients into a research loop sized
// for one run budget.
func buildOrchestrator(budget model.Budget, locale string) *research.Orchestrator {
	jinaClient := jina.NewClient(cfg.Jina.Key,
		jina.WithBaseURL(cfg.Jina.BaseURL),
		jina.WithSearchBaseURL(cfg.Jina.SearchBaseURL),
	)
	firecrawlClient := firecrawl.NewClient(cfg.Firecrawl.Key,
		firecrawl.WithBaseURL(cfg.Firecrawl.BaseURL),
	)

	var extract research.ExtractClient = providers.NewFirecrawlExtract(firecrawlClient)
	if cfg.Anthropic.Key != "" {
		chain := scrape.NewChain(
			scrape.NewJinaScraper(jinaClient),
			scrape.NewFirecrawlScraper(firecrawlClient),
			scrape.NewLocalScraper(),
		)
		llm := anthropicpkg.NewClient(cfg.Anthropic.Key)
		extract = &research.FallbackExtractor{
			Primary:  extract,
			Fallback: llmextract.New(chain, llm, cfg.Anthropic.Model, int64(cfg.Anthropic.MaxTokens)),
		}
	}

	tiers := research.NewTierClassifier(sourceConfig())
	planner := research.NewPlanner(research.PlannerConfig{
		QueryCap:        budget.QueryCap,
		CatalogDomains:  cfg.Sources.CatalogDomains,
		RetailerDomains: cfg.Sources.RetailerDomains,
		OEMDomains:      cfg.Sources.OEMDomains,
	})
	collector := research.NewCollector(providers.NewJinaSearch(jinaClient), research.CollectorConfig{
		SearchLimit:      cfg.Research.SearchLimit,
		Locale:           locale,
		RateLimitBackoff: time.Duration(cfg.Research.RateLimitBackoffMS) * time.Millisecond,
		RatePerSec:       cfg.Research.RatePerSec,
		RateBurst:        cfg.Research.RateBurst,
	})

	return research.NewOrchestrator(
		planner,
		collector,
		research.NewExtractor(extract, tiers),
		research.NewMerger(tiers),
		research.NewGate(tiers),
	)
}
