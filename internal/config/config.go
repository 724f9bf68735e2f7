package config

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/shelfmetrics/enrich-cli/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Jina      JinaConfig      `yaml:"jina" mapstructure:"jina"`
	Firecrawl FirecrawlConfig `yaml:"firecrawl" mapstructure:"firecrawl"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Research  ResearchConfig  `yaml:"research" mapstructure:"research"`
	Sources   SourcesConfig   `yaml:"sources" mapstructure:"sources"`
	Scrape    ScrapeConfig    `yaml:"scrape" mapstructure:"scrape"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Path        string `yaml:"path" mapstructure:"path"`
}

// JinaConfig holds Jina AI Reader and Search settings.
type JinaConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
}

// FirecrawlConfig holds Firecrawl API settings.
type FirecrawlConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// AnthropicConfig holds Anthropic API settings for the extraction
// fallback.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// BudgetConfig is one mode's run budget.
type BudgetConfig struct {
	TimeMS        int64 `yaml:"time_ms" mapstructure:"time_ms"`
	MaxCalls      int   `yaml:"max_calls" mapstructure:"max_calls"`
	MaxSources    int   `yaml:"max_sources" mapstructure:"max_sources"`
	QueryCap      int   `yaml:"query_cap" mapstructure:"query_cap"`
	BaseURLLimit  int   `yaml:"base_url_limit" mapstructure:"base_url_limit"`
	StrictSources bool  `yaml:"strict_sources" mapstructure:"strict_sources"`
}

// ResearchConfig configures the research loop.
type ResearchConfig struct {
	Locale             string                  `yaml:"locale" mapstructure:"locale"`
	Modes              map[string]BudgetConfig `yaml:"modes" mapstructure:"modes"`
	SearchLimit        int                     `yaml:"search_limit" mapstructure:"search_limit"`
	RatePerSec         float64                 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	RateBurst          int                     `yaml:"rate_burst" mapstructure:"rate_burst"`
	RateLimitBackoffMS int                     `yaml:"rate_limit_backoff_ms" mapstructure:"rate_limit_backoff_ms"`
}

// SourcesConfig holds the domain allow-lists driving tier classification.
// File, when set, points to a YAML file that overrides the lists.
type SourcesConfig struct {
	File             string   `yaml:"file" mapstructure:"file"`
	OEMDomains       []string `yaml:"oem_domains" mapstructure:"oem_domains"`
	RetailerDomains  []string `yaml:"retailer_domains" mapstructure:"retailer_domains"`
	CatalogDomains   []string `yaml:"catalog_domains" mapstructure:"catalog_domains"`
	MarketplaceHosts []string `yaml:"marketplace_hosts" mapstructure:"marketplace_hosts"`
	ForumMarkers     []string `yaml:"forum_markers" mapstructure:"forum_markers"`
}

// ScrapeConfig configures the local scrape fallback.
type ScrapeConfig struct {
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ENRICH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if cfg.Sources.File != "" {
		if err := cfg.Sources.loadFile(cfg.Sources.File); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "enrich.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("batch.max_concurrent", 4)

	// Empty defaults keep env-only keys visible to Unmarshal.
	v.SetDefault("store.database_url", "")
	v.SetDefault("jina.key", "")
	v.SetDefault("firecrawl.key", "")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("sources.file", "")

	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev/v2")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 4096)

	v.SetDefault("scrape.timeout_secs", 20)
	v.SetDefault("scrape.user_agent", "Mozilla/5.0 (compatible; ShelfmetricsBot/1.0)")

	v.SetDefault("research.locale", "en-US")
	v.SetDefault("research.search_limit", 8)
	v.SetDefault("research.rate_per_sec", 1.0)
	v.SetDefault("research.rate_burst", 2)
	v.SetDefault("research.rate_limit_backoff_ms", 2000)

	v.SetDefault("research.modes.fast.time_ms", 60000)
	v.SetDefault("research.modes.fast.max_calls", 12)
	v.SetDefault("research.modes.fast.max_sources", 20)
	v.SetDefault("research.modes.fast.query_cap", 2)
	v.SetDefault("research.modes.fast.base_url_limit", 2)

	v.SetDefault("research.modes.standard.time_ms", 180000)
	v.SetDefault("research.modes.standard.max_calls", 30)
	v.SetDefault("research.modes.standard.max_sources", 45)
	v.SetDefault("research.modes.standard.query_cap", 3)
	v.SetDefault("research.modes.standard.base_url_limit", 3)

	v.SetDefault("research.modes.exhaustive.time_ms", 420000)
	v.SetDefault("research.modes.exhaustive.max_calls", 70)
	v.SetDefault("research.modes.exhaustive.max_sources", 90)
	v.SetDefault("research.modes.exhaustive.query_cap", 5)
	v.SetDefault("research.modes.exhaustive.base_url_limit", 4)
	v.SetDefault("research.modes.exhaustive.strict_sources", true)

	v.SetDefault("sources.oem_domains", []string{
		"hp.com", "canon.com", "brother.com", "epson.com",
		"lexmark.com", "kyoceradocumentsolutions.com", "ricoh.com", "xerox.com",
	})
	v.SetDefault("sources.retailer_domains", []string{
		"staples.com", "officedepot.com", "cdw.com", "insight.com",
		"bhphotovideo.com", "office-partner.de", "printus.de",
	})
	v.SetDefault("sources.catalog_domains", []string{
		"icecat.biz", "gs1.org", "productinfo.gs1.org",
	})
	v.SetDefault("sources.marketplace_hosts", []string{
		"amazon", "ebay", "aliexpress", "rakuten", "etsy", "walmart",
	})
	v.SetDefault("sources.forum_markers", []string{
		"forum", "community", "reddit", "stackexchange",
	})
}

// BudgetFor resolves the run budget for a mode, with strictSources forcing
// the catalog-only packaging requirement regardless of mode.
func (c *Config) BudgetFor(mode model.Mode, strictSources bool) (model.Budget, error) {
	bc, ok := c.Research.Modes[string(mode)]
	if !ok {
		return model.Budget{}, eris.New("config: unknown mode " + string(mode))
	}
	return model.Budget{
		TimeMS:        bc.TimeMS,
		MaxCalls:      bc.MaxCalls,
		MaxSources:    bc.MaxSources,
		QueryCap:      bc.QueryCap,
		BaseURLLimit:  bc.BaseURLLimit,
		StrictSources: bc.StrictSources || strictSources,
	}, nil
}

// loadFile replaces the domain lists with the contents of a YAML file.
// Lists absent from the file keep their configured values.
func (s *SourcesConfig) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrap(err, "config: read sources file")
	}
	var override SourcesConfig
	if err := yaml.Unmarshal(data, &override); err != nil {
		return eris.Wrap(err, "config: parse sources file")
	}
	if len(override.OEMDomains) > 0 {
		s.OEMDomains = override.OEMDomains
	}
	if len(override.RetailerDomains) > 0 {
		s.RetailerDomains = override.RetailerDomains
	}
	if len(override.CatalogDomains) > 0 {
		s.CatalogDomains = override.CatalogDomains
	}
	if len(override.MarketplaceHosts) > 0 {
		s.MarketplaceHosts = override.MarketplaceHosts
	}
	if len(override.ForumMarkers) > 0 {
		s.ForumMarkers = override.ForumMarkers
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
