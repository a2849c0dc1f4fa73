// Package config loads the harvester configuration from a YAML file, NEWSHARVEST_*
// environment variables, a .env file and command-line flags, in rising precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"newsharvest/internal/models"
	"newsharvest/internal/rules"
)

const (
	EnvPrefix = "NEWSHARVEST"

	DefaultUserAgent      = "newsharvest/1.0 (+https://github.com/newsharvest)"
	DefaultParallelism    = 4
	DefaultRequestTimeout = 15 * time.Second
	DefaultOutputDir      = "./data"
	DefaultFormat         = "json"
)

var (
	errNoSites        = errors.New("no sites configured")
	errUnknownSite    = errors.New("unknown site")
	errDuplicateSite  = errors.New("duplicate site name")
	errBadParallelism = errors.New("fetch.parallelism must be > 0")
	errBadTimeout     = errors.New("fetch.request_timeout must be > 0")
	errNoUserAgent    = errors.New("fetch.user_agent is required")
	errNegativeLimit  = errors.New("limits must not be negative")
	errBadFormat      = errors.New("output.format must be json, jsonl or s3")
	errNoBucket       = errors.New("output.s3.bucket is required for s3 output")
)

// NewViper returns a viper instance with defaults and environment binding set up.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("fetch.user_agent", DefaultUserAgent)
	v.SetDefault("fetch.request_timeout", DefaultRequestTimeout)
	v.SetDefault("fetch.parallelism", DefaultParallelism)
	v.SetDefault("fetch.delay", time.Duration(0))
	v.SetDefault("fetch.respect_robots_txt", false)
	v.SetDefault("fetch.max_body_size", 10*1024*1024)

	v.SetDefault("output.format", DefaultFormat)
	v.SetDefault("output.dir", DefaultOutputDir)
	v.SetDefault("output.s3.endpoint", "")
	v.SetDefault("output.s3.region", "")
	v.SetDefault("output.s3.bucket", "")
	v.SetDefault("output.s3.prefix", "")
	v.SetDefault("output.s3.access_key", "")
	v.SetDefault("output.s3.secret_key", "")

	v.SetDefault("limits.max_pages", 0)
	v.SetDefault("limits.max_results", 0)
	v.SetDefault("limits.max_errors", 0)
	v.SetDefault("limits.global_timeout", time.Duration(0))

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("metrics_addr", "")
}

// Load reads the config. An explicit path must exist; without one ./config.yaml
// is used when present. A missing .env file is not an error.
func Load(v *viper.Viper, path string) (*models.Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &models.Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Sites = withPresets(cfg.Sites)
	return cfg, nil
}

// withPresets falls back to the built-in sites when none are configured and
// fills a site that only names a preset with that preset's settings.
func withPresets(sites []models.SiteConfig) []models.SiteConfig {
	if len(sites) == 0 {
		return rules.PresetSites()
	}
	presets := rules.Presets()
	out := make([]models.SiteConfig, 0, len(sites))
	for _, s := range sites {
		p, ok := presets[s.Name]
		if !ok {
			out = append(out, s)
			continue
		}
		if s.AllowedDomain == "" {
			s.AllowedDomain = p.AllowedDomain
		}
		if len(s.StartURLs) == 0 {
			s.StartURLs = p.StartURLs
		}
		if s.Threshold == "" {
			s.Threshold = p.Threshold
		}
		if isZeroRule(s.Rule) {
			s.Rule = p.Rule
		}
		out = append(out, s)
	}
	return out
}

func isZeroRule(r models.RuleConfig) bool {
	return r.LinkSelector == "" && r.FrontPageLinkSelector == "" && r.DateSelector == "" &&
		r.BodySelector == "" && len(r.DateLayouts) == 0
}

// Validate checks the whole config and compiles every site. It runs before any
// fetch is dispatched.
func Validate(cfg *models.Config) ([]*rules.Site, error) {
	if len(cfg.Sites) == 0 {
		return nil, errNoSites
	}
	if cfg.Fetch.Parallelism < 1 {
		return nil, errBadParallelism
	}
	if cfg.Fetch.RequestTimeout <= 0 {
		return nil, errBadTimeout
	}
	if strings.TrimSpace(cfg.Fetch.UserAgent) == "" {
		return nil, errNoUserAgent
	}
	l := cfg.Limits
	if l.MaxPages < 0 || l.MaxResults < 0 || l.MaxErrors < 0 || l.GlobalTimeout < 0 {
		return nil, errNegativeLimit
	}
	switch cfg.Output.Format {
	case "json", "jsonl":
	case "s3":
		if cfg.Output.S3.Bucket == "" {
			return nil, errNoBucket
		}
	default:
		return nil, fmt.Errorf("%w: %q", errBadFormat, cfg.Output.Format)
	}

	seen := make(map[string]struct{}, len(cfg.Sites))
	sites := make([]*rules.Site, 0, len(cfg.Sites))
	for _, sc := range cfg.Sites {
		if _, ok := seen[sc.Name]; ok {
			return nil, fmt.Errorf("%w: %s", errDuplicateSite, sc.Name)
		}
		seen[sc.Name] = struct{}{}
		site, err := rules.CompileSite(sc)
		if err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}
	return sites, nil
}

// Select keeps the named sites in the given order. No names selects all.
func Select(sites []*rules.Site, names []string) ([]*rules.Site, error) {
	if len(names) == 0 {
		return sites, nil
	}
	byName := make(map[string]*rules.Site, len(sites))
	for _, s := range sites {
		byName[s.Name] = s
	}
	out := make([]*rules.Site, 0, len(names))
	for _, n := range names {
		s, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("%w: %s", errUnknownSite, n)
		}
		out = append(out, s)
	}
	return out, nil
}
