package models

import "time"

//Config - структура для конфигурации
type Config struct {
	Sites       []SiteConfig `mapstructure:"sites"`
	Fetch       FetchConfig  `mapstructure:"fetch"`
	Output      OutputConfig `mapstructure:"output"`
	Limits      LimitsConfig `mapstructure:"limits"`
	Log         LogConfig    `mapstructure:"log"`
	MetricsAddr string       `mapstructure:"metrics_addr"`
}

// SiteConfig describes one publisher: where to start, which domain to stay on,
// the cutoff date and how to pull links, dates and bodies out of its pages.
type SiteConfig struct {
	Name          string     `mapstructure:"name"`
	AllowedDomain string     `mapstructure:"allowed_domain"`
	StartURLs     []string   `mapstructure:"start_urls"`
	Threshold     string     `mapstructure:"threshold"`
	Rule          RuleConfig `mapstructure:"rule"`
}

// RuleConfig is the raw, uncompiled extraction rule of a site.
type RuleConfig struct {
	FrontPageLinkSelector string   `mapstructure:"front_page_link_selector"`
	LinkSelector          string   `mapstructure:"link_selector"`
	DateSelector          string   `mapstructure:"date_selector"`
	DatePattern           string   `mapstructure:"date_pattern"`
	DateLayouts           []string `mapstructure:"date_layouts"`
	BodySelector          string   `mapstructure:"body_selector"`
	ExcludeLinks          []string `mapstructure:"exclude_links"`
	IneligiblePaths       []string `mapstructure:"ineligible_paths"`
}

type FetchConfig struct {
	UserAgent        string        `mapstructure:"user_agent"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	Parallelism      int           `mapstructure:"parallelism"`
	Delay            time.Duration `mapstructure:"delay"`
	RespectRobotsTxt bool          `mapstructure:"respect_robots_txt"`
	MaxBodySize      int           `mapstructure:"max_body_size"`
}

type OutputConfig struct {
	Format string   `mapstructure:"format"`
	Dir    string   `mapstructure:"dir"`
	S3     S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// LimitsConfig caps a crawl run from the outside. Zero values mean unlimited.
type LimitsConfig struct {
	MaxPages      int           `mapstructure:"max_pages"`
	MaxResults    int           `mapstructure:"max_results"`
	MaxErrors     int           `mapstructure:"max_errors"`
	GlobalTimeout time.Duration `mapstructure:"global_timeout"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}
