package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// TransformForecast marks a feature whose upstream payload is reshaped
// (metric routing plus date/value -> ds/yhat renaming) before relaying.
const TransformForecast = "forecast"

// Config is the on-disk configuration shape (YAML).
type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Upstream UpstreamConfig  `yaml:"upstream"`
	Journal  JournalConfig   `yaml:"journal"`
	Features []FeatureConfig `yaml:"features"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	Env  string `yaml:"env"`
	// PublicBaseURL is used to build fully-qualified asset and proxy URLs.
	// When empty, the scheme and host of the incoming request are used and
	// dashboard pages are sent with Cache-Control: no-store. Set it whenever
	// the service sits behind a reverse proxy.
	PublicBaseURL string `yaml:"public_base_url"`
	// TrustForwardedProto takes the scheme from X-Forwarded-Proto when
	// PublicBaseURL is empty. Only enable it behind a proxy that overwrites
	// the header.
	TrustForwardedProto bool `yaml:"trust_forwarded_proto"`
	// AssetsDir overrides the embedded web assets with a directory on disk.
	AssetsDir string `yaml:"assets_dir"`
}

type UpstreamConfig struct {
	BaseURL  string `yaml:"base_url"`
	Token    string `yaml:"token"`
	Timeout  string `yaml:"timeout"`
	CacheTTL string `yaml:"cache_ttl"`
}

type JournalConfig struct {
	// Path of the SQLite exchange journal. Empty disables journaling.
	Path string `yaml:"path"`
}

// FeatureConfig describes one dashboard: its HTML shell, the assets the shell
// references by filename, and the upstream endpoint its proxy relays.
type FeatureConfig struct {
	Slug         string            `yaml:"slug"`
	Title        string            `yaml:"title"`
	Description  string            `yaml:"description"`
	BaseURL      string            `yaml:"base_url"`
	UpstreamPath string            `yaml:"upstream_path"`
	ConfigName   string            `yaml:"config_name"`
	Shell        string            `yaml:"shell"`
	Assets       []string          `yaml:"assets"`
	ForwardQuery []string          `yaml:"forward_query"`
	Links        map[string]string `yaml:"links"`
	Transform    string            `yaml:"transform"`
}

var (
	slugPattern  = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)
	identPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)
)

// Default returns the built-in configuration: the six dashboards talking to a
// forecasting API on localhost.
func Default() *Config {
	c := &Config{
		Server: ServerConfig{Port: "8080", Env: "development"},
		Upstream: UpstreamConfig{
			BaseURL: "http://localhost:9002",
			Timeout: "30s",
		},
		Features: DefaultFeatures(),
	}
	c.applyDefaults()
	return c
}

func DefaultFeatures() []FeatureConfig {
	return []FeatureConfig{
		{
			Slug:         "warehouse-capacity",
			Title:        "Warehouse Capacity",
			Description:  "Capacity utilization, risk levels and transfer recommendations per warehouse.",
			UpstreamPath: "/api/warehouse-capacity",
		},
		{
			Slug:         "partner-trend",
			Title:        "Partner Demand Trend",
			Description:  "Twelve month demand forecast per partner.",
			UpstreamPath: "/api/partner-demand",
		},
		{
			Slug:         "inventory-allocation",
			Title:        "Inventory Allocation",
			Description:  "Allocation recommendations driven by runtime partner forecasts.",
			UpstreamPath: "/api/inventory-allocation",
		},
		{
			Slug:         "historical-trend",
			Title:        "Historical Trend",
			Description:  "Historical inflow, outflow and inventory analysis.",
			UpstreamPath: "/api/historical-trends",
		},
		{
			Slug:         "global-forecast",
			Title:        "Global Forecast",
			Description:  "Network-wide forecast of inventory, inflow and outflow metrics.",
			BaseURL:      "http://localhost:9001",
			UpstreamPath: "/api",
			Transform:    TransformForecast,
			Links:        map[string]string{"alertsUrl": "warehouse-capacity"},
		},
		{
			Slug:         "warehouse-trend",
			Title:        "Warehouse Trend",
			Description:  "Rolling inventory forecast per warehouse and product.",
			UpstreamPath: "/api/warehouse-forecast",
			ForwardQuery: []string{"horizon"},
		},
	}
}

// Load reads, defaults, env-overrides and validates a config file.
// An empty path yields Default() with env overrides applied.
func Load(path string) (*Config, error) {
	var c *Config
	if path == "" {
		c = Default()
	} else {
		var err error
		c, err = LoadUnchecked(path)
		if err != nil {
			return nil, err
		}
	}
	c.applyEnvOverrides()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads a config file and fills defaults, but does not validate it.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	base := Default()
	c.Server = MergeServer(base.Server, c.Server)
	c.Upstream = MergeUpstream(base.Upstream, c.Upstream)
	if len(c.Features) == 0 {
		c.Features = base.Features
	}
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	for i := range c.Features {
		f := &c.Features[i]
		if f.Title == "" {
			f.Title = TitleFromSlug(f.Slug)
		}
		if f.ConfigName == "" {
			f.ConfigName = ConfigNameFromSlug(f.Slug)
		}
		if f.Shell == "" && f.Slug != "" {
			f.Shell = f.Slug + "/index.html"
		}
		if len(f.Assets) == 0 && f.Slug != "" {
			f.Assets = []string{"shared/dashboard.css", "shared/dashboard.js", f.Slug + "/app.js"}
		}
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("API_PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("API_ENV"); v != "" {
		c.Server.Env = v
	}
	if v := os.Getenv("PUBLIC_BASE_URL"); v != "" {
		c.Server.PublicBaseURL = v
	}
	if v := os.Getenv("STATIC_DIR"); v != "" {
		c.Server.AssetsDir = v
	}
	if v := os.Getenv("FORECAST_API_BASE_URL"); v != "" {
		c.Upstream.BaseURL = v
	}
	if v := os.Getenv("FORECAST_API_TOKEN"); v != "" {
		c.Upstream.Token = v
	}
	if v := os.Getenv("FORECAST_CACHE_TTL"); v != "" {
		c.Upstream.CacheTTL = v
	}
	if v := os.Getenv("JOURNAL_PATH"); v != "" {
		c.Journal.Path = v
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Upstream.BaseURL == "" {
		return errors.New("upstream.base_url is required")
	}
	if _, err := c.Upstream.TimeoutDuration(); err != nil {
		return err
	}
	if _, err := c.Upstream.CacheTTLDuration(); err != nil {
		return err
	}
	if len(c.Features) == 0 {
		return errors.New("at least one feature is required")
	}

	seen := make(map[string]bool, len(c.Features))
	for _, f := range c.Features {
		if !slugPattern.MatchString(f.Slug) {
			return fmt.Errorf("feature slug %q is invalid", f.Slug)
		}
		if seen[f.Slug] {
			return fmt.Errorf("feature %q is defined twice", f.Slug)
		}
		seen[f.Slug] = true
	}
	for _, f := range c.Features {
		if f.Shell == "" {
			return fmt.Errorf("feature %q: shell is required", f.Slug)
		}
		if !identPattern.MatchString(f.ConfigName) {
			return fmt.Errorf("feature %q: config_name %q is not a valid identifier", f.Slug, f.ConfigName)
		}
		if f.UpstreamPath == "" {
			return fmt.Errorf("feature %q: upstream_path is required", f.Slug)
		}
		if f.Transform != "" && f.Transform != TransformForecast {
			return fmt.Errorf("feature %q: unknown transform %q", f.Slug, f.Transform)
		}
		for key, target := range f.Links {
			if !identPattern.MatchString(key) {
				return fmt.Errorf("feature %q: link name %q is not a valid identifier", f.Slug, key)
			}
			if !seen[target] {
				return fmt.Errorf("feature %q: link %q targets unknown feature %q", f.Slug, key, target)
			}
		}
	}
	return nil
}

// Feature looks a feature up by slug.
func (c *Config) Feature(slug string) (*FeatureConfig, bool) {
	for i := range c.Features {
		if c.Features[i].Slug == slug {
			return &c.Features[i], true
		}
	}
	return nil, false
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func (u UpstreamConfig) TimeoutDuration() (time.Duration, error) {
	if u.Timeout == "" {
		return 30 * time.Second, nil
	}
	d, err := time.ParseDuration(u.Timeout)
	if err != nil {
		return 0, fmt.Errorf("upstream.timeout invalid: %w", err)
	}
	return d, nil
}

// CacheTTLDuration returns the response cache TTL; zero disables caching.
func (u UpstreamConfig) CacheTTLDuration() (time.Duration, error) {
	if u.CacheTTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(u.CacheTTL)
	if err != nil {
		return 0, fmt.Errorf("upstream.cache_ttl invalid: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("upstream.cache_ttl must not be negative")
	}
	return d, nil
}

// UpstreamBase returns the feature's own base URL, falling back to the shared one.
func (f FeatureConfig) UpstreamBase(u UpstreamConfig) string {
	if f.BaseURL != "" {
		return f.BaseURL
	}
	return u.BaseURL
}

// TitleFromSlug turns "warehouse-capacity" into "Warehouse Capacity".
func TitleFromSlug(slug string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(slug, "-", " "))
}

// ConfigNameFromSlug turns "warehouse-capacity" into "WAREHOUSE_CAPACITY_CONFIG".
func ConfigNameFromSlug(slug string) string {
	return strings.ToUpper(strings.ReplaceAll(slug, "-", "_")) + "_CONFIG"
}

// MergeServer overlays non-zero fields from override onto base.
func MergeServer(base, override ServerConfig) ServerConfig {
	out := base
	if override.Port != "" {
		out.Port = override.Port
	}
	if override.Env != "" {
		out.Env = override.Env
	}
	if override.PublicBaseURL != "" {
		out.PublicBaseURL = override.PublicBaseURL
	}
	if override.TrustForwardedProto {
		out.TrustForwardedProto = true
	}
	if override.AssetsDir != "" {
		out.AssetsDir = override.AssetsDir
	}
	return out
}

// MergeUpstream overlays non-zero fields from override onto base.
func MergeUpstream(base, override UpstreamConfig) UpstreamConfig {
	out := base
	if override.BaseURL != "" {
		out.BaseURL = override.BaseURL
	}
	if override.Token != "" {
		out.Token = override.Token
	}
	if override.Timeout != "" {
		out.Timeout = override.Timeout
	}
	if override.CacheTTL != "" {
		out.CacheTTL = override.CacheTTL
	}
	return out
}
