package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/brogergvhs/mangarip/internal/output"
	"github.com/gobwas/glob"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Site registers the generic scraper for URLs matching Patterns under its
// own name.
type Site struct {
	Name     string   `yaml:"name"`
	Link     string   `yaml:"link,omitempty"`
	Patterns []string `yaml:"patterns"`
	AllowExt []string `yaml:"allow_ext,omitempty"`
}

type Config struct {
	Output        string        `yaml:"output"`
	Concurrency   int           `yaml:"concurrency"`
	Formats       []string      `yaml:"formats"`
	CounterNaming bool          `yaml:"counter_naming"`
	KeepStaging   bool          `yaml:"keep_staging"`
	SeriesFolder  bool          `yaml:"series_folder"`
	StagingDir    string        `yaml:"staging_dir"`
	Retries       int           `yaml:"retries"`
	RetryBackoff  time.Duration `yaml:"retry_backoff"`
	Timeout       time.Duration `yaml:"timeout"`
	Debug         bool          `yaml:"debug"`
	AllowExt      []string      `yaml:"allow_ext"`

	DefaultURL   string `yaml:"default_url"`
	DefaultRange string `yaml:"default_range"`
	DefaultList  string `yaml:"default_list"`

	Cookie     string `yaml:"cookie"`
	CookieFile string `yaml:"cookie_file"`
	UserAgent  string `yaml:"user_agent"`
	Referer    string `yaml:"referer"`
	Cloudflare bool   `yaml:"cloudflare"`

	Sites []Site `yaml:"sites,omitempty"`
}

// Options carries command line overrides. Zero values leave the config
// untouched.
type Options struct {
	IgnoreConfig  bool
	Debug         bool
	Output        string
	Concurrency   int
	Formats       []string
	CounterNaming bool
	KeepStaging   bool
	SeriesFolder  bool
	StagingDir    string
	Retries       int
	Timeout       time.Duration
	AllowExt      []string
	DefaultURL    string
	DefaultRange  string
	DefaultList   string
	Cookie        string
	CookieFile    string
	UserAgent     string
	Referer       string
	Cloudflare    bool
}

func DefaultConfig() *Config {
	return &Config{
		Output:       ".",
		Concurrency:  2,
		Formats:      []string{"folder"},
		Retries:      3,
		RetryBackoff: time.Second,
		Timeout:      30 * time.Second,
		AllowExt:     []string{"jpg", "jpeg", "png", "webp"},
	}
}

func SaveYAML(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func loadYAML(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	return &c, nil
}

// LoadMerged reads the active profile, applies opts on top and validates the
// result. The returned string describes where the config came from.
func LoadMerged(opts Options) (*Config, string, error) {
	var (
		cfg        *Config
		source     string
		activePath string
		err        error
	)
	if !opts.IgnoreConfig {
		activePath, err = ActiveConfigPath()
	}

	switch {
	case opts.IgnoreConfig:
		cfg, source = DefaultConfig(), "(ignored config)"
	case errors.Is(err, ErrNoConfig) || activePath == "":
		cfg = DefaultConfig()
		source = "(default config in memory)\nRun `mangarip config init` to create an actual config\n"
	case err != nil:
		return nil, "", err
	default:
		cfg, err = loadYAML(activePath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config %s: %w", activePath, err)
		}
		source = activePath
	}

	mergeConfig(cfg, opts)
	normalizeDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid config %s: %w", strings.TrimSpace(source), err)
	}

	return cfg, source, nil
}

func mergeConfig(c *Config, o Options) {
	if o.Output != "" {
		c.Output = o.Output
	}
	if o.Concurrency != 0 {
		c.Concurrency = o.Concurrency
	}
	if len(o.Formats) > 0 {
		c.Formats = o.Formats
	}
	if o.CounterNaming {
		c.CounterNaming = true
	}
	if o.KeepStaging {
		c.KeepStaging = true
	}
	if o.SeriesFolder {
		c.SeriesFolder = true
	}
	if o.StagingDir != "" {
		c.StagingDir = o.StagingDir
	}
	if o.Retries != 0 {
		c.Retries = o.Retries
	}
	if o.Timeout != 0 {
		c.Timeout = o.Timeout
	}
	if o.Debug {
		c.Debug = true
	}
	if len(o.AllowExt) > 0 {
		c.AllowExt = o.AllowExt
	}
	if o.DefaultURL != "" {
		c.DefaultURL = o.DefaultURL
	}
	// a selection given on the command line replaces the configured one
	if o.DefaultRange != "" {
		c.DefaultRange, c.DefaultList = o.DefaultRange, ""
	}
	if o.DefaultList != "" {
		c.DefaultRange, c.DefaultList = "", o.DefaultList
	}
	if o.Cookie != "" {
		c.Cookie = o.Cookie
	}
	if o.CookieFile != "" {
		c.CookieFile = o.CookieFile
	}
	if o.UserAgent != "" {
		c.UserAgent = o.UserAgent
	}
	if o.Referer != "" {
		c.Referer = o.Referer
	}
	if o.Cloudflare {
		c.Cloudflare = true
	}
}

func normalizeDefaults(c *Config) {
	def := DefaultConfig()

	if c.Output == "" {
		c.Output = def.Output
	}
	if c.Concurrency == 0 {
		c.Concurrency = def.Concurrency
	}
	if len(c.Formats) == 0 {
		c.Formats = def.Formats
	}
	if c.Retries == 0 {
		c.Retries = def.Retries
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = def.RetryBackoff
	}
	if c.Timeout == 0 {
		c.Timeout = def.Timeout
	}
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.Concurrency < 1 {
		result = multierror.Append(result, fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency))
	}
	if c.Retries < 1 {
		result = multierror.Append(result, fmt.Errorf("retries must be at least 1, got %d", c.Retries))
	}
	if c.RetryBackoff < 0 {
		result = multierror.Append(result, fmt.Errorf("retry_backoff must not be negative"))
	}
	if c.Timeout < 0 {
		result = multierror.Append(result, fmt.Errorf("timeout must not be negative"))
	}
	for _, f := range c.Formats {
		if _, err := output.ParseKind(f); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if c.DefaultRange != "" && c.DefaultList != "" {
		result = multierror.Append(result, errors.New("default_range and default_list are mutually exclusive"))
	}

	names := map[string]bool{}
	for i, s := range c.Sites {
		if strings.TrimSpace(s.Name) == "" {
			result = multierror.Append(result, fmt.Errorf("sites[%d]: name is required", i))
		} else if names[s.Name] {
			result = multierror.Append(result, fmt.Errorf("sites[%d]: duplicate name %q", i, s.Name))
		}
		names[s.Name] = true

		if len(s.Patterns) == 0 {
			result = multierror.Append(result, fmt.Errorf("sites[%d]: at least one pattern is required", i))
		}
		for _, p := range s.Patterns {
			if _, err := glob.Compile(p, '/'); err != nil {
				result = multierror.Append(result, fmt.Errorf("sites[%d]: pattern %q: %w", i, p, err))
			}
		}
	}

	return result.ErrorOrNil()
}

func (c *Config) Print(w io.Writer) {
	if c.Output != "" {
		fmt.Fprintf(w, " -output: %s\n", c.Output)
	}
	fmt.Fprintf(w, " -concurrency: %d\n", c.Concurrency)
	fmt.Fprintf(w, " -formats: %s\n", strings.Join(c.Formats, ", "))
	if c.CounterNaming {
		fmt.Fprintf(w, " -counter_naming: %t\n", c.CounterNaming)
	}
	if c.KeepStaging {
		fmt.Fprintf(w, " -keep_staging: %t\n", c.KeepStaging)
	}
	if c.SeriesFolder {
		fmt.Fprintf(w, " -series_folder: %t\n", c.SeriesFolder)
	}
	if c.StagingDir != "" {
		fmt.Fprintf(w, " -staging_dir: %s\n", c.StagingDir)
	}
	fmt.Fprintf(w, " -retries: %d (backoff %s)\n", c.Retries, c.RetryBackoff)
	fmt.Fprintf(w, " -timeout: %s\n", c.Timeout)
	if c.Debug {
		fmt.Fprintf(w, " -debug: %t\n", c.Debug)
	}
	if c.DefaultURL != "" {
		fmt.Fprintf(w, " -url: %s\n", c.DefaultURL)
	}
	if c.DefaultRange != "" {
		fmt.Fprintf(w, " -range: %s\n", c.DefaultRange)
	}
	if c.DefaultList != "" {
		fmt.Fprintf(w, " -list: %s\n", c.DefaultList)
	}
	if c.CookieFile != "" {
		fmt.Fprintf(w, " -cookie_file: %s\n", c.CookieFile)
	}
	if c.Referer != "" {
		fmt.Fprintf(w, " -referer: %s\n", c.Referer)
	}
	if c.Cloudflare {
		fmt.Fprintf(w, " -cloudflare: %t\n", c.Cloudflare)
	}
	if len(c.AllowExt) > 0 {
		fmt.Fprintf(w, " -allow_ext: %s\n", strings.Join(c.AllowExt, ", "))
	}
	for _, s := range c.Sites {
		fmt.Fprintf(w, " -site: %s (%s)\n", s.Name, strings.Join(s.Patterns, ", "))
	}
}
