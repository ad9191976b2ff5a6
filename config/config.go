// Package config loads the crawler configuration from file, .env and environment
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/titanous/json5"
	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the crawler, the CLI and the HTTP server
type Config struct {
	Site    Site    `yaml:"site" json:"site"`
	Browser Browser `yaml:"browser" json:"browser"`
	Crawl   Crawl   `yaml:"crawl" json:"crawl"`
	Output  Output  `yaml:"output" json:"output"`
	Cache   Cache   `yaml:"cache" json:"cache"`
	Server  Server  `yaml:"server" json:"server"`
}

// Browser configures the Chrome instance driven by chromedp
type Browser struct {
	Headless    bool     `yaml:"headless" json:"headless"`
	ExecPath    string   `yaml:"exec_path" json:"exec_path"`
	UserAgent   string   `yaml:"user_agent" json:"user_agent"`
	WaitTimeout Duration `yaml:"wait_timeout" json:"wait_timeout" validate:"gt=0"`
	PageTimeout Duration `yaml:"page_timeout" json:"page_timeout" validate:"gt=0"`
	PoolSize    int      `yaml:"pool_size" json:"pool_size" validate:"min=1,max=16"`
}

// Crawl configures a single search-and-extract run
type Crawl struct {
	Query       string   `yaml:"query" json:"query"`
	MaxResults  int      `yaml:"max_results" json:"max_results" validate:"min=0"`
	MaxPages    int      `yaml:"max_pages" json:"max_pages" validate:"min=0"`
	Delay       Duration `yaml:"delay" json:"delay" validate:"min=0"`
	Attachments bool     `yaml:"attachments" json:"attachments"`
	Download    bool     `yaml:"download" json:"download"`
}

// Output configures where crawl results are written
type Output struct {
	Dir       string `yaml:"dir" json:"dir" validate:"required"`
	Overwrite bool   `yaml:"overwrite" json:"overwrite"`
	Summary   bool   `yaml:"summary" json:"summary"`
}

// Cache configures the optional redis record cache, empty Addr disables it
type Cache struct {
	Addr     string   `yaml:"addr" json:"addr" validate:"omitempty,hostname_port"`
	Password string   `yaml:"password" json:"password"`
	DB       int      `yaml:"db" json:"db" validate:"min=0"`
	TTL      Duration `yaml:"ttl" json:"ttl" validate:"min=0"`
}

// Server configures the HTTP surface
type Server struct {
	Addr            string   `yaml:"addr" json:"addr" validate:"required"`
	RequestTimeout  Duration `yaml:"request_timeout" json:"request_timeout" validate:"gt=0"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout" json:"shutdown_timeout" validate:"gt=0"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		Site: DefaultSite(),
		Browser: Browser{
			Headless:    true,
			UserAgent:   "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/135.0.0.0 Safari/537.36",
			WaitTimeout: Duration(10 * time.Second),
			PageTimeout: Duration(60 * time.Second),
			PoolSize:    2,
		},
		Crawl: Crawl{
			Query:       "test",
			Delay:       Duration(time.Second),
			Attachments: true,
		},
		Output: Output{
			Dir:     "./data",
			Summary: true,
		},
		Cache: Cache{
			TTL: Duration(24 * time.Hour),
		},
		Server: Server{
			Addr:            ":8000",
			RequestTimeout:  Duration(2 * time.Minute),
			ShutdownTimeout: Duration(10 * time.Second),
		},
	}
}

var validate = validator.New()

// Validate checks the configuration against its struct tags
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Load builds the configuration in this order, later steps winning:
// defaults, the file at path (if any), its <name>.local.<ext> sibling,
// a .env file in the working directory, CLERK_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return cfg, err
		}

		local := localPath(path)
		err := decodeFile(local, &cfg)
		switch {
		case err == nil:
			slog.Info("merging config with local overrides", "local", local)
		case !os.IsNotExist(err):
			return cfg, err
		}
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

// Apply merges the non-zero fields of overrides into c, used for command line flags
func (c *Config) Apply(overrides Config) error {
	if err := mergo.Merge(c, overrides, mergo.WithOverride); err != nil {
		return fmt.Errorf("failed to apply overrides: %w", err)
	}
	return c.Validate()
}

// decodeFile decodes on top of cfg so keys missing from the file keep their value
func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".json", ".json5":
		err = json5.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// localPath turns dir/name.ext into dir/name.local.ext
func localPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".local" + ext
}

func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"CLERK_SEARCH_URL":  &cfg.Site.SearchURL,
		"CLERK_RECORD_URL":  &cfg.Site.RecordURL,
		"CLERK_CHROME_PATH": &cfg.Browser.ExecPath,
		"CLERK_USER_AGENT":  &cfg.Browser.UserAgent,
		"CLERK_QUERY":       &cfg.Crawl.Query,
		"CLERK_OUTPUT_DIR":  &cfg.Output.Dir,
		"CLERK_REDIS_ADDR":  &cfg.Cache.Addr,
		"CLERK_REDIS_PASS":  &cfg.Cache.Password,
		"CLERK_SERVER_ADDR": &cfg.Server.Addr,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	// PORT is what most hosting platforms hand out
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Addr = ":" + port
	}

	bools := map[string]*bool{
		"CLERK_HEADLESS":    &cfg.Browser.Headless,
		"CLERK_ATTACHMENTS": &cfg.Crawl.Attachments,
		"CLERK_DOWNLOAD":    &cfg.Crawl.Download,
	}
	for key, dst := range bools {
		v, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = b
	}

	ints := map[string]*int{
		"CLERK_MAX_RESULTS": &cfg.Crawl.MaxResults,
		"CLERK_MAX_PAGES":   &cfg.Crawl.MaxPages,
		"CLERK_POOL_SIZE":   &cfg.Browser.PoolSize,
		"CLERK_REDIS_DB":    &cfg.Cache.DB,
	}
	for key, dst := range ints {
		v, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = n
	}

	if v, ok := os.LookupEnv("CLERK_WAIT_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid CLERK_WAIT_TIMEOUT: %w", err)
		}
		cfg.Browser.WaitTimeout = Duration(d)
	}

	return nil
}
