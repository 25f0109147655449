package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rshade/beacondash/internal/engine/cache"
)

// Defaults for a fresh configuration.
const (
	DefaultTavernURL         = "http://127.0.0.1:8000/graphql"
	DefaultTokenHeader       = "X-Tavern-Auth"
	DefaultTimeout           = 30 * time.Second
	DefaultTableHeight       = 20
	DefaultMinTableHeight    = 5
	DefaultEstimateRowHeight = 1
	DefaultOverscan          = 5
	DefaultPollInterval      = 5 * time.Second
	DefaultLoadMoreThreshold = 5
	DefaultPageSize          = 50
	MaxPageSize              = 500
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "json"

	configDirName  = ".beacondash"
	configFileName = "config.yaml"
	logsDirName    = "logs"
	cacheDirName   = "cache"
	logFileName    = "beacondash.log"
)

// Environment variable names.
const (
	EnvConfigPath   = "BEACONDASH_CONFIG"
	EnvHome         = "BEACONDASH_HOME"
	EnvTavernURL    = "BEACONDASH_TAVERN_URL"
	EnvToken        = "BEACONDASH_TOKEN"
	EnvLogLevel     = "BEACONDASH_LOG_LEVEL"
	EnvLogFormat    = "BEACONDASH_LOG_FORMAT"
	EnvPageSize     = "BEACONDASH_PAGE_SIZE"
	EnvPollInterval = "BEACONDASH_POLL_INTERVAL"
)

var (
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnknownKey is returned by Get for keys that do not exist.
	ErrUnknownKey = errors.New("unknown configuration key")
)

// Config is the on-disk configuration.
type Config struct {
	Version string        `yaml:"version"`
	Tavern  TavernConfig  `yaml:"tavern"`
	Table   TableConfig   `yaml:"table"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`

	configPath string
}

// TavernConfig locates the Tavern GraphQL endpoint.
type TavernConfig struct {
	URL         string        `yaml:"url"`
	Token       string        `yaml:"token,omitempty"`
	TokenHeader string        `yaml:"token_header"`
	Timeout     time.Duration `yaml:"timeout"`
}

// TableConfig tunes the virtualized tables.
type TableConfig struct {
	Height            int           `yaml:"height"`
	MinHeight         int           `yaml:"min_height"`
	EstimateRowHeight int           `yaml:"estimate_row_height"`
	Overscan          int           `yaml:"overscan"`
	PollInterval      time.Duration `yaml:"poll_interval"`
	LoadMoreThreshold int           `yaml:"load_more_threshold"`
	PageSize          int           `yaml:"page_size"`
}

// CacheConfig controls the on-disk detail cache.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Directory  string `yaml:"directory,omitempty"`
	TTLSeconds int    `yaml:"ttl_seconds"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
}

// LoggingConfig is bridged to logging.Config by ToLoggingConfig.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file,omitempty"`
}

// Defaults returns a Config populated with defaults only. It never touches
// the filesystem or the environment.
func Defaults() *Config {
	return &Config{
		Version: SchemaVersion,
		Tavern: TavernConfig{
			URL:         DefaultTavernURL,
			TokenHeader: DefaultTokenHeader,
			Timeout:     DefaultTimeout,
		},
		Table: TableConfig{
			Height:            DefaultTableHeight,
			MinHeight:         DefaultMinTableHeight,
			EstimateRowHeight: DefaultEstimateRowHeight,
			Overscan:          DefaultOverscan,
			PollInterval:      DefaultPollInterval,
			LoadMoreThreshold: DefaultLoadMoreThreshold,
			PageSize:          DefaultPageSize,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: cache.DefaultTTLSeconds,
			MaxSizeMB:  cache.DefaultCacheMaxSizeMB,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// New returns the effective configuration: defaults, then the config file if
// one exists, then environment overrides. A malformed file is ignored so the
// CLI can still start; `config validate` reports it.
func New() *Config {
	cfg := Defaults()

	path, err := ResolveConfigPath()
	if err == nil {
		cfg.configPath = path
		_ = cfg.Load()
	}
	cfg.ApplyEnv()
	return cfg
}

// Load reads the config file over the current values. A missing file is not
// an error.
func (c *Config) Load() error {
	if c.configPath == "" {
		return nil
	}
	data, err := os.ReadFile(c.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config %s: %w", c.configPath, err)
	}
	if err = yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", c.configPath, err)
	}
	return nil
}

// Save writes the configuration to its path, creating parent directories.
func (c *Config) Save() error {
	if c.configPath == "" {
		path, err := ResolveConfigPath()
		if err != nil {
			return err
		}
		c.configPath = path
	}
	if err := os.MkdirAll(filepath.Dir(c.configPath), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err = os.WriteFile(c.configPath, data, 0o600); err != nil {
		return fmt.Errorf("writing config %s: %w", c.configPath, err)
	}
	return nil
}

// ConfigPath returns the file this configuration is loaded from and saved to.
func (c *Config) ConfigPath() string {
	return c.configPath
}

// SetConfigPath changes the file used by Load and Save.
func (c *Config) SetConfigPath(path string) {
	c.configPath = path
}

// ApplyEnv applies BEACONDASH_* overrides. Unparseable numeric values are
// ignored.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvTavernURL); v != "" {
		c.Tavern.URL = v
	}
	if v := os.Getenv(EnvToken); v != "" {
		c.Tavern.Token = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv(EnvPageSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Table.PageSize = n
		}
	}
	if v := os.Getenv(EnvPollInterval); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Table.PollInterval = d
		}
	}

	c.Cache.Enabled = cache.GetCacheEnabledFromEnv(c.Cache.Enabled)
	c.Cache.TTLSeconds = cache.GetTTLFromEnv(c.Cache.TTLSeconds)
	c.Cache.MaxSizeMB = cache.GetCacheMaxSizeFromEnv(c.Cache.MaxSizeMB)
	if dir := cache.GetCacheDirFromEnv(); dir != "" {
		c.Cache.Directory = dir
	}
}

// CacheTTL returns the cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// CacheDirectory returns the configured cache directory or the default one
// under the config directory.
func (c *Config) CacheDirectory() (string, error) {
	if c.Cache.Directory != "" {
		return c.Cache.Directory, nil
	}
	return GetCacheDir()
}

// Validate checks every section and returns all problems joined.
func (c *Config) Validate() error {
	var errs []error

	if err := ValidateVersion(c.Version); err != nil {
		errs = append(errs, err)
	}

	u, err := url.Parse(c.Tavern.URL)
	switch {
	case c.Tavern.URL == "":
		errs = append(errs, errors.New("tavern.url is required"))
	case err != nil:
		errs = append(errs, fmt.Errorf("tavern.url: %w", err))
	case u.Scheme != "http" && u.Scheme != "https":
		errs = append(errs, fmt.Errorf("tavern.url must be http or https, got %q", u.Scheme))
	}
	if c.Tavern.Timeout < 0 {
		errs = append(errs, errors.New("tavern.timeout must not be negative"))
	}

	t := c.Table
	if t.Height < 0 || t.MinHeight < 0 {
		errs = append(errs, errors.New("table.height and table.min_height must not be negative"))
	}
	if t.EstimateRowHeight < 1 {
		errs = append(errs, errors.New("table.estimate_row_height must be at least 1"))
	}
	if t.Overscan < 0 {
		errs = append(errs, errors.New("table.overscan must not be negative"))
	}
	if t.LoadMoreThreshold < 0 {
		errs = append(errs, errors.New("table.load_more_threshold must not be negative"))
	}
	if t.PageSize < 1 || t.PageSize > MaxPageSize {
		errs = append(errs, fmt.Errorf("table.page_size must be between 1 and %d", MaxPageSize))
	}

	if c.Cache.Enabled {
		if _, err = cache.ParseTTL(strconv.Itoa(c.Cache.TTLSeconds)); err != nil {
			errs = append(errs, fmt.Errorf("cache.ttl_seconds: %w", err))
		}
		if c.Cache.MaxSizeMB < 0 {
			errs = append(errs, errors.New("cache.max_size_mb must not be negative"))
		}
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q is not a known level", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "", "json", "console", "text":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q must be json, console or text", c.Logging.Format))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// Get returns a dotted key ("table.page_size") as a string.
func (c *Config) Get(key string) (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	var tree map[string]any
	if err = yaml.Unmarshal(data, &tree); err != nil {
		return "", err
	}

	var node any = tree
	for part := range strings.SplitSeq(key, ".") {
		m, ok := node.(map[string]any)
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
		}
		if node, ok = m[part]; !ok {
			return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
		}
	}

	if _, ok := node.(map[string]any); ok {
		out, marshalErr := yaml.Marshal(node)
		if marshalErr != nil {
			return "", marshalErr
		}
		return strings.TrimRight(string(out), "\n"), nil
	}
	return fmt.Sprint(node), nil
}

// ResolveConfigPath returns BEACONDASH_CONFIG if set, else
// ~/.beacondash/config.yaml.
func ResolveConfigPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// GetConfigDir returns the beacondash configuration directory.
func GetConfigDir() (string, error) {
	if home := os.Getenv(EnvHome); home != "" {
		return home, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, configDirName), nil
}

// GetLogsDir returns the directory for log files.
func GetLogsDir() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, logsDirName), nil
}

// DefaultLogFile returns the log file used while the TUI owns the terminal.
func DefaultLogFile() (string, error) {
	dir, err := GetLogsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, logFileName), nil
}

// GetCacheDir returns the default detail cache directory.
func GetCacheDir() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, cacheDirName), nil
}
