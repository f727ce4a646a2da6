package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/vango-dev/folio/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "folio.json"

	// DefaultPort is the default server port.
	DefaultPort = 3000

	// DefaultHost is the default server host.
	DefaultHost = "localhost"

	// DefaultStorageDriver is the storage backend used when none is configured.
	DefaultStorageDriver = "sqlite"

	// DefaultStorageDSN is the SQLite database file used by the default driver.
	DefaultStorageDSN = "folio.db"

	// DefaultStorageTable is the table holding key-value pairs for SQL drivers.
	DefaultStorageTable = "folio_storage"

	// DefaultMobileBreakpoint is the viewport width below which the layout is mobile.
	DefaultMobileBreakpoint = 1024
)

// Config represents the complete folio.json configuration.
type Config struct {
	// Name is the application name.
	Name string `json:"name,omitempty"`

	// Server contains HTTP/WebSocket server settings.
	Server ServerConfig `json:"server,omitempty"`

	// Storage selects the key-value backend that plays the role of local storage.
	Storage StorageConfig `json:"storage,omitempty"`

	// Auth contains mock backend behavior and redirect targets.
	Auth AuthConfig `json:"auth,omitempty"`

	// Navigation contains sidebar and search settings.
	Navigation NavigationConfig `json:"navigation,omitempty"`

	// Theme contains theme settings.
	Theme ThemeConfig `json:"theme,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"logLevel,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains server settings.
type ServerConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty"`

	// AllowedOrigins restricts WebSocket upgrades. Empty allows same-origin only.
	AllowedOrigins []string `json:"allowedOrigins,omitempty"`
}

// StorageConfig contains storage backend settings.
type StorageConfig struct {
	// Driver is one of memory, sqlite, s3.
	Driver string `json:"driver,omitempty"`

	// DSN is the data source name for SQL drivers.
	DSN string `json:"dsn,omitempty"`

	// Table is the key-value table name for SQL drivers.
	Table string `json:"table,omitempty"`

	// Bucket is the S3 bucket for the s3 driver.
	Bucket string `json:"bucket,omitempty"`

	// Prefix is prepended to every key (S3 object key prefix).
	Prefix string `json:"prefix,omitempty"`

	// Region is the AWS region for the s3 driver.
	Region string `json:"region,omitempty"`
}

// AuthConfig contains mock authentication settings.
type AuthConfig struct {
	// MinLatency is the lower bound of the simulated login latency.
	MinLatency string `json:"minLatency,omitempty"`

	// MaxLatency is the upper bound of the simulated login latency.
	MaxLatency string `json:"maxLatency,omitempty"`

	// ResetLatency is the simulated password reset latency.
	ResetLatency string `json:"resetLatency,omitempty"`

	// FailureRate is the probability of an injected server failure (0 disables).
	FailureRate float64 `json:"failureRate"`

	// DashboardPath is where a successful login navigates.
	DashboardPath string `json:"dashboardPath,omitempty"`

	// LoginPath is where logout navigates.
	LoginPath string `json:"loginPath,omitempty"`
}

// NavigationConfig contains navigation store settings.
type NavigationConfig struct {
	// MobileBreakpoint is the width below which the viewport counts as mobile.
	MobileBreakpoint int `json:"mobileBreakpoint,omitempty"`

	// DefaultItem is the initially active menu item.
	DefaultItem string `json:"defaultItem,omitempty"`

	// SearchInputID is the element focused when search opens.
	SearchInputID string `json:"searchInputId,omitempty"`

	// SearchFocusDelay is how long after opening search the focus is attempted.
	SearchFocusDelay string `json:"searchFocusDelay,omitempty"`
}

// ThemeConfig contains theme settings.
type ThemeConfig struct {
	// Default is the theme used when neither a stored nor a system preference exists.
	Default string `json:"default,omitempty"`

	// DarkClass is the class toggled on the root element.
	DarkClass string `json:"darkClass,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Name: "folio",
		Server: ServerConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Storage: StorageConfig{
			Driver: DefaultStorageDriver,
			DSN:    DefaultStorageDSN,
			Table:  DefaultStorageTable,
		},
		Auth: AuthConfig{
			MinLatency:    "800ms",
			MaxLatency:    "1500ms",
			ResetLatency:  "1s",
			FailureRate:   0.05,
			DashboardPath: "/dashboard",
			LoginPath:     "/login",
		},
		Navigation: NavigationConfig{
			MobileBreakpoint: DefaultMobileBreakpoint,
			DefaultItem:      "dashboard",
			SearchInputID:    "global-search",
			SearchFocusDelay: "100ms",
		},
		Theme: ThemeConfig{
			Default:   "light",
			DarkClass: "dark",
		},
		LogLevel: "info",
	}
}

// Load reads configuration from the specified directory.
// It looks for folio.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
// Fields missing from the file keep their defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("F302").
				WithDetail("No folio.json found in " + filepath.Dir(path)).
				WithSuggestion("Create folio.json, or run folio from a directory without one to use defaults")
		}
		return nil, errors.New("F301").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("F301").
			WithDetail("Failed to parse folio.json: " + err.Error()).
			WithSuggestion("Check that folio.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("F301").Wrap(err)
	}

	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("F301").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	d := New()

	if c.Server.Host == "" {
		c.Server.Host = d.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = d.Storage.Driver
	}
	if c.Storage.Table == "" {
		c.Storage.Table = d.Storage.Table
	}
	if c.Storage.DSN == "" && c.Storage.Driver == DefaultStorageDriver {
		c.Storage.DSN = d.Storage.DSN
	}

	if c.Auth.MinLatency == "" {
		c.Auth.MinLatency = d.Auth.MinLatency
	}
	if c.Auth.MaxLatency == "" {
		c.Auth.MaxLatency = d.Auth.MaxLatency
	}
	if c.Auth.ResetLatency == "" {
		c.Auth.ResetLatency = d.Auth.ResetLatency
	}
	if c.Auth.DashboardPath == "" {
		c.Auth.DashboardPath = d.Auth.DashboardPath
	}
	if c.Auth.LoginPath == "" {
		c.Auth.LoginPath = d.Auth.LoginPath
	}

	if c.Navigation.MobileBreakpoint == 0 {
		c.Navigation.MobileBreakpoint = d.Navigation.MobileBreakpoint
	}
	if c.Navigation.DefaultItem == "" {
		c.Navigation.DefaultItem = d.Navigation.DefaultItem
	}
	if c.Navigation.SearchInputID == "" {
		c.Navigation.SearchInputID = d.Navigation.SearchInputID
	}
	if c.Navigation.SearchFocusDelay == "" {
		c.Navigation.SearchFocusDelay = d.Navigation.SearchFocusDelay
	}

	if c.Theme.Default == "" {
		c.Theme.Default = d.Theme.Default
	}
	if c.Theme.DarkClass == "" {
		c.Theme.DarkClass = d.Theme.DarkClass
	}

	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("F303").
			WithDetail("server.port must be between 0 and 65535")
	}

	switch c.Storage.Driver {
	case "memory", "sqlite":
	case "s3":
		if c.Storage.Bucket == "" {
			return errors.New("F303").
				WithDetail("storage.bucket is required for the s3 driver")
		}
	default:
		return errors.New("F104").
			WithDetail("storage.driver " + strconv.Quote(c.Storage.Driver) + " is not supported")
	}

	for name, value := range map[string]string{
		"auth.minLatency":             c.Auth.MinLatency,
		"auth.maxLatency":             c.Auth.MaxLatency,
		"auth.resetLatency":           c.Auth.ResetLatency,
		"navigation.searchFocusDelay": c.Navigation.SearchFocusDelay,
	} {
		d, err := parseDuration(value)
		if err != nil || d < 0 {
			return errors.New("F303").
				WithDetail(name + " must be a non-negative duration such as \"800ms\"")
		}
	}

	minLatency, maxLatency := c.Auth.Latency()
	if maxLatency < minLatency {
		return errors.New("F303").
			WithDetail("auth.maxLatency must not be less than auth.minLatency")
	}

	if c.Auth.FailureRate < 0 || c.Auth.FailureRate > 1 {
		return errors.New("F303").
			WithDetail("auth.failureRate must be between 0 and 1")
	}

	if c.Navigation.MobileBreakpoint < 0 {
		return errors.New("F303").
			WithDetail("navigation.mobileBreakpoint must not be negative")
	}

	if c.Theme.Default != "light" && c.Theme.Default != "dark" {
		return errors.New("F303").
			WithDetail("theme.default must be \"light\" or \"dark\"")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("F303").
			WithDetail("logLevel must be one of debug, info, warn, error")
	}

	return nil
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Address returns the listen address for the server.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// Latency returns the simulated login latency bounds.
// Unparseable values count as zero; Validate reports them.
func (a AuthConfig) Latency() (lo, hi time.Duration) {
	lo, _ = parseDuration(a.MinLatency)
	hi, _ = parseDuration(a.MaxLatency)
	return lo, hi
}

// ResetDelay returns the simulated password reset latency.
func (a AuthConfig) ResetDelay() time.Duration {
	d, _ := parseDuration(a.ResetLatency)
	return d
}

// FocusDelay returns the delay before the search input is focused.
func (n NavigationConfig) FocusDelay() time.Duration {
	d, _ := parseDuration(n.SearchFocusDelay)
	return d
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" || s == "0" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing folio.json, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("F302").
				WithDetail("No folio.json found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the nearest folio.json at or
// above the working directory, falling back to defaults when none exists.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		if errors.HasCode(err, "F302") {
			return New(), nil
		}
		return nil, err
	}

	return Load(root)
}
