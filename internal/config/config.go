package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/reconcile"
	"github.com/vango-dev/vtree/pkg/snapshot"
)

const (
	// ConfigFileName is the name of the JSON configuration file.
	ConfigFileName = "vtree.json"

	// YAMLConfigFileName is the name of the YAML configuration file, used
	// when no JSON file exists.
	YAMLConfigFileName = "vtree.yaml"

	// DefaultAddress is the default live server address.
	DefaultAddress = "localhost:7070"

	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"

	// DefaultReadTimeout is the default live server read timeout.
	DefaultReadTimeout = "10s"

	// DefaultNamespace is the default metrics namespace.
	DefaultNamespace = "vtree"

	// DefaultSnapshotDir is the default snapshot directory.
	DefaultSnapshotDir = ".vtree/snapshots"
)

// Environment variables overriding file settings.
const (
	EnvLogLevel = "VTREE_LOG_LEVEL"
	EnvAddress  = "VTREE_ADDR"
)

// Config represents the complete vtree configuration.
type Config struct {
	// LogLevel is one of debug, info, warn or error.
	LogLevel string `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`

	// KeyPolicy is "first-match" or "strict".
	KeyPolicy string `json:"keyPolicy,omitempty" yaml:"keyPolicy,omitempty"`

	// Metrics contains Prometheus settings.
	Metrics MetricsConfig `json:"metrics,omitempty" yaml:"metrics,omitempty"`

	// Live contains live server settings.
	Live LiveConfig `json:"live,omitempty" yaml:"live,omitempty"`

	// Snapshot contains snapshot storage settings.
	Snapshot SnapshotConfig `json:"snapshot,omitempty" yaml:"snapshot,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Namespace prefixes every metric name.
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// LiveConfig contains live server settings.
type LiveConfig struct {
	// Address is the listen address.
	Address string `json:"address,omitempty" yaml:"address,omitempty"`

	// ReadTimeout bounds reading a request (e.g., "10s").
	ReadTimeout string `json:"readTimeout,omitempty" yaml:"readTimeout,omitempty"`
}

// SnapshotConfig contains snapshot storage settings.
type SnapshotConfig struct {
	// Dir is the local snapshot directory, relative to the config file.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`

	// S3 switches storage to a bucket when S3.Bucket is set.
	S3 snapshot.S3Config `json:"s3,omitempty" yaml:"s3,omitempty"`
}

// New returns a configuration with default values.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Default returns a configuration with default values. It is equivalent to
// New.
func Default() *Config {
	return New()
}

// Load reads the configuration file in dir, preferring vtree.json over
// vtree.yaml.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(path); err != nil {
		if yamlPath := filepath.Join(dir, YAMLConfigFileName); fileExists(yamlPath) {
			path = yamlPath
		}
	}
	return LoadFile(path)
}

// LoadFile reads configuration from the specified file path. The format is
// chosen by extension.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("C001").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				WithSuggestion("Create " + ConfigFileName + " or run without a config file to use defaults")
		}
		return nil, errors.New("C001").Wrap(err)
	}

	cfg := &Config{}
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("C001").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check that " + filepath.Base(path) + " is well formed")
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
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("C001").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("C001").Wrap(err)
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
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.KeyPolicy == "" {
		c.KeyPolicy = reconcile.KeysFirstMatch.String()
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Live.Address == "" {
		c.Live.Address = DefaultAddress
	}
	if c.Live.ReadTimeout == "" {
		c.Live.ReadTimeout = DefaultReadTimeout
	}
	if c.Snapshot.Dir == "" {
		c.Snapshot.Dir = DefaultSnapshotDir
	}
}

// ApplyEnv applies environment overrides read through getenv, which is
// normally os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := getenv(EnvAddress); v != "" {
		c.Live.Address = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := parseLevel(c.LogLevel); err != nil {
		return errors.New("C002").
			WithDetail("logLevel: " + err.Error()).
			WithSuggestion("Use one of debug, info, warn, error")
	}
	if _, err := reconcile.ParseKeyPolicy(c.KeyPolicy); err != nil {
		return errors.New("C002").
			WithDetail("keyPolicy: " + err.Error()).
			WithSuggestion("Use first-match or strict")
	}
	if d, err := time.ParseDuration(c.Live.ReadTimeout); err != nil || d < 0 {
		return errors.New("C002").
			WithDetailf("live.readTimeout: invalid duration %q", c.Live.ReadTimeout)
	}
	s3 := c.Snapshot.S3
	if s3.Bucket == "" && (s3.Prefix != "" || s3.Region != "" || s3.Endpoint != "") {
		return errors.New("C003").
			WithDetail("snapshot.s3 is set but snapshot.s3.bucket is empty")
	}
	return nil
}

// SlogLevel returns the configured log level. Invalid levels yield Info.
func (c *Config) SlogLevel() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

// KeyPolicyValue returns the configured key policy. Invalid policies yield
// first-match.
func (c *Config) KeyPolicyValue() reconcile.KeyPolicy {
	p, _ := reconcile.ParseKeyPolicy(c.KeyPolicy)
	return p
}

// ReadTimeout returns the live server read timeout.
func (c *Config) ReadTimeout() time.Duration {
	d, err := time.ParseDuration(c.Live.ReadTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// SnapshotPath returns the absolute path to the snapshot directory.
func (c *Config) SnapshotPath() string {
	if filepath.IsAbs(c.Snapshot.Dir) {
		return c.Snapshot.Dir
	}
	return filepath.Join(c.Dir(), c.Snapshot.Dir)
}

// OpenSnapshotStore opens the configured snapshot store.
func (c *Config) OpenSnapshotStore() (snapshot.Store, error) {
	return snapshot.Open(c.SnapshotPath(), c.Snapshot.S3)
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	return fileExists(filepath.Join(dir, ConfigFileName)) ||
		fileExists(filepath.Join(dir, YAMLConfigFileName))
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing the config file, or an error if not found.
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
			return "", errors.New("C001").
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the working directory or its
// nearest ancestor holding a config file. Without one it returns defaults.
// Environment overrides are applied in both cases.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	cfg := New()
	if root, err := FindProjectRoot(wd); err == nil {
		if cfg, err = Load(root); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}
