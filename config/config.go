package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Paths     PathsConfig     `yaml:"paths"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Analyzer  AnalyzerConfig  `yaml:"analyzer"`
	Minio     MinioConfig     `yaml:"minio"`
	Mineru    MineruConfig    `yaml:"mineru"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Users     []User          `yaml:"users"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// PathsConfig holds the two directories the pipeline works in.
type PathsConfig struct {
	RawDir    string `yaml:"raw_dir"`
	OutputDir string `yaml:"output_dir"`
}

// Artifact layouts
const (
	LayoutPerJob = "per_job"
	LayoutFlat   = "flat"
)

type PipelineConfig struct {
	StageTimeout time.Duration `yaml:"stage_timeout"`
	MaxJobs      int           `yaml:"max_jobs"` // 0 = unlimited
	Layout       string        `yaml:"layout"`   // per_job, flat
}

// AnalyzerConfig points at the service implementing segmentation, risk
// scoring and amendment generation.
type AnalyzerConfig struct {
	URL     string        `yaml:"url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

type MinioConfig struct {
	Endpoint   string `yaml:"endpoint"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	Bucket     string `yaml:"bucket"`
	UseSSL     bool   `yaml:"use_ssl"`
	ExpireDays int    `yaml:"expire_days"`
}

// Enabled reports whether object storage is configured.
func (m MinioConfig) Enabled() bool {
	return m.Endpoint != ""
}

type MineruConfig struct {
	APIURL       string        `yaml:"api_url"`
	APIToken     string        `yaml:"api_token"`
	ModelVersion string        `yaml:"model_version"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// Enabled reports whether remote extraction is configured.
func (m MineruConfig) Enabled() bool {
	return m.APIURL != ""
}

type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret"`
	TokenExpireHours int    `yaml:"token_expire_hours"`
}

type RateLimitConfig struct {
	UploadsPerMinute int `yaml:"uploads_per_minute"`
	Burst            int `yaml:"burst"`
}

type User struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Tenant   string `yaml:"tenant"`
}

// Load reads the YAML file at path, applies defaults and then environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Pipeline.Layout {
	case LayoutPerJob:
		return nil
	case LayoutFlat:
		// Every job writes to the same directory, so tenants would read
		// each other's results.
		if tenants := c.tenants(); len(tenants) > 1 {
			return fmt.Errorf("pipeline layout %q serves a single tenant, found %d", LayoutFlat, len(tenants))
		}
		return nil
	default:
		return fmt.Errorf("unknown pipeline layout %q", c.Pipeline.Layout)
	}
}

// tenants returns the distinct tenants of the configured users. A user
// without a tenant belongs to the default one.
func (c *Config) tenants() map[string]bool {
	set := make(map[string]bool)
	for _, u := range c.Users {
		set[u.Tenant] = true
	}
	return set
}

// Default returns a configuration built from defaults and the environment only.
func Default() (*Config, error) {
	var cfg Config
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Paths.RawDir == "" {
		c.Paths.RawDir = "./raw"
	}
	if c.Paths.OutputDir == "" {
		c.Paths.OutputDir = "./results"
	}
	if c.Pipeline.StageTimeout == 0 {
		c.Pipeline.StageTimeout = 15 * time.Minute
	}
	if c.Pipeline.MaxJobs < 0 {
		c.Pipeline.MaxJobs = 0
	}
	if c.Pipeline.Layout == "" {
		c.Pipeline.Layout = LayoutPerJob
	}
	if c.Analyzer.Timeout == 0 {
		c.Analyzer.Timeout = 5 * time.Minute
	}
	if c.Minio.ExpireDays == 0 {
		c.Minio.ExpireDays = 7
	}
	if c.Mineru.ModelVersion == "" {
		c.Mineru.ModelVersion = "vlm"
	}
	if c.Mineru.PollInterval == 0 {
		c.Mineru.PollInterval = 5 * time.Second
	}
	if c.Auth.TokenExpireHours == 0 {
		c.Auth.TokenExpireHours = 24
	}
	if c.RateLimit.UploadsPerMinute == 0 {
		c.RateLimit.UploadsPerMinute = 10
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 3
	}
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("RAW_DIR"); v != "" {
		c.Paths.RawDir = v
	}
	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		c.Paths.OutputDir = v
	}
	if v := os.Getenv("ANALYZER_URL"); v != "" {
		c.Analyzer.URL = v
	}
	if v := os.Getenv("ANALYZER_TOKEN"); v != "" {
		c.Analyzer.Token = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	return nil
}

// Ensure creates the raw and output directories when absent.
func (p PathsConfig) Ensure() error {
	for _, dir := range []string{p.RawDir, p.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// FindUser finds a user by username
func (c *Config) FindUser(username string) *User {
	for i := range c.Users {
		if c.Users[i].Username == username {
			return &c.Users[i]
		}
	}
	return nil
}
