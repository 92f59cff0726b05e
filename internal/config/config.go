// Package config provides configuration loading for the Zuora discovery binaries.
//
// Values come from an optional YAML file, then environment variables override
// whatever the file set.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nucleus/ucl-zuora/internal/catalogstore"
	"github.com/nucleus/ucl-zuora/internal/connector/zuora"
)

// Config is the complete binary configuration.
type Config struct {
	Zuora    ZuoraConfig    `yaml:"zuora"`
	Store    StoreConfig    `yaml:"store"`
	Server   ServerConfig   `yaml:"server"`
	Temporal TemporalConfig `yaml:"temporal"`
	Log      LogConfig      `yaml:"log"`
}

// ZuoraConfig holds connection and discovery settings.
type ZuoraConfig struct {
	BaseURL     string   `yaml:"baseUrl"`
	Sandbox     bool     `yaml:"sandbox"`
	European    bool     `yaml:"european"`
	AccessToken string   `yaml:"accessToken"`
	APIKeyID    string   `yaml:"apiKeyId"`
	APISecret   string   `yaml:"apiSecret"`
	ForceREST   bool     `yaml:"forceRest"`
	Partner     string   `yaml:"partnerId"`
	Project     string   `yaml:"project"`
	Concurrency int      `yaml:"concurrency"`
	Streams     []string `yaml:"streams"`
}

// StoreConfig selects the catalog artifact store.
type StoreConfig struct {
	Kind        string `yaml:"kind"`
	Root        string `yaml:"root"`
	Bucket      string `yaml:"bucket"`
	Prefix      string `yaml:"prefix"`
	Endpoint    string `yaml:"endpoint"`
	AccessKey   string `yaml:"accessKey"`
	SecretKey   string `yaml:"secretKey"`
	Region      string `yaml:"region"`
	UseSSL      bool   `yaml:"useSSL"`
	DatabaseURL string `yaml:"databaseUrl"`
	Driver      string `yaml:"driver"`
}

// ServerConfig holds gRPC server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// TemporalConfig holds worker settings.
type TemporalConfig struct {
	Address   string `yaml:"address"`
	Namespace string `yaml:"namespace"`
	TaskQueue string `yaml:"taskQueue"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Zuora:    ZuoraConfig{Concurrency: 1},
		Store:    StoreConfig{Kind: catalogstore.KindLocal, Bucket: "zuora-catalogs", Prefix: "catalogs", Driver: "postgres"},
		Server:   ServerConfig{Port: 50061},
		Temporal: TemporalConfig{Address: "localhost:7233", Namespace: "default", TaskQueue: "zuora-discovery"},
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path (optional) and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	z := &c.Zuora
	z.BaseURL = getEnv("ZUORA_BASE_URL", z.BaseURL)
	z.Sandbox = getEnvBool("ZUORA_SANDBOX", z.Sandbox)
	z.European = getEnvBool("ZUORA_EUROPEAN", z.European)
	z.AccessToken = getEnv("ZUORA_ACCESS_TOKEN", z.AccessToken)
	z.APIKeyID = getEnv("ZUORA_API_KEY_ID", z.APIKeyID)
	z.APISecret = getEnv("ZUORA_API_SECRET", z.APISecret)
	z.ForceREST = getEnvBool("ZUORA_FORCE_REST", z.ForceREST)
	z.Partner = getEnv("ZUORA_PARTNER_ID", z.Partner)
	z.Project = getEnv("ZUORA_PROJECT", z.Project)
	z.Concurrency = getEnvInt("ZUORA_CONCURRENCY", z.Concurrency)
	z.Streams = getEnvList("ZUORA_STREAMS", z.Streams)

	s := &c.Store
	s.Kind = getEnv("CATALOG_STORE", s.Kind)
	s.Root = getEnv("CATALOG_ROOT", s.Root)
	s.Bucket = getEnv("CATALOG_BUCKET", s.Bucket)
	s.Prefix = getEnv("CATALOG_PREFIX", s.Prefix)
	s.Endpoint = getEnv("MINIO_ENDPOINT", s.Endpoint)
	s.AccessKey = getEnv("MINIO_ACCESS_KEY", s.AccessKey)
	s.SecretKey = getEnv("MINIO_SECRET_KEY", s.SecretKey)
	s.Region = getEnv("MINIO_REGION", s.Region)
	s.UseSSL = getEnvBool("MINIO_USE_SSL", s.UseSSL)
	s.DatabaseURL = getEnv("CATALOG_DATABASE_URL", s.DatabaseURL)
	s.Driver = getEnv("CATALOG_DB_DRIVER", s.Driver)

	c.Server.Port = getEnvInt("UCL_GRPC_PORT", c.Server.Port)

	c.Temporal.Address = getEnv("TEMPORAL_ADDRESS", c.Temporal.Address)
	c.Temporal.Namespace = getEnv("TEMPORAL_NAMESPACE", c.Temporal.Namespace)
	c.Temporal.TaskQueue = getEnv("ZUORA_TASK_QUEUE", c.Temporal.TaskQueue)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
}

// Validate checks the settings every binary needs.
func (c *Config) Validate() error {
	var errs []error
	if err := c.ZuoraConfig().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("zuora: %w", err))
	}
	switch c.Store.Kind {
	case "", catalogstore.KindLocal:
	case catalogstore.KindMinio, "s3":
		if c.Store.Endpoint == "" {
			errs = append(errs, errors.New("store: endpoint required for minio"))
		}
	case catalogstore.KindPostgres:
		if c.Store.DatabaseURL == "" {
			errs = append(errs, errors.New("store: databaseUrl required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("store: unknown kind %q", c.Store.Kind))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server: invalid port %d", c.Server.Port))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ZuoraConfig converts to the connector configuration.
func (c *Config) ZuoraConfig() *zuora.Config {
	z := c.Zuora
	return &zuora.Config{
		BaseURL:     z.BaseURL,
		Sandbox:     z.Sandbox,
		European:    z.European,
		AccessToken: z.AccessToken,
		APIKeyID:    z.APIKeyID,
		APISecret:   z.APISecret,
		ForceREST:   z.ForceREST,
		Partner:     z.Partner,
		Project:     z.Project,
		Concurrency: z.Concurrency,
		Streams:     append([]string(nil), z.Streams...),
	}
}

// EndpointParams returns the Zuora settings as registry parameters,
// the form endpoint factories and remote callers use.
func (c *Config) EndpointParams() map[string]any {
	z := c.Zuora
	params := map[string]any{
		"sandbox":     z.Sandbox,
		"european":    z.European,
		"forceRest":   z.ForceREST,
		"concurrency": z.Concurrency,
	}
	for key, val := range map[string]string{
		"baseUrl":     z.BaseURL,
		"accessToken": z.AccessToken,
		"apiKeyId":    z.APIKeyID,
		"apiSecret":   z.APISecret,
		"partnerId":   z.Partner,
		"project":     z.Project,
	} {
		if val != "" {
			params[key] = val
		}
	}
	if len(z.Streams) > 0 {
		params["streams"] = append([]string(nil), z.Streams...)
	}
	return params
}

// StoreConfig converts to the catalog store configuration.
func (c *Config) StoreConfig() catalogstore.Config {
	s := c.Store
	return catalogstore.Config{
		Kind:   s.Kind,
		Root:   s.Root,
		Bucket: s.Bucket,
		Prefix: s.Prefix,
		S3: catalogstore.S3Config{
			EndpointURL:     s.Endpoint,
			AccessKeyID:     s.AccessKey,
			SecretAccessKey: s.SecretKey,
			Region:          s.Region,
			UseSSL:          s.UseSSL,
		},
		DatabaseURL: s.DatabaseURL,
		Driver:      s.Driver,
	}
}

// Logger builds a slog logger writing to w at the configured level.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log: invalid level %q", s)
	}
	return level, nil
}

// --- Env Helpers ---

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvList(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
