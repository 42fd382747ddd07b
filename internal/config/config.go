package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv      = "UPDATES_SCANNER_CONFIG"
	updatesTableEnv    = "UPDATES_TABLE"
	feedURLEnv         = "RSS_FEED_URL"
	siteBaseURLEnv     = "SITE_BASE_URL"
	textModelEnv       = "TEXT_MODEL_ID"
	imageModelEnv      = "IMAGE_MODEL_ID"
	generatedPrefixEnv = "GENERATED_PREFIX"
	disableSummaryEnv  = "DISABLE_SUMMARY"
	bedrockEndpointEnv = "BEDROCK_ENDPOINT"
	bedrockAPIKeyEnv   = "BEDROCK_API_KEY"
	blobEndpointEnv    = "BLOB_ENDPOINT"
	blobBucketEnv      = "BLOB_BUCKET"
	blobAccessKeyEnv   = "BLOB_ACCESS_KEY"
	blobSecretKeyEnv   = "BLOB_SECRET_KEY"
)

// Duration decodes YAML durations written the Go way ("15s", "1h30m").
// A bare time.Duration field would reject those strings and yaml.v3
// would then drop the whole config file.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std converts back to the stdlib type for callers.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds high-level settings required across the application.
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Feed      FeedConfig      `yaml:"feed"`
	Site      SiteConfig      `yaml:"site"`
	Bedrock   BedrockConfig   `yaml:"bedrock"`
	Blob      BlobConfig      `yaml:"blob"`
	API       APIConfig       `yaml:"api"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// StoreConfig describes the weekly-partitioned update store.
type StoreConfig struct {
	Path  string `yaml:"path"`
	Table string `yaml:"table"`
}

// FeedConfig points at the upstream RSS document.
type FeedConfig struct {
	URL     string        `yaml:"url"`
	Timeout Duration `yaml:"timeout"`
}

// SiteConfig carries the public base URL generated asset links are built from.
type SiteConfig struct {
	BaseURL         string `yaml:"baseUrl"`
	GeneratedPrefix string `yaml:"generatedPrefix"`
}

// BedrockConfig defines how to reach the generation service.
type BedrockConfig struct {
	Endpoint       string `yaml:"endpoint"`
	APIKey         string `yaml:"apiKey"`
	TextModelID    string `yaml:"textModelId"`
	ImageModelID   string `yaml:"imageModelId"`
	DisableSummary bool   `yaml:"disableSummary"`
}

// BlobConfig wires the object store generated images are published to.
type BlobConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	UseSSL    bool   `yaml:"useSsl"`
}

// APIConfig describes the read-side HTTP server.
type APIConfig struct {
	ListenAddr string `yaml:"listenAddr"`
}

// SchedulerConfig defines how often the pipeline re-runs.
type SchedulerConfig struct {
	Interval Duration `yaml:"interval"`
}

// LoggingConfig selects log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

// Validate reports missing required settings. Absence of any of these is
// a startup-time hard failure, never discovered mid-invocation.
func (c Config) Validate() error {
	var missing []string
	if c.Store.Table == "" {
		missing = append(missing, updatesTableEnv)
	}
	if c.Feed.URL == "" {
		missing = append(missing, feedURLEnv)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// SummaryEnabled reports whether summary generation should run at all.
func (c Config) SummaryEnabled() bool {
	return !c.Bedrock.DisableSummary
}

// ImagesEnabled reports whether the image-generation variant of the
// pipeline is active; it needs both a model and a blob sink.
func (c Config) ImagesEnabled() bool {
	return c.Bedrock.ImageModelID != "" && c.Blob.Bucket != ""
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(updatesTableEnv); v != "" {
		c.Store.Table = v
	}
	if v := os.Getenv(feedURLEnv); v != "" {
		c.Feed.URL = v
	}
	if v := os.Getenv(siteBaseURLEnv); v != "" {
		c.Site.BaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv(generatedPrefixEnv); v != "" {
		c.Site.GeneratedPrefix = v
	}
	if v := os.Getenv(textModelEnv); v != "" {
		c.Bedrock.TextModelID = v
	}
	if v := os.Getenv(imageModelEnv); v != "" {
		c.Bedrock.ImageModelID = v
	}
	if v := os.Getenv(bedrockEndpointEnv); v != "" {
		c.Bedrock.Endpoint = v
	}
	if v := os.Getenv(bedrockAPIKeyEnv); v != "" {
		c.Bedrock.APIKey = v
	}
	if v := os.Getenv(disableSummaryEnv); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			c.Bedrock.DisableSummary = parsed
		}
	}
	if v := os.Getenv(blobEndpointEnv); v != "" {
		c.Blob.Endpoint = v
	}
	if v := os.Getenv(blobBucketEnv); v != "" {
		c.Blob.Bucket = v
	}
	if v := os.Getenv(blobAccessKeyEnv); v != "" {
		c.Blob.AccessKey = v
	}
	if v := os.Getenv(blobSecretKeyEnv); v != "" {
		c.Blob.SecretKey = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Store.Path != "" {
		base.Store.Path = override.Store.Path
	}
	if override.Store.Table != "" {
		base.Store.Table = override.Store.Table
	}

	if override.Feed.URL != "" {
		base.Feed.URL = override.Feed.URL
	}
	if override.Feed.Timeout > 0 {
		base.Feed.Timeout = override.Feed.Timeout
	}

	if override.Site.BaseURL != "" {
		base.Site.BaseURL = strings.TrimRight(override.Site.BaseURL, "/")
	}
	if override.Site.GeneratedPrefix != "" {
		base.Site.GeneratedPrefix = override.Site.GeneratedPrefix
	}

	if override.Bedrock.Endpoint != "" {
		base.Bedrock.Endpoint = override.Bedrock.Endpoint
	}
	if override.Bedrock.APIKey != "" {
		base.Bedrock.APIKey = override.Bedrock.APIKey
	}
	if override.Bedrock.TextModelID != "" {
		base.Bedrock.TextModelID = override.Bedrock.TextModelID
	}
	if override.Bedrock.ImageModelID != "" {
		base.Bedrock.ImageModelID = override.Bedrock.ImageModelID
	}
	if override.Bedrock.DisableSummary {
		base.Bedrock.DisableSummary = true
	}

	if override.Blob.Endpoint != "" {
		base.Blob = override.Blob
	}

	if override.API.ListenAddr != "" {
		base.API.ListenAddr = override.API.ListenAddr
	}
	if override.Scheduler.Interval > 0 {
		base.Scheduler.Interval = override.Scheduler.Interval
	}
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Store: StoreConfig{Path: "updates.db", Table: "updates"},
		Feed: FeedConfig{
			URL:     "",
			Timeout: Duration(15 * time.Second),
		},
		Site: SiteConfig{
			BaseURL:         "https://acloudresume.com",
			GeneratedPrefix: "assets/generated/",
		},
		Bedrock: BedrockConfig{
			Endpoint:     "https://bedrock-runtime.us-east-1.amazonaws.com",
			TextModelID:  "amazon.titan-text-express-v1",
			ImageModelID: "amazon.titan-image-generator-v1",
		},
		API:       APIConfig{ListenAddr: ":8080"},
		Scheduler: SchedulerConfig{Interval: Duration(time.Hour)},
		Logging:   LoggingConfig{Level: "info"},
	}
}
