package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the root application configuration.
type Config struct {
	Provider  ProviderConfig  `mapstructure:"provider" yaml:"provider"`
	Embedding EmbeddingConfig `mapstructure:"embedding" yaml:"embedding"`
	Engine    EngineConfig    `mapstructure:"engine" yaml:"engine"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Storage   StorageConfig   `mapstructure:"storage" yaml:"storage"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
}

// ProviderConfig configures the text-generation provider.
type ProviderConfig struct {
	Type      string `mapstructure:"type" yaml:"type"` // openai | none
	BaseURL   string `mapstructure:"base_url" yaml:"base_url"`
	APIKey    string `mapstructure:"api_key" yaml:"api_key"`
	Model     string `mapstructure:"model" yaml:"model"`
	MaxTokens int    `mapstructure:"max_tokens" yaml:"max_tokens"`
	Timeout   string `mapstructure:"timeout" yaml:"timeout"`
}

// GetTimeout parses the Timeout field, defaulting to 60 seconds.
func (c *ProviderConfig) GetTimeout() time.Duration {
	if c.Timeout == "" {
		return 60 * time.Second
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// EmbeddingConfig configures the embedding backend used for the vector
// index. Type "simple" selects the deterministic local embedder; "none"
// disables vectorization entirely.
type EmbeddingConfig struct {
	Type       string `mapstructure:"type" yaml:"type"` // simple | openai | none
	BaseURL    string `mapstructure:"base_url" yaml:"base_url"`
	APIKey     string `mapstructure:"api_key" yaml:"api_key"`
	Model      string `mapstructure:"model" yaml:"model"`
	Dimensions int    `mapstructure:"dimensions" yaml:"dimensions"`
	DelayMs    int    `mapstructure:"delay_ms" yaml:"delay_ms"`
}

// EngineConfig holds the compression engine defaults. Per-conversation
// overrides stored alongside the conversation take precedence.
type EngineConfig struct {
	KeepRecentMessages  int     `mapstructure:"keep_recent_messages" yaml:"keep_recent_messages"`
	SummaryMaxWords     int     `mapstructure:"summary_max_words" yaml:"summary_max_words"`
	MaxSummaryLength    int     `mapstructure:"max_summary_length" yaml:"max_summary_length"`
	RetrieveCount       int     `mapstructure:"retrieve_count" yaml:"retrieve_count"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold" yaml:"similarity_threshold"`
	SkipVectorize       bool    `mapstructure:"skip_vectorize" yaml:"skip_vectorize"`
	SummaryPrompt       string  `mapstructure:"summary_prompt" yaml:"summary_prompt,omitempty"`
	RecompressPrompt    string  `mapstructure:"recompress_prompt" yaml:"recompress_prompt,omitempty"`
	InjectionTemplate   string  `mapstructure:"injection_template" yaml:"injection_template,omitempty"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file"`
}

// StorageConfig configures the SQLite database.
type StorageConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

var (
	globalConfig *Config
	configPath   string
	mu           sync.RWMutex
)

// Load loads configuration with precedence ENV > config file > defaults.
// A missing config file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	mu.Lock()
	defer mu.Unlock()

	SetDefaults()

	viper.SetEnvPrefix("CHATC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if path != "" {
		expandedPath, err := ExpandPath(path)
		if err != nil {
			return nil, err
		}
		configPath = expandedPath

		viper.SetConfigFile(expandedPath)
		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigParseError); ok {
				return nil, err
			}
			if !os.IsNotExist(err) {
				if _, ok := err.(*os.PathError); !ok {
					return nil, err
				}
			}
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	globalConfig = &cfg
	return &cfg, nil
}

// GetConfig returns the currently loaded configuration.
func GetConfig() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return globalConfig
}

// Get returns an arbitrary configuration value by key.
func Get(key string) any {
	return viper.Get(key)
}

// Set sets a configuration value and persists it when a config file is
// loaded.
func Set(key string, value any) error {
	mu.Lock()
	defer mu.Unlock()

	viper.Set(key, value)
	if configPath != "" {
		return save()
	}
	return nil
}

// AllSettings returns every effective configuration value.
func AllSettings() map[string]any {
	return viper.AllSettings()
}

// Save writes the current settings back to the loaded config file.
func Save() error {
	mu.Lock()
	defer mu.Unlock()
	return save()
}

func save() error {
	if configPath == "" {
		return os.ErrInvalid
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(viper.AllSettings())
	if err != nil {
		return err
	}

	// 0600: the file may contain API keys.
	return os.WriteFile(configPath, data, 0600)
}

// SaveTo writes the given configuration to path as YAML.
func SaveTo(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// Reset clears the loaded configuration. Mainly for tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	globalConfig = nil
	configPath = ""
	viper.Reset()
}
