package config

import "github.com/spf13/viper"

// SetDefaults registers default values for every configuration key.
func SetDefaults() {
	// Provider
	viper.SetDefault("provider.type", "openai")
	viper.SetDefault("provider.base_url", "https://api.openai.com")
	viper.SetDefault("provider.model", "gpt-4o-mini")
	viper.SetDefault("provider.max_tokens", 1024)
	viper.SetDefault("provider.timeout", "60s")

	// Embedding
	viper.SetDefault("embedding.type", "simple")
	viper.SetDefault("embedding.base_url", "https://api.openai.com")
	viper.SetDefault("embedding.model", "text-embedding-3-small")
	viper.SetDefault("embedding.dimensions", 384)
	viper.SetDefault("embedding.delay_ms", 100)

	// Engine
	viper.SetDefault("engine.keep_recent_messages", 4)
	viper.SetDefault("engine.summary_max_words", 150)
	viper.SetDefault("engine.max_summary_length", 2000)
	viper.SetDefault("engine.retrieve_count", 3)
	viper.SetDefault("engine.similarity_threshold", 0.6)
	viper.SetDefault("engine.skip_vectorize", false)

	// Log
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("log.file", "")

	// Storage
	viper.SetDefault("storage.path", "~/.chat-compressor/data.db")

	// Server
	viper.SetDefault("server.host", "127.0.0.1")
	viper.SetDefault("server.port", 8080)
}
