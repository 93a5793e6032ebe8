package cli

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/daozhang71/chat-compressor/internal/config"
	"github.com/daozhang71/chat-compressor/internal/engine"
	"github.com/daozhang71/chat-compressor/internal/memory"
	"github.com/daozhang71/chat-compressor/internal/provider"
	"github.com/daozhang71/chat-compressor/internal/storage"
	"github.com/daozhang71/chat-compressor/pkg/logger"
)

// CLIContext carries the loaded configuration and lazily opened resources
// through the command tree.
type CLIContext struct {
	Config      *config.Config
	ConfigPath  string
	Logger      *zerolog.Logger
	StoragePath string
	Verbose     bool
	Quiet       bool

	storageOnce sync.Once
	storage     *storage.DB
	storageErr  error
	engineOnce  sync.Once
	engine      *engine.Engine
	engineErr   error
}

// NewCLIContext creates a CLI context.
func NewCLIContext(cfg *config.Config, configPath string, log *zerolog.Logger, storagePath string, verbose, quiet bool) *CLIContext {
	return &CLIContext{
		Config:      cfg,
		ConfigPath:  configPath,
		Logger:      log,
		StoragePath: storagePath,
		Verbose:     verbose,
		Quiet:       quiet,
	}
}

// GetCLIContext extracts the CLI context from a command.
func GetCLIContext(cmd *cobra.Command) *CLIContext {
	ctx := cmd.Context()
	if ctx == nil {
		return nil
	}
	cliCtx, _ := ctx.Value(contextKey{}).(*CLIContext)
	return cliCtx
}

// GetStorage opens the database on first use.
func (c *CLIContext) GetStorage() (*storage.DB, error) {
	c.storageOnce.Do(func() {
		c.storage, c.storageErr = storage.Open(c.StoragePath)
	})
	return c.storage, c.storageErr
}

// GetEngine builds the compression engine on first use, wiring the
// configured provider and embedder.
func (c *CLIContext) GetEngine() (*engine.Engine, error) {
	c.engineOnce.Do(func() {
		db, err := c.GetStorage()
		if err != nil {
			c.engineErr = err
			return
		}

		e := engine.New(db, c.buildProvider(), c.buildEmbedder(), engine.ConfigFrom(c.Config.Engine), *c.Log())
		if c.Config.Embedding.DelayMs >= 0 {
			e.SetEmbedDelay(time.Duration(c.Config.Embedding.DelayMs) * time.Millisecond)
		}
		c.engine = e
	})
	return c.engine, c.engineErr
}

func (c *CLIContext) buildProvider() provider.Provider {
	pc := c.Config.Provider
	switch pc.Type {
	case "", "openai":
		return provider.NewOpenAIProvider(provider.OpenAIConfig{
			APIKey:    pc.APIKey,
			BaseURL:   pc.BaseURL,
			Model:     pc.Model,
			MaxTokens: pc.MaxTokens,
			Timeout:   pc.GetTimeout(),
		})
	default: // "none"
		return nil
	}
}

func (c *CLIContext) buildEmbedder() memory.Embedder {
	ec := c.Config.Embedding
	switch ec.Type {
	case "openai":
		return memory.NewOpenAIEmbedder(memory.OpenAIEmbedderOptions{
			APIKey:     ec.APIKey,
			BaseURL:    ec.BaseURL,
			Model:      ec.Model,
			Dimensions: ec.Dimensions,
			Logger:     *c.Log(),
		})
	case "", "simple":
		return memory.NewSimpleEmbedder(ec.Dimensions)
	default: // "none"
		return nil
	}
}

// Close releases lazily opened resources.
func (c *CLIContext) Close() error {
	if c.storage != nil {
		return c.storage.Close()
	}
	return nil
}

// Log returns the context logger, falling back to the global one.
func (c *CLIContext) Log() *zerolog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return logger.Get()
}
