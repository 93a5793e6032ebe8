// Package cli implements the chat-compressor command tree.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/daozhang71/chat-compressor/internal/config"
	"github.com/daozhang71/chat-compressor/pkg/logger"
)

// GlobalFlags holds the persistent flags.
type GlobalFlags struct {
	ConfigPath string
	Verbose    bool
	Quiet      bool
}

var globalFlags GlobalFlags

type contextKey struct{}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "chat-compressor",
		Short: "Incremental conversation compression and retrieval",
		Long: `chat-compressor maintains a running summary and a vector index over
long conversations, so hosts can inject compact context instead of the
full history into each generation request.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" || cmd.Name() == "help" {
				return nil
			}

			configPath := globalFlags.ConfigPath
			if configPath == "" {
				var err error
				configPath, err = config.DefaultConfigPath()
				if err != nil {
					return err
				}
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			logLevel := cfg.Log.Level
			if globalFlags.Verbose {
				logLevel = "debug"
			}
			if globalFlags.Quiet {
				logLevel = "error"
			}

			if err := logger.Init(logger.Config{
				Level:  logLevel,
				Format: cfg.Log.Format,
				File:   cfg.Log.File,
			}); err != nil {
				return err
			}

			storagePath := cfg.Storage.Path
			if storagePath == "" {
				storagePath, err = config.DefaultDataPath()
				if err != nil {
					return err
				}
			}

			cliCtx := NewCLIContext(cfg, configPath, logger.Get(), storagePath, globalFlags.Verbose, globalFlags.Quiet)
			cmd.SetContext(context.WithValue(cmd.Context(), contextKey{}, cliCtx))

			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if cliCtx := GetCLIContext(cmd); cliCtx != nil {
				return cliCtx.Close()
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&globalFlags.ConfigPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Quiet, "quiet", "q", false, "quiet mode")

	rootCmd.AddCommand(NewVersionCmd())
	rootCmd.AddCommand(NewInitCmd())
	rootCmd.AddCommand(NewConfigCmd())
	rootCmd.AddCommand(NewServeCmd())
	rootCmd.AddCommand(NewAddCmd())
	rootCmd.AddCommand(NewMessagesCmd())
	rootCmd.AddCommand(NewCompressCmd())
	rootCmd.AddCommand(NewQueryCmd())
	rootCmd.AddCommand(NewInjectCmd())
	rootCmd.AddCommand(NewStatusCmd())
	rootCmd.AddCommand(NewSummaryCmd())
	rootCmd.AddCommand(NewClearCmd())
	rootCmd.AddCommand(NewConversationsCmd())
	rootCmd.AddCommand(NewOptionsCmd())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	defer logger.Close()
	return NewRootCmd().Execute()
}
