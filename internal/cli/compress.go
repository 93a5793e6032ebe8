package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/daozhang71/chat-compressor/internal/compress"
	"github.com/daozhang71/chat-compressor/internal/storage"
)

// NewCompressCmd creates the compress command.
func NewCompressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compress <conversation>",
		Short: "Fold new messages into the running summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := GetCLIContext(cmd)
			if cliCtx == nil {
				return fmt.Errorf("CLI context not initialized")
			}
			eng, err := cliCtx.GetEngine()
			if err != nil {
				return err
			}

			onProgress := func(pct int) {
				if !cliCtx.Quiet {
					fmt.Printf("\rvectorizing %3d%%", pct)
				}
			}

			state, err := eng.Fold(cmd.Context(), args[0], onProgress)
			if !cliCtx.Quiet {
				fmt.Print("\r")
			}
			if err != nil {
				if compress.IsNoOp(err) {
					fmt.Printf("Nothing to do: %v\n", err)
					return nil
				}
				return err
			}

			fmt.Printf("Compressed %s: %d messages folded, %d vectors indexed\n",
				args[0], state.CompressedMessageCount, len(state.Vectors))
			return nil
		},
		Args: cobra.ExactArgs(1),
	}
}

// NewQueryCmd creates the query command.
func NewQueryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query <conversation> <text>...",
		Short: "Search a conversation's vector index",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := GetCLIContext(cmd)
			if cliCtx == nil {
				return fmt.Errorf("CLI context not initialized")
			}
			eng, err := cliCtx.GetEngine()
			if err != nil {
				return err
			}

			results, err := eng.Retrieve(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return fmt.Errorf("retrieve: %w", err)
			}
			if len(results) == 0 {
				fmt.Println("No results.")
				return nil
			}

			for _, r := range results {
				fmt.Printf("%.3f  [%d] %s\n", r.Similarity, r.Index, r.Text)
			}
			return nil
		},
	}
}

// NewInjectCmd creates the inject command.
func NewInjectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inject <conversation> [query...]",
		Short: "Print the context injection for the next request",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := GetCLIContext(cmd)
			if cliCtx == nil {
				return fmt.Errorf("CLI context not initialized")
			}
			eng, err := cliCtx.GetEngine()
			if err != nil {
				return err
			}

			injection, err := eng.Prepare(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return fmt.Errorf("prepare injection: %w", err)
			}
			if injection == "" {
				fmt.Println("Nothing to inject: no summary yet.")
				return nil
			}

			fmt.Println(injection)
			return nil
		},
	}
}

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <conversation>",
		Short: "Show compression status of a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := GetCLIContext(cmd)
			if cliCtx == nil {
				return fmt.Errorf("CLI context not initialized")
			}
			eng, err := cliCtx.GetEngine()
			if err != nil {
				return err
			}
			db, err := cliCtx.GetStorage()
			if err != nil {
				return err
			}

			total, err := db.CountMessages(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Conversation: %s\n", args[0])
			fmt.Printf("Messages:     %d\n", total)

			state, err := eng.State(args[0])
			if errors.Is(err, storage.ErrNotFound) {
				fmt.Println("State:        none (not compressed yet)")
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Printf("Compressed:   %d messages (boundary %d)\n",
				state.CompressedMessageCount, state.CompressedUntilIndex)
			fmt.Printf("Vectors:      %d\n", len(state.Vectors))
			fmt.Printf("Summary:      %d chars\n", len(state.Summary))
			return nil
		},
	}
}

// NewSummaryCmd creates the summary command.
func NewSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <conversation> [text...]",
		Short: "Show or overwrite the running summary",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := GetCLIContext(cmd)
			if cliCtx == nil {
				return fmt.Errorf("CLI context not initialized")
			}
			eng, err := cliCtx.GetEngine()
			if err != nil {
				return err
			}

			if len(args) > 1 {
				if _, err := eng.SetSummary(args[0], strings.Join(args[1:], " ")); err != nil {
					return fmt.Errorf("set summary: %w", err)
				}
				fmt.Println("Summary updated.")
				return nil
			}

			state, err := eng.State(args[0])
			if errors.Is(err, storage.ErrNotFound) {
				fmt.Println("No summary yet.")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Println(state.Summary)
			return nil
		},
	}
}

// NewClearCmd creates the clear command.
func NewClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear <conversation>",
		Short: "Drop the compression state; the message log stays",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := GetCLIContext(cmd)
			if cliCtx == nil {
				return fmt.Errorf("CLI context not initialized")
			}
			eng, err := cliCtx.GetEngine()
			if err != nil {
				return err
			}

			if err := eng.Clear(args[0]); err != nil {
				return fmt.Errorf("clear state: %w", err)
			}
			fmt.Printf("Cleared compression state of %s\n", args[0])
			return nil
		},
	}
}

// NewOptionsCmd creates the options command.
func NewOptionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "options <conversation> <json>",
		Short: "Set per-conversation engine option overrides",
		Long: `Set per-conversation engine option overrides as a partial JSON
object, for example '{"keep_recent_messages":8,"skip_vectorize":true}'.
Pass '{}' to clear the overrides.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := GetCLIContext(cmd)
			if cliCtx == nil {
				return fmt.Errorf("CLI context not initialized")
			}
			eng, err := cliCtx.GetEngine()
			if err != nil {
				return err
			}

			if err := eng.SetOptions(args[0], args[1]); err != nil {
				return fmt.Errorf("set options: %w", err)
			}
			fmt.Printf("Options updated for %s\n", args[0])
			return nil
		},
	}
}
