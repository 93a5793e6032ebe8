package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/daozhang71/chat-compressor/internal/chat"
)

// NewAddCmd creates the add command.
func NewAddCmd() *cobra.Command {
	var system bool

	cmd := &cobra.Command{
		Use:   "add <conversation> <name> <text>...",
		Short: "Append a message to a conversation",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := GetCLIContext(cmd)
			if cliCtx == nil {
				return fmt.Errorf("CLI context not initialized")
			}
			eng, err := cliCtx.GetEngine()
			if err != nil {
				return err
			}

			msg := chat.Message{
				Name:   args[1],
				Text:   strings.Join(args[2:], " "),
				System: system,
			}
			stored, err := eng.Append(args[0], msg)
			if err != nil {
				return fmt.Errorf("append message: %w", err)
			}

			fmt.Printf("Appended message %d to %s\n", stored.Index, args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&system, "system", false, "mark the message as system-authored")

	return cmd
}

// NewMessagesCmd creates the messages command.
func NewMessagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "messages <conversation>",
		Short: "Print a conversation's message log",
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

			messages, err := eng.Messages(args[0])
			if err != nil {
				return fmt.Errorf("list messages: %w", err)
			}
			if len(messages) == 0 {
				fmt.Println("No messages.")
				return nil
			}

			for _, m := range messages {
				marker := " "
				if m.System {
					marker = "*"
				}
				fmt.Printf("%4d %s %s: %s\n", m.Index, marker, m.Name, m.Text)
			}
			return nil
		},
	}
}

// NewConversationsCmd creates the conversations command group.
func NewConversationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "conversations",
		Short: "List and delete conversations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListConversations(cmd)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List conversations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListConversations(cmd)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <conversation>",
		Short: "Delete a conversation, its messages, and its state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := GetCLIContext(cmd)
			if cliCtx == nil {
				return fmt.Errorf("CLI context not initialized")
			}
			db, err := cliCtx.GetStorage()
			if err != nil {
				return err
			}
			if err := db.DeleteConversation(args[0]); err != nil {
				return fmt.Errorf("delete conversation: %w", err)
			}
			fmt.Printf("Deleted %s\n", args[0])
			return nil
		},
	})

	return cmd
}

func runListConversations(cmd *cobra.Command) error {
	cliCtx := GetCLIContext(cmd)
	if cliCtx == nil {
		return fmt.Errorf("CLI context not initialized")
	}
	db, err := cliCtx.GetStorage()
	if err != nil {
		return err
	}

	conversations, err := db.ListConversations()
	if err != nil {
		return fmt.Errorf("list conversations: %w", err)
	}
	if len(conversations) == 0 {
		fmt.Println("No conversations.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tUPDATED")
	for _, c := range conversations {
		fmt.Fprintf(w, "%s\t%s\t%s\n", c.ID, c.Title, c.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}
