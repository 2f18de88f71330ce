package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var chatsCmd = &cobra.Command{
	Use:   "chats",
	Short: "Manage chat sessions without entering the interface",
}

var chatsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List chat sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChatsList(cmd)
	},
}

var chatsDeleteCmd = &cobra.Command{
	Use:   "delete <chat-id>",
	Short: "Delete a chat session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChatsDelete(cmd, args[0])
	},
}

func init() {
	chatsCmd.AddCommand(chatsListCmd)
	chatsCmd.AddCommand(chatsDeleteCmd)
	rootCmd.AddCommand(chatsCmd)
}

func runChatsList(cmd *cobra.Command) error {
	client, _, err := newClient(os.Stderr)
	if err != nil {
		return err
	}

	chats, err := client.Chats(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing chats: %w", err)
	}

	if len(chats) == 0 {
		fmt.Println("No chats yet. Run market-mind to start one.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tUPDATED")
	for _, chat := range chats {
		fmt.Fprintf(w, "%s\t%s\t%s\n",
			chat.ID, chat.Title, chat.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runChatsDelete(cmd *cobra.Command, chatID string) error {
	client, _, err := newClient(os.Stderr)
	if err != nil {
		return err
	}

	if err := client.DeleteChat(cmd.Context(), chatID); err != nil {
		return fmt.Errorf("deleting chat: %w", err)
	}
	fmt.Printf("Deleted chat %s\n", chatID)
	return nil
}
