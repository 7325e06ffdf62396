// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pdiddy/patent-report/internal/chat"
	"github.com/pdiddy/patent-report/pkg/types"
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Ask the assistant about a result",
	Long: `Chat sends a message to the assistant, using a stored result as context.
With a message argument it answers once; without one it reads questions
from standard input until EOF. Conversations are kept in history, so a
later chat with the same --conversation continues where it left off.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	recordID, _ := cmd.Flags().GetString("record")
	conversation, _ := cmd.Flags().GetString("conversation")
	showHistory, _ := cmd.Flags().GetBool("history")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	var contextText string
	if recordID != "" {
		rec, err := store.Get(ctx, recordID)
		if err != nil {
			return err
		}
		contextText = rec.CanonicalText
		if conversation == "" {
			conversation = rec.ConversationID
		}
	}
	if conversation == "" {
		conversation = uuid.NewString()
		fmt.Fprintf(os.Stderr, "Conversation %s\n", conversation)
	}

	assistant, err := newAssistant(cfg, store)
	if err != nil {
		return err
	}

	if showHistory {
		msgs, err := assistant.History(ctx, conversation)
		if err != nil {
			return err
		}
		printMessages(msgs)
		return nil
	}

	if len(args) == 1 {
		return ask(ctx, assistant, conversation, args[0], contextText)
	}

	sc := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(os.Stderr, "> ")
		if !sc.Scan() {
			break
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if err := ask(ctx, assistant, conversation, line, contextText); err != nil {
			if errors.Is(err, chat.ErrQuotaExceeded) {
				return err
			}
			fmt.Fprintln(os.Stderr, "error:", err)
		}
	}
	return sc.Err()
}

func ask(ctx context.Context, a *chat.Assistant, conversation, message, contextText string) error {
	reply, err := a.Ask(ctx, conversation, message, contextText)
	if err != nil {
		return err
	}
	fmt.Println(reply)
	return nil
}

func printMessages(msgs []types.ChatMessage) {
	if len(msgs) == 0 {
		fmt.Println("No messages.")
		return
	}
	for _, m := range msgs {
		fmt.Printf("[%s] %s: %s\n", m.CreatedAt.Local().Format("15:04"), m.Role, m.Content)
	}
}

func init() {
	chatCmd.Flags().String("record", "", "history record whose report is the chat context")
	chatCmd.Flags().String("conversation", "", "conversation id (default: the record's, or a new one)")
	chatCmd.Flags().Bool("history", false, "print the conversation instead of asking")

	rootCmd.AddCommand(chatCmd)
}
