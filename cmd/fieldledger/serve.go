package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/rsawant/fieldledger/internal/bot"
	"github.com/rsawant/fieldledger/internal/model"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var (
		userID    int64
		userName  string
		entryKind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run an interactive console session against the pipeline",
		Long: `Reads messages from stdin and prints the reply for each. A message
ends with a line containing only "." so multi-entry batches can span
several lines. Intended for local testing and as the seam where a chat
transport plugs in.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := slog.Default()

			handler, reg, err := buildHandler(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer func() { _ = reg.Close() }()

			entryType, err := parseEntryType(entryKind)
			if err != nil {
				return err
			}

			logger.Info("console session started", "user_id", userID)
			fmt.Println("Enter messages; finish each with a line containing only \".\" (Ctrl-D to exit)")

			scanner := bufio.NewScanner(os.Stdin)
			scanner.Buffer(make([]byte, 0, 64*1024), 64*1024)

			var lines []string
			for scanner.Scan() {
				if cmd.Context().Err() != nil {
					break
				}

				line := scanner.Text()
				if strings.TrimSpace(line) != "." {
					lines = append(lines, line)
					continue
				}

				text := strings.TrimSpace(strings.Join(lines, "\n"))
				lines = lines[:0]
				if text == "" {
					continue
				}

				reply := handler.HandleMessage(cmd.Context(), bot.Message{
					UserID:    userID,
					UserName:  userName,
					Text:      text,
					EntryType: entryType,
				})
				fmt.Println(reply)
			}

			return scanner.Err()
		},
	}

	cmd.Flags().Int64Var(&userID, "user-id", 0, "user ID of the sender (must be registered)")
	cmd.Flags().StringVar(&userName, "user-name", "console", "display name of the sender")
	cmd.Flags().StringVar(&entryKind, "type", "", "entry type (sales or purchase); detected from text when omitted")
	_ = cmd.MarkFlagRequired("user-id")

	return cmd
}

func parseEntryType(kind string) (model.EntryType, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "":
		return model.TypeUnknown, nil
	case "sales", "sale":
		return model.TypeSales, nil
	case "purchase", "purchases":
		return model.TypePurchase, nil
	default:
		return model.TypeUnknown, fmt.Errorf("invalid entry type: %s", kind)
	}
}
