package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/rsawant/fieldledger/internal/bot"
	"github.com/spf13/cobra"
)

func processCmd() *cobra.Command {
	var (
		userID    int64
		userName  string
		entryKind string
		lat       float64
		lon       float64
	)

	cmd := &cobra.Command{
		Use:   "process [message]",
		Short: "Process a single message and print the reply",
		Long: `Runs one message through the full pipeline and prints the reply.
The message comes from the argument, or from stdin when omitted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.Default()

			var text string
			if len(args) == 1 {
				text = args[0]
			} else {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				text = string(data)
			}
			text = strings.TrimSpace(text)
			if text == "" {
				return fmt.Errorf("empty message")
			}

			handler, reg, err := buildHandler(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer func() { _ = reg.Close() }()

			entryType, err := parseEntryType(entryKind)
			if err != nil {
				return err
			}

			msg := bot.Message{
				UserID:    userID,
				UserName:  userName,
				Text:      text,
				EntryType: entryType,
			}
			if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon") {
				msg.Latitude = &lat
				msg.Longitude = &lon
			}

			fmt.Println(handler.HandleMessage(cmd.Context(), msg))
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user-id", 0, "user ID of the sender (must be registered)")
	cmd.Flags().StringVar(&userName, "user-name", "console", "display name of the sender")
	cmd.Flags().StringVar(&entryKind, "type", "", "entry type (sales or purchase); detected from text when omitted")
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude of the sender's shared location")
	cmd.Flags().Float64Var(&lon, "lon", 0, "longitude of the sender's shared location")
	_ = cmd.MarkFlagRequired("user-id")

	return cmd
}
