package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/rsawant/fieldledger/internal/model"
)

// Canned replies for the states a message can land in before processing.
const (
	msgNotRegistered = "ℹ️ You are not registered with a company yet. Ask your admin to register you before logging entries."

	msgChooseType = "ℹ️ Please start by choosing /sales or /purchase."

	msgParseHelp = "❌ Could not understand the entry. Please try again with more details or use the format:\n\n" +
		"Client: Apollo\nLocation: Bandra\nOrders: 3\nAmount: ₹24000\nRemarks: Good conversation"

	msgInternalError = "⚠️ Something went wrong while processing your entry. Please try again in a moment."

	msgStoreFailure = "⚠️ Your entry was understood but could not be saved. Please try again shortly."

	msgBatchTooLarge = "❌ Too many entries in one message (%d). Please send at most 10 entries at a time."
)

// formatConfirmation renders the single-entry success reply.
func formatConfirmation(userName string, entry model.ValidatedEntry, warnings []string, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "✅ *%s Logged!*\n\n", entry.Type)
	fmt.Fprintf(&b, "🧑 Name: %s\n", userName)
	fmt.Fprintf(&b, "📍 Client: %s\n", entry.Client)
	fmt.Fprintf(&b, "📦 Orders: %d\n", entry.Orders)
	fmt.Fprintf(&b, "💰 Amount: ₹%d\n", entry.Amount)
	fmt.Fprintf(&b, "📝 Remarks: %s\n", entry.Remarks)
	fmt.Fprintf(&b, "⏰ Time: %s", now.Format("15:04"))

	if len(warnings) > 0 {
		b.WriteString("\n\n⚠️ *Warnings:*\n")
		for _, w := range warnings {
			fmt.Fprintf(&b, "• %s\n", w)
		}
	}

	return b.String()
}

// formatBatchResponse renders the multi-entry summary reply. Lists are
// truncated so the reply stays readable on a phone.
func formatBatchResponse(result *model.BatchResult) string {
	var b strings.Builder

	b.WriteString("📦 *BATCH PROCESSING COMPLETE*\n\n")
	fmt.Fprintf(&b, "✅ *Processed:* %d/%d entries\n", result.Processed, result.Total)

	if result.Failed > 0 {
		fmt.Fprintf(&b, "❌ *Failed:* %d entries\n", result.Failed)
	}

	if len(result.SavedEntries) > 0 {
		b.WriteString("\n📋 *SUCCESSFUL ENTRIES:*\n")
		for i, saved := range result.SavedEntries {
			if i == 5 {
				fmt.Fprintf(&b, "... and %d more entries\n", len(result.SavedEntries)-5)
				break
			}
			fmt.Fprintf(&b, "• %s - ₹%d (%d units)\n", saved.Entry.Client, saved.Entry.Amount, saved.Entry.Orders)
		}
	}

	if len(result.Warnings) > 0 {
		b.WriteString("\n⚠️ *WARNINGS:*\n")
		for i, w := range result.Warnings {
			if i == 3 {
				fmt.Fprintf(&b, "... and %d more warnings\n", len(result.Warnings)-3)
				break
			}
			fmt.Fprintf(&b, "• %s\n", w)
		}
	}

	if len(result.FailedEntries) > 0 {
		b.WriteString("\n❌ *FAILED ENTRIES:*\n")
		for i, failed := range result.FailedEntries {
			if i == 3 {
				fmt.Fprintf(&b, "... and %d more failed entries\n", len(result.FailedEntries)-3)
				break
			}
			fmt.Fprintf(&b, "• Entry %d: %s\n", failed.Index, failed.Reason)
		}
	}

	return b.String()
}
