package validate

import (
	"strings"
	"testing"
	"time"

	"github.com/rsawant/fieldledger/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)

func TestEntry(t *testing.T) {
	t.Run("complete entry produces no warnings", func(t *testing.T) {
		parsed := model.ParsedEntry{
			Client:   model.StringPtr("Apollo"),
			Location: model.StringPtr("Bandra"),
			Orders:   model.IntPtr(3),
			Amount:   model.IntPtr(24000),
			Remarks:  model.StringPtr("good visit"),
		}

		entry, warnings := Entry(parsed, model.TypeSales, testNow)

		assert.Empty(t, warnings)
		assert.Equal(t, "Apollo", entry.Client)
		assert.Equal(t, "Bandra", entry.Location)
		assert.Equal(t, 3, entry.Orders)
		assert.Equal(t, 24000, entry.Amount)
		assert.Equal(t, "good visit", entry.Remarks)
		assert.Equal(t, model.TypeSales, entry.Type)
		assert.Equal(t, testNow, entry.Date)
	})

	t.Run("missing numerics default to zero with warnings", func(t *testing.T) {
		parsed := model.ParsedEntry{
			Client:  model.StringPtr("Apollo"),
			Remarks: model.StringPtr("ok"),
		}

		entry, warnings := Entry(parsed, model.TypeSales, testNow)

		assert.Zero(t, entry.Orders)
		assert.Zero(t, entry.Amount)
		assert.Contains(t, warnings, "Missing orders, defaulting to 0")
		assert.Contains(t, warnings, "Missing amount, defaulting to 0")
		assert.Contains(t, warnings, "Missing location")
	})

	t.Run("negative values kept but flagged", func(t *testing.T) {
		parsed := model.ParsedEntry{
			Client:   model.StringPtr("Apollo"),
			Location: model.StringPtr("Pune"),
			Orders:   model.IntPtr(-5),
			Amount:   model.IntPtr(-100),
			Remarks:  model.StringPtr("ok"),
		}

		entry, warnings := Entry(parsed, model.TypePurchase, testNow)

		assert.Equal(t, -5, entry.Orders)
		assert.Equal(t, -100, entry.Amount)
		assert.Contains(t, warnings, "Negative orders value: -5")
		assert.Contains(t, warnings, "Negative amount value: -100")
	})

	t.Run("whitespace-only client flagged as empty", func(t *testing.T) {
		parsed := model.ParsedEntry{
			Client:   model.StringPtr("   "),
			Location: model.StringPtr("Pune"),
			Orders:   model.IntPtr(1),
			Amount:   model.IntPtr(100),
			Remarks:  model.StringPtr("ok"),
		}

		entry, warnings := Entry(parsed, model.TypeSales, testNow)

		assert.Empty(t, entry.Client)
		assert.Contains(t, warnings, "Empty client field")
	})

	t.Run("idempotent", func(t *testing.T) {
		parsed := model.ParsedEntry{
			Client:   model.StringPtr("Apollo"),
			Location: model.StringPtr("Pune"),
			Orders:   model.IntPtr(2),
			Amount:   model.IntPtr(500),
			Remarks:  model.StringPtr("ok"),
		}

		first, _ := Entry(parsed, model.TypeSales, testNow)
		again := model.ParsedEntry{
			Client:   &first.Client,
			Location: &first.Location,
			Orders:   &first.Orders,
			Amount:   &first.Amount,
			Remarks:  &first.Remarks,
		}
		second, warnings := Entry(again, model.TypeSales, testNow)

		assert.Equal(t, first, second)
		assert.Empty(t, warnings)
	})
}

func TestSanitize(t *testing.T) {
	t.Run("strips dangerous characters", func(t *testing.T) {
		entry := model.ValidatedEntry{
			Client:   `Apollo <script>"x"</script>`,
			Location: "Pune; DROP TABLE",
			Remarks:  "it's fine",
			Orders:   1,
			Amount:   100,
		}

		cleaned, warnings := Sanitize(entry)

		assert.Empty(t, warnings)
		assert.Equal(t, "Apollo scriptx/script", cleaned.Client)
		assert.Equal(t, "Pune DROP TABLE", cleaned.Location)
		assert.Equal(t, "its fine", cleaned.Remarks)
	})

	t.Run("caps text length", func(t *testing.T) {
		entry := model.ValidatedEntry{
			Remarks: strings.Repeat("x", 300),
		}

		cleaned, _ := Sanitize(entry)
		assert.Len(t, cleaned.Remarks, 200)
	})

	t.Run("zeroes out-of-range numerics", func(t *testing.T) {
		entry := model.ValidatedEntry{
			Client: "Apollo",
			Orders: 5000000,
			Amount: -1,
		}

		cleaned, warnings := Sanitize(entry)

		assert.Zero(t, cleaned.Orders)
		assert.Zero(t, cleaned.Amount)
		require.Len(t, warnings, 2)
		assert.Contains(t, warnings[0], "Suspicious orders value")
		assert.Contains(t, warnings[1], "Suspicious amount value")
	})

	t.Run("in-range entry untouched", func(t *testing.T) {
		entry := model.ValidatedEntry{
			Client:   "Apollo",
			Location: "Pune",
			Remarks:  "ok",
			Orders:   10,
			Amount:   24000,
		}

		cleaned, warnings := Sanitize(entry)
		assert.Empty(t, warnings)
		assert.Equal(t, entry, cleaned)
	})
}
