package parse

import (
	"testing"

	"github.com/rsawant/fieldledger/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStructured(t *testing.T) {
	t.Run("full entry", func(t *testing.T) {
		text := "Client: Apollo Pharmacy\nLocation: Bandra\nOrders: 3\nAmount: ₹24,000\nRemarks: Good conversation"

		entry, err := ParseStructured(text)
		require.NoError(t, err)

		assert.Equal(t, "Apollo Pharmacy", *entry.Client)
		assert.Equal(t, "Bandra", *entry.Location)
		assert.Equal(t, 3, *entry.Orders)
		assert.Equal(t, 24000, *entry.Amount)
		assert.Equal(t, "Good conversation", *entry.Remarks)
	})

	t.Run("summed orders line", func(t *testing.T) {
		text := "Client: MedCorp\nLocation: Pune\nOrders: 10 tablets + 5 injections\nAmount: Rs. 8000\nRemarks: follow up next week"

		entry, err := ParseStructured(text)
		require.NoError(t, err)
		assert.Equal(t, 15, *entry.Orders)
		assert.Equal(t, 8000, *entry.Amount)
	})

	t.Run("missing label", func(t *testing.T) {
		text := "Client: Apollo\nOrders: 3\nAmount: 5000\nRemarks: ok"

		_, err := ParseStructured(text)
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrParseFailure)
		assert.Contains(t, err.Error(), "Location")
	})

	t.Run("label without colon", func(t *testing.T) {
		text := "Client Apollo\nLocation: Bandra\nOrders: 3\nAmount: 5000\nRemarks: ok"

		_, err := ParseStructured(text)
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrParseFailure)
	})

	t.Run("unparsable amount", func(t *testing.T) {
		text := "Client: Apollo\nLocation: Bandra\nOrders: 3\nAmount: twenty\nRemarks: ok"

		_, err := ParseStructured(text)
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrParseFailure)
	})
}

func TestParseOrders(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    int
		wantErr bool
	}{
		{name: "plain integer", value: "5", want: 5},
		{name: "quantity with unit", value: "10 boxes", want: 10},
		{name: "plus joins quantities", value: "10 tablets + 5 injections", want: 15},
		{name: "and joins quantities", value: "3 and 4", want: 7},
		{name: "comma joins quantities", value: "2, 3, 4", want: 9},
		{name: "first integer wins without separators", value: "5 boxes of 12", want: 5},
		{name: "word containing and is not a separator", value: "7 bandages", want: 7},
		{name: "no digits", value: "a few", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOrders(tt.value)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrParseFailure)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    int
		wantErr bool
	}{
		{name: "plain integer", value: "24000", want: 24000},
		{name: "rupee symbol", value: "₹24000", want: 24000},
		{name: "thousands separators", value: "₹24,000", want: 24000},
		{name: "Rs prefix with dot", value: "Rs. 8000", want: 8000},
		{name: "Rs prefix", value: "Rs 8000", want: 8000},
		{name: "internal spaces", value: "24 000", want: 24000},
		{name: "words fail", value: "twenty", wantErr: true},
		{name: "empty fails", value: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.value)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrParseFailure)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
