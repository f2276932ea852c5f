package classify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantReason Reason
		wantValid  bool
	}{
		{
			name:       "structured entry passes",
			input:      "Client: Apollo\nLocation: Bandra\nOrders: 3\nAmount: ₹24000\nRemarks: Good conversation",
			wantReason: ReasonValid,
			wantValid:  true,
		},
		{
			name:       "free text sale passes",
			input:      "Sold 10 units to MedCorp for ₹15000",
			wantReason: ReasonValid,
			wantValid:  true,
		},
		{
			name:       "digits without keywords pass",
			input:      "met Ramesh 5 boxes 4000",
			wantReason: ReasonValid,
			wantValid:  true,
		},
		{
			name:       "empty input",
			input:      "",
			wantReason: ReasonEmptyInput,
		},
		{
			name:       "whitespace only",
			input:      "   \n\t  ",
			wantReason: ReasonEmptyInput,
		},
		{
			name:       "too short",
			input:      "hi",
			wantReason: ReasonTooShort,
		},
		{
			name:       "too long",
			input:      strings.Repeat("a", 501),
			wantReason: ReasonTooLong,
		},
		{
			name:       "consonant run is gibberish",
			input:      "asdfghjkl",
			wantReason: ReasonGibberish,
		},
		{
			name:       "repeated characters are gibberish",
			input:      "yaaaaaay",
			wantReason: ReasonGibberish,
		},
		{
			name:       "repeated punctuation is gibberish",
			input:      "well.....ok",
			wantReason: ReasonGibberish,
		},
		{
			name:       "no letters is gibberish",
			input:      "!!! ???",
			wantReason: ReasonGibberish,
		},
		{
			name:       "greeting is casual",
			input:      "hello there friend",
			wantReason: ReasonCasual,
		},
		{
			name:       "small talk is casual",
			input:      "how are you doing",
			wantReason: ReasonCasual,
		},
		{
			name:       "no business context",
			input:      "went for a walk in the park",
			wantReason: ReasonNoBusinessContext,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Classify(tt.input)

			assert.Equal(t, tt.wantReason, result.Reason)
			assert.Equal(t, tt.wantValid, result.IsValid)
			assert.Equal(t, tt.wantValid, result.ShouldUseAI)

			if tt.wantValid {
				assert.Empty(t, result.FallbackResponse)
				assert.Empty(t, result.Suggestions)
			} else {
				assert.NotEmpty(t, result.FallbackResponse)
				assert.NotEmpty(t, result.Suggestions)
			}
		})
	}
}

func TestClassifyOrderOfChecks(t *testing.T) {
	// Length limits are enforced before pattern checks, so an oversized
	// message of repeated characters reports too_long, not gibberish.
	result := Classify(strings.Repeat("z", 600))
	assert.Equal(t, ReasonTooLong, result.Reason)
}

func TestClassifyLengthCountsRunes(t *testing.T) {
	// 450 runes but well over 500 bytes; multibyte currency symbols must
	// not push an ordinary message over the length limit.
	input := strings.Repeat("sold ₹99 ", 50)
	result := Classify(input)
	assert.Equal(t, ReasonValid, result.Reason)

	result = Classify(strings.Repeat("₹", 501))
	assert.Equal(t, ReasonTooLong, result.Reason)
}

func TestHasRepeatedRun(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"aaaaa", true},
		{"xaaaaax", true},
		{"₹₹₹₹₹", true},
		{"aaaa", false},
		{"abababab", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, hasRepeatedRun(tt.input, 5))
		})
	}
}

func TestRejectionResponseIncludesExample(t *testing.T) {
	result := Classify("asdfghjkl")
	require.False(t, result.IsValid)

	assert.Contains(t, result.FallbackResponse, "Try something like:")
	assert.Contains(t, result.FallbackResponse, FormatExamples[0])
}

func TestClassifyIsDeterministic(t *testing.T) {
	first := Classify("hello there friend")
	second := Classify("hello there friend")
	assert.Equal(t, first, second)
}
