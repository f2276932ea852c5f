// Package classify gates raw user text before any network call is made.
// It rejects empty, gibberish, and casual-chat messages and only lets
// plausible business input through to the parsers. This is the pipeline's
// cost-control gate: nothing that fails here should ever reach the AI.
package classify

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Reason identifies why input was rejected, or that it was accepted.
type Reason string

// Rejection reasons, checked in order; the first match wins.
const (
	ReasonValid             Reason = "valid_business_input"
	ReasonEmptyInput        Reason = "empty_input"
	ReasonTooShort          Reason = "too_short"
	ReasonTooLong           Reason = "too_long"
	ReasonGibberish         Reason = "gibberish_detected"
	ReasonCasual            Reason = "casual_conversation"
	ReasonNoBusinessContext Reason = "no_business_context"
)

// Result is the outcome of classifying one raw message.
type Result struct {
	Reason           Reason
	FallbackResponse string
	Suggestions      []string
	IsValid          bool
	ShouldUseAI      bool
}

const (
	minLength = 3
	maxLength = 500

	// Runs of this many identical runes count as gibberish.
	repeatedRunLimit = 5
)

var businessKeywords = []string{
	"sold", "sale", "sales", "buy", "bought", "purchase", "client", "customer",
	"amount", "rupees", "₹", "rs", "money", "payment", "invoice", "order",
	"units", "items", "products", "goods", "delivered", "delivery", "shipped",
	"apollo", "pharmacy", "medical", "hospital", "clinic", "doctor",
	"today", "yesterday", "morning", "evening", "urgent", "completed",
}

var gibberishPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[a-z]{1,3}$`),                // single very short token
	regexp.MustCompile(`^[qwxz]{3,}`),                 // uncommon letter clusters
	regexp.MustCompile(`[aeiou]{4,}`),                 // too many vowels together
	regexp.MustCompile(`[bcdfghjklmnpqrstvwxyz]{5,}`), // too many consonants
	regexp.MustCompile(`^[^a-zA-Z]*$`),                // no letters at all
	regexp.MustCompile(`[!@#$%^&*()]{3,}`),            // 3+ special chars in a row
}

var casualPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bhello\b`),
	regexp.MustCompile(`\bhi\b`),
	regexp.MustCompile(`\bhey\b`),
	regexp.MustCompile(`\bhow are you\b`),
	regexp.MustCompile(`\bweather\b`),
	regexp.MustCompile(`\bfeeling\b`),
	regexp.MustCompile(`\bgood morning\b`),
	regexp.MustCompile(`\bgood evening\b`),
	regexp.MustCompile(`\bthanks\b`),
	regexp.MustCompile(`\bthank you\b`),
}

var digitPattern = regexp.MustCompile(`\d`)

// FormatExamples are sample inputs shown to users whose message was rejected.
var FormatExamples = []string{
	"Client: Apollo Pharmacy, Orders: 5, Amount: ₹25000",
	"Sold 10 units to MedCorp for ₹15000",
	"Purchase from XYZ supplier - 20 items - ₹8000",
	"Apollo - 3 boxes - ₹12000 - urgent delivery",
}

var rejectionResponses = map[Reason]string{
	ReasonEmptyInput:        "Please type a message to get started!",
	ReasonTooShort:          "Could you provide more details about your transaction?",
	ReasonTooLong:           "That message is quite long! Please keep it concise.",
	ReasonGibberish:         "I couldn't understand that message. Let me help you format it properly!",
	ReasonCasual:            "Hi there! I'm here to help with business transactions.",
	ReasonNoBusinessContext: "I need more business details to help you.",
}

var rejectionSuggestions = map[Reason][]string{
	ReasonEmptyInput: {"Please type a message"},
	ReasonTooShort:   {"Please provide more details about your transaction"},
	ReasonTooLong:    {"Please keep your message under 500 characters"},
	ReasonGibberish: {
		"I couldn't understand that. Please describe your transaction clearly.",
		"Example: 'Sold 5 units to Apollo Pharmacy for ₹25000'",
	},
	ReasonCasual: {
		"I'm here to help with business transactions.",
		"Please describe a sale or purchase transaction.",
	},
	ReasonNoBusinessContext: {
		"Please include business details like client name, amount, or quantity.",
		"Example: 'Apollo Pharmacy - 5 units - ₹25000'",
	},
}

// Classify runs the full validation pipeline over raw text. Rules apply in
// order and the first match wins. The function is pure: no I/O, no state.
func Classify(text string) Result {
	if reason, ok := rejectReason(text); ok {
		return reject(reason)
	}

	return Result{
		IsValid:     true,
		Reason:      ReasonValid,
		ShouldUseAI: true,
	}
}

func rejectReason(text string) (Reason, bool) {
	if strings.TrimSpace(text) == "" {
		return ReasonEmptyInput, true
	}

	clean := strings.ToLower(strings.TrimSpace(text))

	length := utf8.RuneCountInString(clean)
	if length < minLength {
		return ReasonTooShort, true
	}
	if length > maxLength {
		return ReasonTooLong, true
	}

	if hasRepeatedRun(clean, repeatedRunLimit) {
		return ReasonGibberish, true
	}
	for _, p := range gibberishPatterns {
		if p.MatchString(clean) {
			return ReasonGibberish, true
		}
	}

	for _, p := range casualPatterns {
		if p.MatchString(clean) {
			return ReasonCasual, true
		}
	}

	hasKeyword := false
	for _, kw := range businessKeywords {
		if strings.Contains(clean, kw) {
			hasKeyword = true
			break
		}
	}
	if !hasKeyword && !digitPattern.MatchString(text) {
		return ReasonNoBusinessContext, true
	}

	return ReasonValid, false
}

// hasRepeatedRun reports whether s contains a run of at least limit
// identical runes. RE2 has no backreferences, so this cannot be a regex.
func hasRepeatedRun(s string, limit int) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if r == prev {
			run++
			if run >= limit {
				return true
			}
			continue
		}
		prev = r
		run = 1
	}
	return false
}

func reject(reason Reason) Result {
	suggestions := rejectionSuggestions[reason]
	return Result{
		IsValid:          false,
		Reason:           reason,
		Suggestions:      suggestions,
		ShouldUseAI:      false,
		FallbackResponse: buildRejectionResponse(reason, suggestions),
	}
}

// buildRejectionResponse combines the reason-keyed template with one
// concrete example the user can copy.
func buildRejectionResponse(reason Reason, suggestions []string) string {
	base, ok := rejectionResponses[reason]
	if !ok {
		base = "I need help understanding your message."
	}

	if len(suggestions) == 0 {
		return base
	}

	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\n\nTry something like:\n")
	b.WriteString(suggestions[0])
	if len(suggestions) > 1 {
		b.WriteString("\n\nFormat example:\n")
		b.WriteString(FormatExamples[0])
	}
	return b.String()
}
