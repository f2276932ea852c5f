package ratelimit

import (
	"regexp"
	"strconv"
	"strings"
)

// ErrorKind categorizes a transport error message from the upstream
// provider. The provider only gives us error text, so classification is a
// substring heuristic; keeping it behind this one function gives the
// heuristic a single place to evolve if structured error codes ever arrive.
type ErrorKind int

// Error kinds.
const (
	// ErrorKindTransient covers everything that is not a quota signal.
	ErrorKindTransient ErrorKind = iota
	// ErrorKindQuota means the provider rejected the key for quota/429.
	ErrorKindQuota
)

const defaultRetryDelay = 60 // seconds, when the provider gives no hint

var retryDelayPattern = regexp.MustCompile(`retry_delay\s*\{?\s*seconds:\s*(\d+)`)

// ClassifyTransportError decides whether an upstream error message signals
// quota exhaustion.
func ClassifyTransportError(msg string) ErrorKind {
	if strings.Contains(msg, "429") || strings.Contains(strings.ToLower(msg), "quota") {
		return ErrorKindQuota
	}
	return ErrorKindTransient
}

// extractRetryDelay pulls the provider-supplied "retry_delay { seconds: N }"
// hint out of an error message, falling back to a conservative default.
func extractRetryDelay(msg string) int {
	m := retryDelayPattern.FindStringSubmatch(msg)
	if m == nil {
		return defaultRetryDelay
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return defaultRetryDelay
	}
	return n
}
