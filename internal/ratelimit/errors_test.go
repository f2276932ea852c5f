package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyTransportError(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want ErrorKind
	}{
		{name: "http 429", msg: "gemini API returned status 429", want: ErrorKindQuota},
		{name: "quota keyword", msg: "Quota exceeded for quota metric", want: ErrorKindQuota},
		{name: "mixed case quota", msg: "RESOURCE_EXHAUSTED: QUOTA limit", want: ErrorKindQuota},
		{name: "timeout is transient", msg: "context deadline exceeded", want: ErrorKindTransient},
		{name: "connection error is transient", msg: "connection reset by peer", want: ErrorKindTransient},
		{name: "empty message", msg: "", want: ErrorKindTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyTransportError(tt.msg))
		})
	}
}

func TestExtractRetryDelay(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want int
	}{
		{name: "braced hint", msg: "429: retry_delay { seconds: 42 }", want: 42},
		{name: "unbraced hint", msg: "retry_delay seconds: 7", want: 7},
		{name: "no hint falls back", msg: "quota exceeded", want: defaultRetryDelay},
		{name: "empty message falls back", msg: "", want: defaultRetryDelay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractRetryDelay(tt.msg))
		})
	}
}
