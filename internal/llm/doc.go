// Package llm provides the language-model extraction adapter used to turn
// free-form field-staff messages into structured entries. It owns prompt
// construction, response cleanup, and JSON validation, and routes every
// request through the multi-key rate limiter.
package llm
