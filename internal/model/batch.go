package model

import "time"

// SavedEntry is one successfully processed batch candidate, tagged with the
// 1-based index it held in the original message.
type SavedEntry struct {
	Entry        ValidatedEntry
	OriginalText string
	Warnings     []string
	Index        int
}

// FailedEntry is one batch candidate that could not be processed, with the
// reason it failed and its position in the original message.
type FailedEntry struct {
	Text   string
	Reason string
	Index  int
}

// BatchResult aggregates the outcome of processing one multi-entry message.
// SavedEntries and FailedEntries are ordered by original message index even
// though extraction runs concurrently.
type BatchResult struct {
	SavedEntries   []SavedEntry
	FailedEntries  []FailedEntry
	Warnings       []string
	Processed      int
	Failed         int
	Total          int
	ProcessingTime time.Duration
	UsedParallel   bool
}
