// Package oracle defines the language-model contract used for message
// classification and reply drafting, together with a Gemini-backed
// implementation.
//
// The model is treated as a black box: Classify returns the raw answer text
// and the classification pipeline owns normalization and matching against the
// taxonomy. All calls are bounded by an HTTP client timeout and honor request
// context cancellation.
package oracle
