// Package classify implements the mail triage pipeline: fetch recent
// messages, ask the language-model oracle for a category, translate the
// answer into the closed taxonomy, apply the matching Gmail label, and
// notify the operator about important categories.
//
// Each message is processed independently. A failure while classifying,
// labeling, or notifying one message never aborts the rest of the batch.
package classify
