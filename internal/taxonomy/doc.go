// Package taxonomy defines the closed set of job-mail categories used by the
// triage pipeline: their keys, Gmail display labels, the importance subset
// that triggers notifications, the priority order used to break ties, and the
// classification prompt shown to the language-model oracle.
//
// The taxonomy is fixed at compile time. Oracle output that does not resolve
// to one of these keys falls back to Uncategorized.
package taxonomy
