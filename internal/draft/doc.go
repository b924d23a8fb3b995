// Package draft implements the per-conversation reply workflow.
//
// Each conversation moves through a small state machine: a "reply" action
// creates a draft (DraftReady), "edit" and "regenerate" arm the conversation
// to consume its next free-form text, and "send" or "cancel" end the cycle.
// A conversation with no entry is idle.
//
// Sending checks the action's message id against the stored draft, so a
// stale button press from a superseded notification fails with "draft
// expired" instead of sending the wrong reply.
package draft
