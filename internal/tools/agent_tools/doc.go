// Package agent_tools provides MCP (Model Context Protocol) tools for driving
// the triage agent and the draft reply workflow.
//
// Agent Lifecycle:
//   - triage_agent_start: Start the background worker (monitor or backfill mode)
//   - triage_agent_stop: Signal the worker to stop after its current cycle
//   - triage_agent_status: Report the worker's state and last run time
//
// Draft Workflow:
//   - triage_draft_reply: Generate a draft reply for a message
//   - triage_draft_send: Send the current draft (rejects stale draft references)
//   - triage_draft_edit: Replace the draft body with caller-provided text
//   - triage_draft_regenerate: Regenerate from the original message with new instructions
//   - triage_draft_cancel: Discard the current draft
//
// The tools wrap the same Controller and Manager instances the HTTP API and
// Telegram bot use, so the single-worker and draft-identity guarantees hold
// across every control surface.
package agent_tools
