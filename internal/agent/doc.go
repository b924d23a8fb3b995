// Package agent owns the lifecycle of the background triage worker.
//
// A Controller runs at most one worker goroutine at a time. The worker
// executes classification passes through the pipeline: in monitor mode a
// narrow unread-only pass every poll interval, in backfill mode one wide
// read-and-unread sweep first.
//
// Start, Stop, and Status are safe for concurrent use from multiple control
// surfaces (HTTP API, Telegram commands, MCP tools). Liveness is tracked via
// the worker's done channel rather than the stored state alone, so a worker
// that died unexpectedly never blocks a restart.
package agent
