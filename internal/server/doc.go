// Package server provides the HTTP surfaces of the triage daemon.
//
// The ControlServer exposes the agent lifecycle over HTTP:
//   - POST /agent/start - start the background worker (optional {"mode":"backfill"})
//   - POST /agent/stop - signal the worker to stop
//   - GET /agent/status - current state and last run time
//
// Agent endpoints require a single allow-listed bearer token and are rate
// limited. All failures are structured JSON with a short reason.
//
// Health endpoints (/healthz, /readyz, /healthz/detailed) are unauthenticated
// and intended for Kubernetes probes. Prometheus metrics are served by a
// separate MetricsServer on a dedicated port.
package server
