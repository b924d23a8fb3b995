// Package config loads the triage agent's runtime configuration from
// environment variables and validates the credentials the agent cannot run
// without. Missing credentials are startup-fatal: they are reported once and
// the background worker is never started.
package config
