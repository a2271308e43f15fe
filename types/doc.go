// Package types defines the shared data model for the orchestration core:
// agent identities, conversational tasks, handoff decisions and records,
// parsed model responses, and the unified error type used across packages.
//
// The package has no dependencies on other agentroute packages so that every
// component (router, orchestrator, stores, parsers) can exchange values
// without import cycles.
package types
