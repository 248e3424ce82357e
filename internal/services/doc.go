// Package services wires the generation pipeline from configuration.
//
// Build selects the generator provider, constructs the five stages, the
// WordPress connector and the orchestrator, and hands them out through a
// Registry. Both the daemon and the in-process CLI run use it, so a job
// behaves the same whichever way it is started.
package services
