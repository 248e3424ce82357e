// Package secrets redacts credentials from free text.
//
// Error messages from remote calls and generator failures end up in job
// records and logs. Everything written there passes through a Scrubber
// first; findings keep the rule IDs but never the matched value.
package secrets
