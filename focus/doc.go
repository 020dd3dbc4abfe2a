// Package focus turns the CRM backlogs into one ordered work queue for a single operator.
//
// Everything that decides what the operator sees is a pure function over immutable
// snapshots: Score rates a deal, Synthesize derives suggestions, Build merges them with
// activities into priority bands. The only state lives in Session (the cached snapshots,
// optimistic overlay and cursor) and in the external suppression store.
package focus
