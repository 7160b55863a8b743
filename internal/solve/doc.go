// Package solve owns the lifecycle of a solve request: it validates the
// board, calls the remote solving service and keeps the latest result.
//
// A submission moves the Orchestrator through
//
//	Idle -> Validating -> Submitting -> Succeeded | Failed
//
// and any new submission re-enters Validating. Only the most recent
// submission may publish a result; replies to superseded calls are dropped.
package solve
