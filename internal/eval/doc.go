/*
Package eval is the tree-walking evaluator. It executes a parsed program
against an environment chain, keeping control flow (return, break,
continue, stop) on a channel of its own, separate from runtime errors:
a signal is routed to the construct that catches it, an error aborts the
current unit.

Capability-gated operations (network, files, graphics, sound, interop,
timers, server) check the grant set before doing anything and fail with
a permission error naming the missing capability.
*/
package eval

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'gopa.eval'.
func tracer() tracing.Trace {
	return tracing.Select("gopa.eval")
}
