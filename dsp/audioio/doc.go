// Package audioio wraps graph nodes into composable two-port units.
//
// A [Unit] exposes an input and an output node, which may be the same node.
// An [Endpoint] is either absent, a raw graph node or a unit; connecting to
// or from an absent endpoint is a no-op, which lets callers wire pipelines
// whose stages are optional. [Chain] assembles a series pipeline from such
// endpoints.
package audioio
