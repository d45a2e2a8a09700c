// Package httpserver hosts the workload encryption API.
//
// The server wires handler routes (see api/keyhandler) onto a chi router
// with request logging, and adds the operational endpoints every deployment
// needs:
//
//   - GET /livez - liveness check
//   - GET /readyz - readiness check, controlled by drain state
//   - GET /drain - mark the server not ready ahead of shutdown
//   - GET /undrain - mark the server ready again
//   - /debug - pprof profiler, when enabled
//
// Prometheus metrics are served on a separate listener so operational
// scrapes never compete with API traffic.
package httpserver
