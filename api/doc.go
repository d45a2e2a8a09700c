// Package api defines the HTTP API surface of the workload encryption
// service: server configuration, JSON response shapes, and the client-side
// provider interfaces.
//
// The concrete handlers and clients live in subpackages, one per service
// concern (see api/keyhandler for the worker key endpoint).
package api
