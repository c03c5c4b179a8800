// Package cli provides the interactive posmart point-of-sale client.
//
// It wires configuration, local storage, the inventory service, the
// connectivity monitor, background sync and the worker gateway, and runs a
// REPL for the shop operator. The client keeps working while the server is
// unreachable: sales are committed locally, queued, and delivered when the
// connection comes back.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits or
// the process is signalled. See App and runREPL for details.
package cli
