// Package client talks to the remote posmart inventory service.
//
// Client is the transport-agnostic contract used by the local services and
// the sync reconciler. GRPCClient implements it over gRPC: it attaches the
// access token to every call and maps gRPC status codes to the sentinel
// errors below so callers can decide with errors.Is whether a failure is
// worth retrying.
//
//   - ErrUnavailable: the service could not be reached; retry later.
//   - ErrUnauthorized: the access token was rejected.
//   - ErrRejected: the service refused the request (bad input, not enough
//     stock); retrying the same request will not help.
//   - ErrNotFound: the addressed record does not exist.
package client
