// Package client talks to the remindsync server.
//
// Gateway is the narrow contract the sync core depends on: list, one
// record-level mutation, and whole-collection reset. It performs no retries;
// retry and conflict policy live in the syncer. Identity covers accounts,
// tokens and liveness.
//
// GRPCClient implements both over gRPC. It attaches the access token to
// every call, refreshes an expired token once and maps gRPC status codes to
// the sentinels in package common:
//
//	Unauthenticated, PermissionDenied       -> common.ErrUnauthenticated
//	NotFound                                -> common.ErrNotFound
//	AlreadyExists                           -> common.ErrAlreadyExists
//	Unavailable, DeadlineExceeded, Canceled -> common.ErrTransport
//
// InitDatabase opens the local SQLite file and applies the embedded goose
// migrations.
package client
