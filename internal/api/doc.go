// Package api defines the remindsync gRPC service: message types, the
// service descriptor, a client stub and the JSON codec the messages travel
// with.
//
// Messages are plain Go structs. Calls select the codec with the "json"
// content-subtype, which the client stub adds to every call. The standard
// gRPC health service is used for liveness checks and keeps the default
// protobuf codec.
package api
