// Package common contains constants and sentinel errors shared by the
// remindsync client and server.
package common

// AccessTokenHeaderName is the gRPC metadata key carrying the access token.
const AccessTokenHeaderName = "access_token"

// Metadata keys of the client's durable key/value table.
const (
	KeyReminders = "reminders"
	KeyLastSync  = "lastSync"
	KeySyncQueue = "syncQueue"
	KeySession   = "session"
)
