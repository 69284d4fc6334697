// Package services holds the server-side business logic: accounts and
// tokens (UserService) and the per-user reminder collection
// (ReminderService). Handlers in internal/server/grpc stay thin and call
// into here.
package services
