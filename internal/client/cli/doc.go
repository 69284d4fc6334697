// Package cli provides the interactive remindsync command-line client.
//
// It wires configuration, local storage, the sync engine, the connectivity
// monitor and the notification scheduler, and runs a REPL on top of them.
// Every edit is applied locally at once and sent to the server in the
// background; conflicts are printed as they arrive and answered with the
// resolve command.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
