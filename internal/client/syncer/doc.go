// Package syncer keeps the local reminder collection and the server in step.
//
// Engine is the coordinator. Local intents go through Dispatch: they are
// applied to the store at once and queued for the server. A single loop
// (Run) performs all network work in order:
//
//   - when the client becomes able to sync (online, signed in, local state
//     loaded) it lists the server collection and compares clocks with
//     Decide;
//   - once the clocks agree, the Drainer sends queued mutations one at a
//     time;
//   - a diverged clock or any failed send raises a ConflictRequest, which
//     the user answers with ResolutionServer or ResolutionLocal.
//
// While a conflict is pending Dispatch refuses new intents.
package syncer
