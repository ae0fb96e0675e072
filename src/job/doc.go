// Package job implements the phased state machines which create and delete
// nodes and links on remote components, and the Scheduler driving them.
//
// A Job is a small state machine whose Run method executes exactly one phase
// handler per call. Handlers never block: a job waiting for an identifier to be
// delivered simply leaves its phase unchanged and relies on being run again on
// the next scheduler pass. Every handler starts by re-resolving its targets by
// name, and aborts if any of them has vanished, because nodes and variables
// can be deleted by unrelated edits while the job is in flight.
//
// Jobs end in one of two terminal phases, Complete or Abort. A terminal job is
// inert: running it again changes neither its phase nor its result. Observers
// registered with AddObserver are called on every phase change.
//
// The Scheduler runs jobs round-robin on a single goroutine. It is the only
// writer of job state; identifiers are written concurrently by the inbound
// message delivery, through the synchronised identity.RemoteIdentity.
package job
