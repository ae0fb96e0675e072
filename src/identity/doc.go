// Package identity tracks whether the remote counterpart of a locally created
// object has been assigned an identifier (VNID) by its hosting component.
//
// A RemoteIdentity is written by the inbound message delivery goroutine when a
// reply carrying an identifier arrives, and read by the job scheduler while
// jobs poll for that identifier. All access is guarded by a read-write mutex.
package identity
