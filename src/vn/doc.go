// Package vn models the virtual network edited locally and mirrored on remote
// components: nodes, their variables, links between variables, and the
// name-indexed Registry through which jobs re-resolve their targets.
//
// Every Node and Variable carries an identity.RemoteIdentity recording the
// identifier assigned by the hosting component. Every Node also carries a
// SyncState telling whether its local representation matches the remote one.
//
// The Registry is shared between the goroutine applying user edits, the job
// scheduler and the inbound message delivery, and is guarded accordingly.
package vn
