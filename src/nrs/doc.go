// Package nrs implements the editor-side engine of the network remote
// synchronization system.
//
// An Engine owns the local network model (a vn.Registry) and keeps it in sync
// with the remote components hosting its nodes. Editing operations register
// the change locally and enqueue a job; the job scheduler drives the jobs
// through their phases, sending requests through the transport, while the
// delivery dispatcher applies the components' replies to the registry. When
// a job completes, the engine reacts to it: a created node is auto-linked to
// its siblings, a deleted node is removed from the registry, and a created or
// deleted link is recorded.
//
//  engine := nrs.NewEngine(conf)
//  if err := engine.Init(); err != nil {
//  	return err
//  }
//  go engine.Run()
//
//  j, err := engine.CreateNode(vn.NodeSpec{...})
package nrs
