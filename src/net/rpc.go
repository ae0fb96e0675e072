package net

// RPC encapsulates an inbound message. Source is the transport-level address
// the message came from, when known; replies should be addressed to the From
// field of the message itself.
type RPC struct {
	Command interface{}
	Source  string
}
