// Package component implements a remote component host.
//
// A Component answers the remote-programming protocol for the nodes it hosts:
// it constructs and destroys nodes, assigns them identifiers, records link
// halves, and replies to identifier queries. Requests are fire-and-forget;
// replies are submitted to the address in the request's From field.
//
// Identifiers are allocated from a counter starting at 1 and are never reused,
// so 0 never designates a hosted object. The counter and the hosted objects
// are kept in a Store, either in memory (InmemStore) or in a Badger database
// (BadgerStore).
package component
