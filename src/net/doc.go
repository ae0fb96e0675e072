// Package net implements the transports carrying the remote-programming
// protocol between the editor and the components hosting nodes.
//
// Messages are fire-and-forget: Submit hands a message to the transport and
// returns as soon as it has been written (or queued). Replies, such as an
// IdentifierReply answering a QueryIdentifierRequest, travel back as ordinary
// messages addressed to the sender's advertised address and are consumed from
// the Consumer channel. There are two implementations:
//
// - Inmem: in-memory transport used for testing and single-process setups
//
// - TCP: communicating over plain TCP
//
// TCP
//
// Each message is framed by a byte indicating the message type, followed by the
// msgpack encoding of the message. Outbound connections are pooled per target.
//
// To use a TCP transport, set the following configuration options in the
// Config object (cf config package):
//
// - BindAddr: the IP:PORT of the TCP socket to bind to.
//
// - AdvertiseAddr: (optional) The address that is advertised to components. If
// BindAddr is a local address not reachable by them, it is usefull to set
// AdvertiseAddr to the reachable public address.
package net
