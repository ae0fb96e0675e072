// Package peers defines the remote components an editor talks to, and the
// routing table mapping component names to transport addresses.
//
// A component is a remote process hosting nodes. Every node names the
// component hosting it, and every request concerning the node, or one of its
// variables, is addressed to that component's NetAddr.
//
// Upon starting up, the editor looks for a components.json file in its data
// directory, listing the known components:
//
//	[
//	  {"Name": "plant", "NetAddr": "10.0.0.4:1337"},
//	  {"Name": "panel", "NetAddr": "10.0.0.5:1337"}
//	]
package peers
