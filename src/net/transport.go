package net

// Transport provides an interface for network transports
// to allow the editor to communicate with components.
type Transport interface {

	// Starts the transport listening
	Listen()

	// Consumer returns a channel that can be used to
	// consume inbound messages.
	Consumer() <-chan RPC

	// LocalAddr is used to return our local address
	LocalAddr() string

	// AdvertiseAddr is used to return our advertise address where components
	// can reach us
	AdvertiseAddr() string

	// Submit sends a message to the target without waiting for any reply.
	// It returns an error if the message could not be handed over.
	Submit(target string, msg interface{}) error

	// Close permanently closes a transport, stopping
	// any associated goroutines and freeing other resources.
	Close() error
}
