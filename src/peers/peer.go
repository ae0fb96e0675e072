package peers

import "fmt"

// Peer is a remote component reachable at NetAddr.
type Peer struct {
	Name    string
	NetAddr string
}

// NewPeer ...
func NewPeer(name, netAddr string) *Peer {
	return &Peer{
		Name:    name,
		NetAddr: netAddr,
	}
}

// String ...
func (p *Peer) String() string {
	return fmt.Sprintf("%s@%s", p.Name, p.NetAddr)
}
