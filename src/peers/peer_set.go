package peers

import (
	"sort"
	"sync"
)

// PeerSet is the routing table of known components. It is safe for concurrent
// use.
type PeerSet struct {
	sync.RWMutex
	byName map[string]*Peer
}

// NewPeerSet creates a new PeerSet from a list of Peers. Later entries win
// over earlier ones with the same name.
func NewPeerSet(peers []*Peer) *PeerSet {
	peerSet := &PeerSet{
		byName: make(map[string]*Peer),
	}

	for _, peer := range peers {
		peerSet.byName[peer.Name] = peer
	}

	return peerSet
}

// AddPeer adds or replaces a component.
func (ps *PeerSet) AddPeer(peer *Peer) {
	ps.Lock()
	defer ps.Unlock()

	ps.byName[peer.Name] = peer
}

// RemovePeer forgets a component.
func (ps *PeerSet) RemovePeer(name string) {
	ps.Lock()
	defer ps.Unlock()

	delete(ps.byName, name)
}

// ByName returns the component called name.
func (ps *PeerSet) ByName(name string) (*Peer, bool) {
	ps.RLock()
	defer ps.RUnlock()

	p, ok := ps.byName[name]
	return p, ok
}

// Addr returns the address of the component called name.
func (ps *PeerSet) Addr(name string) (string, bool) {
	p, ok := ps.ByName(name)
	if !ok {
		return "", false
	}
	return p.NetAddr, true
}

// Peers returns the components sorted by name.
func (ps *PeerSet) Peers() []*Peer {
	ps.RLock()
	defer ps.RUnlock()

	res := make([]*Peer, 0, len(ps.byName))
	for _, p := range ps.byName {
		res = append(res, p)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res
}

// Len returns the number of components.
func (ps *PeerSet) Len() int {
	ps.RLock()
	defer ps.RUnlock()

	return len(ps.byName)
}
