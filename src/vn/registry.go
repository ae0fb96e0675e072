package vn

import (
	"sort"
	"sync"

	"github.com/mosaicnetworks/nrs/src/common"
)

// RegistryEventType ...
type RegistryEventType uint32

const (
	// NodeAdded ...
	NodeAdded RegistryEventType = iota
	// NodeDeleted ...
	NodeDeleted
	// LinkAdded ...
	LinkAdded
	// LinkRemoved ...
	LinkRemoved
)

// String ...
func (t RegistryEventType) String() string {
	switch t {
	case NodeAdded:
		return "NodeAdded"
	case NodeDeleted:
		return "NodeDeleted"
	case LinkAdded:
		return "LinkAdded"
	case LinkRemoved:
		return "LinkRemoved"
	default:
		return "Unknown"
	}
}

// RegistryEvent is fired by the Registry. Node is set for node events and
// Link for link events.
type RegistryEvent struct {
	Type RegistryEventType
	Node *Node
	Link Link
}

// RegistryListener ...
type RegistryListener func(RegistryEvent)

// Registry indexes the live nodes and variables of the network by qualified
// name, and records the links between variables. It is safe for concurrent
// use. Listeners are called outside of the lock.
type Registry struct {
	sync.RWMutex

	objects   map[Name]Object
	nodes     map[Name]*Node
	links     map[Link]struct{}
	listeners []RegistryListener
}

// NewRegistry ...
func NewRegistry() *Registry {
	return &Registry{
		objects: make(map[Name]Object),
		nodes:   make(map[Name]*Node),
		links:   make(map[Link]struct{}),
	}
}

// AddListener ...
func (r *Registry) AddListener(l RegistryListener) {
	r.Lock()
	defer r.Unlock()

	r.listeners = append(r.listeners, l)
}

// Exists returns true if a node or variable is registered under name.
func (r *Registry) Exists(name Name) bool {
	r.RLock()
	defer r.RUnlock()

	_, ok := r.objects[name]
	return ok
}

// Lookup returns the node or variable registered under name.
func (r *Registry) Lookup(name Name) (Object, bool) {
	r.RLock()
	defer r.RUnlock()

	o, ok := r.objects[name]
	return o, ok
}

// Node returns the node registered under name.
func (r *Registry) Node(name Name) (*Node, bool) {
	r.RLock()
	defer r.RUnlock()

	n, ok := r.nodes[name]
	return n, ok
}

// Variable returns the variable registered under name.
func (r *Registry) Variable(name Name) (*Variable, bool) {
	r.RLock()
	defer r.RUnlock()

	v, ok := r.objects[name].(*Variable)
	return v, ok
}

// Nodes returns the registered nodes sorted by name.
func (r *Registry) Nodes() []*Node {
	r.RLock()
	defer r.RUnlock()

	res := make([]*Node, 0, len(r.nodes))
	for _, n := range r.nodes {
		res = append(res, n)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].name < res[j].name })
	return res
}

// Siblings returns the other nodes sharing the parent name of node.
func (r *Registry) Siblings(node *Node) []*Node {
	parent := node.name.Parent()

	res := []*Node{}
	for _, n := range r.Nodes() {
		if n != node && n.name.Parent() == parent {
			res = append(res, n)
		}
	}
	return res
}

// AddNode registers a node and its variables.
func (r *Registry) AddNode(node *Node) error {
	r.Lock()

	if _, ok := r.objects[node.name]; ok {
		r.Unlock()
		return common.NewVNErr("Node", common.AlreadyExists, string(node.name))
	}
	for _, v := range node.variables {
		if _, ok := r.objects[v.name]; ok {
			r.Unlock()
			return common.NewVNErr("Variable", common.AlreadyExists, string(v.name))
		}
	}

	r.objects[node.name] = node
	r.nodes[node.name] = node
	for _, v := range node.variables {
		r.objects[v.name] = v
	}

	listeners := r.snapshot()
	r.Unlock()

	r.notify(listeners, RegistryEvent{Type: NodeAdded, Node: node})

	return nil
}

// RemoveNode de-registers a node, its variables, and the links touching them.
func (r *Registry) RemoveNode(name Name) (*Node, error) {
	r.Lock()

	node, ok := r.nodes[name]
	if !ok {
		r.Unlock()
		return nil, common.NewVNErr("Node", common.NotFound, string(name))
	}

	delete(r.nodes, name)
	delete(r.objects, name)

	removed := []Link{}
	for _, v := range node.variables {
		delete(r.objects, v.name)
		for l := range r.links {
			if l.Source == v.name || l.Target == v.name {
				delete(r.links, l)
				removed = append(removed, l)
			}
		}
	}

	listeners := r.snapshot()
	r.Unlock()

	for _, l := range removed {
		r.notify(listeners, RegistryEvent{Type: LinkRemoved, Link: l})
	}
	r.notify(listeners, RegistryEvent{Type: NodeDeleted, Node: node})

	return node, nil
}

// AddLink records a link between two registered variables.
func (r *Registry) AddLink(l Link) error {
	r.Lock()

	for _, n := range []Name{l.Source, l.Target} {
		if _, ok := r.objects[n].(*Variable); !ok {
			r.Unlock()
			return common.NewVNErr("Variable", common.NotFound, string(n))
		}
	}
	if _, ok := r.links[l]; ok {
		r.Unlock()
		return common.NewVNErr("Link", common.AlreadyExists, l.String())
	}
	r.links[l] = struct{}{}

	listeners := r.snapshot()
	r.Unlock()

	r.notify(listeners, RegistryEvent{Type: LinkAdded, Link: l})

	return nil
}

// RemoveLink forgets a link.
func (r *Registry) RemoveLink(l Link) error {
	r.Lock()

	if _, ok := r.links[l]; !ok {
		r.Unlock()
		return common.NewVNErr("Link", common.NotFound, l.String())
	}
	delete(r.links, l)

	listeners := r.snapshot()
	r.Unlock()

	r.notify(listeners, RegistryEvent{Type: LinkRemoved, Link: l})

	return nil
}

// HasLink ...
func (r *Registry) HasLink(l Link) bool {
	r.RLock()
	defer r.RUnlock()

	_, ok := r.links[l]
	return ok
}

// Links returns the recorded links sorted by source then target.
func (r *Registry) Links() []Link {
	r.RLock()
	defer r.RUnlock()

	res := make([]Link, 0, len(r.links))
	for l := range r.links {
		res = append(res, l)
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Source != res[j].Source {
			return res[i].Source < res[j].Source
		}
		return res[i].Target < res[j].Target
	})
	return res
}

// linkedInput reports whether an input variable already has an incoming link.
// The lock must be held.
func (r *Registry) linkedInput(name Name) bool {
	for l := range r.links {
		if l.Target == name {
			return true
		}
	}
	return false
}

func (r *Registry) snapshot() []RegistryListener {
	res := make([]RegistryListener, len(r.listeners))
	copy(res, r.listeners)
	return res
}

func (r *Registry) notify(listeners []RegistryListener, e RegistryEvent) {
	for _, l := range listeners {
		l(e)
	}
}
