package vn

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mosaicnetworks/nrs/src/common"
	"github.com/mosaicnetworks/nrs/src/identity"
	"github.com/sirupsen/logrus"
)

// Direction tells whether a variable is read (Input) or written (Output) by
// its node.
type Direction uint8

const (
	// Input variables receive values through links.
	Input Direction = iota
	// Output variables feed links.
	Output
)

// String ...
func (d Direction) String() string {
	switch d {
	case Input:
		return "in"
	case Output:
		return "out"
	default:
		return "unknown"
	}
}

// Object is anything addressable by qualified name with a remote counterpart.
type Object interface {
	Name() Name
	Component() string
	Identity() *identity.RemoteIdentity
}

// VariableSpec describes a variable to create along with its node.
type VariableSpec struct {
	Name      string    `json:"name"`
	Direction Direction `json:"direction"`
	Type      string    `json:"type"`
}

// NodeSpec describes a node to create.
type NodeSpec struct {
	Name       Name              `json:"name"`
	Type       string            `json:"type"`
	Component  string            `json:"component"`
	Variables  []VariableSpec    `json:"variables"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Validate checks the names in the spec.
func (s NodeSpec) Validate() error {
	if !s.Name.Valid() {
		return common.NewVNErr("Node", common.InvalidName, string(s.Name))
	}
	if s.Component == "" {
		return fmt.Errorf("node %s: no component", s.Name)
	}
	seen := make(map[string]bool)
	for _, v := range s.Variables {
		vn := s.Name.Child(v.Name)
		if !vn.Valid() || vn.Parent() != s.Name {
			return common.NewVNErr("Variable", common.InvalidName, string(vn))
		}
		if seen[v.Name] {
			return common.NewVNErr("Variable", common.AlreadyExists, string(vn))
		}
		seen[v.Name] = true
	}
	return nil
}

// Node is a typed node of the network hosted by a remote component.
type Node struct {
	name      Name
	typ       string
	component string
	variables []*Variable

	identity *identity.RemoteIdentity
	state    *SyncState

	attrLock   sync.RWMutex
	attributes map[string]string
}

// NewNode builds a Node and its variables from a spec. The spec is assumed to
// be valid.
func NewNode(spec NodeSpec, logger *logrus.Entry) *Node {
	n := &Node{
		name:       spec.Name,
		typ:        spec.Type,
		component:  spec.Component,
		identity:   identity.NewRemoteIdentity(string(spec.Name), logger),
		state:      NewSyncState(),
		attributes: make(map[string]string),
	}

	for k, v := range spec.Attributes {
		n.attributes[k] = v
	}

	for _, vs := range spec.Variables {
		name := spec.Name.Child(vs.Name)
		n.variables = append(n.variables, &Variable{
			name:      name,
			node:      n,
			direction: vs.Direction,
			typ:       vs.Type,
			identity:  identity.NewRemoteIdentity(string(name), logger),
		})
	}

	return n
}

// Name ...
func (n *Node) Name() Name { return n.name }

// Type ...
func (n *Node) Type() string { return n.typ }

// Component ...
func (n *Node) Component() string { return n.component }

// Identity ...
func (n *Node) Identity() *identity.RemoteIdentity { return n.identity }

// State ...
func (n *Node) State() *SyncState { return n.state }

// Variables returns the node's variables in declaration order.
func (n *Node) Variables() []*Variable { return n.variables }

// Variable returns the variable with the given base name.
func (n *Node) Variable(base string) (*Variable, bool) {
	for _, v := range n.variables {
		if v.name.Base() == base {
			return v, true
		}
	}
	return nil, false
}

// Spec returns a NodeSpec describing the node.
func (n *Node) Spec() NodeSpec {
	spec := NodeSpec{
		Name:       n.name,
		Type:       n.typ,
		Component:  n.component,
		Attributes: n.Attributes(),
	}
	for _, v := range n.variables {
		spec.Variables = append(spec.Variables, VariableSpec{
			Name:      v.name.Base(),
			Direction: v.direction,
			Type:      v.typ,
		})
	}
	return spec
}

// Attribute ...
func (n *Node) Attribute(key string) (string, bool) {
	n.attrLock.RLock()
	defer n.attrLock.RUnlock()

	v, ok := n.attributes[key]
	return v, ok
}

// Attributes returns a copy of the node's attributes.
func (n *Node) Attributes() map[string]string {
	n.attrLock.RLock()
	defer n.attrLock.RUnlock()

	res := make(map[string]string, len(n.attributes))
	for k, v := range n.attributes {
		res[k] = v
	}
	return res
}

// AttributeKeys returns the sorted attribute keys.
func (n *Node) AttributeKeys() []string {
	n.attrLock.RLock()
	defer n.attrLock.RUnlock()

	keys := make([]string, 0, len(n.attributes))
	for k := range n.attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetAttribute edits an attribute and marks the node locally modified.
func (n *Node) SetAttribute(key, value string) {
	n.attrLock.Lock()
	n.attributes[key] = value
	n.attrLock.Unlock()

	n.state.MarkLocallyModified()
}

// Variable is a typed input or output of a Node.
type Variable struct {
	name      Name
	node      *Node
	direction Direction
	typ       string
	identity  *identity.RemoteIdentity
}

// Name ...
func (v *Variable) Name() Name { return v.name }

// Node returns the owning node.
func (v *Variable) Node() *Node { return v.node }

// Component returns the component hosting the owning node.
func (v *Variable) Component() string { return v.node.component }

// Direction ...
func (v *Variable) Direction() Direction { return v.direction }

// Type ...
func (v *Variable) Type() string { return v.typ }

// Identity ...
func (v *Variable) Identity() *identity.RemoteIdentity { return v.identity }
