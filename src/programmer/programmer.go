// Package programmer builds the requests of the remote-programming protocol and
// submits them to the components hosting their targets.
package programmer

import (
	"context"
	"fmt"
	"time"

	"github.com/mosaicnetworks/nrs/src/common"
	"github.com/mosaicnetworks/nrs/src/net"
	"github.com/mosaicnetworks/nrs/src/peers"
	"github.com/mosaicnetworks/nrs/src/vn"
	"github.com/sirupsen/logrus"
	"github.com/yaitoo/async"
)

// Error is a protocol-construction error: the request could not be built, or
// could not be handed to the transport.
type Error struct {
	Op   string
	Name string
	Err  error
}

// Error ...
func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Name, e.Err)
}

// Unwrap ...
func (e *Error) Unwrap() error {
	return e.Err
}

// Programmer routes requests to components through a Transport. Replies come
// back asynchronously on the transport's consumer channel, addressed to the
// transport's advertised address.
type Programmer struct {
	trans   net.Transport
	peers   *peers.PeerSet
	timeout time.Duration
	logger  *logrus.Entry
}

// NewProgrammer ...
func NewProgrammer(trans net.Transport, peers *peers.PeerSet, timeout time.Duration, logger *logrus.Entry) *Programmer {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Programmer{
		trans:   trans,
		peers:   peers,
		timeout: timeout,
		logger:  logger,
	}
}

func (p *Programmer) route(component string) (string, error) {
	addr, ok := p.peers.Addr(component)
	if !ok {
		return "", common.NewVNErr("Component", common.NoRoute, component)
	}
	return addr, nil
}

func (p *Programmer) submit(op string, name vn.Name, component string, msg interface{}) error {
	addr, err := p.route(component)
	if err != nil {
		return &Error{Op: op, Name: string(name), Err: err}
	}

	p.logger.WithFields(logrus.Fields{
		"op":        op,
		"name":      name,
		"component": component,
		"addr":      addr,
	}).Debug("Submit")

	if err := p.trans.Submit(addr, msg); err != nil {
		return &Error{Op: op, Name: string(name), Err: err}
	}
	return nil
}

func knownIdentifier(op string, o vn.Object) (uint32, error) {
	id, known := o.Identity().Get()
	if !known {
		return 0, &Error{
			Op:   op,
			Name: string(o.Name()),
			Err:  common.NewVNErr("Object", common.IdentifierUnknown, string(o.Name())),
		}
	}
	return id, nil
}

// CreateNode submits a CreateNodeRequest for node and its variables.
func (p *Programmer) CreateNode(node *vn.Node) error {
	req := &net.CreateNodeRequest{
		From:       p.trans.AdvertiseAddr(),
		Name:       string(node.Name()),
		Type:       node.Type(),
		Attributes: node.Attributes(),
	}
	for _, v := range node.Variables() {
		req.Variables = append(req.Variables, net.VariableDescriptor{
			Name:      v.Name().Base(),
			Direction: uint8(v.Direction()),
			Type:      v.Type(),
		})
	}

	return p.submit("create-node", node.Name(), node.Component(), req)
}

// DeleteNode submits a DeleteNodeRequest. The node's identifier must be known.
func (p *Programmer) DeleteNode(node *vn.Node) error {
	id, err := knownIdentifier("delete-node", node)
	if err != nil {
		return err
	}

	req := &net.DeleteNodeRequest{
		From:       p.trans.AdvertiseAddr(),
		Name:       string(node.Name()),
		Identifier: id,
	}

	return p.submit("delete-node", node.Name(), node.Component(), req)
}

// ModifyNode pushes the node's attributes. The node's identifier must be
// known.
func (p *Programmer) ModifyNode(node *vn.Node) error {
	id, err := knownIdentifier("modify-node", node)
	if err != nil {
		return err
	}

	req := &net.ModifyNodeRequest{
		From:       p.trans.AdvertiseAddr(),
		Name:       string(node.Name()),
		Identifier: id,
		Attributes: node.Attributes(),
	}

	return p.submit("modify-node", node.Name(), node.Component(), req)
}

// QueryIdentifier asks the component hosting o for its identifier.
func (p *Programmer) QueryIdentifier(o vn.Object) error {
	req := &net.QueryIdentifierRequest{
		From: p.trans.AdvertiseAddr(),
		Name: string(o.Name()),
	}

	return p.submit("query-identifier", o.Name(), o.Component(), req)
}

// CreateLink submits the two halves of a link exchange, one to the component
// of each endpoint.
func (p *Programmer) CreateLink(source, target *vn.Variable) error {
	return p.linkExchange("create-link", source, target, func(side net.LinkSide, s, t uint32) interface{} {
		return &net.CreateLinkRequest{
			From:       p.trans.AdvertiseAddr(),
			Side:       side,
			Source:     s,
			Target:     t,
			SourceName: string(source.Name()),
			TargetName: string(target.Name()),
		}
	})
}

// DeleteLink submits the two halves of an unlink exchange.
func (p *Programmer) DeleteLink(source, target *vn.Variable) error {
	return p.linkExchange("delete-link", source, target, func(side net.LinkSide, s, t uint32) interface{} {
		return &net.DeleteLinkRequest{
			From:       p.trans.AdvertiseAddr(),
			Side:       side,
			Source:     s,
			Target:     t,
			SourceName: string(source.Name()),
			TargetName: string(target.Name()),
		}
	})
}

type linkHalf struct {
	side      net.LinkSide
	name      vn.Name
	component string
	msg       interface{}
}

func (p *Programmer) linkExchange(op string, source, target *vn.Variable, build func(net.LinkSide, uint32, uint32) interface{}) error {
	name := fmt.Sprintf("%s->%s", source.Name(), target.Name())

	s, err := knownIdentifier(op, source)
	if err != nil {
		return err
	}
	t, err := knownIdentifier(op, target)
	if err != nil {
		return err
	}

	halves := []linkHalf{
		{side: net.SourceSide, name: source.Name(), component: source.Component(), msg: build(net.SourceSide, s, t)},
		{side: net.TargetSide, name: target.Name(), component: target.Component(), msg: build(net.TargetSide, s, t)},
	}

	// resolve both routes before sending anything, so that a missing route
	// does not leave a half-built link behind
	for _, h := range halves {
		if _, err := p.route(h.component); err != nil {
			return &Error{Op: op, Name: name, Err: err}
		}
	}

	ctx := context.Background()
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	a := async.New[net.LinkSide]()
	for _, h := range halves {
		a.Add(func(h linkHalf) func(context.Context) (net.LinkSide, error) {
			return func(ctx context.Context) (net.LinkSide, error) {
				return h.side, p.submit(op, h.name, h.component, h.msg)
			}
		}(h))
	}

	_, errs, err := a.Wait(ctx)
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	if err != nil {
		return &Error{Op: op, Name: name, Err: err}
	}

	return nil
}
