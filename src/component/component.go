package component

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/mosaicnetworks/nrs/src/common"
	"github.com/mosaicnetworks/nrs/src/net"
	"github.com/mosaicnetworks/nrs/src/vn"
	"github.com/sirupsen/logrus"
)

// Component hosts nodes on behalf of editors.
type Component struct {
	name  string
	trans net.Transport
	store Store

	shutdownCh   chan struct{}
	shutdownOnce sync.Once
	wg           sync.WaitGroup

	processed atomic.Uint64
	failed    atomic.Uint64

	logger *logrus.Entry
}

// NewComponent ...
func NewComponent(name string, trans net.Transport, store Store, logger *logrus.Entry) *Component {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	return &Component{
		name:       name,
		trans:      trans,
		store:      store,
		shutdownCh: make(chan struct{}),
		logger: logger.WithFields(logrus.Fields{
			"prefix":    "component",
			"component": name,
		}),
	}
}

// Name ...
func (c *Component) Name() string {
	return c.name
}

// Store ...
func (c *Component) Store() Store {
	return c.store
}

// RunAsync starts processing requests in a goroutine.
func (c *Component) RunAsync() {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.Run()
	}()
}

// Run processes the requests received by the transport until Shutdown is
// called.
func (c *Component) Run() {
	go c.trans.Listen()

	for {
		select {
		case rpc, ok := <-c.trans.Consumer():
			if !ok {
				return
			}
			c.Process(rpc)
		case <-c.shutdownCh:
			return
		}
	}
}

// Shutdown stops the request loop, then closes the transport and the store.
func (c *Component) Shutdown() {
	c.shutdownOnce.Do(func() {
		c.logger.Debug("Shutdown")

		close(c.shutdownCh)
		c.wg.Wait()

		if err := c.trans.Close(); err != nil {
			c.logger.WithError(err).Error("Closing transport")
		}
		if err := c.store.Close(); err != nil {
			c.logger.WithError(err).Error("Closing store")
		}
	})
}

// Process handles a single request and submits the reply, if any, to the
// requester.
func (c *Component) Process(rpc net.RPC) {
	reply, from, err := c.handle(rpc)

	if err != nil {
		c.failed.Add(1)
		c.logger.WithFields(logrus.Fields{
			"command": fmt.Sprintf("%T", rpc.Command),
			"source":  rpc.Source,
		}).WithError(err).Debug("Request failed")
	} else {
		c.processed.Add(1)
	}

	if reply == nil {
		return
	}
	if from == "" {
		from = rpc.Source
	}

	if err := c.trans.Submit(from, reply); err != nil {
		c.logger.WithField("to", from).WithError(err).Warn("Submitting reply")
	}
}

func (c *Component) handle(rpc net.RPC) (interface{}, string, error) {
	switch cmd := rpc.Command.(type) {
	case *net.QueryIdentifierRequest:
		reply, err := c.queryIdentifier(cmd)
		return reply, cmd.From, err
	case *net.CreateNodeRequest:
		err := c.createNode(cmd)
		return c.errorReply(cmd.Name, err), cmd.From, err
	case *net.DeleteNodeRequest:
		err := c.deleteNode(cmd)
		return c.errorReply(cmd.Name, err), cmd.From, err
	case *net.ModifyNodeRequest:
		reply, err := c.modifyNode(cmd)
		return reply, cmd.From, err
	case *net.CreateLinkRequest:
		l := LinkRecord{
			Side:       cmd.Side,
			Source:     cmd.Source,
			Target:     cmd.Target,
			SourceName: cmd.SourceName,
			TargetName: cmd.TargetName,
		}
		err := c.createLink(l)
		return c.errorReply(linkName(l), err), cmd.From, err
	case *net.DeleteLinkRequest:
		l := LinkRecord{
			Side:       cmd.Side,
			Source:     cmd.Source,
			Target:     cmd.Target,
			SourceName: cmd.SourceName,
			TargetName: cmd.TargetName,
		}
		err := c.deleteLink(l)
		return c.errorReply(linkName(l), err), cmd.From, err
	default:
		return nil, "", fmt.Errorf("unexpected command %T", rpc.Command)
	}
}

// errorReply returns an ErrorReply for err, or nil if err is nil.
func (c *Component) errorReply(name string, err error) interface{} {
	if err == nil {
		return nil
	}
	return &net.ErrorReply{
		From:  c.trans.AdvertiseAddr(),
		Name:  name,
		Error: err.Error(),
	}
}

func (c *Component) queryIdentifier(cmd *net.QueryIdentifierRequest) (interface{}, error) {
	rec, err := c.store.GetRecord(cmd.Name)
	if err != nil {
		return c.errorReply(cmd.Name, err), err
	}

	return &net.IdentifierReply{
		From:       c.trans.AdvertiseAddr(),
		Name:       rec.Name,
		Identifier: rec.Identifier,
	}, nil
}

// createNode constructs a node and its variables. Creating a node which
// already exists with the same type is a no-op, so that a resent request
// keeps the identifiers assigned the first time.
func (c *Component) createNode(cmd *net.CreateNodeRequest) error {
	name := vn.Name(cmd.Name)
	if !name.Valid() {
		return common.NewVNErr("Node", common.InvalidName, cmd.Name)
	}

	existing, err := c.store.GetRecord(cmd.Name)
	if err == nil {
		if existing.Type != cmd.Type || !existing.IsNode() {
			return common.NewVNErr("Node", common.AlreadyExists, cmd.Name)
		}
		return nil
	}
	if !common.IsVN(err, common.NotFound) {
		return err
	}

	id, err := c.store.NextIdentifier()
	if err != nil {
		return err
	}

	node := &Record{
		Name:       cmd.Name,
		Identifier: id,
		Type:       cmd.Type,
		Attributes: cmd.Attributes,
	}
	records := []*Record{node}

	for _, v := range cmd.Variables {
		vname := name.Child(v.Name)
		if !vname.Valid() {
			return common.NewVNErr("Variable", common.InvalidName, string(vname))
		}

		vid, err := c.store.NextIdentifier()
		if err != nil {
			return err
		}

		node.Variables = append(node.Variables, string(vname))
		records = append(records, &Record{
			Name:       string(vname),
			Identifier: vid,
			Type:       v.Type,
			Node:       cmd.Name,
			Direction:  v.Direction,
		})
	}

	if err := c.store.SetRecords(records); err != nil {
		return err
	}

	c.logger.WithFields(logrus.Fields{
		"name":       cmd.Name,
		"type":       cmd.Type,
		"identifier": id,
		"variables":  len(cmd.Variables),
	}).Info("Node created")

	return nil
}

// deleteNode destroys a node, its variables and the link halves attached to
// them. The identifier must match the one assigned to the node.
func (c *Component) deleteNode(cmd *net.DeleteNodeRequest) error {
	rec, err := c.store.GetRecord(cmd.Name)
	if err != nil {
		return err
	}
	if !rec.IsNode() {
		return common.NewVNErr("Node", common.NotFound, cmd.Name)
	}
	if rec.Identifier != cmd.Identifier {
		return fmt.Errorf("identifier mismatch for %s: %d != %d", cmd.Name, cmd.Identifier, rec.Identifier)
	}

	names := append([]string{rec.Name}, rec.Variables...)

	links, err := c.store.Links()
	if err != nil {
		return err
	}
	hosted := make(map[string]bool, len(names))
	for _, n := range names {
		hosted[n] = true
	}
	for _, l := range links {
		if hosted[l.SourceName] || hosted[l.TargetName] {
			if err := c.store.DeleteLink(l); err != nil {
				return err
			}
		}
	}

	if err := c.store.DeleteRecords(names); err != nil {
		return err
	}

	c.logger.WithFields(logrus.Fields{
		"name":       cmd.Name,
		"identifier": cmd.Identifier,
	}).Info("Node deleted")

	return nil
}

func (c *Component) modifyNode(cmd *net.ModifyNodeRequest) (interface{}, error) {
	rec, err := c.store.GetRecord(cmd.Name)
	if err == nil && (!rec.IsNode() || rec.Identifier != cmd.Identifier) {
		err = common.NewVNErr("Node", common.NotFound, cmd.Name)
	}
	if err != nil {
		return c.errorReply(cmd.Name, err), err
	}

	rec.Attributes = cmd.Attributes
	if err := c.store.SetRecords([]*Record{rec}); err != nil {
		return c.errorReply(cmd.Name, err), err
	}

	return &net.ModifyNodeReply{
		From:       c.trans.AdvertiseAddr(),
		Name:       cmd.Name,
		Identifier: rec.Identifier,
	}, nil
}

// hostedEnd checks that the end of l designated by its Side is a variable
// hosted here, with the identifier carried by the request.
func (c *Component) hostedEnd(l LinkRecord) error {
	name, id := l.SourceName, l.Source
	if l.Side == net.TargetSide {
		name, id = l.TargetName, l.Target
	}

	rec, err := c.store.GetRecord(name)
	if err != nil {
		return err
	}
	if rec.IsNode() || rec.Identifier != id {
		return common.NewVNErr("Variable", common.NotFound, name)
	}
	return nil
}

func (c *Component) createLink(l LinkRecord) error {
	if err := c.hostedEnd(l); err != nil {
		return err
	}
	if err := c.store.SetLink(l); err != nil {
		return err
	}

	c.logger.WithFields(logrus.Fields{
		"link": linkName(l),
		"side": l.Side.String(),
	}).Info("Link created")

	return nil
}

func (c *Component) deleteLink(l LinkRecord) error {
	if err := c.hostedEnd(l); err != nil {
		return err
	}
	if err := c.store.DeleteLink(l); err != nil {
		return err
	}

	c.logger.WithFields(logrus.Fields{
		"link": linkName(l),
		"side": l.Side.String(),
	}).Info("Link deleted")

	return nil
}

func linkName(l LinkRecord) string {
	return l.SourceName + "->" + l.TargetName
}

// GetStats returns the request counters of the component.
func (c *Component) GetStats() map[string]string {
	records, _ := c.store.Records()
	links, _ := c.store.Links()

	return map[string]string{
		"component": c.name,
		"processed": fmt.Sprint(c.processed.Load()),
		"failed":    fmt.Sprint(c.failed.Load()),
		"records":   fmt.Sprint(len(records)),
		"links":     fmt.Sprint(len(links)),
	}
}
