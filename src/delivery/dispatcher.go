// Package delivery applies the replies of remote components to the local
// network model.
package delivery

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/mosaicnetworks/nrs/src/net"
	"github.com/mosaicnetworks/nrs/src/vn"
	"github.com/sirupsen/logrus"
)

// Dispatcher consumes the RPCs received by a transport and applies them to a
// Registry. It runs on its own goroutine, concurrently with the job scheduler.
type Dispatcher struct {
	registry *vn.Registry
	consumer <-chan net.RPC

	shutdownCh   chan struct{}
	shutdownOnce sync.Once
	wg           sync.WaitGroup

	identifiers atomic.Uint64
	modified    atomic.Uint64
	rejected    atomic.Uint64
	dropped     atomic.Uint64
	errors      atomic.Uint64

	logger *logrus.Entry
}

// NewDispatcher ...
func NewDispatcher(consumer <-chan net.RPC, registry *vn.Registry, logger *logrus.Entry) *Dispatcher {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	return &Dispatcher{
		registry:   registry,
		consumer:   consumer,
		shutdownCh: make(chan struct{}),
		logger:     logger.WithField("prefix", "delivery"),
	}
}

// RunAsync starts the delivery loop in a goroutine.
func (d *Dispatcher) RunAsync() {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.Run()
	}()
}

// Run processes RPCs until Shutdown is called or the consumer channel is
// closed.
func (d *Dispatcher) Run() {
	for {
		select {
		case rpc, ok := <-d.consumer:
			if !ok {
				return
			}
			d.Process(rpc)
		case <-d.shutdownCh:
			return
		}
	}
}

// Shutdown stops the delivery loop and waits for RunAsync to return. It is
// safe to call more than once.
func (d *Dispatcher) Shutdown() {
	d.shutdownOnce.Do(func() {
		close(d.shutdownCh)
	})
	d.wg.Wait()
}

// Process applies a single RPC.
func (d *Dispatcher) Process(rpc net.RPC) {
	switch cmd := rpc.Command.(type) {
	case *net.IdentifierReply:
		d.processIdentifierReply(rpc, cmd)
	case *net.ModifyNodeReply:
		d.processModifyNodeReply(rpc, cmd)
	case *net.ErrorReply:
		d.errors.Add(1)
		d.logger.WithFields(logrus.Fields{
			"from":  cmd.From,
			"name":  cmd.Name,
			"error": cmd.Error,
		}).Warn("Component reported an error")
	default:
		d.dropped.Add(1)
		d.logger.WithFields(logrus.Fields{
			"source":  rpc.Source,
			"command": fmt.Sprintf("%T", rpc.Command),
		}).Warn("Unexpected command")
	}
}

func (d *Dispatcher) processIdentifierReply(rpc net.RPC, cmd *net.IdentifierReply) {
	logger := d.logger.WithFields(logrus.Fields{
		"from":       cmd.From,
		"name":       cmd.Name,
		"identifier": cmd.Identifier,
	})

	obj, ok := d.registry.Lookup(vn.Name(cmd.Name))
	if !ok {
		d.dropped.Add(1)
		logger.Debug("IdentifierReply for unknown object")
		return
	}

	wasKnown := obj.Identity().Known()

	if err := obj.Identity().SetIdentifier(cmd.Identifier); err != nil {
		d.rejected.Add(1)
		return
	}

	d.identifiers.Add(1)
	logger.Debug("Identifier set")

	if node, isNode := obj.(*vn.Node); isNode && !wasKnown {
		node.State().MarkIdentifierKnown()
	}
}

func (d *Dispatcher) processModifyNodeReply(rpc net.RPC, cmd *net.ModifyNodeReply) {
	node, ok := d.registry.Node(vn.Name(cmd.Name))
	if !ok {
		d.dropped.Add(1)
		d.logger.WithFields(logrus.Fields{
			"from": cmd.From,
			"name": cmd.Name,
		}).Debug("ModifyNodeReply for unknown node")
		return
	}

	d.modified.Add(1)
	node.State().MarkRemotelyModified()
}

// GetStats returns the delivery counters.
func (d *Dispatcher) GetStats() map[string]string {
	return map[string]string{
		"identifiers_set": fmt.Sprint(d.identifiers.Load()),
		"modify_replies":  fmt.Sprint(d.modified.Load()),
		"rejected":        fmt.Sprint(d.rejected.Load()),
		"dropped":         fmt.Sprint(d.dropped.Load()),
		"error_replies":   fmt.Sprint(d.errors.Load()),
	}
}
