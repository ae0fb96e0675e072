package job

import (
	"github.com/mosaicnetworks/nrs/src/vn"
	"github.com/sirupsen/logrus"
)

// Phases of the node jobs.
const (
	SendCreate        Phase = "SendCreate"
	ObtainIdentifier  Phase = "ObtainIdentifier"
	WaitForIdentifier Phase = "WaitForIdentifier"
	SendDelete        Phase = "SendDelete"
)

// CreateNodeJob constructs a node on its component and waits until the
// component has told us the node's identifier.
//
// Phases: SendCreate -> ObtainIdentifier -> WaitForIdentifier -> Complete.
// The create request is sent before the identifier is queried, because a
// component only answers queries about nodes it hosts.
type CreateNodeJob struct {
	base

	node       *vn.Node
	lookup     Lookup
	programmer Programmer
}

// NewCreateNodeJob ...
func NewCreateNodeJob(node *vn.Node, lookup Lookup, programmer Programmer, logger *logrus.Entry) *CreateNodeJob {
	j := &CreateNodeJob{
		node:       node,
		lookup:     lookup,
		programmer: programmer,
	}
	j.init(j, CreateNodeKind, string(node.Name()), SendCreate, logger)
	return j
}

// Node returns the node being created.
func (j *CreateNodeJob) Node() *vn.Node {
	return j.node
}

// Run implements the Job interface.
func (j *CreateNodeJob) Run() {
	j.run(func(phase Phase) {
		if !j.resolveNode(j.lookup, j.node) {
			return
		}

		switch phase {
		case SendCreate:
			j.sendCreate()
		case ObtainIdentifier:
			j.obtainIdentifier()
		case WaitForIdentifier:
			j.waitForIdentifier()
		}
	})
}

func (j *CreateNodeJob) sendCreate() {
	if j.node.Identity().Known() {
		j.logger.WithField("identity", j.node.Identity()).
			Warn("Creating a node whose identifier is already known")
	}

	if err := j.programmer.CreateNode(j.node); err != nil {
		j.fail(err)
		return
	}

	j.setPhase(ObtainIdentifier)
}

func (j *CreateNodeJob) obtainIdentifier() {
	if j.node.Identity().Known() {
		j.setPhase(Complete)
		return
	}

	if err := j.programmer.QueryIdentifier(j.node); err != nil {
		j.fail(err)
		return
	}

	j.setPhase(WaitForIdentifier)
}

func (j *CreateNodeJob) waitForIdentifier() {
	if j.node.Identity().Known() {
		j.setPhase(Complete)
	}
}

// DeleteNodeJob destroys a node on its component, first resolving the node's
// identifier if it is not known yet.
//
// Phases: ObtainIdentifier -> WaitForIdentifier -> SendDelete -> Complete.
type DeleteNodeJob struct {
	base

	node       *vn.Node
	lookup     Lookup
	programmer Programmer
}

// NewDeleteNodeJob ...
func NewDeleteNodeJob(node *vn.Node, lookup Lookup, programmer Programmer, logger *logrus.Entry) *DeleteNodeJob {
	j := &DeleteNodeJob{
		node:       node,
		lookup:     lookup,
		programmer: programmer,
	}
	j.init(j, DeleteNodeKind, string(node.Name()), ObtainIdentifier, logger)
	return j
}

// Node returns the node being deleted.
func (j *DeleteNodeJob) Node() *vn.Node {
	return j.node
}

// Run implements the Job interface.
func (j *DeleteNodeJob) Run() {
	j.run(func(phase Phase) {
		if !j.resolveNode(j.lookup, j.node) {
			return
		}

		switch phase {
		case ObtainIdentifier:
			j.obtainIdentifier()
		case WaitForIdentifier:
			j.waitForIdentifier()
		case SendDelete:
			j.sendDelete()
		}
	})
}

func (j *DeleteNodeJob) obtainIdentifier() {
	if j.node.Identity().Known() {
		j.setPhase(SendDelete)
		return
	}

	if err := j.programmer.QueryIdentifier(j.node); err != nil {
		j.fail(err)
		return
	}

	j.setPhase(WaitForIdentifier)
}

func (j *DeleteNodeJob) waitForIdentifier() {
	if j.node.Identity().Known() {
		j.setPhase(SendDelete)
	}
}

func (j *DeleteNodeJob) sendDelete() {
	if err := j.programmer.DeleteNode(j.node); err != nil {
		j.fail(err)
		return
	}

	j.setPhase(Complete)
}
