package job

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mosaicnetworks/nrs/src/common"
	"github.com/mosaicnetworks/nrs/src/vn"
	"github.com/sirupsen/logrus"
)

// Phase is the current named step of a job's state machine.
type Phase string

// Terminal phases shared by all jobs.
const (
	Complete Phase = "COMPLETE"
	Abort    Phase = "ABORT"
)

// Terminal returns true for Complete and Abort.
func (p Phase) Terminal() bool {
	return p == Complete || p == Abort
}

// Kinds of jobs.
const (
	CreateNodeKind = "CreateNode"
	DeleteNodeKind = "DeleteNode"
	CreateLinkKind = "CreateLink"
	DeleteLinkKind = "DeleteLink"
)

// Job is a phased, resumable, observable unit of work.
type Job interface {
	// ID is unique within the process.
	ID() uint64

	// Kind is one of the *Kind constants.
	Kind() string

	// Target describes what the job operates on, eg. a node name or a link.
	Target() string

	Phase() Phase

	// Result is a diagnostic message, set when the job aborts.
	Result() string

	Terminal() bool

	Created() time.Time

	// Run executes the handler of the current phase. It does nothing once the
	// job is terminal.
	Run()

	// Cancel aborts a non-terminal job with the given result.
	Cancel(reason string)

	AddObserver(o Observer)
}

// Observer is called after every phase change of a job.
type Observer func(j Job)

// Lookup resolves qualified names to live nodes and variables. It is
// implemented by vn.Registry.
type Lookup interface {
	Node(name vn.Name) (*vn.Node, bool)
	Variable(name vn.Name) (*vn.Variable, bool)
}

// Programmer builds protocol requests and submits them to the components
// hosting their targets. Submission is fire-and-forget; an error means the
// request could not be built or handed to the transport.
type Programmer interface {
	CreateNode(node *vn.Node) error
	DeleteNode(node *vn.Node) error
	QueryIdentifier(o vn.Object) error
	CreateLink(source, target *vn.Variable) error
	DeleteLink(source, target *vn.Variable) error
}

var nextID uint64

// base holds the state shared by all jobs. Phase and result are only written
// by the goroutine running the job, but may be read from anywhere.
type base struct {
	mu        sync.Mutex
	id        uint64
	kind      string
	target    string
	phase     Phase
	result    string
	created   time.Time
	observers []Observer

	self   Job
	logger *logrus.Entry
}

func (b *base) init(self Job, kind, target string, initial Phase, logger *logrus.Entry) {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	b.id = atomic.AddUint64(&nextID, 1)
	b.kind = kind
	b.target = target
	b.phase = initial
	b.created = time.Now()
	b.self = self
	b.logger = logger.WithFields(logrus.Fields{
		"job":    b.id,
		"kind":   kind,
		"target": target,
	})
}

// ID implements the Job interface.
func (b *base) ID() uint64 { return b.id }

// Kind implements the Job interface.
func (b *base) Kind() string { return b.kind }

// Target implements the Job interface.
func (b *base) Target() string { return b.target }

// Created implements the Job interface.
func (b *base) Created() time.Time { return b.created }

// Phase implements the Job interface.
func (b *base) Phase() Phase {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.phase
}

// Result implements the Job interface.
func (b *base) Result() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.result
}

// Terminal implements the Job interface.
func (b *base) Terminal() bool {
	return b.Phase().Terminal()
}

// AddObserver implements the Job interface.
func (b *base) AddObserver(o Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.observers = append(b.observers, o)
}

// Cancel implements the Job interface.
func (b *base) Cancel(reason string) {
	if b.Terminal() {
		return
	}
	b.abort(reason)
}

// run executes handler for the current phase unless the job is terminal. A
// panicking handler aborts the job.
func (b *base) run(handler func(Phase)) {
	phase := b.Phase()
	if phase.Terminal() {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			b.logger.WithField("panic", r).Error("Job handler panicked")
			if !b.Terminal() {
				b.abort(fmt.Sprintf("panic in phase %s: %v", phase, r))
			}
		}
	}()

	handler(phase)
}

// setPhase moves the job to p and notifies observers.
func (b *base) setPhase(p Phase) {
	b.mu.Lock()
	if b.phase.Terminal() || b.phase == p {
		b.mu.Unlock()
		return
	}
	b.phase = p
	observers := make([]Observer, len(b.observers))
	copy(observers, b.observers)
	b.mu.Unlock()

	b.logger.WithField("phase", p).Debug("Job phase")

	for _, o := range observers {
		o(b.self)
	}
}

func (b *base) abort(result string) {
	b.mu.Lock()
	if b.phase.Terminal() {
		b.mu.Unlock()
		return
	}
	b.result = result
	b.mu.Unlock()

	b.logger.WithField("result", result).Warn("Job aborted")

	b.setPhase(Abort)
}

// fail aborts the job with the description of a protocol error.
func (b *base) fail(err error) {
	b.abort(err.Error())
}

// vanished aborts the job because a target no longer exists.
func (b *base) vanished(dataType string, name vn.Name) {
	b.abort(common.NewVNErr(dataType, common.NotFound, string(name)).Error())
}

// resolveNode returns the node registered under name if it is still the node
// the job was created for, and aborts the job otherwise.
func (b *base) resolveNode(lookup Lookup, node *vn.Node) bool {
	n, ok := lookup.Node(node.Name())
	if !ok || n != node {
		b.vanished("Node", node.Name())
		return false
	}
	return true
}

// resolveVariables looks up both endpoints of a link, aborting the job if
// either is missing.
func (b *base) resolveVariables(lookup Lookup, source, target vn.Name) (*vn.Variable, *vn.Variable, bool) {
	src, ok := lookup.Variable(source)
	if !ok {
		b.vanished("Variable", source)
		return nil, nil, false
	}
	dst, ok := lookup.Variable(target)
	if !ok {
		b.vanished("Variable", target)
		return nil, nil, false
	}
	return src, dst, true
}
