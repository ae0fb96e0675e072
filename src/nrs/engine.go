package nrs

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/mosaicnetworks/nrs/src/common"
	"github.com/mosaicnetworks/nrs/src/config"
	"github.com/mosaicnetworks/nrs/src/delivery"
	"github.com/mosaicnetworks/nrs/src/job"
	"github.com/mosaicnetworks/nrs/src/net"
	"github.com/mosaicnetworks/nrs/src/peers"
	"github.com/mosaicnetworks/nrs/src/programmer"
	"github.com/mosaicnetworks/nrs/src/service"
	"github.com/mosaicnetworks/nrs/src/vn"
	"github.com/sirupsen/logrus"
)

// historySize is the number of finished jobs kept for inspection.
const historySize = 100

// Engine is the editor-side NRS engine.
type Engine struct {
	// Config is the configuration of the engine.
	Config *config.Config

	// Registry is the local network model.
	Registry *vn.Registry

	// Transport is the transport used to reach components.
	Transport net.Transport

	// Peers maps component names to transport addresses.
	Peers *peers.PeerSet

	// Programmer builds and routes protocol requests.
	Programmer *programmer.Programmer

	// Dispatcher applies the replies of components to the Registry.
	Dispatcher *delivery.Dispatcher

	// Scheduler drives pending jobs.
	Scheduler *job.Scheduler

	// Service is the optional HTTP API.
	Service *service.Service

	historyLock sync.Mutex
	history     []job.Job

	shutdownOnce sync.Once

	logger *logrus.Entry
}

// NewEngine creates a new engine with the given configuration. Init must be
// called before Run.
func NewEngine(conf *config.Config) *Engine {
	return &Engine{
		Config: conf,
		logger: conf.Logger(),
	}
}

func (e *Engine) initTransport() error {
	if e.Config.Transport != nil {
		e.Transport = e.Config.Transport
		return nil
	}

	transport, err := net.NewTCPTransport(
		e.Config.BindAddr,
		e.Config.AdvertiseAddr,
		e.Config.MaxPool,
		e.Config.TCPTimeout,
		e.logger,
	)
	if err != nil {
		return err
	}

	e.Transport = transport

	return nil
}

func (e *Engine) initPeers() error {
	if e.Config.Peers != nil {
		e.Peers = e.Config.Peers
		return nil
	}

	peerStore := peers.NewJSONPeerSet(e.Config.DataDir)

	peerSet, err := peerStore.PeerSet()
	if err != nil {
		return fmt.Errorf("reading %s: %v", peerStore.Path(), err)
	}

	if peerSet.Len() == 0 {
		e.logger.WithField("path", peerStore.Path()).Warn("No components defined")
	}

	e.Peers = peerSet

	return nil
}

func (e *Engine) initService() {
	if !e.Config.NoService {
		e.Service = service.NewService(e.Config.ServiceAddr, e, e.logger)
	}
}

// Init wires the engine's components together.
func (e *Engine) Init() error {
	if err := e.initPeers(); err != nil {
		return err
	}

	if err := e.initTransport(); err != nil {
		return err
	}

	e.Registry = vn.NewRegistry()

	e.Programmer = programmer.NewProgrammer(
		e.Transport,
		e.Peers,
		e.Config.TCPTimeout,
		e.logger.WithField("prefix", "programmer"),
	)

	e.Dispatcher = delivery.NewDispatcher(e.Transport.Consumer(), e.Registry, e.logger)

	e.Scheduler = job.NewScheduler(job.SchedulerConfig{
		PollInterval:     e.Config.PollInterval,
		SlowPollInterval: e.Config.SlowPollInterval,
		JobTimeout:       e.Config.JobTimeout,
	}, e.logger.WithField("prefix", "scheduler"))

	e.initService()

	e.logger.WithFields(logrus.Fields{
		"advertise":  e.Transport.AdvertiseAddr(),
		"components": e.Peers.Len(),
		"auto_link":  e.Config.AutoLink,
	}).Debug("Engine initialized")

	return nil
}

// Run starts the transport, the dispatcher and the service, and runs the
// scheduler until Shutdown is called. This is a blocking call.
func (e *Engine) Run() {
	go e.Transport.Listen()

	e.Dispatcher.RunAsync()

	if e.Service != nil {
		go e.Service.Serve()
	}

	e.Scheduler.Run()
}

// RunAsync runs the engine in a goroutine.
func (e *Engine) RunAsync() {
	go e.Run()
}

// Shutdown stops the scheduler, the dispatcher and the service, and closes
// the transport. It is safe to call more than once.
func (e *Engine) Shutdown() {
	e.shutdownOnce.Do(func() {
		e.logger.Debug("Shutdown")

		e.Scheduler.Shutdown()
		e.Dispatcher.Shutdown()

		if e.Service != nil {
			e.Service.Shutdown()
		}

		if err := e.Transport.Close(); err != nil {
			e.logger.WithError(err).Error("Closing transport")
		}
	})
}

/*******************************************************************************
Editing operations
*******************************************************************************/

// CreateNode registers a new node and enqueues the job constructing it
// remotely.
func (e *Engine) CreateNode(spec vn.NodeSpec) (*job.CreateNodeJob, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if _, ok := e.Peers.ByName(spec.Component); !ok {
		return nil, common.NewVNErr("Component", common.NoRoute, spec.Component)
	}

	node := vn.NewNode(spec, e.logger)
	if err := e.Registry.AddNode(node); err != nil {
		return nil, err
	}

	j := job.NewCreateNodeJob(node, e.Registry, e.Programmer, e.logger)
	j.AddObserver(e.onCreateNode)
	e.submit(j)

	return j, nil
}

// DeleteNode enqueues the job destroying a node remotely. The node stays
// registered until the job completes.
func (e *Engine) DeleteNode(name vn.Name) (*job.DeleteNodeJob, error) {
	node, ok := e.Registry.Node(name)
	if !ok {
		return nil, common.NewVNErr("Node", common.NotFound, string(name))
	}

	j := job.NewDeleteNodeJob(node, e.Registry, e.Programmer, e.logger)
	j.AddObserver(e.onDeleteNode)
	e.submit(j)

	return j, nil
}

// CreateLink enqueues the job linking an output variable to an input
// variable. The link is registered when the job completes.
func (e *Engine) CreateLink(source, target vn.Name) (*job.CreateLinkJob, error) {
	l := vn.Link{Source: source, Target: target}
	if err := e.checkLink(l); err != nil {
		return nil, err
	}
	if e.Registry.HasLink(l) || e.linkPending(l) {
		return nil, common.NewVNErr("Link", common.AlreadyExists, l.String())
	}

	j := job.NewCreateLinkJob(l, e.Registry, e.Programmer, e.logger)
	j.AddObserver(e.onCreateLink)
	e.submit(j)

	return j, nil
}

// DeleteLink enqueues the job unlinking two variables. The link is removed
// from the registry when the job completes.
func (e *Engine) DeleteLink(source, target vn.Name) (*job.DeleteLinkJob, error) {
	l := vn.Link{Source: source, Target: target}
	if !e.Registry.HasLink(l) {
		return nil, common.NewVNErr("Link", common.NotFound, l.String())
	}

	j := job.NewDeleteLinkJob(l, e.Registry, e.Programmer, e.logger)
	j.AddObserver(e.onDeleteLink)
	e.submit(j)

	return j, nil
}

// ModifyNode sets an attribute of a node and, if the node has been
// constructed remotely, pushes its attributes to the component. The node
// returns in sync when the component acknowledges the change.
func (e *Engine) ModifyNode(name vn.Name, key, value string) error {
	node, ok := e.Registry.Node(name)
	if !ok {
		return common.NewVNErr("Node", common.NotFound, string(name))
	}

	node.SetAttribute(key, value)

	if !node.Identity().Known() {
		// pushed by onCreateNode once the identifier arrives
		return nil
	}

	return e.Programmer.ModifyNode(node)
}

func (e *Engine) checkLink(l vn.Link) error {
	src, ok := e.Registry.Variable(l.Source)
	if !ok {
		return common.NewVNErr("Variable", common.NotFound, string(l.Source))
	}
	dst, ok := e.Registry.Variable(l.Target)
	if !ok {
		return common.NewVNErr("Variable", common.NotFound, string(l.Target))
	}
	if src.Direction() != vn.Output || dst.Direction() != vn.Input {
		return fmt.Errorf("cannot link %s (%s) to %s (%s)", l.Source, src.Direction(), l.Target, dst.Direction())
	}
	return nil
}

// linkPending reports whether a CreateLinkJob for l is still pending.
func (e *Engine) linkPending(l vn.Link) bool {
	for _, j := range e.Scheduler.Pending() {
		if lj, ok := j.(*job.CreateLinkJob); ok && !lj.Terminal() && lj.Link() == l {
			return true
		}
	}
	return false
}

func (e *Engine) submit(j job.Job) {
	j.AddObserver(e.record)
	e.Scheduler.Submit(j)
}

/*******************************************************************************
Job reactions
*******************************************************************************/

func (e *Engine) onCreateNode(j job.Job) {
	if j.Phase() != job.Complete {
		return
	}

	node := j.(*job.CreateNodeJob).Node()

	// edits made while the identifier was unknown have not reached the
	// component
	if node.State().Phase() == vn.LocallyModified {
		if err := e.Programmer.ModifyNode(node); err != nil {
			e.logger.WithError(err).Warn("Pushing pending attributes")
		}
	}

	if !e.Config.AutoLink {
		return
	}

	for _, l := range vn.AutoLinks(e.Registry, node) {
		if e.Registry.HasLink(l) || e.linkPending(l) {
			continue
		}

		e.logger.WithField("link", l.String()).Debug("Auto-linking")

		lj := job.NewCreateLinkJob(l, e.Registry, e.Programmer, e.logger)
		lj.AddObserver(e.onCreateLink)
		e.submit(lj)
	}
}

func (e *Engine) onDeleteNode(j job.Job) {
	if j.Phase() != job.Complete {
		return
	}

	node := j.(*job.DeleteNodeJob).Node()

	// the name may have been reused by a newer node in the meantime
	if current, ok := e.Registry.Node(node.Name()); !ok || current != node {
		return
	}

	if _, err := e.Registry.RemoveNode(node.Name()); err != nil {
		e.logger.WithError(err).Warn("Removing deleted node")
	}
}

func (e *Engine) onCreateLink(j job.Job) {
	if j.Phase() != job.Complete {
		return
	}

	l := j.(*job.CreateLinkJob).Link()
	if err := e.Registry.AddLink(l); err != nil {
		e.logger.WithError(err).Warn("Registering created link")
	}
}

func (e *Engine) onDeleteLink(j job.Job) {
	if j.Phase() != job.Complete {
		return
	}

	l := j.(*job.DeleteLinkJob).Link()
	if err := e.Registry.RemoveLink(l); err != nil {
		e.logger.WithError(err).Warn("Removing deleted link")
	}
}

// record keeps terminated jobs in a bounded history.
func (e *Engine) record(j job.Job) {
	if !j.Terminal() {
		return
	}

	e.historyLock.Lock()
	defer e.historyLock.Unlock()

	e.history = append(e.history, j)
	if len(e.history) > historySize {
		e.history = e.history[len(e.history)-historySize:]
	}
}

/*******************************************************************************
Inspection
*******************************************************************************/

// Jobs returns the recently terminated jobs followed by the pending ones.
func (e *Engine) Jobs() []job.Job {
	e.historyLock.Lock()
	res := make([]job.Job, len(e.history))
	copy(res, e.history)
	e.historyLock.Unlock()

	for _, j := range e.Scheduler.Pending() {
		if !j.Terminal() {
			res = append(res, j)
		}
	}
	return res
}

// Nodes returns the registered nodes.
func (e *Engine) Nodes() []*vn.Node {
	return e.Registry.Nodes()
}

// Links returns the registered links.
func (e *Engine) Links() []vn.Link {
	return e.Registry.Links()
}

// GetStats returns the counters of the scheduler and the dispatcher, along
// with the size of the registry.
func (e *Engine) GetStats() map[string]string {
	stats := map[string]string{
		"nodes":      strconv.Itoa(len(e.Registry.Nodes())),
		"links":      strconv.Itoa(len(e.Registry.Links())),
		"components": strconv.Itoa(e.Peers.Len()),
		"advertise":  e.Transport.AdvertiseAddr(),
	}

	for k, v := range e.Scheduler.GetStats() {
		stats["scheduler_"+k] = v
	}
	for k, v := range e.Dispatcher.GetStats() {
		stats["delivery_"+k] = v
	}

	return stats
}
