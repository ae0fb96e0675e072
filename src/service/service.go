package service

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/mosaicnetworks/nrs/src/job"
	"github.com/mosaicnetworks/nrs/src/vn"
	"github.com/sirupsen/logrus"
)

// Engine is what the service exposes.
type Engine interface {
	GetStats() map[string]string
	Jobs() []job.Job
	Nodes() []*vn.Node
	Links() []vn.Link
}

// Service ...
type Service struct {
	sync.Mutex

	bindAddress string
	engine      Engine
	mux         *http.ServeMux
	server      *http.Server
	closed      bool
	logger      *logrus.Entry
}

// NewService ...
func NewService(bindAddress string, engine Engine, logger *logrus.Entry) *Service {
	service := Service{
		bindAddress: bindAddress,
		engine:      engine,
		mux:         http.NewServeMux(),
		logger:      logger.WithField("prefix", "service"),
	}

	service.registerHandlers()

	return &service
}

// registerHandlers registers the API handlers with the service's own mux, so
// that several engines can run in the same process.
func (s *Service) registerHandlers() {
	s.logger.Debug("Registering NRS API handlers")
	s.mux.HandleFunc("/stats", s.makeHandler(s.GetStats))
	s.mux.HandleFunc("/jobs", s.makeHandler(s.GetJobs))
	s.mux.HandleFunc("/nodes", s.makeHandler(s.GetNodes))
	s.mux.HandleFunc("/links", s.makeHandler(s.GetLinks))
}

func (s *Service) makeHandler(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Lock()
		defer s.Unlock()

		// enable CORS
		w.Header().Set("Access-Control-Allow-Origin", "*")

		fn(w, r)
	}
}

// Handler returns the http.Handler serving the API.
func (s *Service) Handler() http.Handler {
	return s.mux
}

// Serve calls ListenAndServe. This is a blocking call.
func (s *Service) Serve() {
	s.logger.WithField("bind_address", s.bindAddress).Debug("Serving NRS API")

	s.Lock()
	if s.closed {
		s.Unlock()
		return
	}
	s.server = &http.Server{
		Addr:              s.bindAddress,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	server := s.server
	s.Unlock()

	err := server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		s.logger.Error(err)
	}
}

// Shutdown stops a server started with Serve. Serve returns immediately if
// called after Shutdown.
func (s *Service) Shutdown() {
	s.Lock()
	server := s.server
	s.closed = true
	s.Unlock()

	if server == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		s.logger.WithError(err).Error("Shutting down service")
	}
}

// GetStats ...
func (s *Service) GetStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.engine.GetStats())
}

// JobInfo is the JSON representation of a job.
type JobInfo struct {
	ID      uint64
	Kind    string
	Target  string
	Phase   string
	Result  string
	Created time.Time
}

// GetJobs ...
func (s *Service) GetJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.engine.Jobs()

	res := make([]JobInfo, 0, len(jobs))
	for _, j := range jobs {
		res = append(res, JobInfo{
			ID:      j.ID(),
			Kind:    j.Kind(),
			Target:  j.Target(),
			Phase:   string(j.Phase()),
			Result:  j.Result(),
			Created: j.Created(),
		})
	}

	s.writeJSON(w, res)
}

// VariableInfo is the JSON representation of a variable.
type VariableInfo struct {
	Name       string
	Direction  string
	Type       string
	Identifier uint32 `json:",omitempty"`
	Known      bool
}

// NodeInfo is the JSON representation of a node.
type NodeInfo struct {
	Name       string
	Type       string
	Component  string
	Identifier uint32 `json:",omitempty"`
	Known      bool
	SyncPhase  string
	InSync     bool
	Attributes map[string]string `json:",omitempty"`
	Variables  []VariableInfo
}

// GetNodes ...
func (s *Service) GetNodes(w http.ResponseWriter, r *http.Request) {
	nodes := s.engine.Nodes()

	res := make([]NodeInfo, 0, len(nodes))
	for _, n := range nodes {
		id, known := n.Identity().Get()
		info := NodeInfo{
			Name:       string(n.Name()),
			Type:       n.Type(),
			Component:  n.Component(),
			Identifier: id,
			Known:      known,
			SyncPhase:  n.State().Phase().String(),
			InSync:     n.State().InSync(),
			Attributes: n.Attributes(),
		}
		for _, v := range n.Variables() {
			vid, vknown := v.Identity().Get()
			info.Variables = append(info.Variables, VariableInfo{
				Name:       string(v.Name()),
				Direction:  v.Direction().String(),
				Type:       v.Type(),
				Identifier: vid,
				Known:      vknown,
			})
		}
		res = append(res, info)
	}

	s.writeJSON(w, res)
}

// GetLinks ...
func (s *Service) GetLinks(w http.ResponseWriter, r *http.Request) {
	links := s.engine.Links()
	if links == nil {
		links = []vn.Link{}
	}
	s.writeJSON(w, links)
}

func (s *Service) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("Encoding response")
	}
}
