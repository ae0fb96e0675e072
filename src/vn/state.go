package vn

import "sync"

// SyncPhase captures the construction and modification status of a node:
// LocallyConstructed, RemotelyConstructed, LocallyModified, or
// RemotelyModified.
type SyncPhase uint32

const (
	// LocallyConstructed is the initial phase of a node which has not been
	// acknowledged by its component yet.
	LocallyConstructed SyncPhase = iota

	// RemotelyConstructed is the phase of a node whose identifier has been
	// received from its component.
	RemotelyConstructed

	// LocallyModified is the phase of a node whose attributes have been edited
	// locally and not yet propagated.
	LocallyModified

	// RemotelyModified is the phase of a node whose local edits have been
	// acknowledged by its component.
	RemotelyModified
)

// String returns the string representation of a SyncPhase
func (p SyncPhase) String() string {
	switch p {
	case LocallyConstructed:
		return "LocallyConstructed"
	case RemotelyConstructed:
		return "RemotelyConstructed"
	case LocallyModified:
		return "LocallyModified"
	case RemotelyModified:
		return "RemotelyModified"
	default:
		return "Unknown"
	}
}

// SyncEvent is the kind of notification fired by a SyncState.
type SyncEvent uint32

const (
	// SyncChanged is fired whenever InSync changes value.
	SyncChanged SyncEvent = iota
	// Modified is fired when a node becomes locally modified.
	Modified
)

// String ...
func (e SyncEvent) String() string {
	switch e {
	case SyncChanged:
		return "SyncChanged"
	case Modified:
		return "Modified"
	default:
		return "Unknown"
	}
}

// SyncListener receives SyncState notifications.
type SyncListener func(SyncEvent)

// SyncState wraps a SyncPhase with transition methods that notify listeners.
// Listeners are called synchronously, outside of the internal lock, on the
// goroutine performing the transition.
type SyncState struct {
	mu        sync.Mutex
	phase     SyncPhase
	listeners []SyncListener
}

// NewSyncState returns a SyncState in the LocallyConstructed phase.
func NewSyncState() *SyncState {
	return &SyncState{phase: LocallyConstructed}
}

// Phase returns the current phase.
func (s *SyncState) Phase() SyncPhase {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.phase
}

// InSync returns true iff the phase is RemotelyConstructed or
// RemotelyModified.
func (s *SyncState) InSync() bool {
	return inSync(s.Phase())
}

func inSync(p SyncPhase) bool {
	return p == RemotelyConstructed || p == RemotelyModified
}

// AddListener registers a listener.
func (s *SyncState) AddListener(l SyncListener) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listeners = append(s.listeners, l)
}

// MarkIdentifierKnown moves a LocallyConstructed node to RemotelyConstructed.
// It does nothing in any other phase.
func (s *SyncState) MarkIdentifierKnown() {
	s.mu.Lock()
	if s.phase != LocallyConstructed {
		s.mu.Unlock()
		return
	}
	s.phase = RemotelyConstructed
	listeners := s.snapshot()
	s.mu.Unlock()

	notify(listeners, SyncChanged)
}

// MarkLocallyModified moves the node to LocallyModified, firing Modified, and
// SyncChanged if the node was in sync. It does nothing if the node is already
// LocallyModified.
func (s *SyncState) MarkLocallyModified() {
	s.mu.Lock()
	if s.phase == LocallyModified {
		s.mu.Unlock()
		return
	}
	wasInSync := inSync(s.phase)
	s.phase = LocallyModified
	listeners := s.snapshot()
	s.mu.Unlock()

	notify(listeners, Modified)
	if wasInSync {
		notify(listeners, SyncChanged)
	}
}

// MarkRemotelyModified moves a LocallyModified node to RemotelyModified once
// its edits have been acknowledged. It does nothing in any other phase.
func (s *SyncState) MarkRemotelyModified() {
	s.mu.Lock()
	if s.phase != LocallyModified {
		s.mu.Unlock()
		return
	}
	s.phase = RemotelyModified
	listeners := s.snapshot()
	s.mu.Unlock()

	notify(listeners, SyncChanged)
}

func (s *SyncState) snapshot() []SyncListener {
	res := make([]SyncListener, len(s.listeners))
	copy(res, s.listeners)
	return res
}

func notify(listeners []SyncListener, e SyncEvent) {
	for _, l := range listeners {
		l(e)
	}
}
