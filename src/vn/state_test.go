package vn

import (
	"reflect"
	"testing"
)

type recorder struct {
	events []SyncEvent
}

func (r *recorder) listen(e SyncEvent) {
	r.events = append(r.events, e)
}

func (r *recorder) count(e SyncEvent) int {
	c := 0
	for _, ev := range r.events {
		if ev == e {
			c++
		}
	}
	return c
}

func TestSyncStateInitial(t *testing.T) {
	s := NewSyncState()

	if s.Phase() != LocallyConstructed {
		t.Fatalf("expected LocallyConstructed, got %s", s.Phase())
	}
	if s.InSync() {
		t.Fatalf("new node should not be in sync")
	}
}

func TestMarkIdentifierKnown(t *testing.T) {
	s := NewSyncState()
	r := &recorder{}
	s.AddListener(r.listen)

	s.MarkIdentifierKnown()

	if s.Phase() != RemotelyConstructed {
		t.Fatalf("expected RemotelyConstructed, got %s", s.Phase())
	}
	if !s.InSync() {
		t.Fatalf("node should be in sync")
	}
	if !reflect.DeepEqual(r.events, []SyncEvent{SyncChanged}) {
		t.Fatalf("unexpected events %v", r.events)
	}

	// no-op once constructed
	s.MarkIdentifierKnown()
	if len(r.events) != 1 {
		t.Fatalf("second MarkIdentifierKnown should not notify, got %v", r.events)
	}
}

func TestMarkLocallyModifiedFromInSync(t *testing.T) {
	s := NewSyncState()
	s.MarkIdentifierKnown()

	r := &recorder{}
	s.AddListener(r.listen)

	s.MarkLocallyModified()
	s.MarkLocallyModified()

	if s.Phase() != LocallyModified {
		t.Fatalf("expected LocallyModified, got %s", s.Phase())
	}
	if s.InSync() {
		t.Fatalf("modified node should not be in sync")
	}
	if !reflect.DeepEqual(r.events, []SyncEvent{Modified, SyncChanged}) {
		t.Fatalf("unexpected events %v", r.events)
	}
}

func TestMarkLocallyModifiedFromLocal(t *testing.T) {
	s := NewSyncState()
	r := &recorder{}
	s.AddListener(r.listen)

	s.MarkLocallyModified()
	s.MarkLocallyModified()

	if r.count(Modified) != 1 {
		t.Fatalf("expected exactly one Modified, got %v", r.events)
	}
	if r.count(SyncChanged) != 0 {
		t.Fatalf("node was never in sync, got %v", r.events)
	}

	// not meaningful once modified
	s.MarkIdentifierKnown()
	if s.Phase() != LocallyModified {
		t.Fatalf("MarkIdentifierKnown should not leave LocallyModified")
	}
}

func TestMarkRemotelyModified(t *testing.T) {
	s := NewSyncState()
	r := &recorder{}
	s.AddListener(r.listen)

	s.MarkRemotelyModified()
	if s.Phase() != LocallyConstructed {
		t.Fatalf("MarkRemotelyModified should only apply to LocallyModified")
	}

	s.MarkLocallyModified()
	s.MarkRemotelyModified()

	if !s.InSync() {
		t.Fatalf("node should be back in sync")
	}
	if !reflect.DeepEqual(r.events, []SyncEvent{Modified, SyncChanged}) {
		t.Fatalf("unexpected events %v", r.events)
	}
}

func TestListenerMayReadState(t *testing.T) {
	s := NewSyncState()

	var seen SyncPhase = 99
	s.AddListener(func(SyncEvent) {
		seen = s.Phase()
	})

	s.MarkIdentifierKnown()

	if seen != RemotelyConstructed {
		t.Fatalf("listener saw %s", seen)
	}
}
