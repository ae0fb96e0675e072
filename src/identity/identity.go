package identity

import (
	"fmt"
	"sync"

	"github.com/mosaicnetworks/nrs/src/common"
	"github.com/sirupsen/logrus"
)

// RemoteIdentity records the remote identifier of a node or variable. The zero
// value is an unknown identity which logs through the standard logrus logger.
type RemoteIdentity struct {
	mu         sync.RWMutex
	identifier uint32
	known      bool

	name   string
	logger *logrus.Entry
}

// NewRemoteIdentity returns an unknown identity for the object called name.
func NewRemoteIdentity(name string, logger *logrus.Entry) *RemoteIdentity {
	return &RemoteIdentity{
		name:   name,
		logger: logger,
	}
}

// Known returns true iff an identifier has been successfully assigned.
func (r *RemoteIdentity) Known() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.known
}

// Identifier returns the remote identifier. It is only meaningful when Known
// returns true.
func (r *RemoteIdentity) Identifier() uint32 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.identifier
}

// Get returns the identifier and whether it is known, as one consistent
// snapshot.
func (r *RemoteIdentity) Get() (uint32, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.identifier, r.known
}

// SetIdentifier records the remote identifier. The reserved value 0 is
// rejected, logged, and leaves the identity unchanged.
func (r *RemoteIdentity) SetIdentifier(value uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if value == 0 {
		fields := logrus.Fields{
			"name":  r.name,
			"known": r.known,
		}
		if r.known {
			fields["identifier"] = r.identifier
		}
		r.entry().WithFields(fields).Warn("Rejecting reserved identifier 0")

		return common.ErrReservedIdentifier
	}

	r.identifier = value
	r.known = true

	return nil
}

// Reset forgets the identifier.
func (r *RemoteIdentity) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.identifier = 0
	r.known = false
}

// String ...
func (r *RemoteIdentity) String() string {
	id, known := r.Get()
	if !known {
		return fmt.Sprintf("%s:unknown", r.name)
	}
	return fmt.Sprintf("%s:%d", r.name, id)
}

func (r *RemoteIdentity) entry() *logrus.Entry {
	if r.logger == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return r.logger
}
