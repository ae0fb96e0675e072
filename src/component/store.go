package component

import (
	"sort"

	"github.com/mosaicnetworks/nrs/src/net"
)

// Record is the component-side state of a hosted node or variable.
type Record struct {
	Name       string
	Identifier uint32
	Type       string

	// Node is the name of the owning node for a variable, and empty for a
	// node.
	Node       string
	Direction  uint8
	Variables  []string
	Attributes map[string]string
}

// IsNode ...
func (r *Record) IsNode() bool {
	return r.Node == ""
}

// LinkRecord is one half of a link, as recorded by the component hosting that
// end.
type LinkRecord struct {
	Side       net.LinkSide
	Source     uint32
	Target     uint32
	SourceName string
	TargetName string
}

// Key identifies a link half independently of its identifiers.
func (l LinkRecord) Key() string {
	return l.SourceName + "->" + l.TargetName + "#" + l.Side.String()
}

// Store persists the objects hosted by a component and the identifier
// counter.
type Store interface {
	// NextIdentifier allocates a fresh identifier. Identifiers start at 1
	// and are never reused.
	NextIdentifier() (uint32, error)
	// GetRecord returns the record called name, or a NotFound VNErr.
	GetRecord(name string) (*Record, error)
	// SetRecords inserts or replaces records atomically.
	SetRecords(records []*Record) error
	// DeleteRecords removes records by name. Missing names are ignored.
	DeleteRecords(names []string) error
	// Records returns all records sorted by name.
	Records() ([]*Record, error)
	// SetLink records a link half.
	SetLink(l LinkRecord) error
	// DeleteLink removes a link half.
	DeleteLink(l LinkRecord) error
	// Links returns all link halves sorted by key.
	Links() ([]LinkRecord, error)
	// Close releases the resources of the store.
	Close() error
}

func sortRecords(records []*Record) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].Name < records[j].Name
	})
}

func sortLinks(links []LinkRecord) {
	sort.Slice(links, func(i, j int) bool {
		return links[i].Key() < links[j].Key()
	})
}
