package component

import (
	"sync"

	"github.com/mosaicnetworks/nrs/src/common"
)

// InmemStore implements the Store interface with maps. Nothing survives a
// restart.
type InmemStore struct {
	sync.RWMutex
	last    uint32
	records map[string]*Record
	links   map[string]LinkRecord
}

// NewInmemStore ...
func NewInmemStore() *InmemStore {
	return &InmemStore{
		records: make(map[string]*Record),
		links:   make(map[string]LinkRecord),
	}
}

// NextIdentifier implements the Store interface.
func (s *InmemStore) NextIdentifier() (uint32, error) {
	s.Lock()
	defer s.Unlock()

	s.last++
	return s.last, nil
}

// GetRecord implements the Store interface.
func (s *InmemStore) GetRecord(name string) (*Record, error) {
	s.RLock()
	defer s.RUnlock()

	rec, ok := s.records[name]
	if !ok {
		return nil, common.NewVNErr("Record", common.NotFound, name)
	}
	return copyRecord(rec), nil
}

// SetRecords implements the Store interface.
func (s *InmemStore) SetRecords(records []*Record) error {
	s.Lock()
	defer s.Unlock()

	for _, rec := range records {
		s.records[rec.Name] = copyRecord(rec)
	}
	return nil
}

// DeleteRecords implements the Store interface.
func (s *InmemStore) DeleteRecords(names []string) error {
	s.Lock()
	defer s.Unlock()

	for _, n := range names {
		delete(s.records, n)
	}
	return nil
}

// Records implements the Store interface.
func (s *InmemStore) Records() ([]*Record, error) {
	s.RLock()
	defer s.RUnlock()

	res := make([]*Record, 0, len(s.records))
	for _, rec := range s.records {
		res = append(res, copyRecord(rec))
	}
	sortRecords(res)
	return res, nil
}

// SetLink implements the Store interface.
func (s *InmemStore) SetLink(l LinkRecord) error {
	s.Lock()
	defer s.Unlock()

	s.links[l.Key()] = l
	return nil
}

// DeleteLink implements the Store interface.
func (s *InmemStore) DeleteLink(l LinkRecord) error {
	s.Lock()
	defer s.Unlock()

	delete(s.links, l.Key())
	return nil
}

// Links implements the Store interface.
func (s *InmemStore) Links() ([]LinkRecord, error) {
	s.RLock()
	defer s.RUnlock()

	res := make([]LinkRecord, 0, len(s.links))
	for _, l := range s.links {
		res = append(res, l)
	}
	sortLinks(res)
	return res, nil
}

// Close implements the Store interface.
func (s *InmemStore) Close() error {
	return nil
}

func copyRecord(rec *Record) *Record {
	c := *rec
	if rec.Variables != nil {
		c.Variables = append([]string(nil), rec.Variables...)
	}
	if rec.Attributes != nil {
		c.Attributes = make(map[string]string, len(rec.Attributes))
		for k, v := range rec.Attributes {
			c.Attributes[k] = v
		}
	}
	return &c
}
