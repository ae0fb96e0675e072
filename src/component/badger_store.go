package component

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/dgraph-io/badger"
	"github.com/mosaicnetworks/nrs/src/common"
	"github.com/sirupsen/logrus"
	"github.com/ugorji/go/codec"
)

const (
	recordPrefix = "record"
	linkPrefix   = "link"
	counterKey   = "counter"
)

// BadgerStore implements the Store interface on top of a Badger database, so
// that identifiers survive a restart of the component.
type BadgerStore struct {
	db   *badger.DB
	path string
}

// NewBadgerStore opens an existing database or creates a new one if nothing is
// found in path.
func NewBadgerStore(path string, logger *logrus.Entry) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).
		WithSyncWrites(false).
		WithTruncate(true)

	if logger != nil {
		sub := logger.WithFields(logrus.Fields{"ns": "badger"})
		opts = opts.WithLogger(sub)
	}

	handle, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &BadgerStore{
		db:   handle,
		path: path,
	}, nil
}

// StorePath ...
func (s *BadgerStore) StorePath() string {
	return s.path
}

/*******************************************************************************
Keys
*******************************************************************************/

func recordKey(name string) []byte {
	return []byte(fmt.Sprintf("%s_%s", recordPrefix, name))
}

func linkKey(l LinkRecord) []byte {
	return []byte(fmt.Sprintf("%s_%s", linkPrefix, l.Key()))
}

/*******************************************************************************
Encoding
*******************************************************************************/

func encode(v interface{}) ([]byte, error) {
	var b []byte
	enc := codec.NewEncoderBytes(&b, new(codec.MsgpackHandle))
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return b, nil
}

func decode(data []byte, v interface{}) error {
	dec := codec.NewDecoder(bytes.NewReader(data), new(codec.MsgpackHandle))
	return dec.Decode(v)
}

/*******************************************************************************
Store interface
*******************************************************************************/

// NextIdentifier implements the Store interface. The counter is read and
// incremented in a single read-write transaction.
func (s *BadgerStore) NextIdentifier() (uint32, error) {
	var next uint32

	err := s.db.Update(func(txn *badger.Txn) error {
		var last uint32

		item, err := txn.Get([]byte(counterKey))
		switch {
		case err == nil:
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			last = binary.BigEndian.Uint32(val)
		case !isDBKeyNotFound(err):
			return err
		}

		next = last + 1

		buf := make([]byte, 4)
		binary.BigEndian.PutUint32(buf, next)
		return txn.Set([]byte(counterKey), buf)
	})

	if err != nil {
		return 0, err
	}
	return next, nil
}

// GetRecord implements the Store interface.
func (s *BadgerStore) GetRecord(name string) (*Record, error) {
	var data []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(name))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})

	if err != nil {
		return nil, mapError(err, "Record", name)
	}

	rec := new(Record)
	if err := decode(data, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// SetRecords implements the Store interface.
func (s *BadgerStore) SetRecords(records []*Record) error {
	tx := s.db.NewTransaction(true)
	defer tx.Discard()

	for _, rec := range records {
		val, err := encode(rec)
		if err != nil {
			return err
		}
		if err := tx.Set(recordKey(rec.Name), val); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// DeleteRecords implements the Store interface.
func (s *BadgerStore) DeleteRecords(names []string) error {
	tx := s.db.NewTransaction(true)
	defer tx.Discard()

	for _, n := range names {
		if err := tx.Delete(recordKey(n)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Records implements the Store interface.
func (s *BadgerStore) Records() ([]*Record, error) {
	res := []*Record{}

	err := s.scan(recordPrefix, func(data []byte) error {
		rec := new(Record)
		if err := decode(data, rec); err != nil {
			return err
		}
		res = append(res, rec)
		return nil
	})

	if err != nil {
		return nil, err
	}
	sortRecords(res)
	return res, nil
}

// SetLink implements the Store interface.
func (s *BadgerStore) SetLink(l LinkRecord) error {
	val, err := encode(&l)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(linkKey(l), val)
	})
}

// DeleteLink implements the Store interface.
func (s *BadgerStore) DeleteLink(l LinkRecord) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(linkKey(l))
	})
}

// Links implements the Store interface.
func (s *BadgerStore) Links() ([]LinkRecord, error) {
	res := []LinkRecord{}

	err := s.scan(linkPrefix, func(data []byte) error {
		var l LinkRecord
		if err := decode(data, &l); err != nil {
			return err
		}
		res = append(res, l)
		return nil
	})

	if err != nil {
		return nil, err
	}
	sortLinks(res)
	return res, nil
}

// Close implements the Store interface.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// scan calls f with the value of every key starting with prefix.
func (s *BadgerStore) scan(prefix string, f func([]byte) error) error {
	p := []byte(prefix + "_")

	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			data, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := f(data); err != nil {
				return err
			}
		}
		return nil
	})
}

func isDBKeyNotFound(err error) bool {
	return err != nil && err.Error() == badger.ErrKeyNotFound.Error()
}

func mapError(err error, name, key string) error {
	if isDBKeyNotFound(err) {
		return common.NewVNErr(name, common.NotFound, key)
	}
	return err
}
