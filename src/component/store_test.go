package component

import (
	"testing"

	"github.com/mosaicnetworks/nrs/src/common"
	"github.com/mosaicnetworks/nrs/src/net"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func newBadgerStore(t *testing.T, dir string) *BadgerStore {
	store, err := NewBadgerStore(dir, common.NewTestEntry(t, logrus.WarnLevel))
	require.NoError(t, err)
	return store
}

func testStore(t *testing.T, store Store) {
	for i := uint32(1); i <= 3; i++ {
		id, err := store.NextIdentifier()
		require.NoError(t, err)
		require.Equal(t, i, id)
	}

	_, err := store.GetRecord("net.sensor")
	require.True(t, common.IsVN(err, common.NotFound))

	node := &Record{
		Name:       "net.sensor",
		Identifier: 1,
		Type:       "Sensor",
		Variables:  []string{"net.sensor.temp"},
		Attributes: map[string]string{"rate": "10"},
	}
	variable := &Record{
		Name:       "net.sensor.temp",
		Identifier: 2,
		Type:       "float",
		Node:       "net.sensor",
		Direction:  1,
	}
	require.NoError(t, store.SetRecords([]*Record{variable, node}))

	rec, err := store.GetRecord("net.sensor")
	require.NoError(t, err)
	require.Equal(t, node, rec)
	require.True(t, rec.IsNode())

	records, err := store.Records()
	require.NoError(t, err)
	require.Equal(t, []*Record{node, variable}, records)

	l := LinkRecord{
		Side:       net.SourceSide,
		Source:     2,
		Target:     7,
		SourceName: "net.sensor.temp",
		TargetName: "net.screen.temp",
	}
	require.NoError(t, store.SetLink(l))

	links, err := store.Links()
	require.NoError(t, err)
	require.Equal(t, []LinkRecord{l}, links)

	require.NoError(t, store.DeleteLink(l))
	links, err = store.Links()
	require.NoError(t, err)
	require.Empty(t, links)

	require.NoError(t, store.DeleteRecords([]string{"net.sensor", "net.sensor.temp", "net.ghost"}))
	records, err = store.Records()
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestInmemStore(t *testing.T) {
	testStore(t, NewInmemStore())
}

func TestBadgerStore(t *testing.T) {
	store := newBadgerStore(t, t.TempDir())
	defer store.Close()

	testStore(t, store)
}

func TestBadgerStoreReopen(t *testing.T) {
	dir := t.TempDir()

	store := newBadgerStore(t, dir)
	for i := 0; i < 5; i++ {
		_, err := store.NextIdentifier()
		require.NoError(t, err)
	}
	require.NoError(t, store.SetRecords([]*Record{{Name: "net.sensor", Identifier: 5, Type: "Sensor"}}))
	require.NoError(t, store.Close())

	store = newBadgerStore(t, dir)
	defer store.Close()

	id, err := store.NextIdentifier()
	require.NoError(t, err)
	require.Equal(t, uint32(6), id)

	rec, err := store.GetRecord("net.sensor")
	require.NoError(t, err)
	require.Equal(t, uint32(5), rec.Identifier)
}
