package delivery

import (
	"testing"
	"time"

	"github.com/mosaicnetworks/nrs/src/common"
	"github.com/mosaicnetworks/nrs/src/net"
	"github.com/mosaicnetworks/nrs/src/vn"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T) (*vn.Registry, *vn.Node) {
	r := vn.NewRegistry()
	node := vn.NewNode(vn.NodeSpec{
		Name:      "net.sensor",
		Type:      "Sensor",
		Component: "plant",
		Variables: []vn.VariableSpec{{Name: "temp", Direction: vn.Output, Type: "float"}},
	}, common.NewTestEntry(t, logrus.DebugLevel))
	require.NoError(t, r.AddNode(node))
	return r, node
}

func TestIdentifierReply(t *testing.T) {
	r, node := newRegistry(t)
	d := NewDispatcher(nil, r, common.NewTestEntry(t, common.TestLogLevel))

	var events []vn.SyncEvent
	node.State().AddListener(func(e vn.SyncEvent) {
		events = append(events, e)
	})

	d.Process(net.RPC{Command: &net.IdentifierReply{From: "plant", Name: "net.sensor", Identifier: 4}})

	id, known := node.Identity().Get()
	require.True(t, known)
	require.Equal(t, uint32(4), id)
	require.Equal(t, vn.RemotelyConstructed, node.State().Phase())
	require.Equal(t, []vn.SyncEvent{vn.SyncChanged}, events)

	// a second reply updates the identifier without another transition
	d.Process(net.RPC{Command: &net.IdentifierReply{From: "plant", Name: "net.sensor", Identifier: 5}})
	require.Equal(t, uint32(5), node.Identity().Identifier())
	require.Len(t, events, 1)

	v, _ := node.Variable("temp")
	d.Process(net.RPC{Command: &net.IdentifierReply{From: "plant", Name: "net.sensor.temp", Identifier: 6}})
	require.Equal(t, uint32(6), v.Identity().Identifier())

	require.Equal(t, "3", d.GetStats()["identifiers_set"])
}

func TestIdentifierReplyRejected(t *testing.T) {
	r, node := newRegistry(t)
	d := NewDispatcher(nil, r, common.NewTestEntry(t, common.TestLogLevel))

	d.Process(net.RPC{Command: &net.IdentifierReply{Name: "net.sensor", Identifier: 0}})
	require.False(t, node.Identity().Known())
	require.Equal(t, vn.LocallyConstructed, node.State().Phase())

	d.Process(net.RPC{Command: &net.IdentifierReply{Name: "net.ghost", Identifier: 3}})

	stats := d.GetStats()
	require.Equal(t, "1", stats["rejected"])
	require.Equal(t, "1", stats["dropped"])
	require.Equal(t, "0", stats["identifiers_set"])
}

func TestModifyNodeReply(t *testing.T) {
	r, node := newRegistry(t)
	d := NewDispatcher(nil, r, common.NewTestEntry(t, common.TestLogLevel))

	node.SetAttribute("rate", "5")
	require.Equal(t, vn.LocallyModified, node.State().Phase())

	d.Process(net.RPC{Command: &net.ModifyNodeReply{Name: "net.sensor", Identifier: 1}})
	require.Equal(t, vn.RemotelyModified, node.State().Phase())
	require.True(t, node.State().InSync())
}

func TestErrorReplyAndUnexpected(t *testing.T) {
	r, _ := newRegistry(t)
	d := NewDispatcher(nil, r, common.NewTestEntry(t, common.TestLogLevel))

	d.Process(net.RPC{Command: &net.ErrorReply{From: "plant", Name: "net.sensor", Error: "boom"}})
	d.Process(net.RPC{Command: &net.CreateNodeRequest{Name: "net.other"}})

	stats := d.GetStats()
	require.Equal(t, "1", stats["error_replies"])
	require.Equal(t, "1", stats["dropped"])
}

func TestRunOverTransport(t *testing.T) {
	r, node := newRegistry(t)

	_, editor := net.NewInmemTransport("editor")
	_, plant := net.NewInmemTransport("plant")
	net.ConnectInmem(editor, plant)

	d := NewDispatcher(editor.Consumer(), r, common.NewTestEntry(t, common.TestLogLevel))
	d.RunAsync()
	defer d.Shutdown()

	require.NoError(t, plant.Submit("editor", &net.IdentifierReply{From: "plant", Name: "net.sensor", Identifier: 9}))

	require.Eventually(t, node.Identity().Known, time.Second, 5*time.Millisecond)
	require.Equal(t, uint32(9), node.Identity().Identifier())

	d.Shutdown()
}
