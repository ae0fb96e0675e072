package component

import (
	"testing"
	"time"

	"github.com/mosaicnetworks/nrs/src/common"
	"github.com/mosaicnetworks/nrs/src/net"
	"github.com/stretchr/testify/require"
)

type testHost struct {
	comp   *Component
	editor *net.InmemTransport
}

func newTestHost(t *testing.T, store Store) *testHost {
	_, editor := net.NewInmemTransport("editor")
	_, trans := net.NewInmemTransport("plant-addr")
	net.ConnectInmem(editor, trans)

	return &testHost{
		comp:   NewComponent("plant", trans, store, common.NewTestEntry(t, common.TestLogLevel)),
		editor: editor,
	}
}

func (h *testHost) process(cmd interface{}) {
	h.comp.Process(net.RPC{Command: cmd, Source: "editor"})
}

func (h *testHost) reply(t *testing.T) interface{} {
	select {
	case rpc := <-h.editor.Consumer():
		return rpc.Command
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for reply")
		return nil
	}
}

func (h *testHost) noReply(t *testing.T) {
	select {
	case rpc := <-h.editor.Consumer():
		t.Fatalf("unexpected reply %#v", rpc.Command)
	default:
	}
}

func (h *testHost) query(t *testing.T, name string) uint32 {
	h.process(&net.QueryIdentifierRequest{From: "editor", Name: name})
	r, ok := h.reply(t).(*net.IdentifierReply)
	require.True(t, ok, "expected IdentifierReply for %s", name)
	require.Equal(t, name, r.Name)
	require.Equal(t, "plant-addr", r.From)
	return r.Identifier
}

var createSensor = &net.CreateNodeRequest{
	From: "editor",
	Name: "net.sensor",
	Type: "Sensor",
	Variables: []net.VariableDescriptor{
		{Name: "temp", Direction: 1, Type: "float"},
		{Name: "reset", Direction: 0, Type: "bool"},
	},
}

func TestCreateAndQuery(t *testing.T) {
	h := newTestHost(t, NewInmemStore())

	h.process(&net.QueryIdentifierRequest{From: "editor", Name: "net.sensor"})
	er, ok := h.reply(t).(*net.ErrorReply)
	require.True(t, ok)
	require.Equal(t, "net.sensor", er.Name)

	h.process(createSensor)
	h.noReply(t)

	require.Equal(t, uint32(1), h.query(t, "net.sensor"))
	require.Equal(t, uint32(2), h.query(t, "net.sensor.temp"))
	require.Equal(t, uint32(3), h.query(t, "net.sensor.reset"))

	// resending the request keeps the identifiers
	h.process(createSensor)
	h.noReply(t)
	require.Equal(t, uint32(1), h.query(t, "net.sensor"))

	h.process(&net.CreateNodeRequest{From: "editor", Name: "net.sensor", Type: "Display"})
	require.IsType(t, &net.ErrorReply{}, h.reply(t))
}

func TestDeleteNode(t *testing.T) {
	h := newTestHost(t, NewInmemStore())

	h.process(createSensor)
	id := h.query(t, "net.sensor")
	vid := h.query(t, "net.sensor.temp")

	h.process(&net.CreateLinkRequest{
		From:       "editor",
		Side:       net.SourceSide,
		Source:     vid,
		Target:     40,
		SourceName: "net.sensor.temp",
		TargetName: "net.screen.temp",
	})
	h.noReply(t)

	h.process(&net.DeleteNodeRequest{From: "editor", Name: "net.sensor", Identifier: id + 10})
	require.IsType(t, &net.ErrorReply{}, h.reply(t))

	h.process(&net.DeleteNodeRequest{From: "editor", Name: "net.sensor", Identifier: id})
	h.noReply(t)

	records, err := h.comp.Store().Records()
	require.NoError(t, err)
	require.Empty(t, records)

	links, err := h.comp.Store().Links()
	require.NoError(t, err)
	require.Empty(t, links)

	// identifiers are not reused
	h.process(createSensor)
	require.Equal(t, uint32(4), h.query(t, "net.sensor"))
}

func TestModifyNode(t *testing.T) {
	h := newTestHost(t, NewInmemStore())

	h.process(createSensor)
	id := h.query(t, "net.sensor")

	h.process(&net.ModifyNodeRequest{
		From:       "editor",
		Name:       "net.sensor",
		Identifier: id,
		Attributes: map[string]string{"rate": "5"},
	})
	require.Equal(t, &net.ModifyNodeReply{From: "plant-addr", Name: "net.sensor", Identifier: id}, h.reply(t))

	rec, err := h.comp.Store().GetRecord("net.sensor")
	require.NoError(t, err)
	require.Equal(t, "5", rec.Attributes["rate"])

	h.process(&net.ModifyNodeRequest{From: "editor", Name: "net.sensor.temp", Identifier: 2})
	require.IsType(t, &net.ErrorReply{}, h.reply(t))
}

func TestLinkHalves(t *testing.T) {
	h := newTestHost(t, NewInmemStore())

	h.process(createSensor)
	vid := h.query(t, "net.sensor.temp")

	// the target end is not hosted here
	h.process(&net.CreateLinkRequest{
		From:       "editor",
		Side:       net.TargetSide,
		Source:     vid,
		Target:     40,
		SourceName: "net.sensor.temp",
		TargetName: "net.screen.temp",
	})
	require.IsType(t, &net.ErrorReply{}, h.reply(t))

	req := &net.CreateLinkRequest{
		From:       "editor",
		Side:       net.SourceSide,
		Source:     vid,
		Target:     40,
		SourceName: "net.sensor.temp",
		TargetName: "net.screen.temp",
	}
	h.process(req)
	h.noReply(t)

	links, err := h.comp.Store().Links()
	require.NoError(t, err)
	require.Len(t, links, 1)
	require.Equal(t, uint32(40), links[0].Target)

	h.process(&net.DeleteLinkRequest{
		From:       "editor",
		Side:       net.SourceSide,
		Source:     vid,
		Target:     40,
		SourceName: "net.sensor.temp",
		TargetName: "net.screen.temp",
	})
	h.noReply(t)

	links, err = h.comp.Store().Links()
	require.NoError(t, err)
	require.Empty(t, links)

	stats := h.comp.GetStats()
	require.Equal(t, "1", stats["failed"])
}

func TestRunWithBadgerStore(t *testing.T) {
	store, err := NewBadgerStore(t.TempDir(), nil)
	require.NoError(t, err)

	h := newTestHost(t, store)
	h.comp.RunAsync()
	defer h.comp.Shutdown()

	require.NoError(t, h.editor.Submit("plant-addr", createSensor))
	require.NoError(t, h.editor.Submit("plant-addr", &net.QueryIdentifierRequest{From: "editor", Name: "net.sensor.reset"}))

	r, ok := h.reply(t).(*net.IdentifierReply)
	require.True(t, ok)
	require.Equal(t, uint32(3), r.Identifier)
}
