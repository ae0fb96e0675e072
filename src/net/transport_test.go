package net

import (
	"reflect"
	"testing"
	"time"

	"github.com/mosaicnetworks/nrs/src/common"
)

const (
	INMEM = iota
	TCP
	numTestTransports // NOTE: must be last
)

func NewTestTransport(ttype int, addr string, t *testing.T) Transport {
	switch ttype {
	case INMEM:
		_, it := NewInmemTransport(addr)
		return it
	case TCP:
		tt, err := NewTCPTransport(addr, "", 2, time.Second, common.NewTestEntry(t, common.TestLogLevel))
		if err != nil {
			t.Fatal(err)
		}
		go tt.Listen()
		return tt
	default:
		panic("Unknown transport type")
	}
}

func connectTestTransports(ttype int, trans1, trans2 Transport) {
	if ttype == INMEM {
		ConnectInmem(trans1.(*InmemTransport), trans2.(*InmemTransport))
	}
}

func TestTransport_StartStop(t *testing.T) {
	for ttype := 0; ttype < numTestTransports; ttype++ {
		trans := NewTestTransport(ttype, "127.0.0.1:0", t)
		if err := trans.Close(); err != nil {
			t.Fatalf("err: %v", err)
		}
	}
}

func TestTransport_Submit(t *testing.T) {
	messages := []interface{}{
		&QueryIdentifierRequest{From: "editor", Name: "net.a"},
		&IdentifierReply{From: "plant", Name: "net.a", Identifier: 42},
		&CreateNodeRequest{
			From: "editor",
			Name: "net.a",
			Type: "Sensor",
			Variables: []VariableDescriptor{
				{Name: "temp", Direction: 1, Type: "float"},
			},
			Attributes: map[string]string{"rate": "10"},
		},
		&DeleteNodeRequest{From: "editor", Name: "net.a", Identifier: 42},
		&ModifyNodeRequest{From: "editor", Name: "net.a", Identifier: 42, Attributes: map[string]string{"rate": "5"}},
		&ModifyNodeReply{From: "plant", Name: "net.a", Identifier: 42},
		&CreateLinkRequest{From: "editor", Side: TargetSide, Source: 43, Target: 44, SourceName: "net.a.temp", TargetName: "net.b.temp"},
		&DeleteLinkRequest{From: "editor", Side: SourceSide, Source: 43, Target: 44, SourceName: "net.a.temp", TargetName: "net.b.temp"},
		&ErrorReply{From: "plant", Name: "net.z", Error: "unknown object"},
	}

	addr1 := "127.0.0.1:1234"
	addr2 := "127.0.0.1:1235"
	for ttype := 0; ttype < numTestTransports; ttype++ {
		trans1 := NewTestTransport(ttype, addr1, t)
		trans2 := NewTestTransport(ttype, addr2, t)
		connectTestTransports(ttype, trans1, trans2)

		for _, msg := range messages {
			if err := trans2.Submit(trans1.LocalAddr(), msg); err != nil {
				t.Fatalf("err: %v", err)
			}

			select {
			case rpc := <-trans1.Consumer():
				if !reflect.DeepEqual(rpc.Command, msg) {
					t.Fatalf("message mismatch: %#v %#v", rpc.Command, msg)
				}
			case <-time.After(time.Second):
				t.Fatalf("timeout waiting for %T", msg)
			}
		}

		trans1.Close()
		trans2.Close()
	}
}

func TestTransport_SubmitUnknownMessage(t *testing.T) {
	for ttype := 0; ttype < numTestTransports; ttype++ {
		trans := NewTestTransport(ttype, "127.0.0.1:0", t)

		if err := trans.Submit(trans.LocalAddr(), "not a message"); err == nil {
			t.Fatalf("expected an error for an unknown message type")
		}

		trans.Close()

		if err := trans.Submit(trans.LocalAddr(), &QueryIdentifierRequest{}); err != ErrTransportShutdown {
			t.Fatalf("expected ErrTransportShutdown, got %v", err)
		}
	}
}

func TestInmemTransport_NoRoute(t *testing.T) {
	_, trans := NewInmemTransport("")

	if err := trans.Submit("nowhere", &QueryIdentifierRequest{Name: "a"}); err == nil {
		t.Fatalf("expected an error for an unconnected peer")
	}
}
