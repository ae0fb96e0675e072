package net

import (
	"github.com/ugorji/go/codec"
)

// msgpackHandle is shared by all encoders and decoders. Handles are safe for
// concurrent use once configured.
var msgpackHandle = newMsgpackHandle()

func newMsgpackHandle() *codec.MsgpackHandle {
	h := new(codec.MsgpackHandle)
	h.RawToString = true
	h.WriteExt = true
	return h
}
