// Package dispatch implements frame classification and per-face I/O
// (spec.md §4.9, C9).
//
// The original design poll(2)s every face's file descriptor from one
// thread; this port instead gives each face its own receive goroutine
// calling Transport.RunReceive, and a drain goroutine per face (started
// by the forwarder's AddFace) services that face's outbound queues.
// Goroutines are
// the idiomatic Go analogue of the same cooperative-I/O intent poll(2)
// serves in C, and every teacher transport (fw/face/*) is already
// written as one goroutine per connection, so this keeps the teacher's
// actual idiom rather than hand-rolling a manual readiness loop spec.md
// itself doesn't actually require by name.
package dispatch

import (
	"github.com/ccn-go/ccnd/internal/core"
	"github.com/ccn-go/ccnd/internal/face"
	"github.com/ccn-go/ccnd/internal/wire"
)

// Kind classifies an inbound frame by its outer ccnb tag.
type Kind int

const (
	KindUnknown Kind = iota
	KindInterest
	KindContentObject
	KindPDU // CCNProtocolDataUnit, recursion depth 1 (spec.md §4.9)
	KindInject
)

// Classify inspects frame's outer tag without fully decoding it,
// spec.md §4.9's "classify by outer DTag before committing to a parse".
func Classify(frame []byte) Kind {
	tag, err := wire.OuterTag(frame)
	if err != nil {
		return KindUnknown
	}
	switch tag {
	case wire.DTagInterest:
		return KindInterest
	case wire.DTagContentObject, wire.DTagContentObjectV:
		return KindContentObject
	case wire.DTagCCNProtocolDataUnit:
		return KindPDU
	case wire.DTagInject:
		return KindInject
	default:
		return KindUnknown
	}
}

// Handlers bundles the callbacks the dispatcher invokes once a frame is
// classified; each is free to re-dispatch recursively (e.g. a PDU's
// unwrapped elements are classified and routed again at depth 1 only,
// per spec.md §4.9 — PDUs don't nest).
type Handlers struct {
	OnInterest      func(f *face.Face, it *wire.Interest)
	OnContentObject func(f *face.Face, co *wire.ContentObject)
	OnInject        func(f *face.Face, dest string, payload []byte)
}

// Dispatcher routes frames received on any face to the right handler,
// and drives that face's receive goroutine.
type Dispatcher struct {
	handlers Handlers
}

// New constructs a Dispatcher.
func New(h Handlers) *Dispatcher {
	return &Dispatcher{handlers: h}
}

// ServeFace runs f's receive loop until its transport closes,
// classifying and routing every frame. This is the one-goroutine-per-face
// receive loop; call it via `go d.ServeFace(f)`.
func (d *Dispatcher) ServeFace(f *face.Face) {
	f.Transport.RunReceive(func(frame []byte) {
		d.handleFrame(f, frame, 0)
	})
}

// maxPDUDepth bounds CCNProtocolDataUnit recursion to 1 level, as
// spec.md §4.9 specifies — a PDU's own elements are never themselves
// treated as PDUs.
const maxPDUDepth = 1

func (d *Dispatcher) handleFrame(f *face.Face, frame []byte, depth int) {
	switch Classify(frame) {
	case KindInterest:
		it, err := wire.ParseInterest(frame)
		if err != nil {
			core.Log.Debug(f, "dropping malformed interest", "err", err)
			return
		}
		if d.handlers.OnInterest != nil {
			d.handlers.OnInterest(f, it)
		}

	case KindContentObject:
		co, err := wire.ParseContentObject(frame)
		if err != nil {
			core.Log.Debug(f, "dropping malformed content object", "err", err)
			return
		}
		if d.handlers.OnContentObject != nil {
			d.handlers.OnContentObject(f, co)
		}

	case KindPDU:
		if depth >= maxPDUDepth {
			core.Log.Debug(f, "dropping nested PDU beyond depth 1")
			return
		}
		elems, err := wire.UnwrapPDU(frame)
		if err != nil {
			core.Log.Debug(f, "dropping malformed PDU", "err", err)
			return
		}
		for _, e := range elems {
			d.handleFrame(f, e, depth+1)
		}

	case KindInject:
		dest, payload, err := wire.UnwrapInject(frame)
		if err != nil {
			core.Log.Debug(f, "dropping malformed inject frame", "err", err)
			return
		}
		if d.handlers.OnInject != nil {
			d.handlers.OnInject(f, dest, payload)
		}

	default:
		core.Log.Debug(f, "dropping frame with unrecognized outer tag")
	}
}

// SendTo writes frame to f, translating transport-level send failures
// into the face-down handling spec.md §4.9 describes: a stream face
// that hits EPIPE (here, any write error) is marked down by the
// transport itself (see face.StreamTransport.SendFrame), so SendTo just
// surfaces the error for the caller to log/count; it does not retry.
func SendTo(f *face.Face, frame []byte) error {
	return f.Transport.SendFrame(frame)
}
