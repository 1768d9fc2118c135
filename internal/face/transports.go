package face

import (
	"bufio"
	"fmt"
	"io"
	"net"

	"github.com/gorilla/websocket"

	"github.com/ccn-go/ccnd/internal/core"
	"github.com/ccn-go/ccnd/internal/defn"
	"github.com/ccn-go/ccnd/internal/wire"
)

// transportBase factors the URI/scope/MTU bookkeeping common to every
// transport kind, adapted from the teacher's fw/face.transportBase.
type transportBase struct {
	remoteURI *defn.URI
	localURI  *defn.URI
	scope     defn.Scope
	linkType  defn.LinkType
	mtu       int

	nInBytes, nOutBytes uint64
}

func (t *transportBase) RemoteURI() *defn.URI { return t.remoteURI }
func (t *transportBase) LocalURI() *defn.URI  { return t.localURI }
func (t *transportBase) Scope() defn.Scope    { return t.scope }
func (t *transportBase) LinkType() defn.LinkType { return t.linkType }
func (t *transportBase) MTU() int             { return t.mtu }
func (t *transportBase) NInBytes() uint64     { return t.nInBytes }
func (t *transportBase) NOutBytes() uint64    { return t.nOutBytes }

// NullTransport drops everything sent to it and blocks forever on
// receive; used as a stand-in transport in tests, adapted from the
// teacher's NullTransport.
type NullTransport struct {
	transportBase
	running bool
	close   chan struct{}
}

// NewNullTransport constructs a NullTransport.
func NewNullTransport() *NullTransport {
	return &NullTransport{
		transportBase: transportBase{
			remoteURI: defn.MakeNullFaceURI(),
			localURI:  defn.MakeNullFaceURI(),
			linkType:  defn.PointToPoint,
			scope:     defn.NonLocal,
			mtu:       defn.MaxNDNPacketSize,
		},
		close: make(chan struct{}),
	}
}

func (t *NullTransport) String() string {
	return fmt.Sprintf("null-transport (remote=%s)", t.remoteURI)
}
func (t *NullTransport) SendFrame(frame []byte) error { return nil }
func (t *NullTransport) RunReceive(onFrame func([]byte)) {
	t.running = true
	<-t.close
}
func (t *NullTransport) IsRunning() bool { return t.running }
func (t *NullTransport) Close() {
	if t.running {
		t.running = false
		close(t.close)
	}
}

// StreamTransport wraps any net.Conn that behaves as a byte stream
// (unix-domain socket, TCP connection) and reassembles ccnb frames with
// wire.Skeleton, adapted from the teacher's UnixStreamTransport /
// TCPTransport pair since both only differ in the net.Conn concrete
// type and URI scheme.
type StreamTransport struct {
	transportBase
	conn    net.Conn
	running bool
}

// NewStreamTransport wraps conn as a local IPC or TCP face.
func NewStreamTransport(remoteURI, localURI *defn.URI, conn net.Conn, scope defn.Scope) *StreamTransport {
	return &StreamTransport{
		transportBase: transportBase{
			remoteURI: remoteURI,
			localURI:  localURI,
			linkType:  defn.PointToPoint,
			scope:     scope,
			mtu:       defn.MaxNDNPacketSize,
		},
		conn:    conn,
		running: true,
	}
}

func (t *StreamTransport) String() string {
	return fmt.Sprintf("stream-transport (remote=%s local=%s)", t.remoteURI, t.localURI)
}

func (t *StreamTransport) SendFrame(frame []byte) error {
	if !t.running {
		return defn.ErrFaceDown
	}
	if len(frame) > t.mtu {
		return defn.ErrInvalidValue{Item: "frame size", Value: len(frame)}
	}
	if _, err := t.conn.Write(frame); err != nil {
		core.Log.Warn(t, "unable to send on stream socket - face down", "err", err)
		t.Close()
		return err
	}
	t.nOutBytes += uint64(len(frame))
	return nil
}

// RunReceive reads a continuous byte stream through a bufio.Reader and
// feeds it to a wire.Skeleton, which buffers partial input and yields
// each complete ccnb frame.
func (t *StreamTransport) RunReceive(onFrame func([]byte)) {
	defer t.Close()

	r := bufio.NewReaderSize(t.conn, 64*1024)
	var sk wire.Skeleton
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			t.nInBytes += uint64(n)
			frames, ferr := sk.Feed(buf[:n])
			if ferr != nil {
				core.Log.Warn(t, "malformed ccnb stream - face down", "err", ferr)
				return
			}
			for _, f := range frames {
				onFrame(f)
			}
		}
		if err != nil {
			if err != io.EOF && t.running {
				core.Log.Warn(t, "unable to read from stream socket - face down", "err", err)
			}
			return
		}
	}
}

func (t *StreamTransport) IsRunning() bool { return t.running }
func (t *StreamTransport) Close() {
	if t.running {
		t.running = false
		t.conn.Close()
	}
}

// DatagramTransport wraps a connected datagram socket (UDP unicast or
// multicast), where each Read returns exactly one ccnb frame already
// delimited by the OS, adapted from the teacher's
// UnicastUDPTransport/MulticastUDPTransport pair.
type DatagramTransport struct {
	transportBase
	conn    net.Conn
	running bool
}

// NewDatagramTransport wraps conn (already Dial'd or accepted) as a
// datagram face.
func NewDatagramTransport(remoteURI, localURI *defn.URI, conn net.Conn, scope defn.Scope) *DatagramTransport {
	return &DatagramTransport{
		transportBase: transportBase{
			remoteURI: remoteURI,
			localURI:  localURI,
			linkType:  defn.PointToPoint,
			scope:     scope,
			mtu:       defn.MaxNDNPacketSize,
		},
		conn:    conn,
		running: true,
	}
}

func (t *DatagramTransport) String() string {
	return fmt.Sprintf("datagram-transport (remote=%s local=%s)", t.remoteURI, t.localURI)
}

func (t *DatagramTransport) SendFrame(frame []byte) error {
	if !t.running {
		return defn.ErrFaceDown
	}
	if len(frame) > t.mtu {
		return defn.ErrInvalidValue{Item: "frame size", Value: len(frame)}
	}
	if _, err := t.conn.Write(frame); err != nil {
		core.Log.Warn(t, "unable to send on datagram socket - face down", "err", err)
		t.Close()
		return err
	}
	t.nOutBytes += uint64(len(frame))
	return nil
}

func (t *DatagramTransport) RunReceive(onFrame func([]byte)) {
	defer t.Close()

	buf := make([]byte, defn.MaxNDNPacketSize)
	for {
		n, err := t.conn.Read(buf)
		if n > 0 {
			t.nInBytes += uint64(n)
			frame := make([]byte, n)
			copy(frame, buf[:n])
			onFrame(frame)
		}
		if err != nil {
			if err != io.EOF && t.running {
				core.Log.Warn(t, "unable to read from datagram socket - face down", "err", err)
			}
			return
		}
	}
}

func (t *DatagramTransport) IsRunning() bool { return t.running }
func (t *DatagramTransport) Close() {
	if t.running {
		t.running = false
		t.conn.Close()
	}
}

// WebSocketTransport is an additional link-wrapped face kind exercising
// gorilla/websocket, adapted from the teacher's WebSocketTransport. Each
// ReadMessage/WriteMessage call already carries one complete ccnb frame,
// matching the teacher's one-message-per-NDN-packet convention.
type WebSocketTransport struct {
	transportBase
	conn    *websocket.Conn
	running bool
}

// NewWebSocketTransport wraps an accepted websocket connection.
func NewWebSocketTransport(localURI *defn.URI, conn *websocket.Conn) *WebSocketTransport {
	remoteURI := defn.DecodeURIString("ws://" + conn.RemoteAddr().String())
	scope := defn.NonLocal
	if host, _, err := net.SplitHostPort(conn.RemoteAddr().String()); err == nil {
		if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
			scope = defn.Local
		}
	}

	return &WebSocketTransport{
		transportBase: transportBase{
			remoteURI: remoteURI,
			localURI:  localURI,
			linkType:  defn.PointToPoint,
			scope:     scope,
			mtu:       defn.MaxNDNPacketSize,
		},
		conn:    conn,
		running: true,
	}
}

func (t *WebSocketTransport) String() string {
	return fmt.Sprintf("web-socket-transport (remote=%s local=%s)", t.remoteURI, t.localURI)
}

func (t *WebSocketTransport) SendFrame(frame []byte) error {
	if !t.running {
		return defn.ErrFaceDown
	}
	if len(frame) > t.mtu {
		return defn.ErrInvalidValue{Item: "frame size", Value: len(frame)}
	}
	if err := t.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		core.Log.Warn(t, "unable to send on websocket - face down", "err", err)
		t.Close()
		return err
	}
	t.nOutBytes += uint64(len(frame))
	return nil
}

func (t *WebSocketTransport) RunReceive(onFrame func([]byte)) {
	defer t.Close()

	for {
		mt, data, err := t.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				core.Log.Warn(t, "websocket closed unexpectedly - face down", "err", err)
			}
			return
		}
		if mt != websocket.BinaryMessage {
			continue
		}
		t.nInBytes += uint64(len(data))
		onFrame(data)
	}
}

func (t *WebSocketTransport) IsRunning() bool { return t.running }
func (t *WebSocketTransport) Close() {
	if t.running {
		t.running = false
		t.conn.Close()
	}
}
