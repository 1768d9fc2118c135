package face

import (
	"errors"
	"net"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/ccn-go/ccnd/internal/core"
	"github.com/ccn-go/ccnd/internal/defn"
)

// OnAccept is called once for every newly established face, so the
// caller can enroll it in a Table and start its dispatch loop.
type OnAccept func(tr Transport)

// StreamListener accepts stream connections (unix-domain or TCP) and
// wraps each one as a StreamTransport, adapted from the teacher's
// UnixStreamListener/TCPListener pair — both only differ in the
// net.Listener's network name, so they share one implementation here.
type StreamListener struct {
	ln      net.Listener
	scope   defn.Scope
	stopped chan struct{}
}

// ListenStream starts a listener on network ("unix" or "tcp4"/"tcp6") at
// addr.
func ListenStream(network, addr string, scope defn.Scope) (*StreamListener, error) {
	ln, err := net.Listen(network, addr)
	if err != nil {
		return nil, err
	}
	return &StreamListener{ln: ln, scope: scope, stopped: make(chan struct{})}, nil
}

func (l *StreamListener) String() string {
	return "stream-listener (" + l.ln.Addr().String() + ")"
}

// Run accepts connections until Close is called, handing each to onAccept.
func (l *StreamListener) Run(onAccept OnAccept) {
	defer close(l.stopped)
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			core.Log.Warn(l, "unable to accept connection", "err", err)
			continue
		}

		remoteURI := defn.DecodeURIString(l.ln.Addr().Network() + "://" + conn.RemoteAddr().String())
		localURI := defn.DecodeURIString(l.ln.Addr().Network() + "://" + conn.LocalAddr().String())
		onAccept(NewStreamTransport(remoteURI, localURI, conn, l.scope))
	}
}

// Close stops accepting new connections.
func (l *StreamListener) Close() {
	l.ln.Close()
	<-l.stopped
}

// UDPListener binds a UDP socket and demultiplexes datagrams to
// per-peer DatagramTransports, creating a new face the first time a
// peer address is seen and routing subsequent datagrams from the same
// peer to the existing face — adapted from the teacher's
// UnicastUDPTransport, which instead dials one socket per known peer;
// here a single bound socket serves every newly observed peer since
// ccnb has no listen-then-dial asymmetry to preserve.
type UDPListener struct {
	conn    *net.UDPConn
	scope   defn.Scope
	stopped chan struct{}

	peers map[string]*udpPeer
}

type udpPeer struct {
	tr      *pktConnTransport
	onFrame func([]byte)
}

// ListenUDP binds network ("udp4" or "udp6") at addr.
func ListenUDP(network, addr string, scope defn.Scope) (*UDPListener, error) {
	udpAddr, err := net.ResolveUDPAddr(network, addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP(network, udpAddr)
	if err != nil {
		return nil, err
	}
	return &UDPListener{
		conn:    conn,
		scope:   scope,
		stopped: make(chan struct{}),
		peers:   make(map[string]*udpPeer),
	}, nil
}

func (l *UDPListener) String() string {
	return "udp-listener (" + l.conn.LocalAddr().String() + ")"
}

// Run reads datagrams until Close is called. The first datagram from a
// new peer address triggers onAccept with a fresh DatagramTransport-like
// face; subsequent datagrams from that peer are delivered to the
// onFrame callback that face's RunReceive registered.
func (l *UDPListener) Run(onAccept OnAccept) {
	defer close(l.stopped)

	localURI := defn.DecodeURIString("udp://" + l.conn.LocalAddr().String())
	buf := make([]byte, defn.MaxNDNPacketSize)
	for {
		n, peerAddr, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			core.Log.Warn(l, "unable to read from UDP socket", "err", err)
			continue
		}
		frame := make([]byte, n)
		copy(frame, buf[:n])

		key := peerAddr.String()
		p, ok := l.peers[key]
		if !ok {
			remoteURI := defn.DecodeURIString("udp://" + key)
			tr := newPktConnTransport(l.conn, peerAddr, remoteURI, localURI, l.scope)
			p = &udpPeer{tr: tr}
			l.peers[key] = p
			onAccept(tr)
			// The face's dispatch loop calls RunReceive, which blocks
			// waiting for frames handed to it via deliver(); the first
			// frame is delivered only once that handoff channel exists.
		}
		p.tr.deliver(frame)
	}
}

// Close stops the read loop and every peer transport it demultiplexed.
func (l *UDPListener) Close() {
	l.conn.Close()
	<-l.stopped
	for _, p := range l.peers {
		p.tr.Close()
	}
}

// pktConnTransport represents one UDP peer multiplexed over a shared
// net.PacketConn, since net.UDPConn itself is connectionless and can't
// be "split" per peer the way a dialed UnicastUDPTransport can.
type pktConnTransport struct {
	transportBase
	conn    *net.UDPConn
	peer    *net.UDPAddr
	running bool
	frames  chan []byte
	closed  chan struct{}
}

func newPktConnTransport(conn *net.UDPConn, peer *net.UDPAddr, remoteURI, localURI *defn.URI, scope defn.Scope) *pktConnTransport {
	return &pktConnTransport{
		transportBase: transportBase{
			remoteURI: remoteURI,
			localURI:  localURI,
			linkType:  defn.PointToPoint,
			scope:     scope,
			mtu:       defn.MaxNDNPacketSize,
		},
		conn:    conn,
		peer:    peer,
		running: true,
		frames:  make(chan []byte, 64),
		closed:  make(chan struct{}),
	}
}

func (t *pktConnTransport) String() string {
	return "udp-peer-transport (remote=" + t.remoteURI.String() + ")"
}

func (t *pktConnTransport) SendFrame(frame []byte) error {
	if !t.running {
		return defn.ErrFaceDown
	}
	if _, err := t.conn.WriteToUDP(frame, t.peer); err != nil {
		core.Log.Warn(t, "unable to send to UDP peer - face down", "err", err)
		t.Close()
		return err
	}
	t.nOutBytes += uint64(len(frame))
	return nil
}

func (t *pktConnTransport) deliver(frame []byte) {
	t.nInBytes += uint64(len(frame))
	select {
	case t.frames <- frame:
	default:
		core.Log.Warn(t, "dropping frame - peer receive channel full")
	}
}

func (t *pktConnTransport) RunReceive(onFrame func([]byte)) {
	for {
		select {
		case f := <-t.frames:
			onFrame(f)
		case <-t.closed:
			return
		}
	}
}

func (t *pktConnTransport) IsRunning() bool { return t.running }
func (t *pktConnTransport) Close() {
	if t.running {
		t.running = false
		close(t.closed)
	}
}

// WebSocketUpgrader adapts an http.Handler-compatible upgrade path,
// adapted from the teacher's web-socket-listener.go, exercising
// gorilla/websocket's server-side Upgrader.
type WebSocketUpgrader struct {
	upgrader websocket.Upgrader
	localURI *defn.URI
}

// NewWebSocketUpgrader constructs an upgrader bound to localURI.
func NewWebSocketUpgrader(localURI *defn.URI) *WebSocketUpgrader {
	return &WebSocketUpgrader{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		localURI: localURI,
	}
}

// Handler returns an http.HandlerFunc that upgrades each request to a
// WebSocket face and hands it to onAccept.
func (u *WebSocketUpgrader) Handler(onAccept OnAccept) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := u.upgrader.Upgrade(w, r, nil)
		if err != nil {
			core.Log.Warn(u, "websocket upgrade failed", "err", err)
			return
		}
		onAccept(NewWebSocketTransport(u.localURI, conn))
	}
}

func (u *WebSocketUpgrader) String() string {
	return "web-socket-upgrader (" + u.localURI.String() + ")"
}
