package defn

// Scope classifies how far a face can carry traffic, per spec.md §6's
// Interest Scope field and §4.8's outbound face selection.
type Scope int

const (
	Local Scope = iota
	NonLocal
)

// LinkType distinguishes point-to-point transports (stream sockets, unicast
// UDP) from multi-access ones (multicast UDP). Whether a face carries
// CCNProtocolDataUnit-wrapped frames is a separate face flag
// (FaceFlagLinkWrap), not a LinkType.
type LinkType int

const (
	PointToPoint LinkType = iota
	MultiAccess
)

// MaxNDNPacketSize bounds a single ccnb frame; also used as the default MTU
// for newly constructed transports before CCND_MTU-driven tuning.
const MaxNDNPacketSize = 8800

// FaceFlags is the bit-field described in spec.md §3 ("Face" attributes).
type FaceFlags uint32

const (
	FaceFlagStream FaceFlags = 1 << iota
	FaceFlagLinkWrap
	FaceFlagLoopback
	FaceFlagLocal
	FaceFlagDontSend
	FaceFlagPermanent
)

// Has reports whether all bits in mask are set — always bitwise AND, never
// the logical && that the original C source occasionally wrote by mistake
// (see spec.md §9's note on `face->flags && CCN_FACE_LINK`).
func (f FaceFlags) Has(mask FaceFlags) bool {
	return f&mask == mask
}
