package wire

import "encoding/binary"

func binaryUvarint(b []byte) (uint64, int) {
	return binary.Uvarint(b)
}

// WrapPDU wraps one or more already-encoded elements in a
// CCNProtocolDataUnit, used by link-wrapped transports that need
// explicit framing over an unreliable or boundary-less channel (spec.md
// §6, §4.9).
func WrapPDU(elements ...[]byte) []byte {
	var body []byte
	for _, e := range elements {
		body = append(body, e...)
	}
	var buf []byte
	return encodeComposite(buf, DTagCCNProtocolDataUnit, body)
}

// UnwrapPDU returns the nested elements of a CCNProtocolDataUnit frame.
// Per spec.md §4.9, nesting is only unwrapped one level deep.
func UnwrapPDU(frame []byte) ([][]byte, error) {
	elems, err := decodeAll(frame)
	if err != nil {
		return nil, err
	}
	if len(elems) != 1 || elems[0].tag != DTagCCNProtocolDataUnit {
		return nil, errWrongType
	}
	body := frame[elems[0].start:elems[0].end]
	out := make([][]byte, 0, len(elems[0].children))
	for len(body) > 0 {
		f, rest, err := PeekFrame(body)
		if err != nil {
			return nil, errMalformed
		}
		out = append(out, f)
		body = rest
	}
	return out, nil
}

// WrapInject wraps a raw payload and a destination address string in an
// Inject element, used by the (out-of-scope) internal self-registration
// client to ask the local-IPC face to sendto on its behalf (spec.md §4.9).
// The Inject payload is not itself ccnb (it's an arbitrary datagram), so
// it is carried as a leaf: [uvarint destlen][dest][payload...].
func WrapInject(dest string, payload []byte) []byte {
	var leaf []byte
	leaf = putUvarint(leaf, uint64(len(dest)))
	leaf = append(leaf, dest...)
	leaf = append(leaf, payload...)
	var buf []byte
	return encodeLeaf(buf, DTagInject, leaf)
}

// UnwrapInject extracts the destination and payload from an Inject frame.
func UnwrapInject(frame []byte) (dest string, payload []byte, err error) {
	elems, err := decodeAll(frame)
	if err != nil {
		return "", nil, err
	}
	if len(elems) != 1 || elems[0].tag != DTagInject {
		return "", nil, errWrongType
	}
	leaf := elems[0].leaf
	destLen, n := binaryUvarint(leaf)
	if n <= 0 || n+int(destLen) > len(leaf) {
		return "", nil, errMalformed
	}
	dest = string(leaf[n : n+int(destLen)])
	payload = leaf[n+int(destLen):]
	return dest, payload, nil
}
