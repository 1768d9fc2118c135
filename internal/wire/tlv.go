// Package wire implements the ccnb on-wire codec: a self-delimiting,
// tag-length-value encoding for Interest, ContentObject, and the few
// other outer elements the forwarder needs to classify (spec.md §6).
//
// The codec is treated as an external collaborator by spec.md §1 ("the
// ccnb wire-format codec... referenced only by interface"); this package
// is that collaborator's stand-in implementation, not a bit-for-bit
// reproduction of the original C library's binary-XML framing.
package wire

import (
	"encoding/binary"
	"fmt"
)

// DTag identifies the type of a ccnb element.
type DTag uint64

const (
	DTagInterest              DTag = 1
	DTagContentObject         DTag = 2
	DTagContentObjectV        DTag = 3 // legacy tag, kept for back-compat (spec.md §6)
	DTagCCNProtocolDataUnit   DTag = 4
	DTagInject                DTag = 5
	DTagName                  DTag = 10
	DTagComponent             DTag = 11
	DTagMinSuffixComponents   DTag = 12
	DTagMaxSuffixComponents   DTag = 13
	DTagPublisherPublicKeyDig DTag = 14
	DTagExclude               DTag = 15
	DTagChildSelector         DTag = 16
	DTagAnswerOriginKind      DTag = 17
	DTagScope                 DTag = 18
	DTagInterestLifetime      DTag = 19
	DTagNonce                 DTag = 20
	DTagSignedInfo            DTag = 21
	DTagFreshnessSeconds      DTag = 22
	DTagContent               DTag = 23
	DTagSignature             DTag = 24
	DTagDigestComponent       DTag = 25 // synthesized explicit digest component
)

// element is one decoded (tag, payload) pair; payload is either a nested
// list of elements (composite) or a raw leaf value, never both.
type element struct {
	tag      DTag
	leaf     []byte
	children []element
	// start and end bound the element's value (the bytes after its tag
	// and length header) within the buffer it was decoded from; for a
	// nested element that buffer is its parent's value, not the
	// top-level frame.
	start, end int
}

// putUvarint appends v as a binary.PutUvarint-encoded value to buf.
func putUvarint(buf []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(buf, tmp[:n]...)
}

// encodeLeaf appends a complete (tag, length, value) element to buf.
func encodeLeaf(buf []byte, tag DTag, val []byte) []byte {
	buf = putUvarint(buf, uint64(tag))
	buf = putUvarint(buf, uint64(len(val)))
	return append(buf, val...)
}

// encodeComposite wraps the already-encoded bytes of child in a (tag,
// length) header — used when assembling Name/Interest/ContentObject from
// their already-encoded parts.
func encodeComposite(buf []byte, tag DTag, body []byte) []byte {
	buf = putUvarint(buf, uint64(tag))
	buf = putUvarint(buf, uint64(len(body)))
	return append(buf, body...)
}

// decodeOne decodes a single element starting at offset pos, returning the
// element and the offset just past it.
func decodeOne(buf []byte, pos int) (element, int, error) {
	tag, n := binary.Uvarint(buf[pos:])
	if n <= 0 {
		return element{}, pos, fmt.Errorf("%w: bad tag varint at %d", errTruncated, pos)
	}
	pos += n

	length, n := binary.Uvarint(buf[pos:])
	if n <= 0 {
		return element{}, pos, fmt.Errorf("%w: bad length varint at %d", errTruncated, pos)
	}
	pos += n

	start := pos
	end := pos + int(length)
	if end > len(buf) || end < start {
		return element{}, pos, fmt.Errorf("%w: length %d exceeds buffer", errTruncated, length)
	}

	e := element{tag: DTag(tag), start: start, end: end}
	switch DTag(tag) {
	case DTagName, DTagInterest, DTagContentObject, DTagContentObjectV,
		DTagCCNProtocolDataUnit, DTagSignedInfo, DTagExclude:
		children, err := decodeAll(buf[start:end])
		if err != nil {
			return element{}, pos, err
		}
		e.children = children
	default:
		e.leaf = buf[start:end]
	}
	return e, end, nil
}

// decodeAll decodes every top-level element in buf.
func decodeAll(buf []byte) ([]element, error) {
	var out []element
	pos := 0
	for pos < len(buf) {
		e, next, err := decodeOne(buf, pos)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
		pos = next
	}
	return out, nil
}

// child returns the first direct child of e with the given tag.
func (e element) child(tag DTag) (element, bool) {
	for _, c := range e.children {
		if c.tag == tag {
			return c, true
		}
	}
	return element{}, false
}

// childrenOf returns all direct children of e with the given tag, in order.
func (e element) childrenOf(tag DTag) []element {
	var out []element
	for _, c := range e.children {
		if c.tag == tag {
			out = append(out, c)
		}
	}
	return out
}
