package wire

import (
	"encoding/binary"
	"errors"
)

// ErrNeedMore is returned by PeekFrame/Skeleton.Feed when the buffer does
// not yet hold a complete top-level element; the caller should read more
// bytes from the face and retry (spec.md §4.9, §3's "skeleton-decoder
// state for partial-frame reassembly").
var ErrNeedMore = errors.New("ccnb: need more data")

// PeekFrame extracts the first complete top-level (tag, length, value)
// element from buf without fully decoding its contents, returning the
// element's raw bytes and whatever bytes remain after it.
func PeekFrame(buf []byte) (frame, rest []byte, err error) {
	tag, n1 := binary.Uvarint(buf)
	if n1 == 0 {
		return nil, buf, ErrNeedMore
	}
	if n1 < 0 {
		return nil, buf, errMalformed
	}
	_ = tag

	length, n2 := binary.Uvarint(buf[n1:])
	if n2 == 0 {
		return nil, buf, ErrNeedMore
	}
	if n2 < 0 {
		return nil, buf, errMalformed
	}

	total := n1 + n2 + int(length)
	if total > len(buf) {
		return nil, buf, ErrNeedMore
	}
	return buf[:total], buf[total:], nil
}

// OuterTag returns the DTag of an already-extracted frame, for dispatch
// classification (spec.md §4.9).
func OuterTag(frame []byte) (DTag, error) {
	tag, n := binary.Uvarint(frame)
	if n <= 0 {
		return 0, errMalformed
	}
	return DTag(tag), nil
}

// Skeleton incrementally reassembles ccnb frames out of a byte stream
// that may be fed in arbitrary chunks (one per face's inbound buffer).
type Skeleton struct {
	buf []byte
}

// Feed appends data to the skeleton's buffer and extracts every complete
// frame now available, returning them in arrival order. The unconsumed
// remainder (a partial frame, or nothing) is retained for the next call.
func (s *Skeleton) Feed(data []byte) ([][]byte, error) {
	s.buf = append(s.buf, data...)

	var frames [][]byte
	for {
		frame, rest, err := PeekFrame(s.buf)
		if err == ErrNeedMore {
			break
		}
		if err != nil {
			return frames, err
		}
		// Copy out of the growing buffer so later appends can't alias it.
		owned := make([]byte, len(frame))
		copy(owned, frame)
		frames = append(frames, owned)
		s.buf = rest
	}

	// Compact: drop already-consumed bytes so the backing array doesn't
	// grow without bound across many small reads.
	if len(s.buf) > 0 {
		compacted := make([]byte, len(s.buf))
		copy(compacted, s.buf)
		s.buf = compacted
	} else {
		s.buf = nil
	}

	return frames, nil
}

// Pending returns the number of bytes buffered awaiting completion of a
// partial frame.
func (s *Skeleton) Pending() int {
	return len(s.buf)
}
