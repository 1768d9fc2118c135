package wire

import "time"

// AnswerOriginKind bits (spec.md §6): which stored/incoming content an
// Interest is willing to accept an answer from.
type AnswerOriginKind uint8

const (
	AOKContentStore AnswerOriginKind = 1 << iota // CS: may answer from the content store
	AOKStale                                     // STALE: stale CS entries are acceptable
	AOKNew                                       // NEW: newly-arriving content may satisfy
	AOKExpire                                    // EXPIRE: mark the matching entry stale after delivery
)

// DefaultAnswerOriginKind is used when an Interest omits the field:
// answer from the content store, including newly arriving content, but
// never from stale entries.
const DefaultAnswerOriginKind = AOKContentStore | AOKNew

// ChildSelector selects which child of a matching name prefix to prefer.
type ChildSelector uint8

const (
	ChildSelectorLeftmost  ChildSelector = 0
	ChildSelectorRightmost ChildSelector = 1
)

// DefaultInterestLifetime applies when an Interest carries no explicit
// InterestLifetime field (spec.md §6).
const DefaultInterestLifetime = 4 * time.Second

// Interest is the parsed, fixed-offset view of an on-wire Interest that
// spec.md §1 assumes a codec produces.
type Interest struct {
	Name                     Name
	MinSuffixComponents      int // -1 if absent
	MaxSuffixComponents      int // -1 if absent
	PublisherPublicKeyDigest []byte
	Exclude                  *Exclude
	ChildSelector            ChildSelector
	AnswerOriginKind         AnswerOriginKind
	Scope                    int // 0, 1, or 2 (2 means "2 or more": unbounded)
	InterestLifetime         time.Duration
	Nonce                    []byte

	// Raw holds the full encoded Interest, re-encoded if Nonce was
	// synthesized locally (spec.md §4.5: "the forwarder inserts a
	// 6-byte random one before propagation").
	Raw []byte
}

// Exclude models the small exclusion filter grammar the matcher consults;
// a nil *Exclude means no exclusion. Bloom-filter/"any" ranges from the
// original format are out of scope here — only exact-component exclusion
// is modeled, which is sufficient for the matcher's predicate evaluation.
type Exclude struct {
	Components []Component
}

// Excludes reports whether c appears in the exclusion list.
func (x *Exclude) Excludes(c Component) bool {
	if x == nil {
		return false
	}
	for _, e := range x.Components {
		if e.Equal(c) {
			return true
		}
	}
	return false
}

// ParseInterest decodes a ccnb Interest element from raw bytes.
func ParseInterest(raw []byte) (*Interest, error) {
	elems, err := decodeAll(raw)
	if err != nil {
		return nil, err
	}
	if len(elems) != 1 || elems[0].tag != DTagInterest {
		return nil, errWrongType
	}
	e := elems[0]

	it := &Interest{
		MinSuffixComponents: -1,
		MaxSuffixComponents: -1,
		AnswerOriginKind:    DefaultAnswerOriginKind,
		InterestLifetime:    DefaultInterestLifetime,
		Raw:                 raw,
	}

	nameEl, ok := e.child(DTagName)
	if !ok {
		return nil, errMalformed
	}
	it.Name = nameFromElement(nameEl)

	if c, ok := e.child(DTagMinSuffixComponents); ok {
		it.MinSuffixComponents = int(decodeUint(c.leaf))
	}
	if c, ok := e.child(DTagMaxSuffixComponents); ok {
		it.MaxSuffixComponents = int(decodeUint(c.leaf))
	}
	if c, ok := e.child(DTagPublisherPublicKeyDig); ok {
		it.PublisherPublicKeyDigest = c.leaf
	}
	if c, ok := e.child(DTagExclude); ok {
		ex := &Exclude{}
		for _, comp := range c.childrenOf(DTagComponent) {
			ex.Components = append(ex.Components, Component(comp.leaf))
		}
		it.Exclude = ex
	}
	if c, ok := e.child(DTagChildSelector); ok {
		it.ChildSelector = ChildSelector(decodeUint(c.leaf))
	}
	if c, ok := e.child(DTagAnswerOriginKind); ok {
		it.AnswerOriginKind = AnswerOriginKind(decodeUint(c.leaf))
	}
	if c, ok := e.child(DTagScope); ok {
		scope := int(decodeUint(c.leaf))
		if scope > 2 {
			scope = 2
		}
		it.Scope = scope
	} else {
		it.Scope = 2
	}
	if c, ok := e.child(DTagInterestLifetime); ok {
		// 12-bit fixed-point seconds, 1/4096s units (spec.md §6).
		ticks := decodeUint(c.leaf)
		it.InterestLifetime = time.Duration(ticks) * time.Second / 4096
	}
	if c, ok := e.child(DTagNonce); ok {
		it.Nonce = c.leaf
	}

	return it, nil
}

// Encode renders the Interest back to ccnb bytes, used after the
// forwarder synthesizes a Nonce that the wire copy must carry (spec.md
// §4.5).
func (it *Interest) Encode() []byte {
	var body []byte
	body = append(body, encodeName(it.Name, 0)...)
	if it.MinSuffixComponents >= 0 {
		body = encodeLeaf(body, DTagMinSuffixComponents, encodeUint(uint64(it.MinSuffixComponents)))
	}
	if it.MaxSuffixComponents >= 0 {
		body = encodeLeaf(body, DTagMaxSuffixComponents, encodeUint(uint64(it.MaxSuffixComponents)))
	}
	if it.PublisherPublicKeyDigest != nil {
		body = encodeLeaf(body, DTagPublisherPublicKeyDig, it.PublisherPublicKeyDigest)
	}
	if it.Exclude != nil {
		var exBody []byte
		for _, c := range it.Exclude.Components {
			exBody = encodeLeaf(exBody, DTagComponent, c)
		}
		body = encodeComposite(body, DTagExclude, exBody)
	}
	if it.ChildSelector != ChildSelectorLeftmost {
		body = encodeLeaf(body, DTagChildSelector, encodeUint(uint64(it.ChildSelector)))
	}
	if it.AnswerOriginKind != DefaultAnswerOriginKind {
		body = encodeLeaf(body, DTagAnswerOriginKind, encodeUint(uint64(it.AnswerOriginKind)))
	}
	body = encodeLeaf(body, DTagScope, encodeUint(uint64(it.Scope)))
	ticks := uint64(it.InterestLifetime * 4096 / time.Second)
	body = encodeLeaf(body, DTagInterestLifetime, encodeUint(ticks))
	if it.Nonce != nil {
		body = encodeLeaf(body, DTagNonce, it.Nonce)
	}
	var buf []byte
	raw := encodeComposite(buf, DTagInterest, body)
	it.Raw = raw
	return raw
}

func decodeUint(b []byte) uint64 {
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v
}

func encodeUint(v uint64) []byte {
	if v == 0 {
		return []byte{0}
	}
	var tmp [8]byte
	n := 0
	for i := 7; i >= 0; i-- {
		b := byte(v >> (8 * i))
		if b != 0 || n > 0 {
			tmp[n] = b
			n++
		}
	}
	return tmp[:n]
}
