package wire

import "time"

// ContentObject is the parsed, fixed-offset view of an on-wire
// ContentObject (spec.md §1/§6).
type ContentObject struct {
	Name             Name // does not yet include the synthesized digest component
	FreshnessSeconds int  // -1 if absent
	Content          []byte

	// Raw holds the full encoded ContentObject as received, suffix
	// (signature/signed-info/content) included.
	Raw []byte
}

// ParseContentObject decodes a ccnb ContentObject element (either the
// canonical or legacy DTag, per spec.md §6).
func ParseContentObject(raw []byte) (*ContentObject, error) {
	elems, err := decodeAll(raw)
	if err != nil {
		return nil, err
	}
	if len(elems) != 1 || (elems[0].tag != DTagContentObject && elems[0].tag != DTagContentObjectV) {
		return nil, errWrongType
	}
	e := elems[0]

	co := &ContentObject{FreshnessSeconds: -1, Raw: raw}

	nameEl, ok := e.child(DTagName)
	if !ok {
		return nil, errMalformed
	}
	co.Name = nameFromElement(nameEl)

	if si, ok := e.child(DTagSignedInfo); ok {
		if fs, ok := si.child(DTagFreshnessSeconds); ok {
			co.FreshnessSeconds = int(decodeUint(fs.leaf))
		}
	}
	if c, ok := e.child(DTagContent); ok {
		co.Content = c.leaf
	}

	return co, nil
}

// Freshness returns the freshness window, or 0 if the object never
// expires (no FreshnessSeconds field).
func (co *ContentObject) Freshness() time.Duration {
	if co.FreshnessSeconds < 0 {
		return 0
	}
	return time.Duration(co.FreshnessSeconds) * time.Second
}

// EncodeContentObject assembles a ccnb ContentObject from its parts; used
// by tests and by any in-process producer of content (the signing
// collaborator itself is out of scope, so no signature is attached here).
func EncodeContentObject(name Name, freshnessSeconds int, content []byte) *ContentObject {
	var siBody []byte
	if freshnessSeconds >= 0 {
		siBody = encodeLeaf(siBody, DTagFreshnessSeconds, encodeUint(uint64(freshnessSeconds)))
	}

	var body []byte
	body = append(body, encodeName(name, 0)...)
	if siBody != nil {
		body = encodeComposite(body, DTagSignedInfo, siBody)
	}
	body = encodeLeaf(body, DTagContent, content)

	var buf []byte
	raw := encodeComposite(buf, DTagContentObject, body)

	return &ContentObject{
		Name:             name,
		FreshnessSeconds: freshnessSeconds,
		Content:          content,
		Raw:              raw,
	}
}

// NameWithDigest returns the Interest-matchable name: the object's Name
// with an explicit trailing digest component appended, computed over Raw
// by the supplied Verifier (spec.md §4.4 step 1).
func (co *ContentObject) NameWithDigest(v Verifier) Name {
	d := v.Digest(co.Raw)
	return co.Name.Append(Component(d[:]))
}
