package defn

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// URI is a small canonical-form wrapper used to name face endpoints
// (unix:///path, tcp4://host:port, udp6://[host]:port, ws://host:port).
// There is no ecosystem URI-parsing library in play here beyond net/url
// itself, so this stays a thin wrapper rather than reaching for a
// third-party dependency that buys nothing over the standard library.
type URI struct {
	u *url.URL
}

// DecodeURIString parses a face URI string; on failure it returns a URI
// that will report itself as non-canonical rather than a nil pointer, so
// callers can uniformly check IsCanonical().
func DecodeURIString(s string) *URI {
	u, err := url.Parse(s)
	if err != nil {
		return &URI{u: &url.URL{}}
	}
	return &URI{u: u}
}

// MakeNullFaceURI returns the URI used by the null transport.
func MakeNullFaceURI() *URI {
	return DecodeURIString("null://")
}

// Scheme returns the URI scheme (e.g. "tcp4", "udp6", "unix", "ws").
func (u *URI) Scheme() string {
	return u.u.Scheme
}

// Path returns the host portion with brackets stripped for IPv6 literals.
func (u *URI) Path() string {
	if h := u.u.Hostname(); h != "" {
		return h
	}
	return u.u.Path
}

// PathHost is an alias of Path kept for readability at call sites that are
// about to call net.ParseIP on the result.
func (u *URI) PathHost() string {
	return u.Path()
}

// PathZone returns the IPv6 zone identifier, if present.
func (u *URI) PathZone() string {
	h := u.u.Hostname()
	if i := strings.LastIndexByte(h, '%'); i >= 0 {
		return h[i+1:]
	}
	return ""
}

// Port returns the numeric port, or 0 if absent/invalid.
func (u *URI) Port() uint16 {
	p, err := strconv.ParseUint(u.u.Port(), 10, 16)
	if err != nil {
		return 0
	}
	return uint16(p)
}

// Canonize is a no-op: url.Parse already lowercases the scheme, and no
// defaults are filled in.
func (u *URI) Canonize() {
	// nothing further to normalize for our supported schemes
}

// IsCanonical reports whether the URI parsed successfully and carries a
// recognized scheme and non-empty host/path.
func (u *URI) IsCanonical() bool {
	if u == nil || u.u == nil || u.u.Scheme == "" {
		return false
	}
	switch u.u.Scheme {
	case "unix", "fd":
		return true
	case "null":
		return true
	default:
		return u.u.Hostname() != "" || u.u.Path != ""
	}
}

// String renders the URI back to its string form.
func (u *URI) String() string {
	if u == nil || u.u == nil {
		return ""
	}
	return u.u.String()
}

// GoString matches String for %#v-style debug output.
func (u *URI) GoString() string {
	return fmt.Sprintf("URI(%s)", u.String())
}
