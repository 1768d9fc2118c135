package wire

import "errors"

var errTruncated = errors.New("ccnb: truncated element")
var errWrongType = errors.New("ccnb: unexpected element type")
var errMalformed = errors.New("ccnb: malformed element")
