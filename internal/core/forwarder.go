package core

import "fmt"

// forwarderComponent lets Forwarder satisfy Component for logging
// without importing the face/table/store packages from core (which
// would create an import cycle, since those packages depend on core
// for logging).
type forwarderComponent string

func (c forwarderComponent) String() string { return string(c) }

// ForwarderName is the log-component name cmd/ccnd's wiring passes to
// core.Log for top-level daemon lifecycle messages.
const ForwarderName forwarderComponent = "ccnd"

var _ fmt.Stringer = ForwarderName
