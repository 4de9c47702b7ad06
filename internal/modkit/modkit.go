package modkit

import (
	phttp "datacompliance/internal/platform/net/http"
)

// Module is the common surface for modules that can mount routes and expose ports
// keep this tiny so modules stay decoupled
type Module interface {
	// MountRoutes mounts HTTP routes under the provided router seam
	MountRoutes(r phttp.Router)
	// Ports returns a module specific port set for cross wiring
	Ports() any
	// Name returns the module name
	Name() string
}
