package modkit

import (
	"net/http"

	"datacompliance/internal/modkit/httpkit"
	pstrings "datacompliance/internal/platform/strings"
)

// Built is a plain struct with the fields modules care about
type Built struct {
	Name     string
	Prefix   string
	Mw       []func(http.Handler) http.Handler
	Ports    any
	Register func(httpkit.Router)
}

// Build applies Option funcs over defaults and returns a plain struct
func Build(opts ...Option) Built {
	var c buildCfg
	for _, o := range opts {
		o(&c)
	}
	if c.register == nil {
		c.register = func(httpkit.Router) {}
	}
	return Built{
		Name:     c.name,
		Prefix:   c.prefix,
		Mw:       append([]func(http.Handler) http.Handler(nil), c.mw...),
		Ports:    c.ports,
		Register: c.register,
	}
}

// Mount mounts register under b.Prefix with the module middlewares, followed
// by any extra endpoints passed through WithRegister
func (b Built) Mount(r httpkit.Router, register func(httpkit.Router)) {
	httpkit.MountUnder(r, pstrings.MustPrefix(b.Prefix), b.Mw, func(sub httpkit.Router) {
		register(sub)
		b.Register(sub)
	})
}
