package httpkit

import (
	"net/http"
	"strings"
)

// MountUnder routes prefix to a subrouter carrying mw, then lets mount
// register handlers on it
func MountUnder(r Router, prefix string, mw []func(http.Handler) http.Handler, mount func(Router)) {
	r.Route(prefix, func(sub Router) {
		if len(mw) > 0 {
			sub.Use(mw...)
		}
		mount(sub)
	})
}

// MountAPI mounts a subrouter under /{version} with the given middleware
//
//	httpkit.MountAPI(r, "v1", httpkit.CommonStack(), func(api httpkit.Router) {
//	  referrals.MountRoutes(api)
//	})
func MountAPI(r Router, version string, mw []func(http.Handler) http.Handler, mount func(Router)) {
	MountUnder(r, "/"+strings.Trim(version, "/"), mw, mount)
}

// MountAPIV1 is MountAPI for v1
func MountAPIV1(r Router, mw []func(http.Handler) http.Handler, mount func(Router)) {
	MountAPI(r, "v1", mw, mount)
}
