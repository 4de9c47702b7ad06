// Package swaggerkit mounts the Swagger UI and the OpenAPI document for the ops API
package swaggerkit

import (
	"net/http"

	phttp "datacompliance/internal/platform/net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

// Mount the Swagger UI and JSON spec if enabled
func Mount(r phttp.Router, enabled bool) {
	if !enabled {
		return
	}
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs/", http.StatusPermanentRedirect)
	})
	r.Get("/docs/doc.json", serveDocJSON())
	r.Handle("/docs/*", httpSwagger.Handler(
		httpSwagger.InstanceName("api"),
		httpSwagger.URL("/docs/doc.json"),
	))
}
