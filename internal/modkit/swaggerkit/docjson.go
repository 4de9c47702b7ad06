package swaggerkit

import (
	"encoding/json"
	"net/http"
	"strings"

	"datacompliance/internal/platform/config"

	docs "datacompliance/internal/services/api/docs"
)

// BasePath is where the versioned routes are mounted
const BasePath = "/v1"

// SpecMutator lets modules tweak the parsed spec before it is served
type SpecMutator func(map[string]any)

var mutators []SpecMutator

// docReader is a seam so tests can serve a different document
var docReader = func() string { return docs.SwaggerInfo.ReadDoc() }

// Register adds a spec mutator, usually from a module's init
func Register(m SpecMutator) {
	if m != nil {
		mutators = append(mutators, m)
	}
}

func serveDocJSON() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var spec map[string]any
		if err := json.Unmarshal([]byte(docReader()), &spec); err != nil {
			http.Error(w, "spec parse error", http.StatusInternalServerError)
			return
		}

		// the UI only renders 3.0
		ensureServers(spec, BasePath)

		cfg := config.New().Prefix("API_")
		if v := cfg.MayString("DOCS_TITLE_SUFFIX", ""); v != "" {
			if info, ok := spec["info"].(map[string]any); ok {
				if title, ok := info["title"].(string); ok {
					info["title"] = title + " " + v
				}
			}
		}

		ensureErrorResponseDefinition(spec)
		addDefaultResponse(spec, "500", "Internal Server Error", map[string]any{
			"status_code": 500,
			"status":      "Internal Server Error",
			"code":        1,
			"kind":        "panic",
			"error":       "panic recovered",
			"request_id":  "c0ffee/abc-000001",
		})
		addDefaultResponse(spec, "400", "Bad Request", map[string]any{
			"status_code": 400,
			"status":      "Bad Request",
			"code":        5,
			"kind":        "validation",
			"error":       "offenderNo failed offender_no",
			"field":       "offenderNo",
			"request_id":  "c0ffee/abc-000001",
		})

		for _, m := range mutators {
			m(spec)
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(spec)
	}
}

// ensureServers lifts swagger 2 and downsamples 3.1 to 3.0.3, then sets the
// servers array when the document has none
func ensureServers(spec map[string]any, url string) {
	if _, ok := spec["swagger"]; ok {
		spec["openapi"] = "3.0.3"
		delete(spec, "swagger")
	}
	if v, ok := spec["openapi"].(string); !ok || strings.HasPrefix(v, "3.1") {
		spec["openapi"] = "3.0.3"
	}
	if _, ok := spec["servers"]; !ok {
		spec["servers"] = []any{map[string]any{"url": url}}
	}
}

// ensureErrorResponseDefinition adds the error envelope schema if missing
func ensureErrorResponseDefinition(spec map[string]any) {
	comps, ok := spec["components"].(map[string]any)
	if !ok {
		comps = map[string]any{}
		spec["components"] = comps
	}
	schemas, ok := comps["schemas"].(map[string]any)
	if !ok {
		schemas = map[string]any{}
		comps["schemas"] = schemas
	}
	if _, ok := schemas["ErrorResponse"]; ok {
		return
	}
	schemas["ErrorResponse"] = map[string]any{
		"type":        "object",
		"description": "Error envelope",
		"properties": map[string]any{
			"status_code": map[string]any{"type": "integer", "format": "int32"},
			"status":      map[string]any{"type": "string"},
			"code":        map[string]any{"type": "integer", "format": "int32"},
			"kind":        map[string]any{"type": "string"},
			"error":       map[string]any{"type": "string"},
			"field":       map[string]any{"type": "string"},
			"request_id":  map[string]any{"type": "string"},
		},
		"required": []any{"status_code", "status"},
	}
}

// addDefaultResponse injects an error response under status on every
// operation that does not declare one
func addDefaultResponse(spec map[string]any, status, description string, example map[string]any) {
	paths, ok := spec["paths"].(map[string]any)
	if !ok {
		return
	}
	for _, p := range paths {
		node, ok := p.(map[string]any)
		if !ok {
			continue
		}
		for _, opAny := range node {
			op, ok := opAny.(map[string]any)
			if !ok {
				continue
			}
			responses, ok := op["responses"].(map[string]any)
			if !ok {
				responses = map[string]any{}
				op["responses"] = responses
			}
			if _, exists := responses[status]; exists {
				continue
			}
			responses[status] = map[string]any{
				"description": description,
				"content": map[string]any{
					"application/json": map[string]any{
						"schema":  map[string]any{"$ref": "#/components/schemas/ErrorResponse"},
						"example": example,
					},
				},
			}
		}
	}
}
