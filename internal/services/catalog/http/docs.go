package http

import "courseboard/internal/modkit/swaggerkit"

func init() {
	swaggerkit.Register(func(spec map[string]any) {
		paths, _ := spec["paths"].(map[string]any)
		if paths == nil {
			return
		}
		paths["/catalog/offerings"] = map[string]any{
			"get": map[string]any{
				"tags":    []string{"Catalog"},
				"summary": "List current course offerings",
				"parameters": []any{
					map[string]any{"name": "term", "in": "query", "schema": map[string]any{"type": "string"}},
					map[string]any{"name": "code", "in": "query", "schema": map[string]any{"type": "string"}},
					map[string]any{"name": "teacher", "in": "query", "schema": map[string]any{"type": "string"}},
					map[string]any{"name": "limit", "in": "query", "schema": map[string]any{"type": "integer"}},
					map[string]any{"name": "offset", "in": "query", "schema": map[string]any{"type": "integer"}},
				},
				"responses": map[string]any{"200": map[string]any{"description": "ok"}},
			},
		}
		paths["/catalog/offerings/{id}"] = map[string]any{
			"get": map[string]any{
				"tags":    []string{"Catalog"},
				"summary": "Get one offering by version id",
				"parameters": []any{
					map[string]any{"name": "id", "in": "path", "required": true, "schema": map[string]any{"type": "string", "format": "uuid"}},
				},
				"responses": map[string]any{"200": map[string]any{"description": "ok"}},
			},
		}
		paths["/catalog/snapshot"] = map[string]any{
			"get": map[string]any{
				"tags":      []string{"Catalog"},
				"summary":   "Current snapshot metadata",
				"responses": map[string]any{"200": map[string]any{"description": "ok"}},
			},
		}
	})
}
