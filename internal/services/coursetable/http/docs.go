package http

import "courseboard/internal/modkit/swaggerkit"

func init() {
	swaggerkit.Register(func(spec map[string]any) {
		paths, _ := spec["paths"].(map[string]any)
		if paths == nil {
			return
		}
		idParam := map[string]any{"name": "id", "in": "path", "required": true, "schema": map[string]any{"type": "string", "format": "uuid"}}

		paths["/tables"] = map[string]any{
			"get": map[string]any{
				"tags":      []string{"Tables"},
				"summary":   "List the caller's course tables",
				"responses": map[string]any{"200": map[string]any{"description": "ok"}},
			},
			"post": map[string]any{
				"tags":      []string{"Tables"},
				"summary":   "Create a course table",
				"responses": map[string]any{"200": map[string]any{"description": "ok"}},
			},
		}
		paths["/tables/{id}"] = map[string]any{
			"get": map[string]any{
				"tags":       []string{"Tables"},
				"summary":    "Get one course table with its selections",
				"parameters": []any{idParam},
				"responses":  map[string]any{"200": map[string]any{"description": "ok"}},
			},
			"patch": map[string]any{
				"tags":       []string{"Tables"},
				"summary":    "Rename a course table",
				"parameters": []any{idParam},
				"responses":  map[string]any{"200": map[string]any{"description": "ok"}},
			},
			"delete": map[string]any{
				"tags":       []string{"Tables"},
				"summary":    "Delete a course table",
				"parameters": []any{idParam},
				"responses":  map[string]any{"200": map[string]any{"description": "ok"}},
			},
		}
		paths["/tables/{id}/conflicts"] = map[string]any{
			"get": map[string]any{
				"tags":       []string{"Tables"},
				"summary":    "Revalidate the whole table against the current catalog",
				"parameters": []any{idParam},
				"responses":  map[string]any{"200": map[string]any{"description": "ok"}},
			},
		}
		paths["/tables/{id}/offerings"] = map[string]any{
			"post": map[string]any{
				"tags":       []string{"Tables"},
				"summary":    "Add an offering; 409 carries the conflict report",
				"parameters": []any{idParam},
				"responses": map[string]any{
					"200": map[string]any{"description": "added"},
					"409": map[string]any{"description": "rejected with conflict report"},
				},
			},
		}
		paths["/tables/{id}/offerings/{offeringID}"] = map[string]any{
			"delete": map[string]any{
				"tags":    []string{"Tables"},
				"summary": "Remove an offering from a table",
				"parameters": []any{
					idParam,
					map[string]any{"name": "offeringID", "in": "path", "required": true, "schema": map[string]any{"type": "string", "format": "uuid"}},
				},
				"responses": map[string]any{"200": map[string]any{"description": "ok"}},
			},
		}
		paths["/validate"] = map[string]any{
			"post": map[string]any{
				"tags":      []string{"Tables"},
				"summary":   "Preview conflict validation without persisting",
				"responses": map[string]any{"200": map[string]any{"description": "ok"}},
			},
		}
	})
}
