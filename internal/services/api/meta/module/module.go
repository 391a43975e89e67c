// Package module wires meta endpoints using modkit
package module

import (
	"time"

	modkit "courseboard/internal/modkit"
	"courseboard/internal/modkit/httpkit"
	str "courseboard/internal/platform/strings"
	metahttp "courseboard/internal/services/api/meta/http"
)

// Module implements the modkit.Module interface
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	serviceName string
	startedAt   time.Time
}

// New constructs a meta module
func New(deps modkit.Deps, serviceName string, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
	}, opts...)...)

	return &Module{
		deps:        deps,
		name:        b.Name,
		prefix:      b.Prefix,
		serviceName: serviceName,
		startedAt:   time.Now(),
	}
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.prefix, func(rr httpkit.Router) {
		metahttp.Register(rr, metahttp.Deps{
			ServiceName: m.serviceName,
			StartedAt:   m.startedAt,
			PG:          m.deps.PG,
			CH:          m.deps.CH,
		})
	})
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "module name") }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Ports returns the module ports
func (m *Module) Ports() any { return nil }
