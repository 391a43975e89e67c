// Package module wires course tables into the API using modkit
package module

import (
	"net/http"

	"courseboard/internal/core/conflict"
	modkit "courseboard/internal/modkit"
	"courseboard/internal/modkit/httpkit"
	str "courseboard/internal/platform/strings"
	catalogdom "courseboard/internal/services/catalog/domain"
	"courseboard/internal/services/coursetable/domain"
	cthttp "courseboard/internal/services/coursetable/http"
	ctrepo "courseboard/internal/services/coursetable/repo"
	ctsvc "courseboard/internal/services/coursetable/service"
)

// Ports exposed by the coursetable module
type Ports struct {
	Tables domain.TablePort
}

// Module implements the modkit.Module interface
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws      []func(http.Handler) http.Handler
	ports    any
	register func(httpkit.Router)

	svc *ctsvc.Service
}

// New constructs a coursetable module; the catalog reader is required
func New(deps modkit.Deps, catalog catalogdom.ReaderPort, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("coursetable"),
		modkit.WithPrefix("/tables"),
	}, opts...)...)

	cfg := FromConfig(deps.Cfg)
	svc := ctsvc.New(deps.PG, ctrepo.NewPG(), catalog, ctsvc.Config{
		Rules: conflict.Rules{
			MaxCredits:   cfg.MaxCredits,
			AllowRetakes: cfg.AllowRetakes,
		},
	})

	m := &Module{
		deps:   deps,
		name:   b.Name,
		prefix: b.Prefix,
		mws:    b.Mw,
		svc:    svc,
	}
	m.ports = Ports{Tables: svc}

	external := b.Register
	m.register = func(r httpkit.Router) {
		cthttp.Register(r, svc)
		if external != nil {
			external(r)
		}
	}
	return m
}

// Service exposes the underlying service for in-process composition
func (m *Module) Service() *ctsvc.Service { return m.svc }

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.prefix, func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		if m.register != nil {
			m.register(rr)
		}
	})
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "module name") }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
