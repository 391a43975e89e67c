// Package module wires the catalog into the API using modkit
package module

import (
	"net/http"

	modkit "courseboard/internal/modkit"
	"courseboard/internal/modkit/httpkit"
	str "courseboard/internal/platform/strings"
	cataloghttp "courseboard/internal/services/catalog/http"
	catalogrepo "courseboard/internal/services/catalog/repo"
	catalogsvc "courseboard/internal/services/catalog/service"
)

// Ports exposed by the catalog module
type Ports struct {
	Reader    Reader
	Publisher Publisher
}

// Module implements the modkit.Module interface
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws       []func(http.Handler) http.Handler
	ports     any
	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	svc *catalogsvc.Service
}

// New constructs a catalog module with the provided dependencies and options
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("catalog"),
		modkit.WithPrefix("/catalog"),
	}, opts...)...)

	cfg := FromConfig(deps.Cfg)
	svc := catalogsvc.New(deps.PG, catalogrepo.NewPG(), catalogsvc.Config{
		HardLimit:    cfg.HardLimit,
		RefreshEvery: cfg.RefreshEvery,
	})

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		subrouter: b.Subrouter,
		svc:       svc,
	}
	m.ports = Ports{Reader: svc, Publisher: svc}

	external := b.Register
	m.register = func(r httpkit.Router) {
		cataloghttp.Register(r, svc)
		if external != nil {
			external(r)
		}
	}
	return m
}

// Service exposes the underlying service for in-process composition
func (m *Module) Service() *catalogsvc.Service { return m.svc }

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.prefix, func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		if m.subrouter != nil {
			rr = m.subrouter(rr)
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
