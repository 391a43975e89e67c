// Package module wires the ingest pipeline using modkit
package module

import (
	modkit "courseboard/internal/modkit"
	"courseboard/internal/modkit/httpkit"
	str "courseboard/internal/platform/strings"

	"courseboard/internal/adapters/crawlsource"
	catalogdom "courseboard/internal/services/catalog/domain"
	"courseboard/internal/services/ingest/audit"
	"courseboard/internal/services/ingest/domain"
	"courseboard/internal/services/ingest/normalize"
	"courseboard/internal/services/ingest/repo"
	ingestsvc "courseboard/internal/services/ingest/service"
)

// Ports exposed by the ingest module
type Ports struct {
	Runner domain.RunnerPort
}

// Inputs are the cross-module collaborators the pipeline needs
type Inputs struct {
	Fetcher   domain.FetcherPort
	Profile   crawlsource.Profile
	Reader    catalogdom.ReaderPort
	Publisher catalogdom.PublisherPort
}

// Module implements the modkit.Module interface. The pipeline has no HTTP
// surface; it exposes only the runner port for the scheduler
type Module struct {
	deps  modkit.Deps
	name  string
	ports any

	svc *ingestsvc.Service
}

// New constructs an ingest module with the provided dependencies and inputs
func New(deps modkit.Deps, in Inputs, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("ingest")}, opts...)...)

	svc := ingestsvc.New(
		deps.PG,
		repo.NewPG(),
		in.Fetcher,
		normalize.New(in.Profile),
		in.Reader,
		in.Publisher,
		audit.New(deps.CH),
	)

	m := &Module{deps: deps, name: b.Name, svc: svc}
	m.ports = Ports{Runner: svc}
	return m
}

// Runner exposes the pipeline runner for the scheduler wiring
func (m *Module) Runner() domain.RunnerPort { return m.svc }

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "module name") }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r httpkit.Router) {}
