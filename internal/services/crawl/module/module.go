// Package module wires the crawl scheduler using modkit
package module

import (
	modkit "courseboard/internal/modkit"
	"courseboard/internal/modkit/httpkit"
	str "courseboard/internal/platform/strings"
	crawlsvc "courseboard/internal/services/crawl/service"
	ingestdom "courseboard/internal/services/ingest/domain"
)

// Ports exposed by the crawl module
type Ports struct {
	Scheduler *crawlsvc.Scheduler
}

// Module implements the modkit.Module interface
type Module struct {
	deps  modkit.Deps
	name  string
	ports any

	sched *crawlsvc.Scheduler
}

// New constructs a crawl module around an ingest runner
func New(deps modkit.Deps, runner ingestdom.RunnerPort, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("crawl")}, opts...)...)

	cfg := FromConfig(deps.Cfg)
	sched := crawlsvc.New(runner, crawlsvc.Config{
		Term:        cfg.Term,
		Interval:    cfg.Interval,
		BackoffBase: cfg.BackoffBase,
		BackoffMax:  cfg.BackoffMax,
	})

	m := &Module{deps: deps, name: b.Name, sched: sched}
	m.ports = Ports{Scheduler: sched}
	return m
}

// Scheduler exposes the scheduler for the crawler binary's run loop
func (m *Module) Scheduler() *crawlsvc.Scheduler { return m.sched }

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "module name") }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r httpkit.Router) {}
