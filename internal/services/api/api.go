// Package api composes the HTTP API for the application
package api

import (
	"courseboard/internal/platform/config"
	"courseboard/internal/platform/logger"
	phttp "courseboard/internal/platform/net/http"
	"courseboard/internal/platform/net/middleware"
	"courseboard/internal/platform/store"

	"courseboard/internal/modkit"
	"courseboard/internal/modkit/httpkit"
	"courseboard/internal/modkit/module"
	"courseboard/internal/modkit/swaggerkit"

	catalogmod "courseboard/internal/services/catalog/module"
	cthttp "courseboard/internal/services/coursetable/http"
	ctmod "courseboard/internal/services/coursetable/module"

	metamod "courseboard/internal/services/api/meta/module"
)

// ServiceName is the identity meta endpoints report
const ServiceName = "courseboard-api"

// Options are the API options
type Options struct {
	Config        config.Conf
	Store         *store.Store
	Logger        *logger.Logger
	EnableSwagger bool
}

// Mount mounts the API service onto the given router and returns the
// catalog module so the caller can warm the snapshot pointer
func Mount(r phttp.Router, opt Options) *catalogmod.Module {
	deps := modkit.Deps{
		Log: *opt.Logger,
		Cfg: opt.Config,
		PG:  opt.Store.PG,
		CH:  opt.Store.CH,
	}

	catalog := catalogmod.New(deps)
	tables := ctmod.New(deps, catalog.Service())

	mods := []module.Module{
		metamod.New(deps, ServiceName),
		catalog,
		tables,
	}

	stack := append(httpkit.CommonStack(), middleware.UserContext)
	httpkit.MountUnder(r, "/api/v1", stack, func(api httpkit.Router) {
		for _, m := range mods {
			module.Register(m.Name(), m.Ports())
			m.MountRoutes(api)
		}

		// standalone preview validation shares the coursetable port
		api.Route("/validate", func(rr httpkit.Router) {
			cthttp.RegisterValidate(rr, tables.Service())
		})
	})

	swaggerkit.Mount(r, opt.EnableSwagger)
	return catalog
}
