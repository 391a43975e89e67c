package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"courseboard/internal/modkit"
	"courseboard/internal/modkit/module"
	"courseboard/internal/platform/config"
	"courseboard/internal/platform/logger"
	"courseboard/internal/platform/store"

	"courseboard/internal/adapters/crawlsource"
	catalogmod "courseboard/internal/services/catalog/module"
	crawlmod "courseboard/internal/services/crawl/module"
	ingestmod "courseboard/internal/services/ingest/module"
)

func main() {
	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")
	crawlCfg := root.Prefix("CRAWL_")

	l := logger.Get()
	st, err := store.Open(context.Background(), store.Config{
		AppName: "courseboard",
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", true),
		},
		CH: store.CHConfig{
			Enabled: chCfg.MayBool("ENABLED", false),
			URL:     chCfg.MayString("DBURL", ""),
			Role:    "crawler",
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	fOnce := flag.Bool("once", false, "run a single ingestion and exit")
	flag.Parse()

	deps := modkit.Deps{
		Log: *l,
		Cfg: root,
		PG:  st.PG,
		CH:  st.CH,
	}

	opts := crawlmod.FromConfig(root)

	profile, err := crawlsource.LoadProfile(opts.ProfilePath)
	if err != nil {
		l.Panic().Err(err).Str("path", opts.ProfilePath).Msg("bad crawl profile")
	}
	client := crawlsource.NewClient(crawlsource.Options{
		UserAgent:  crawlCfg.MayString("USER_AGENT", ""),
		Timeout:    crawlCfg.MayDuration("HTTP_TIMEOUT", 0),
		MaxRetries: crawlCfg.MayInt("HTTP_RETRIES", 0),
		RetryBase:  crawlCfg.MayDuration("HTTP_RETRY_BASE", 0),
	})
	fetcher := crawlsource.NewFetcher(client, profile, opts.Parallel)

	catalog := catalogmod.New(deps)
	ingest := ingestmod.New(deps, ingestmod.Inputs{
		Fetcher:   fetcher,
		Profile:   profile,
		Reader:    catalog.Service(),
		Publisher: catalog.Service(),
	})
	crawl := crawlmod.New(deps, ingest.Runner())

	module.Register(catalog.Name(), catalog.Ports())
	module.Register(ingest.Name(), ingest.Ports())
	module.Register(crawl.Name(), crawl.Ports())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// load the current snapshot so the first diff sees the committed state
	if err := catalog.Service().Reload(ctx); err != nil {
		l.Panic().Err(err).Msg("catalog snapshot load failed")
	}

	if *fOnce {
		rep, _, err := crawl.Scheduler().TryRunOnce(ctx)
		if err != nil {
			l.Fatal().Err(err).Str("run_id", rep.RunID.String()).Msg("ingestion run failed")
		}
		l.Info().
			Str("run_id", rep.RunID.String()).
			Int("added", rep.Added).
			Int("changed", rep.Changed).
			Int("removed", rep.Removed).
			Int("unchanged", rep.Unchanged).
			Msg("ingestion run finished")
		return
	}

	if err := crawl.Scheduler().Run(ctx); err != nil && err != context.Canceled {
		l.Fatal().Err(err).Msg("scheduler stopped")
	}
}
