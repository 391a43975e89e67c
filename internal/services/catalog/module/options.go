package module

import (
	"time"

	"courseboard/internal/platform/config"
)

// Options holds configuration settings for the catalog module
type Options struct {
	HardLimit    int
	RefreshEvery time.Duration
}

// FromConfig reads configuration settings from the config.Conf
func FromConfig(cfg config.Conf) Options {
	cf := cfg.Prefix("CATALOG_")
	return Options{
		HardLimit:    cf.MayInt("HARD_LIMIT", 200),
		RefreshEvery: cf.MayDuration("REFRESH", time.Minute),
	}
}
