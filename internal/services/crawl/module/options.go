package module

import (
	"time"

	"courseboard/internal/core/timetable"
	"courseboard/internal/platform/config"
)

// Options holds configuration settings for the crawl module
type Options struct {
	Term        timetable.Term
	Interval    time.Duration
	BackoffBase time.Duration
	BackoffMax  time.Duration

	ProfilePath string
	Parallel    int
}

// FromConfig reads configuration settings from the config.Conf.
// A malformed term would otherwise only surface as a failing run on every
// tick, so it panics at boot instead
func FromConfig(cfg config.Conf) Options {
	cf := cfg.Prefix("CRAWL_")
	term, err := timetable.ParseTerm(cf.MustString("TERM"))
	if err != nil {
		panic("CRAWL_TERM: " + err.Error())
	}
	return Options{
		Term:        term,
		Interval:    cf.MayDuration("INTERVAL", time.Hour),
		BackoffBase: cf.MayDuration("BACKOFF_BASE", time.Minute),
		BackoffMax:  cf.MayDuration("BACKOFF_MAX", 30*time.Minute),
		ProfilePath: cf.MayString("PROFILE", "crawl_profile.yaml"),
		Parallel:    cf.MayInt("PARALLEL", 4),
	}
}
