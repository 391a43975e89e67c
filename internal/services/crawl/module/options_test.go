package module

import (
	"testing"
	"time"

	"courseboard/internal/platform/config"
	"courseboard/internal/platform/testkit"
)

func TestFromConfigParsesTerm(t *testing.T) {
	t.Setenv("CRAWL_TERM", "114-1")

	o := FromConfig(config.New())
	if o.Term != "114-1" {
		t.Fatalf("term = %q", o.Term)
	}
	if o.Interval != time.Hour || o.Parallel != 4 {
		t.Fatalf("defaults = %+v", o)
	}
}

func TestFromConfigRejectsMalformedTermAtBoot(t *testing.T) {
	t.Setenv("CRAWL_TERM", "fall-2026")

	testkit.MustPanic(t, func() { FromConfig(config.New()) })
}
