package module

import "courseboard/internal/platform/config"

// Options holds configuration settings for the coursetable module
type Options struct {
	MaxCredits   float64
	AllowRetakes bool
}

// FromConfig reads configuration settings from the config.Conf
func FromConfig(cfg config.Conf) Options {
	cf := cfg.Prefix("CONFLICT_")
	return Options{
		MaxCredits:   float64(cf.MayInt("MAX_CREDITS", 25)),
		AllowRetakes: cf.MayBool("ALLOW_RETAKES", false),
	}
}
