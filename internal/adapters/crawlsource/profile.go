package crawlsource

import (
	"os"

	"gopkg.in/yaml.v3"

	perr "courseboard/internal/platform/errors"
)

// Profile describes one timetable source so format assumptions stay out of
// the rest of the pipeline. Loaded from a YAML file at boot
type Profile struct {
	// BaseURL is the source root, e.g. https://course.example.edu
	BaseURL string `yaml:"base_url"`
	// PagePath is the paginated listing path with %s department and %d page
	PagePath string `yaml:"page_path"`
	// Departments lists the source department page ids to crawl
	Departments []string `yaml:"departments"`

	// WeekdayTokens maps source day markers to ISO weekday numbers 1..7
	WeekdayTokens map[string]int `yaml:"weekday_tokens"`
	// PeriodMin and PeriodMax bound the source's period numbering
	PeriodMin int `yaml:"period_min"`
	PeriodMax int `yaml:"period_max"`

	// SuspendedMarker flags a cancelled offering when present in the title
	SuspendedMarker string `yaml:"suspended_marker"`
}

// DefaultProfile covers the source the crawler was built against
func DefaultProfile() Profile {
	return Profile{
		PagePath: "/api/timetable/%s?page=%d",
		WeekdayTokens: map[string]int{
			"一": 1, "二": 2, "三": 3, "四": 4, "五": 5, "六": 6, "日": 7,
		},
		PeriodMin:       1,
		PeriodMax:       14,
		SuspendedMarker: "(停開)",
	}
}

// LoadProfile reads a Profile from a YAML file, filling gaps from the default
func LoadProfile(path string) (Profile, error) {
	p := DefaultProfile()
	b, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "crawlsource read profile %s", path)
	}
	if err := yaml.Unmarshal(b, &p); err != nil {
		return Profile{}, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "crawlsource parse profile %s", path)
	}
	if err := p.validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (p Profile) validate() error {
	if p.BaseURL == "" {
		return perr.Newf(perr.ErrorCodeInvalidArgument, "crawlsource profile missing base_url")
	}
	if len(p.Departments) == 0 {
		return perr.Newf(perr.ErrorCodeInvalidArgument, "crawlsource profile missing departments")
	}
	if p.PeriodMin < 1 || p.PeriodMax <= p.PeriodMin {
		return perr.Newf(perr.ErrorCodeInvalidArgument, "crawlsource profile period bounds invalid")
	}
	return nil
}
