package quake

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"quake_bot/internal/model"
)

const usgsBase = "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/"

// DefaultSources maps every category to its USGS past-hour feed.
func DefaultSources() map[model.Category]string {
	return map[model.Category]string{
		model.CategorySignificant: usgsBase + "significant_hour.atom",
		model.CategoryM4Plus:      usgsBase + "4.5_hour.atom",
		model.CategoryM2Plus:      usgsBase + "2.5_hour.atom",
		model.CategoryM1Plus:      usgsBase + "1.0_hour.atom",
		model.CategoryAll:         usgsBase + "all_hour.atom",
	}
}

type sourcesFile struct {
	Feeds map[string]string `yaml:"feeds"`
}

// LoadSources returns the default sources overridden by the YAML file at path.
// An empty path returns the defaults.
//
//	feeds:
//	  significant: https://example.com/significant.atom
func LoadSources(path string) (map[model.Category]string, error) {
	sources := DefaultSources()
	if path == "" {
		return sources, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied config path
	if err != nil {
		return nil, fmt.Errorf("read feeds file: %w", err)
	}

	var f sourcesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse feeds file: %w", err)
	}

	for name, url := range f.Feeds {
		c, err := model.ParseCategory(name)
		if err != nil {
			return nil, fmt.Errorf("feeds file: %w", err)
		}
		if url == "" {
			return nil, fmt.Errorf("feeds file: empty url for %s", name)
		}
		sources[c] = url
	}
	return sources, nil
}
