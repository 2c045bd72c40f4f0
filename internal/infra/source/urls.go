package source

import (
	"fmt"
	"os"
	"strings"

	"substitution_bot/internal/domain/schedule"

	"gopkg.in/yaml.v3"
)

// DayPlaceholder is replaced with the German weekday name in URL templates.
const DayPlaceholder = "{day}"

// URLs maps every school day to its document URL.
type URLs map[schedule.Weekday]string

// URLsFromTemplate expands template once per weekday, e.g.
// ".../VertretungsplanA4_{day}.pdf" -> ".../VertretungsplanA4_Montag.pdf".
func URLsFromTemplate(template string) (URLs, error) {
	if !strings.Contains(template, DayPlaceholder) {
		return nil, fmt.Errorf("URL template %q has no %s placeholder", template, DayPlaceholder)
	}

	urls := make(URLs, len(schedule.Weekdays))
	for _, day := range schedule.Weekdays {
		urls[day] = strings.ReplaceAll(template, DayPlaceholder, day.LocalName())
	}
	return urls, nil
}

// LoadSourcesFile reads a YAML mapping of weekday name to URL:
//
//	monday: https://example.org/plan_montag.pdf
//	dienstag: https://example.org/plan_dienstag.pdf
//
// Days missing from the file fall back to fallback.
func LoadSourcesFile(path string, fallback URLs) (URLs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse sources file %s: %w", path, err)
	}

	urls := make(URLs, len(schedule.Weekdays))
	for day, url := range fallback {
		urls[day] = url
	}
	for name, url := range raw {
		day, err := schedule.ParseWeekday(name)
		if err != nil {
			return nil, fmt.Errorf("sources file %s: %w", path, err)
		}
		if strings.TrimSpace(url) == "" {
			return nil, fmt.Errorf("sources file %s: empty URL for %s", path, day)
		}
		urls[day] = strings.TrimSpace(url)
	}

	for _, day := range schedule.Weekdays {
		if _, ok := urls[day]; !ok {
			return nil, fmt.Errorf("sources file %s: no URL for %s", path, day)
		}
	}
	return urls, nil
}
