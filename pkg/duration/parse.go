// Package duration parses human-friendly delays for scheduling.
package duration

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Day and Week extend the standard duration units for schedule delays.
const (
	Day  = 24 * time.Hour
	Week = 7 * Day
)

var unitValues = map[string]time.Duration{
	"d": Day,
	"w": Week,
}

// dayWeekPattern matches components like "3d" or "2w".
var dayWeekPattern = regexp.MustCompile(`(\d+)([dw])`)

// Parse extends time.ParseDuration with day (d) and week (w) units, so a
// schedule delay can be written as "2d", "1w" or compounds like "1w2d12h".
// Standard Go units (ns, us, ms, s, m, h) still work on their own or mixed in.
func Parse(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}

	matches := dayWeekPattern.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w (supported units: ns, us, ms, s, m, h, d, w)", s, err)
		}
		return d, nil
	}

	var total time.Duration
	for _, match := range matches {
		n, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration value %q in %q", match[1], s)
		}
		total += time.Duration(n) * unitValues[match[2]]
	}

	rest := strings.TrimSpace(dayWeekPattern.ReplaceAllString(s, ""))
	if rest != "" {
		d, err := time.ParseDuration(rest)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w (supported units: ns, us, ms, s, m, h, d, w)", s, err)
		}
		total += d
	}
	return total, nil
}
