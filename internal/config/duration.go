package config

import (
	"fmt"
	"strings"
	"time"

	"pagenine/internal/catalog"
)

// ParseDurationField parses raw as a non-negative Go duration. An empty value
// is 0. Errors are prefixed with the config path.
func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

// durationOr returns the parsed value, or def when raw is empty, zero or
// invalid. Validate reports invalid values before this is reached.
func durationOr(raw string, def time.Duration) time.Duration {
	d, err := ParseDurationField("", raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func (c CatalogConfig) TimeoutDuration() time.Duration {
	return durationOr(c.Timeout, catalog.DefaultTimeout)
}

func (s StorageConfig) BusyTimeoutDuration() time.Duration {
	return durationOr(s.BusyTimeout, 0)
}
