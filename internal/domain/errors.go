package domain

import "errors"

// ErrNoImpact indicates that no zone in the region has a non-zero exceedance
// probability at the key threshold, so no report should be produced.
var ErrNoImpact = errors.New("no impacted zones at key threshold")

// ConfigError marks a data-configuration problem that must stop the run
// rather than be silently skipped, such as a zone with no admin assignment.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return "configuration error: " + e.Msg
}
