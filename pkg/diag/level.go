package diag

import (
	"fmt"
	"strings"

	"github.com/pion/logging"
)

// ParseLevel parses a level name ("error", "warn", "info", "debug", "trace",
// "disabled") into a pion log level. Matching ignores case.
func ParseLevel(s string) (logging.LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "disabled", "off", "none":
		return logging.LogLevelDisabled, nil
	case "error":
		return logging.LogLevelError, nil
	case "warn", "warning":
		return logging.LogLevelWarn, nil
	case "info", "":
		return logging.LogLevelInfo, nil
	case "debug":
		return logging.LogLevelDebug, nil
	case "trace":
		return logging.LogLevelTrace, nil
	default:
		return logging.LogLevelDisabled, fmt.Errorf("diag: unknown log level %q", s)
	}
}
