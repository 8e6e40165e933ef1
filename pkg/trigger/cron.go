package trigger

import (
	"strconv"
	"strings"
	"time"
)

// ParseCronToInterval maps the supported cron subset onto a fixed polling
// interval. Only three forms fire natively:
//
//	*/N * * * *  every N minutes
//	0 * * * *    hourly
//	0 0 * * *    daily
//
// Anything else returns ok=false. Such schedules are accepted at
// registration time but never fire; the manager logs a warning so callers
// can detect the silent no-op through logs and tests.
func ParseCronToInterval(expression string) (time.Duration, bool) {
	fields := strings.Fields(expression)
	if len(fields) != 5 {
		return 0, false
	}

	rest := strings.Join(fields[2:], " ")

	if strings.HasPrefix(fields[0], "*/") && fields[1] == "*" && rest == "* * *" {
		minutes, err := strconv.Atoi(fields[0][2:])
		if err != nil || minutes <= 0 {
			return 0, false
		}

		return time.Duration(minutes) * time.Minute, true
	}

	if fields[0] == "0" && fields[1] == "*" && rest == "* * *" {
		return time.Hour, true
	}

	if fields[0] == "0" && fields[1] == "0" && rest == "* * *" {
		return 24 * time.Hour, true
	}

	return 0, false
}
