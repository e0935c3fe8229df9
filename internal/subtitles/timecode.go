package subtitles

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"dubber/internal/services"
)

// FormatTimecode renders a seconds offset as an SRT timestamp, rounded to the
// nearest millisecond. The hours field is included when includeHours is true
// or the offset reaches one hour.
func FormatTimecode(seconds float64, includeHours bool) (string, error) {
	if seconds < 0 {
		return "", services.Wrap(services.ErrValidation, "timecode", "format", fmt.Sprintf("negative offset %f", seconds), nil)
	}
	millis := int64(math.Round(seconds * 1000))
	hours := millis / 3_600_000
	millis -= hours * 3_600_000
	minutes := millis / 60_000
	millis -= minutes * 60_000
	secs := millis / 1000
	millis -= secs * 1000

	if includeHours || hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis), nil
	}
	return fmt.Sprintf("%02d:%02d,%03d", minutes, secs, millis), nil
}

// ParseTimecode converts an SRT timestamp back to seconds. Both HH:MM:SS,mmm
// and MM:SS,mmm forms are accepted, with comma or period before milliseconds.
func ParseTimecode(value string) (float64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, parseError(value, "empty timestamp")
	}
	normalized := strings.ReplaceAll(trimmed, ".", ",")
	timeParts := strings.Split(normalized, ",")
	if len(timeParts) != 2 {
		return 0, parseError(value, "missing millisecond separator")
	}

	fields := strings.Split(timeParts[0], ":")
	var hours, minutes, secs int
	var errH, errM, errS error
	switch len(fields) {
	case 3:
		hours, errH = strconv.Atoi(fields[0])
		minutes, errM = strconv.Atoi(fields[1])
		secs, errS = strconv.Atoi(fields[2])
	case 2:
		minutes, errM = strconv.Atoi(fields[0])
		secs, errS = strconv.Atoi(fields[1])
	default:
		return 0, parseError(value, "expected HH:MM:SS or MM:SS")
	}
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, parseError(value, "non-numeric field")
	}
	if hours < 0 || minutes < 0 || minutes > 59 || secs < 0 || secs > 59 || millis < 0 || millis > 999 {
		return 0, parseError(value, "field out of range")
	}
	return float64(hours*3600+minutes*60+secs) + float64(millis)/1000, nil
}

func parseError(value, reason string) error {
	return services.Wrap(services.ErrValidation, "timecode", "parse", fmt.Sprintf("%s in %q", reason, value), nil)
}
