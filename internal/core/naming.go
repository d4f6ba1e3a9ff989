package core

import (
	"regexp"
	"strings"
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// Sanitize replaces every character outside [A-Za-z0-9_-] with '_'.
func Sanitize(s string) string {
	return unsafeNameChars.ReplaceAllString(s, "_")
}

// TaskName derives the stable task name shared by the OS entry and the catalog row.
// An explicit name wins; otherwise the theme, otherwise a description of the pattern.
func TaskName(req ScheduleRequest) string {
	if name := strings.TrimSpace(req.Name); name != "" {
		name = Sanitize(strings.TrimPrefix(name, TaskPrefix))
		if strings.Trim(name, "_") != "" {
			return TaskPrefix + name
		}
	}
	if theme := strings.TrimSpace(req.Theme); theme != "" {
		return TaskPrefix + Sanitize(theme)
	}
	return TaskPrefix + Sanitize(fallbackName(req))
}

func fallbackName(req ScheduleRequest) string {
	freq := strings.ToLower(strings.TrimSpace(req.Frequency))
	clock := strings.ReplaceAll(strings.TrimSpace(req.Time), ":", "")
	parts := []string{freq}
	switch Frequency(freq) {
	case FrequencyWeekly:
		parts = append(parts, strings.ToLower(strings.TrimSpace(req.Weekday)))
	case FrequencyMonthly:
		parts = append(parts, strings.ToLower(strings.TrimSpace(req.DaySpec)))
	}
	parts = append(parts, clock)
	return strings.Join(parts, "_")
}
