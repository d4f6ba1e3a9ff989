package core

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	clockPattern   = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)
	ordinalPattern = regexp.MustCompile(`^([0-9]+)(st|nd|rd|th)_([a-z]+)$`)
	digitsPattern  = regexp.MustCompile(`^[0-9]+$`)
)

var weekdayAbbrev = map[string]time.Weekday{
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
	"sun": time.Sunday,
}

var weekdayNames = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// ValidateTime checks that s is an exact 24-hour HH:MM clock.
func ValidateTime(s string) error {
	_, _, err := ParseClock(s)
	return err
}

// ParseClock returns hour and minute of an HH:MM clock.
func ParseClock(s string) (int, int, error) {
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, patternErr(s, "time must be HH:MM (24-hour)")
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	return hour, minute, nil
}

func formatClock(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// ParseWeekday accepts a full lowercase weekday name or its three-letter abbreviation.
func ParseWeekday(s string) (time.Weekday, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if wd, ok := weekdayNames[key]; ok {
		return wd, nil
	}
	if wd, ok := weekdayAbbrev[key]; ok {
		return wd, nil
	}
	return 0, patternErr(s, "unknown weekday")
}

// WeekdayName returns the lowercase full name stored in the catalog.
func WeekdayName(wd time.Weekday) string {
	return strings.ToLower(wd.String())
}

// WeekdayAbbrev returns the lowercase three-letter form used by the monthly DSL.
func WeekdayAbbrev(wd time.Weekday) string {
	return strings.ToLower(wd.String()[:3])
}

// ParseMonthly parses the monthly DSL: "last_day", "last_<wkd>", "1".."31"
// and "<n>(st|nd|rd|th)_<wkd>" with n in 1..5.
func ParseMonthly(s string) (MonthlySpec, error) {
	token := strings.ToLower(strings.TrimSpace(s))
	switch {
	case token == "":
		return MonthlySpec{}, patternErr(s, "day spec is required")
	case token == "last_day":
		return MonthlySpec{Kind: MonthlyLastDay}, nil
	case strings.HasPrefix(token, "last_"):
		wd, ok := weekdayAbbrev[strings.TrimPrefix(token, "last_")]
		if !ok {
			return MonthlySpec{}, patternErr(s, "unknown weekday abbreviation")
		}
		return MonthlySpec{Kind: MonthlyLastWeekday, Weekday: wd}, nil
	case digitsPattern.MatchString(token):
		day, err := strconv.Atoi(token)
		if err != nil || day < 1 || day > 31 {
			return MonthlySpec{}, patternErr(s, "day must be between 1 and 31")
		}
		return MonthlySpec{Kind: MonthlyDate, Day: day}, nil
	}

	m := ordinalPattern.FindStringSubmatch(token)
	if m == nil {
		return MonthlySpec{}, patternErr(s, "unrecognized day spec")
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 || n > 5 {
		return MonthlySpec{}, patternErr(s, "ordinal must be between 1 and 5")
	}
	wd, ok := weekdayAbbrev[m[3]]
	if !ok {
		return MonthlySpec{}, patternErr(s, "unknown weekday abbreviation")
	}
	return MonthlySpec{Kind: MonthlyNthWeekday, Ordinal: n, Weekday: wd}, nil
}

// String returns the canonical day_spec that parses back to m.
func (m MonthlySpec) String() string {
	switch m.Kind {
	case MonthlyDate:
		return strconv.Itoa(m.Day)
	case MonthlyNthWeekday:
		return fmt.Sprintf("%d%s_%s", m.Ordinal, ordinalSuffix(m.Ordinal), WeekdayAbbrev(m.Weekday))
	case MonthlyLastWeekday:
		return "last_" + WeekdayAbbrev(m.Weekday)
	case MonthlyLastDay:
		return "last_day"
	default:
		return ""
	}
}

func ordinalSuffix(n int) string {
	switch n {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}

// Matches reports whether the calendar day of t satisfies m.
// It mirrors Predicate so that next-fire previews agree with runner scripts.
func (m MonthlySpec) Matches(t time.Time) bool {
	switch m.Kind {
	case MonthlyDate:
		return t.Day() == m.Day
	case MonthlyLastDay:
		return t.AddDate(0, 0, 1).Month() != t.Month()
	case MonthlyLastWeekday:
		return t.Weekday() == m.Weekday && t.AddDate(0, 0, 7).Month() != t.Month()
	case MonthlyNthWeekday:
		return t.Weekday() == m.Weekday && (t.Day()-1)/7+1 == m.Ordinal
	default:
		return false
	}
}

// Predicate renders the month-end check as a Python boolean expression over
// `today` (a datetime.date) and `timedelta`.
func (m MonthlySpec) Predicate() string {
	switch m.Kind {
	case MonthlyDate:
		return fmt.Sprintf("today.day == %d", m.Day)
	case MonthlyLastDay:
		return "(today + timedelta(days=1)).month != today.month"
	case MonthlyLastWeekday:
		return fmt.Sprintf("today.weekday() == %d and (today + timedelta(days=7)).month != today.month",
			pythonWeekday(m.Weekday))
	case MonthlyNthWeekday:
		return fmt.Sprintf("today.weekday() == %d and ((today.day - 1) // 7) + 1 == %d",
			pythonWeekday(m.Weekday), m.Ordinal)
	default:
		return "False"
	}
}

// pythonWeekday converts to date.weekday() numbering (Monday=0).
func pythonWeekday(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// ParsePattern validates the raw frequency fields of a request.
func ParsePattern(frequency, clock, weekday, daySpec string) (Pattern, error) {
	freq := Frequency(strings.ToLower(strings.TrimSpace(frequency)))
	switch freq {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
	default:
		return Pattern{}, patternErr(frequency, "frequency must be daily, weekly or monthly")
	}

	hour, minute, err := ParseClock(strings.TrimSpace(clock))
	if err != nil {
		return Pattern{}, err
	}
	p := Pattern{Frequency: freq, Hour: hour, Minute: minute}

	switch freq {
	case FrequencyWeekly:
		if strings.TrimSpace(weekday) == "" {
			return Pattern{}, patternErr(weekday, "weekly schedules require a weekday")
		}
		wd, err := ParseWeekday(weekday)
		if err != nil {
			return Pattern{}, err
		}
		p.Weekday = wd
	case FrequencyMonthly:
		spec, err := ParseMonthly(daySpec)
		if err != nil {
			return Pattern{}, err
		}
		p.Monthly = spec
	}
	return p, nil
}
