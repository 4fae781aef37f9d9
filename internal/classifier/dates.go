package classifier

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Natural-language due-date parsing. This is a pure utility consumed by
// parameter extraction; it recognizes one date expression per message and
// reports where in the text it matched so the caller can cut it out.

var dueDateRe = regexp.MustCompile(`(?i)\b(?:(?:due|by|on|for)\s+)?` +
	`(today|tonight|tomorrow|next week|(next\s+)?(monday|tuesday|wednesday|thursday|friday|saturday|sunday)|in\s+(\d+)\s+(day|days|week|weeks)|(\d{4}-\d{2}-\d{2}))` +
	`(?:\s+at\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)?)?\b`)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseDueDate extracts a due date from text relative to now. It returns the
// resolved time, the byte span of the matched expression, and whether a date
// was found. Expressions without an explicit time of day resolve to the end
// of that day ("tonight" resolves to 20:00).
func ParseDueDate(text string, now time.Time) (time.Time, int, int, bool) {
	m := dueDateRe.FindStringSubmatchIndex(text)
	if m == nil {
		return time.Time{}, 0, 0, false
	}

	sub := func(i int) string {
		start, end := m[2*i], m[2*i+1]
		if start < 0 {
			return ""
		}
		return text[start:end]
	}

	day := strings.ToLower(sub(1))
	hasNext := sub(2) != ""
	weekday := strings.ToLower(sub(3))
	amount := sub(4)
	unit := strings.ToLower(sub(5))
	isoDate := sub(6)
	hourStr := sub(7)
	minuteStr := sub(8)
	meridiem := strings.ToLower(sub(9))

	var due time.Time
	switch {
	case isoDate != "":
		parsed, err := time.ParseInLocation("2006-01-02", isoDate, now.Location())
		if err != nil {
			return time.Time{}, 0, 0, false
		}
		due = parsed
	case amount != "":
		n, err := strconv.Atoi(amount)
		if err != nil {
			return time.Time{}, 0, 0, false
		}
		if strings.HasPrefix(unit, "week") {
			n *= 7
		}
		due = now.AddDate(0, 0, n)
	case weekday != "":
		target := weekdays[weekday]
		days := (int(target) - int(now.Weekday()) + 7) % 7
		if days == 0 {
			days = 7
		}
		if hasNext {
			days += 7
		}
		due = now.AddDate(0, 0, days)
	case day == "today" || day == "tonight":
		due = now
	case day == "tomorrow":
		due = now.AddDate(0, 0, 1)
	case day == "next week":
		due = now.AddDate(0, 0, 7)
	default:
		return time.Time{}, 0, 0, false
	}

	hour, minute := 23, 59
	if day == "tonight" {
		hour, minute = 20, 0
	}
	if hourStr != "" {
		h, err := strconv.Atoi(hourStr)
		if err != nil || h > 23 {
			return time.Time{}, 0, 0, false
		}
		if meridiem == "pm" && h < 12 {
			h += 12
		}
		if meridiem == "am" && h == 12 {
			h = 0
		}
		hour, minute = h, 0
		if minuteStr != "" {
			mm, err := strconv.Atoi(minuteStr)
			if err != nil || mm > 59 {
				return time.Time{}, 0, 0, false
			}
			minute = mm
		}
	}

	due = time.Date(due.Year(), due.Month(), due.Day(), hour, minute, 0, 0, now.Location())
	return due, m[0], m[1], true
}
