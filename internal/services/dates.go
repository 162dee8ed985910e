package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Relative-date phrases and clock times are resolved deterministically so
// the common scheduling answers never need the external generator.

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

var (
	numericDate = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	slashDate   = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{2,4}))?\b`)
	clockTime   = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
	clock24Time = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
	atHour      = regexp.MustCompile(`\bat (\d{1,2})\b`)
)

// parseDate resolves a date phrase relative to now. Returns "" when nothing
// in the text reads as a date.
func parseDate(text string, now time.Time) string {
	msg := strings.ToLower(text)

	switch {
	case strings.Contains(msg, "day after tomorrow"):
		return now.AddDate(0, 0, 2).Format("2006-01-02")
	case strings.Contains(msg, "tomorrow"):
		return now.AddDate(0, 0, 1).Format("2006-01-02")
	case strings.Contains(msg, "today"):
		return now.Format("2006-01-02")
	}

	for name, wd := range weekdays {
		if !strings.Contains(msg, name) {
			continue
		}
		days := (int(wd) - int(now.Weekday()) + 7) % 7
		if days == 0 {
			days = 7 // bare weekday means the next occurrence, not today
		}
		// "next friday" on a Wednesday means the friday after this one.
		if strings.Contains(msg, "next "+name) && int(wd) > int(now.Weekday()) {
			days += 7
		}
		return now.AddDate(0, 0, days).Format("2006-01-02")
	}

	if m := numericDate.FindStringSubmatch(msg); m != nil {
		return fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3])
	}

	if m := slashDate.FindStringSubmatch(msg); m != nil {
		first, _ := strconv.Atoi(m[1])
		second, _ := strconv.Atoi(m[2])
		// Day-first when unambiguous (first > 12), month-first otherwise.
		month, day := first, second
		if first > 12 {
			month, day = second, first
		}
		year := now.Year()
		if m[3] != "" {
			y, _ := strconv.Atoi(m[3])
			if y < 100 {
				y += 2000
			}
			year = y
		}
		if month < 1 || month > 12 || day < 1 || day > 31 {
			return ""
		}
		candidate := time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())
		if m[3] == "" && candidate.Before(now.AddDate(0, 0, -1)) {
			candidate = candidate.AddDate(1, 0, 0)
		}
		return candidate.Format("2006-01-02")
	}

	return ""
}

// parseClock resolves a time phrase into "HH:MM". Returns "" when nothing in
// the text reads as a time of day.
func parseClock(text string) string {
	msg := strings.ToLower(text)

	if m := clockTime.FindStringSubmatch(msg); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if m[3] == "pm" && hour < 12 {
			hour += 12
		}
		if m[3] == "am" && hour == 12 {
			hour = 0
		}
		if hour > 23 || minute > 59 {
			return ""
		}
		return fmt.Sprintf("%02d:%02d", hour, minute)
	}

	if m := clock24Time.FindStringSubmatch(msg); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour > 23 || minute > 59 {
			return ""
		}
		return fmt.Sprintf("%02d:%02d", hour, minute)
	}

	if m := atHour.FindStringSubmatch(msg); m != nil {
		hour, _ := strconv.Atoi(m[1])
		if hour >= 1 && hour <= 7 {
			hour += 12 // "at 2" for a salon visit means the afternoon
		}
		if hour > 23 {
			return ""
		}
		return fmt.Sprintf("%02d:00", hour)
	}

	return ""
}

// combineDateTime builds the appointment start from the collected slots.
func combineDateTime(date, clock string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", date+" "+clock, loc)
}

// friendlyDate renders a slot date for customer-facing replies.
func friendlyDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.Format("Monday, Jan 2")
}

// friendlyClock renders a slot time for customer-facing replies.
func friendlyClock(clock string) string {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return clock
	}
	return t.Format("3:04 PM")
}
