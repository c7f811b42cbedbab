// Package dateparse detects relative due dates written into task titles.
package dateparse

import (
	"regexp"
	"strings"
	"time"
)

var (
	todayWords    = wordPatterns("today", "heute")
	tomorrowWords = wordPatterns("tomorrow", "morgen")

	// Indexed by time.Weekday.
	weekdaysEN = wordPatterns("sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday")
	weekdaysDE = wordPatterns("sonntag", "montag", "dienstag", "mittwoch", "donnerstag", "freitag", "samstag")

	whitespace = regexp.MustCompile(`\s+`)
)

// Result is the outcome of scanning a title
type Result struct {
	CleanedTitle string
	DetectedDate *time.Time
}

// Parse looks for one date keyword in title. "today" beats "tomorrow",
// which beats weekday names; English weekdays are tried before German ones,
// Sunday first. The matched keyword is removed and whitespace collapsed,
// unless that would leave nothing, in which case the title is returned as
// given. Detected dates are the last millisecond of the target day in now's
// location; weekdays always resolve to a future day, never today.
func Parse(title string, now time.Time) Result {
	kw, date, ok := findKeyword(title, now)
	if !ok {
		return Result{CleanedTitle: title}
	}

	cleaned := kw.ReplaceAllStringFunc(title, once())
	cleaned = strings.TrimSpace(whitespace.ReplaceAllString(cleaned, " "))
	if cleaned == "" {
		cleaned = title
	}
	return Result{CleanedTitle: cleaned, DetectedDate: &date}
}

// Keyword resolves a single keyword ("tomorrow", "freitag", ...) to a date
func Keyword(word string, now time.Time) (time.Time, bool) {
	_, date, ok := findKeyword(strings.TrimSpace(word), now)
	return date, ok
}

func findKeyword(title string, now time.Time) (*regexp.Regexp, time.Time, bool) {
	for _, re := range todayWords {
		if re.MatchString(title) {
			return re, endOfDay(now, 0), true
		}
	}
	for _, re := range tomorrowWords {
		if re.MatchString(title) {
			return re, endOfDay(now, 1), true
		}
	}
	for _, names := range [][]*regexp.Regexp{weekdaysEN, weekdaysDE} {
		for day, re := range names {
			if re.MatchString(title) {
				return re, endOfDay(now, daysUntil(now.Weekday(), time.Weekday(day))), true
			}
		}
	}
	return nil, time.Time{}, false
}

func wordPatterns(words ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(words))
	for i, w := range words {
		out[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(w) + `\b`)
	}
	return out
}

// once returns a replacer that blanks only the first match
func once() func(string) string {
	done := false
	return func(m string) string {
		if done {
			return m
		}
		done = true
		return ""
	}
}

func daysUntil(from, to time.Weekday) int {
	d := (int(to) - int(from) + 7) % 7
	if d == 0 {
		d = 7
	}
	return d
}

func endOfDay(now time.Time, addDays int) time.Time {
	d := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, int(999*time.Millisecond), now.Location())
	return d.AddDate(0, 0, addDays)
}
