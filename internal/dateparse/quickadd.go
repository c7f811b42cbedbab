package dateparse

import (
	"strings"
	"time"

	"github.com/dori/gtdsync/internal/model"
)

// QuickAdd is a task captured from one line of text
type QuickAdd struct {
	Title    string
	DueDate  *time.Time
	Priority model.Priority
	Tags     []string
}

// ParseQuickAdd parses the quick-add syntax:
//
//	Review PR @work !high due:friday
//
// Tags are @words, priority is !low/!medium/!high, and due: accepts what
// ParseDue does. Without due:, the title is scanned with Parse.
func ParseQuickAdd(text string, now time.Time) QuickAdd {
	var q QuickAdd
	var titleParts []string

	for _, word := range strings.Fields(text) {
		lower := strings.ToLower(word)
		switch {
		case len(word) > 1 && strings.HasPrefix(word, "@"):
			q.Tags = append(q.Tags, word)

		case len(word) > 1 && strings.HasPrefix(word, "!"):
			switch strings.TrimPrefix(lower, "!") {
			case "low", "l":
				q.Priority = model.PriorityLow
			case "medium", "med", "m":
				q.Priority = model.PriorityMedium
			case "high", "hi", "h":
				q.Priority = model.PriorityHigh
			default:
				titleParts = append(titleParts, word)
			}

		case strings.HasPrefix(lower, "due:"):
			if due, ok := ParseDue(strings.TrimPrefix(lower, "due:"), now); ok {
				q.DueDate = &due
			} else {
				titleParts = append(titleParts, word)
			}

		default:
			titleParts = append(titleParts, word)
		}
	}

	q.Title = strings.Join(titleParts, " ")
	if q.DueDate == nil {
		r := Parse(q.Title, now)
		q.Title = r.CleanedTitle
		q.DueDate = r.DetectedDate
	}
	return q
}

// shortWeekdays are the abbreviations due: accepts besides full names
var shortWeekdays = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// ParseDue resolves a date keyword, a short form (tom, mon..sun, nextweek)
// or a YYYY-MM-DD date to the end of that day in now's location.
func ParseDue(s string, now time.Time) (time.Time, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "tom":
		return endOfDay(now, 1), true
	case "nextweek":
		return endOfDay(now, 7), true
	}
	if day, ok := shortWeekdays[s]; ok {
		return endOfDay(now, daysUntil(now.Weekday(), day)), true
	}
	if d, ok := Keyword(s, now); ok {
		return d, true
	}
	t, err := time.ParseInLocation("2006-01-02", s, now.Location())
	if err != nil {
		return time.Time{}, false
	}
	return endOfDay(t, 0), true
}
