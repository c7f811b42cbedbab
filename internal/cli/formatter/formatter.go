// Package formatter renders tasks, projects, tags and sync state for the
// terminal.
package formatter

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dori/gtdsync/internal/model"
)

const dateLayout = "Mon 2006-01-02"

// Formatter renders output, styled when color is enabled
type Formatter struct {
	styles Styles
	color  bool
	now    time.Time
}

// New creates a Formatter. now anchors relative dates and overdue marks.
func New(color bool, now time.Time) *Formatter {
	f := &Formatter{color: color, now: now}
	if color {
		f.styles = NewStyles(Nord)
	}
	return f
}

func (f *Formatter) paint(st lipgloss.Style, text string) string {
	if !f.color || text == "" {
		return text
	}
	return st.Render(text)
}

// Header renders a section header with an underline
func (f *Formatter) Header(text string) string {
	upper := strings.ToUpper(text)
	return f.paint(f.styles.Header, upper) + "\n" + f.paint(f.styles.Dim, strings.Repeat("─", lipgloss.Width(upper)))
}

// Success renders a confirmation line
func (f *Formatter) Success(format string, args ...any) string {
	return f.paint(f.styles.Success, "✓ ") + fmt.Sprintf(format, args...)
}

// Dim renders text in the muted color
func (f *Formatter) Dim(text string) string {
	return f.paint(f.styles.Dim, text)
}

// Lookup resolves the weak references a task carries
type Lookup struct {
	Projects map[string]model.Project
	Tags     map[string]model.Tag
}

// NewLookup indexes projects and tags by id
func NewLookup(projects []model.Project, tags []model.Tag) Lookup {
	l := Lookup{
		Projects: make(map[string]model.Project, len(projects)),
		Tags:     make(map[string]model.Tag, len(tags)),
	}
	for _, p := range projects {
		l.Projects[p.ID] = p
	}
	for _, t := range tags {
		l.Tags[t.ID] = t
	}
	return l
}

func (l Lookup) projectName(t model.Task) string {
	if t.ProjectID == nil {
		return ""
	}
	if p, ok := l.Projects[*t.ProjectID]; ok {
		return p.Name
	}
	return ""
}

func (l Lookup) tagNames(t model.Task) []string {
	names := make([]string, 0, len(t.TagIDs))
	for _, id := range t.TagIDs {
		if tag, ok := l.Tags[id]; ok {
			names = append(names, tag.DisplayName())
		}
	}
	return names
}

// TaskList renders tasks as a table
func (f *Formatter) TaskList(tasks []model.Task, lookup Lookup) string {
	if len(tasks) == 0 {
		return f.Dim("No tasks.")
	}
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{
			f.Dim(ShortID(t.ID)),
			f.checkbox(t),
			f.title(t),
			f.status(t.Status),
			f.priority(t.Priority),
			f.due(t),
			f.paint(f.styles.Project, lookup.projectName(t)),
			f.paint(f.styles.Tag, strings.Join(lookup.tagNames(t), " ")),
		})
	}
	return f.table([]string{"ID", "", "TITLE", "STATUS", "PRI", "DUE", "PROJECT", "TAGS"}, rows)
}

// Task renders every field of one task
func (f *Formatter) Task(t model.Task, lookup Lookup) string {
	var b strings.Builder
	b.WriteString(f.checkbox(t) + " " + f.paint(f.styles.Title, t.Title) + "\n")

	field := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(&b, "  %s %s\n", f.paint(f.styles.Label, fmt.Sprintf("%-10s", label)), value)
	}
	field("id", t.ID)
	field("status", f.status(t.Status))
	field("priority", f.priority(t.Priority))
	field("due", f.due(t))
	field("project", f.paint(f.styles.Project, lookup.projectName(t)))
	field("tags", f.paint(f.styles.Tag, strings.Join(lookup.tagNames(t), " ")))
	if t.CompletedAt != nil {
		field("completed", time.UnixMilli(*t.CompletedAt).In(f.now.Location()).Format(dateLayout+" 15:04"))
	}
	field("created", time.UnixMilli(t.CreatedAt).In(f.now.Location()).Format(dateLayout+" 15:04"))
	if t.Description != "" {
		b.WriteString("\n")
		for _, line := range strings.Split(t.Description, "\n") {
			b.WriteString("  " + line + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// ProjectCount is the per-project task tally shown in listings
type ProjectCount struct {
	Open      int
	Completed int
}

// ProjectList renders projects with their task counts
func (f *Formatter) ProjectList(projects []model.Project, counts map[string]ProjectCount) string {
	if len(projects) == 0 {
		return f.Dim("No projects.")
	}
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		c := counts[p.ID]
		rows = append(rows, []string{
			f.Dim(ShortID(p.ID)),
			f.paint(f.styles.Title, p.Name),
			fmt.Sprintf("%d open", c.Open),
			f.Dim(fmt.Sprintf("%d done", c.Completed)),
			p.Goal,
		})
	}
	return f.table([]string{"ID", "NAME", "OPEN", "DONE", "GOAL"}, rows)
}

// TagList renders tags with how many tasks carry them
func (f *Formatter) TagList(tags []model.Tag, usage map[string]int) string {
	if len(tags) == 0 {
		return f.Dim("No tags.")
	}
	rows := make([][]string, 0, len(tags))
	for _, t := range tags {
		rows = append(rows, []string{
			f.Dim(ShortID(t.ID)),
			f.paint(f.styles.Tag, t.DisplayName()),
			fmt.Sprintf("%d", usage[t.ID]),
		})
	}
	return f.table([]string{"ID", "TAG", "TASKS"}, rows)
}

// SyncStatus is what `sync status` shows
type SyncStatus struct {
	Configured bool
	URL        string
	Username   string
	State      string
	LastSync   *int64
	LastResult string
	LastOK     bool
}

// Sync renders the sync configuration and last outcome
func (f *Formatter) Sync(s SyncStatus) string {
	if !s.Configured {
		return f.Dim("WebDAV sync is not configured. Run `gtdsync sync configure`.")
	}
	var b strings.Builder
	line := func(label, value string) {
		fmt.Fprintf(&b, "%s %s\n", f.paint(f.styles.Label, fmt.Sprintf("%-10s", label)), value)
	}
	line("server", s.URL)
	line("user", s.Username)
	line("state", s.State)
	if s.LastSync != nil {
		at := time.UnixMilli(*s.LastSync).In(f.now.Location())
		line("last sync", at.Format(dateLayout+" 15:04:05")+" "+f.Dim("("+RelativeDate(at, f.now)+")"))
	} else {
		line("last sync", f.Dim("never"))
	}
	if s.LastResult != "" {
		st := f.styles.Failure
		if s.LastOK {
			st = f.styles.Success
		}
		line("result", f.paint(st, s.LastResult))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (f *Formatter) checkbox(t model.Task) string {
	if t.Completed {
		return f.paint(f.styles.Success, "[x]")
	}
	return "[ ]"
}

func (f *Formatter) title(t model.Task) string {
	switch {
	case t.Completed:
		return f.paint(f.styles.Done, t.Title)
	case t.IsOverdue(dayStart(f.now)):
		return f.paint(f.styles.Overdue, t.Title)
	}
	return t.Title
}

func (f *Formatter) status(s model.Status) string {
	return f.paint(f.styles.Status[s], string(s))
}

func (f *Formatter) priority(p model.Priority) string {
	return f.paint(f.styles.Priority[p], string(p))
}

func (f *Formatter) due(t model.Task) string {
	if t.DueDate == nil {
		return ""
	}
	at := time.UnixMilli(*t.DueDate).In(f.now.Location())
	text := at.Format(dateLayout)
	if rel := RelativeDate(at, f.now); rel != "" {
		text += " (" + rel + ")"
	}
	if t.IsOverdue(dayStart(f.now)) {
		return f.paint(f.styles.Overdue, text)
	}
	return f.paint(f.styles.Due, text)
}

// RelativeDate names the calendar-day distance from now to t, for the next
// and previous week. Further dates yield "".
func RelativeDate(t, now time.Time) string {
	days := calendarDays(dayStart(now), dayStart(t))
	switch {
	case days == 0:
		return "today"
	case days == 1:
		return "tomorrow"
	case days == -1:
		return "yesterday"
	case days > 1 && days < 7:
		return fmt.Sprintf("in %dd", days)
	case days < -1 && days > -7:
		return fmt.Sprintf("%dd ago", -days)
	}
	return ""
}

// ShortID returns the random suffix of an id, which is what users type.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[len(id)-8:]
}

func (f *Formatter) table(headers []string, rows [][]string) string {
	cols := len(headers)
	widths := make([]int, cols)
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < cols && i < len(row); i++ {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}

	// Drop columns that are empty in every row.
	keep := make([]bool, cols)
	for i := range headers {
		keep[i] = slices.ContainsFunc(rows, func(r []string) bool { return i < len(r) && r[i] != "" })
	}

	const colGap = 2
	var b strings.Builder
	writeRow := func(cells []string, render func(i int, cell string) string) {
		var line strings.Builder
		for i := range cols {
			if !keep[i] {
				continue
			}
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			line.WriteString(render(i, cell))
			line.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(cell)+colGap))
		}
		b.WriteString(strings.TrimRight(line.String(), " "))
		b.WriteString("\n")
	}

	writeRow(headers, func(_ int, cell string) string { return f.paint(f.styles.Header, cell) })
	seps := make([]string, cols)
	for i, w := range widths {
		seps[i] = strings.Repeat("─", w)
	}
	writeRow(seps, func(_ int, cell string) string { return f.Dim(cell) })
	for _, row := range rows {
		writeRow(row, func(_ int, cell string) string { return cell })
	}
	return strings.TrimRight(b.String(), "\n")
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func calendarDays(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 12, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 12, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
