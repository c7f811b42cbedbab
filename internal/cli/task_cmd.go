package cli

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dori/gtdsync/internal/cli/formatter"
	"github.com/dori/gtdsync/internal/dateparse"
	"github.com/dori/gtdsync/internal/model"
	"github.com/spf13/cobra"
)

const upcomingDays = 7

func newAddCmd(rt *runtime) *cobra.Command {
	var project, status, description string

	cmd := &cobra.Command{
		Use:   "add TEXT...",
		Short: "Capture a task",
		Long: `Capture a task. The text may carry quick-add tokens:

  @tag          attach a tag, created if missing
  !low !medium !high
  due:friday    due:tomorrow  due:2024-06-01

Without due:, a date word in the title (today, tomorrow, a weekday, or the
German heute, morgen, montag...) sets the due date and is removed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			q := dateparse.ParseQuickAdd(strings.Join(args, " "), rt.now())

			draft := model.TaskDraft{
				Title:       q.Title,
				Description: description,
				Status:      model.Status(status),
				Priority:    q.Priority,
			}
			if q.DueDate != nil {
				due := q.DueDate.UnixMilli()
				draft.DueDate = &due
			}
			if project != "" {
				p, err := resolveProject(ctx, rt, project)
				if err != nil {
					return err
				}
				draft.ProjectID = &p.ID
			}
			ids, err := ensureTags(ctx, rt, q.Tags)
			if err != nil {
				return err
			}
			draft.TagIDs = ids

			task, err := rt.app.Tasks.Create(ctx, draft)
			if err != nil {
				return err
			}
			printOut(cmd, rt.out.Success("Added %s %s", formatter.ShortID(task.ID), task.Title))
			return nil
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "Project name or ID")
	cmd.Flags().StringVarP(&status, "status", "s", "", "Status (inbox, next, waiting, someday)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Longer notes")

	return cmd
}

var listViews = []string{"open", "all", "inbox", "today", "tomorrow", "overdue", "upcoming", "next", "waiting", "someday", "completed"}

func newListCmd(rt *runtime) *cobra.Command {
	var project, tag, search string
	var days int

	cmd := &cobra.Command{
		Use:       "list [VIEW]",
		Short:     "List tasks",
		Long:      "List tasks. VIEW is one of: " + strings.Join(listViews, ", ") + " (default open).",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: listViews,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			view := "open"
			if len(args) == 1 {
				view = strings.ToLower(args[0])
			}

			tasks, err := viewTasks(ctx, rt, view, days)
			if err != nil {
				return err
			}

			if project != "" {
				p, err := resolveProject(ctx, rt, project)
				if err != nil {
					return err
				}
				tasks = slices.DeleteFunc(tasks, func(t model.Task) bool { return !t.InProject(p.ID) })
			}
			if tag != "" {
				tg, err := resolveTag(ctx, rt, tag)
				if err != nil {
					return err
				}
				tasks = slices.DeleteFunc(tasks, func(t model.Task) bool { return !t.HasTag(tg.ID) })
			}
			if search != "" {
				found, err := rt.app.Tasks.Search(ctx, search)
				if err != nil {
					return err
				}
				tasks = slices.DeleteFunc(tasks, func(t model.Task) bool {
					return !slices.ContainsFunc(found, func(f model.Task) bool { return f.ID == t.ID })
				})
			}

			lookup, err := rt.lookup(ctx)
			if err != nil {
				return err
			}
			printOut(cmd, rt.out.Header(view))
			printOut(cmd, rt.out.TaskList(tasks, lookup))
			return nil
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "Only tasks in this project")
	cmd.Flags().StringVarP(&tag, "tag", "t", "", "Only tasks with this tag")
	cmd.Flags().StringVarP(&search, "search", "q", "", "Only tasks whose title or description contains this")
	cmd.Flags().IntVar(&days, "days", upcomingDays, "Days ahead for the upcoming view")

	return cmd
}

func viewTasks(ctx context.Context, rt *runtime, view string, days int) ([]model.Task, error) {
	tasks := rt.app.Tasks
	open := func(list []model.Task, err error) ([]model.Task, error) {
		if err != nil {
			return nil, err
		}
		return slices.DeleteFunc(list, func(t model.Task) bool { return t.Completed }), nil
	}

	switch view {
	case "open":
		list, err := open(tasks.All(ctx))
		return byPriority(list), err
	case "all":
		list, err := tasks.All(ctx)
		return byPriority(list), err
	case "inbox":
		return tasks.Inbox(ctx)
	case "today":
		return tasks.Today(ctx)
	case "tomorrow":
		return tasks.Tomorrow(ctx)
	case "overdue":
		return tasks.Overdue(ctx)
	case "upcoming":
		return tasks.Upcoming(ctx, days)
	case "next", "waiting", "someday":
		return open(tasks.ByStatus(ctx, model.Status(view)))
	case "completed", "done":
		return tasks.Completed(ctx)
	}
	return nil, fmt.Errorf("unknown view %q (want one of %s)", view, strings.Join(listViews, ", "))
}

// byPriority puts open tasks before completed ones and high priority first.
// Ties keep their stored order.
func byPriority(tasks []model.Task) []model.Task {
	slices.SortStableFunc(tasks, func(a, b model.Task) int {
		if a.Completed != b.Completed {
			if a.Completed {
				return 1
			}
			return -1
		}
		return cmp.Compare(b.PriorityWeight(), a.PriorityWeight())
	})
	return tasks
}

func newShowCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			task, err := resolveTask(ctx, rt, args[0])
			if err != nil {
				return err
			}
			lookup, err := rt.lookup(ctx)
			if err != nil {
				return err
			}
			printOut(cmd, rt.out.Task(task, lookup))
			return nil
		},
	}
}

func newEditCmd(rt *runtime) *cobra.Command {
	var title, description, status, priority, due, project string
	var tags []string

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change a task",
		Long: `Change a task. Only the flags given are applied.

An inbox task that gets a due date or another status leaves the inbox.
--due and --project accept "none" to clear. Each --tag toggles that tag.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			task, err := resolveTask(ctx, rt, args[0])
			if err != nil {
				return err
			}

			var patch model.TaskPatch
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("description") {
				patch.Description = &description
			}
			if flags.Changed("status") {
				s := model.Status(strings.ToLower(status))
				patch.Status = &s
			}
			if flags.Changed("priority") {
				p := model.Priority(strings.ToLower(strings.TrimPrefix(priority, "!")))
				if p == "none" {
					p = ""
				}
				patch.Priority = &p
			}
			if flags.Changed("due") {
				if strings.EqualFold(due, "none") {
					patch.DueDate = model.Null[int64]()
				} else {
					at, ok := dateparse.ParseDue(due, rt.now())
					if !ok {
						return fmt.Errorf("%w: cannot read due date %q", model.ErrValidation, due)
					}
					patch.DueDate = model.Set(at.UnixMilli())
				}
			}
			if flags.Changed("project") {
				if strings.EqualFold(project, "none") {
					patch.ProjectID = model.Null[string]()
				} else {
					p, err := resolveProject(ctx, rt, project)
					if err != nil {
						return err
					}
					patch.ProjectID = model.Set(p.ID)
				}
			}
			if len(tags) > 0 {
				ids, err := ensureTags(ctx, rt, tags)
				if err != nil {
					return err
				}
				next := slices.Clone(task.TagIDs)
				for _, id := range ids {
					if i := slices.Index(next, id); i >= 0 {
						next = slices.Delete(next, i, i+1)
					} else {
						next = append(next, id)
					}
				}
				patch.TagIDs = &next
			}

			updated, err := rt.app.Tasks.Update(ctx, task.ID, patch)
			if err != nil {
				return err
			}
			printOut(cmd, rt.out.Success("Updated %s %s (%s)", formatter.ShortID(updated.ID), updated.Title, updated.Status))
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New notes")
	cmd.Flags().StringVarP(&status, "status", "s", "", "inbox, next, waiting or someday")
	cmd.Flags().StringVar(&priority, "priority", "", "low, medium, high or none")
	cmd.Flags().StringVar(&due, "due", "", "Date word, YYYY-MM-DD or none")
	cmd.Flags().StringVarP(&project, "project", "p", "", "Project name or ID, or none")
	cmd.Flags().StringArrayVarP(&tags, "tag", "t", nil, "Tag to toggle (repeatable)")

	return cmd
}

func newDoneCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "done ID...",
		Short: "Complete tasks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			for _, arg := range args {
				task, err := resolveTask(ctx, rt, arg)
				if err != nil {
					return err
				}
				if _, err := rt.app.Tasks.Complete(ctx, task.ID); err != nil {
					return err
				}
				printOut(cmd, rt.out.Success("Completed %s", task.Title))
			}
			return nil
		},
	}
}

func newUndoCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "undo ID",
		Short: "Reopen a completed task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			task, err := resolveTask(ctx, rt, args[0])
			if err != nil {
				return err
			}
			if _, err := rt.app.Tasks.Uncomplete(ctx, task.ID); err != nil {
				return err
			}
			printOut(cmd, rt.out.Success("Reopened %s", task.Title))
			return nil
		},
	}
}

func newRemoveCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID...",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete tasks",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			for _, arg := range args {
				task, err := resolveTask(ctx, rt, arg)
				if err != nil {
					return err
				}
				if err := rt.app.Tasks.Delete(ctx, task.ID); err != nil {
					return err
				}
				printOut(cmd, rt.out.Success("Deleted %s", task.Title))
			}
			return nil
		},
	}
}

func newArchiveCmd(rt *runtime) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Remove tasks completed more than --days days ago",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("days") {
				days = rt.cfg.Archive.Days
			}
			removed, err := rt.app.Tasks.ArchiveOlderThan(cmd.Context(), days)
			if err != nil {
				return err
			}
			printOut(cmd, rt.out.Success("Archived %d completed task(s) older than %d days", removed, days))
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "Age in days (default from config, 30)")

	return cmd
}

func (rt *runtime) lookup(ctx context.Context) (formatter.Lookup, error) {
	active, err := rt.app.Projects.All(ctx)
	if err != nil {
		return formatter.Lookup{}, err
	}
	archived, err := rt.app.Projects.Archived(ctx)
	if err != nil {
		return formatter.Lookup{}, err
	}
	tags, err := rt.app.Tags.All(ctx)
	if err != nil {
		return formatter.Lookup{}, err
	}
	return formatter.NewLookup(append(active, archived...), tags), nil
}

// ensureTags maps tag names to ids, creating tags that do not exist yet.
func ensureTags(ctx context.Context, rt *runtime, names []string) ([]string, error) {
	ids := make([]string, 0, len(names))
	for _, name := range names {
		tags, err := rt.app.Tags.All(ctx)
		if err != nil {
			return nil, err
		}
		if i := tagByName(tags, name); i >= 0 {
			ids = append(ids, tags[i].ID)
			continue
		}
		tag, err := rt.app.Tags.GetOrCreateByName(ctx, tagName(name))
		if err != nil {
			return nil, err
		}
		ids = append(ids, tag.ID)
	}
	return ids, nil
}
