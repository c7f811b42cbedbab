package cli

import (
	"strings"

	"github.com/dori/gtdsync/internal/cli/formatter"
	"github.com/dori/gtdsync/internal/model"
	"github.com/spf13/cobra"
)

func newProjectCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects"},
		Short:   "Manage projects",
	}

	cmd.AddCommand(
		newProjectAddCmd(rt),
		newProjectListCmd(rt, false),
		newProjectListCmd(rt, true),
		newProjectEditCmd(rt),
		newProjectArchiveCmd(rt, true),
		newProjectArchiveCmd(rt, false),
		newProjectRemoveCmd(rt),
	)

	return cmd
}

func newProjectAddCmd(rt *runtime) *cobra.Command {
	var draft model.ProjectDraft

	cmd := &cobra.Command{
		Use:   "add NAME...",
		Short: "Create a project",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft.Name = strings.Join(args, " ")
			p, err := rt.app.Projects.Create(cmd.Context(), draft)
			if err != nil {
				return err
			}
			printOut(cmd, rt.out.Success("Created project %s [%s]", p.Name, formatter.ShortID(p.ID)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&draft.Description, "description", "d", "", "Project description")
	cmd.Flags().StringVarP(&draft.Goal, "goal", "g", "", "Desired outcome")
	cmd.Flags().StringVar(&draft.Color, "color", "", "Display color, e.g. #88C0D0")

	return cmd
}

func newProjectListCmd(rt *runtime, archived bool) *cobra.Command {
	use, short := "list", "List active projects"
	if archived {
		use, short = "archived", "List archived projects"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			list := rt.app.Projects.All
			if archived {
				list = rt.app.Projects.Archived
			}
			projects, err := list(ctx)
			if err != nil {
				return err
			}
			counts, err := rt.app.Projects.TaskCounts(ctx)
			if err != nil {
				return err
			}
			tallies := make(map[string]formatter.ProjectCount, len(counts))
			for id, c := range counts {
				tallies[id] = formatter.ProjectCount{Open: c.Open, Completed: c.Completed}
			}
			printOut(cmd, rt.out.ProjectList(projects, tallies))
			return nil
		},
	}
}

func newProjectEditCmd(rt *runtime) *cobra.Command {
	var name, description, goal, color string

	cmd := &cobra.Command{
		Use:   "edit PROJECT",
		Short: "Change a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, rt, args[0])
			if err != nil {
				return err
			}

			var patch model.ProjectPatch
			flags := cmd.Flags()
			if flags.Changed("name") {
				patch.Name = &name
			}
			if flags.Changed("description") {
				patch.Description = &description
			}
			if flags.Changed("goal") {
				patch.Goal = &goal
			}
			if flags.Changed("color") {
				patch.Color = &color
			}

			updated, err := rt.app.Projects.Update(ctx, p.ID, patch)
			if err != nil {
				return err
			}
			printOut(cmd, rt.out.Success("Updated project %s", updated.Name))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	cmd.Flags().StringVarP(&goal, "goal", "g", "", "New goal")
	cmd.Flags().StringVar(&color, "color", "", "New color")

	return cmd
}

func newProjectArchiveCmd(rt *runtime, archive bool) *cobra.Command {
	use, short, verb := "unarchive PROJECT", "Restore an archived project", "Restored"
	if archive {
		use, short, verb = "archive PROJECT", "Hide a project from the active list", "Archived"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, rt, args[0])
			if err != nil {
				return err
			}
			op := rt.app.Projects.Unarchive
			if archive {
				op = rt.app.Projects.Archive
			}
			if _, err := op(ctx, p.ID); err != nil {
				return err
			}
			printOut(cmd, rt.out.Success("%s project %s", verb, p.Name))
			return nil
		},
	}
}

func newProjectRemoveCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "rm PROJECT",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete a project; its tasks are kept",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, rt, args[0])
			if err != nil {
				return err
			}
			if err := rt.app.Projects.Delete(ctx, p.ID); err != nil {
				return err
			}
			printOut(cmd, rt.out.Success("Deleted project %s", p.Name))
			return nil
		},
	}
}
