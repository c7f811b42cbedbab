package cli

import (
	"github.com/dori/gtdsync/internal/model"
	"github.com/spf13/cobra"
)

func newTagCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tag",
		Aliases: []string{"tags"},
		Short:   "Manage tags",
	}

	cmd.AddCommand(
		newTagAddCmd(rt),
		newTagListCmd(rt),
		newTagEditCmd(rt),
		newTagRemoveCmd(rt),
	)

	return cmd
}

func newTagAddCmd(rt *runtime) *cobra.Command {
	var color string

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tag, err := rt.app.Tags.Create(cmd.Context(), tagName(args[0]), color)
			if err != nil {
				return err
			}
			printOut(cmd, rt.out.Success("Created tag %s", tag.DisplayName()))
			return nil
		},
	}

	cmd.Flags().StringVar(&color, "color", "", "Display color")

	return cmd
}

func newTagListCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tags, err := rt.app.Tags.All(ctx)
			if err != nil {
				return err
			}
			tasks, err := rt.app.Tasks.All(ctx)
			if err != nil {
				return err
			}
			usage := make(map[string]int)
			for _, t := range tasks {
				for _, id := range t.TagIDs {
					usage[id]++
				}
			}
			printOut(cmd, rt.out.TagList(tags, usage))
			return nil
		},
	}
}

func newTagEditCmd(rt *runtime) *cobra.Command {
	var name, color string

	cmd := &cobra.Command{
		Use:   "edit TAG",
		Short: "Rename or recolor a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tag, err := resolveTag(ctx, rt, args[0])
			if err != nil {
				return err
			}
			var patch model.TagPatch
			if cmd.Flags().Changed("name") {
				n := tagName(name)
				patch.Name = &n
			}
			if cmd.Flags().Changed("color") {
				patch.Color = &color
			}
			updated, err := rt.app.Tags.Update(ctx, tag.ID, patch)
			if err != nil {
				return err
			}
			printOut(cmd, rt.out.Success("Updated tag %s", updated.DisplayName()))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&color, "color", "", "New color")

	return cmd
}

func newTagRemoveCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "rm TAG",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete a tag and detach it from every task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tag, err := resolveTag(ctx, rt, args[0])
			if err != nil {
				return err
			}
			if err := rt.app.Tags.Delete(ctx, tag.ID); err != nil {
				return err
			}
			printOut(cmd, rt.out.Success("Deleted tag %s", tag.DisplayName()))
			return nil
		},
	}
}
