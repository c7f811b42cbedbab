package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newExportCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "export [FILE]",
		Short: "Write all data as JSON to FILE or stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := rt.app.Store.Export(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) == 0 {
				printOut(cmd, text)
				return nil
			}
			if err := os.WriteFile(args[0], []byte(text+"\n"), 0600); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			printOut(cmd, rt.out.Success("Exported to %s", args[0]))
			return nil
		},
	}
}

func newImportCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Replace all data with an export (FILE - reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read import: %w", err)
			}
			if err := rt.app.Store.Import(cmd.Context(), string(data)); err != nil {
				return err
			}
			printOut(cmd, rt.out.Success("Imported %s", args[0]))
			return nil
		},
	}
}

func newResetCmd(rt *runtime) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all tasks, projects and tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("reset deletes all local data; pass --yes to confirm")
			}
			if err := rt.app.Store.Clear(cmd.Context()); err != nil {
				return err
			}
			printOut(cmd, rt.out.Success("All local data deleted"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")

	return cmd
}
