package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dori/gtdsync/internal/app"
	"github.com/dori/gtdsync/internal/cli/formatter"
	"github.com/dori/gtdsync/internal/config"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// Version is reported by --version
var Version = "dev"

// runtime is what every command runs against. The app is opened once the
// command line has been parsed, so --verbose can route its logs.
type runtime struct {
	cfg     *config.Config
	now     func() time.Time
	verbose bool
	app     *app.App
	out     *formatter.Formatter
}

func (rt *runtime) open(cmd *cobra.Command) error {
	if rt.app != nil {
		return nil
	}
	var logOut io.Writer
	if rt.verbose {
		logOut = cmd.ErrOrStderr()
	}
	a, err := app.New(cmd.Context(), rt.cfg, logOut)
	if err != nil {
		return err
	}
	rt.app = a
	rt.out = formatter.New(useColor(cmd.OutOrStdout()), rt.now())
	return nil
}

func (rt *runtime) close() error {
	if rt.app == nil {
		return nil
	}
	err := rt.app.Close()
	rt.app = nil
	return err
}

// Run builds the command tree, executes args against cfg and releases the
// data directory afterwards.
func Run(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	rt := &runtime{cfg: cfg, now: time.Now}
	root := newRootCmd(rt)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if cerr := rt.close(); err == nil {
		err = cerr
	}
	return err
}

func newRootCmd(rt *runtime) *cobra.Command {
	root := &cobra.Command{
		Use:           "gtdsync",
		Short:         "GTD task organizer with WebDAV sync",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.open(cmd)
		},
	}
	root.PersistentFlags().BoolVarP(&rt.verbose, "verbose", "v", false, "Log use cases and sync phases to stderr")

	root.AddCommand(
		newAddCmd(rt),
		newListCmd(rt),
		newShowCmd(rt),
		newEditCmd(rt),
		newDoneCmd(rt),
		newUndoCmd(rt),
		newRemoveCmd(rt),
		newArchiveCmd(rt),
		newProjectCmd(rt),
		newTagCmd(rt),
		newExportCmd(rt),
		newImportCmd(rt),
		newResetCmd(rt),
		newSyncCmd(rt),
	)

	return root
}

func useColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func printOut(cmd *cobra.Command, s string) {
	fmt.Fprintln(cmd.OutOrStdout(), s)
}
