package cli

import (
	"errors"
	"os"

	"github.com/dori/gtdsync/internal/cli/formatter"
	"github.com/dori/gtdsync/internal/webdavsync"
	"github.com/spf13/cobra"
)

func newSyncCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize with the WebDAV server",
		Long: `Synchronize with the WebDAV server.

The whole data set is exchanged. Whichever side synced last wins; changes
made on the other side since then are overwritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return reportSync(cmd, rt, rt.app.Sync.Sync(cmd.Context()))
		},
	}

	cmd.AddCommand(
		newSyncConfigureCmd(rt),
		newSyncStatusCmd(rt),
		&cobra.Command{
			Use:   "push",
			Short: "Overwrite the server copy with local data",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return reportSync(cmd, rt, rt.app.Sync.ForcePush(cmd.Context()))
			},
		},
		&cobra.Command{
			Use:   "pull",
			Short: "Replace local data with the server copy",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return reportSync(cmd, rt, rt.app.Sync.ForcePull(cmd.Context()))
			},
		},
		&cobra.Command{
			Use:   "disconnect",
			Short: "Forget the server; local data is kept",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := rt.app.Sync.Disconnect(cmd.Context()); err != nil {
					return err
				}
				printOut(cmd, rt.out.Success("Disconnected from WebDAV server"))
				return nil
			},
		},
	)

	return cmd
}

func newSyncConfigureCmd(rt *runtime) *cobra.Command {
	var url, user, password string

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Connect to a WebDAV or Nextcloud server",
		Long: `Connect to a WebDAV or Nextcloud server.

A bare Nextcloud address gets /remote.php/dav/files/USER appended. The
password may also come from GTDSYNC_WEBDAV_PASSWORD.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("GTDSYNC_WEBDAV_PASSWORD")
			}
			if err := rt.app.Sync.Configure(cmd.Context(), url, user, password); err != nil {
				return err
			}
			cfg, _ := rt.app.Sync.CurrentConfig()
			printOut(cmd, rt.out.Success("Connected to %s", cfg.URL))
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Server URL")
	cmd.Flags().StringVarP(&user, "user", "u", "", "Username")
	cmd.Flags().StringVar(&password, "password", "", "Password or app token")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}

func newSyncStatusCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the sync configuration and last result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := rt.app.Store.Cached(cmd.Context())
			if err != nil {
				return err
			}
			status := formatter.SyncStatus{
				State:    string(rt.app.Sync.State()),
				LastSync: doc.LastSync,
			}
			if cfg, ok := rt.app.Sync.CurrentConfig(); ok {
				status.Configured = true
				status.URL = cfg.URL
				status.Username = cfg.Username
			}
			if last := rt.app.Sync.LastResult(); last.Message != "" {
				status.LastResult = last.Message
				status.LastOK = last.Success
			}
			printOut(cmd, rt.out.Sync(status))
			return nil
		},
	}
}

func reportSync(cmd *cobra.Command, rt *runtime, res webdavsync.Result) error {
	if !res.Success {
		return errors.New(res.Message)
	}
	printOut(cmd, rt.out.Success("%s", res.Message))
	return nil
}
