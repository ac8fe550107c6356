package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/opencommotion/scenekit/internal/store"
)

// NewSnapshotCommand creates the snapshot command.
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	var sceneID, name string

	cmd := &cobra.Command{
		Use:           "snapshot",
		Short:         "Write a point-in-time snapshot of a scene",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}

			s, err := store.Open(rootOpts.DataDir)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open store", err)
			}
			defer s.Close()

			info, err := s.Snapshot(sceneID, name)
			if err != nil {
				return WrapExitError(ExitCommandError, "snapshot failed", err)
			}

			return formatter.Success(info, func(w io.Writer) {
				fmt.Fprintf(w, "snapshot %s of scene %s (revision %d) written to %s\n",
					info.SnapshotID, info.SceneID, info.Summary.Revision, info.Path)
			})
		},
	}

	cmd.Flags().StringVar(&sceneID, "scene", "default", "scene id")
	cmd.Flags().StringVar(&name, "name", "", "snapshot name (random id when empty)")
	return cmd
}

// NewRestoreCommand creates the restore command.
func NewRestoreCommand(rootOpts *RootOptions) *cobra.Command {
	var sceneID string

	cmd := &cobra.Command{
		Use:           "restore <snapshot-id>",
		Short:         "Replace a scene with one of its snapshots",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}

			s, err := store.Open(rootOpts.DataDir)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open store", err)
			}
			defer s.Close()

			info, err := s.Restore(sceneID, args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "restore failed", err)
			}

			return formatter.Success(info, func(w io.Writer) {
				fmt.Fprintf(w, "scene %s restored from snapshot %s (revision %d)\n",
					info.SceneID, info.SnapshotID, info.Summary.Revision)
			})
		},
	}

	cmd.Flags().StringVar(&sceneID, "scene", "default", "scene id")
	return cmd
}

// NewSnapshotsCommand creates the snapshots command.
func NewSnapshotsCommand(rootOpts *RootOptions) *cobra.Command {
	var sceneID string

	cmd := &cobra.Command{
		Use:           "snapshots",
		Short:         "List a scene's snapshots, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}

			s, err := store.Open(rootOpts.DataDir)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open store", err)
			}
			defer s.Close()

			entries, err := s.ListSnapshots(sceneID)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to list snapshots", err)
			}

			return formatter.Success(entries, func(w io.Writer) {
				if len(entries) == 0 {
					fmt.Fprintln(w, "no snapshots")
					return
				}
				for _, entry := range entries {
					fmt.Fprintf(w, "%s\t%s\n", entry.SnapshotID, entry.UpdatedAt.Format(time.RFC3339))
				}
			})
		},
	}

	cmd.Flags().StringVar(&sceneID, "scene", "default", "scene id")
	return cmd
}
