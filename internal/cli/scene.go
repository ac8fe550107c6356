package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/opencommotion/scenekit/internal/store"
)

// NewSummaryCommand creates the summary command.
func NewSummaryCommand(rootOpts *RootOptions) *cobra.Command {
	var sceneID string

	cmd := &cobra.Command{
		Use:           "summary",
		Short:         "Show a scene's digest and snapshots",
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

			view, err := s.StateView(sceneID)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load scene", err)
			}

			return formatter.Success(view, func(w io.Writer) {
				fmt.Fprintf(w, "scene %s at revision %d\n", view.Scene.SceneID, view.Scene.Revision)
				fmt.Fprintf(w, "  entities:  %d\n", view.Scene.EntityCount)
				fmt.Fprintf(w, "  materials: %d\n", view.Scene.MaterialCount)
				fmt.Fprintf(w, "  behaviors: %d\n", view.Scene.BehaviorCount)
				fmt.Fprintf(w, "  snapshots: %d\n", len(view.Snapshots))
			})
		},
	}

	cmd.Flags().StringVar(&sceneID, "scene", "default", "scene id")
	return cmd
}

// NewScenesCommand creates the scenes command.
func NewScenesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "scenes",
		Short:         "List every scene in the store",
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

			rows, err := s.ListScenes(cmd.Context())
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to list scenes", err)
			}

			return formatter.Success(rows, func(w io.Writer) {
				if len(rows) == 0 {
					fmt.Fprintln(w, "no scenes")
					return
				}
				for _, row := range rows {
					fmt.Fprintf(w, "%s\trev %d\t%d entities, %d materials, %d behaviors\n",
						row.SceneID, row.Revision, row.EntityCount, row.MaterialCount, row.BehaviorCount)
				}
			})
		},
	}
}
