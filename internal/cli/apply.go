package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/opencommotion/scenekit/internal/engine"
	"github.com/opencommotion/scenekit/internal/scene"
	"github.com/opencommotion/scenekit/internal/store"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	SceneID        string
	Rebuild        bool
	ExpectRevision int64
}

// ApplyOutput is the payload reported after a committed batch.
type ApplyOutput struct {
	Summary  scene.Summary `json:"summary"`
	Applied  int           `json:"applied"`
	Warnings []string      `json:"warnings"`
	Path     string        `json:"path"`
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{RootOptions: rootOpts, ExpectRevision: -1}

	cmd := &cobra.Command{
		Use:   "apply <ops-file>",
		Short: "Apply a typed op batch to a scene",
		Long: `Apply a typed op batch to a scene and autosave the result.

The ops file is a JSON array of ops; "-" reads from stdin.

Example:
  scenectl apply turn.json --scene aquarium
  cat turn.json | scenectl apply - --scene aquarium --expect-revision 4`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.SceneID, "scene", "default", "scene id")
	cmd.Flags().BoolVar(&opts.Rebuild, "rebuild", false, "mark the batch as an intentional scene rebuild")
	cmd.Flags().Int64Var(&opts.ExpectRevision, "expect-revision", -1, "fail unless the scene is at this revision")

	return cmd
}

func runApply(opts *ApplyOptions, opsPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	ops, err := readOps(cmd.InOrStdin(), opsPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read ops", err)
	}

	s, err := store.Open(opts.DataDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer s.Close()

	st, err := s.GetOrCreate(opts.SceneID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scene", err)
	}

	if opts.ExpectRevision >= 0 && st.Revision != opts.ExpectRevision {
		details := map[string]any{"expected": opts.ExpectRevision, "actual": st.Revision}
		_ = formatter.Error("revision_conflict", "scene revision does not match --expect-revision", details)
		return WrapExitError(ExitFailure, "revision conflict",
			fmt.Errorf("expected revision %d, scene is at %d", opts.ExpectRevision, st.Revision))
	}

	eng := engine.New(nil)
	res, err := eng.Apply(st, ops, engine.DefaultPolicy(), opts.Rebuild)
	if err != nil {
		if ae, ok := engine.AsApplyError(err); ok {
			_ = formatter.Error(string(ae.Code), ae.Message, ae.Detail)
			return WrapExitError(ExitFailure, "batch rejected", err)
		}
		return WrapExitError(ExitCommandError, "apply failed", err)
	}

	info, err := s.Autosave(st.SceneID)
	if err != nil {
		return WrapExitError(ExitCommandError, "autosave failed", err)
	}

	out := ApplyOutput{
		Summary:  st.Summary(),
		Applied:  len(res.AppliedOps),
		Warnings: res.Warnings,
		Path:     info.Path,
	}
	return formatter.Success(out, func(w io.Writer) {
		fmt.Fprintf(w, "scene %s now at revision %d (%d ops applied)\n", out.Summary.SceneID, out.Summary.Revision, out.Applied)
		for _, warning := range out.Warnings {
			fmt.Fprintf(w, "warning: %s\n", warning)
		}
		fmt.Fprintf(w, "autosaved to %s\n", out.Path)
	})
}

// readOps loads a JSON op array from a file, or stdin for "-".
func readOps(stdin io.Reader, path string) ([]scene.Op, error) {
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	var ops []scene.Op
	if err := json.Unmarshal(raw, &ops); err != nil {
		return nil, fmt.Errorf("invalid ops JSON: %w", err)
	}
	return ops, nil
}
