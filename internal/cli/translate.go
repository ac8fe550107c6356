package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/opencommotion/scenekit/internal/engine"
	"github.com/opencommotion/scenekit/internal/scene"
	"github.com/opencommotion/scenekit/internal/store"
	"github.com/opencommotion/scenekit/internal/translate"
)

// TranslateOptions holds flags for the translate command.
type TranslateOptions struct {
	*RootOptions
	SceneID string
	TurnID  string
	Prompt  string
	Apply   bool
}

// TranslateOutput reports the translated batch.
type TranslateOutput struct {
	TurnID   string     `json:"turn_id"`
	Ops      []scene.Op `json:"ops"`
	Warnings []string   `json:"warnings"`
	// Summary is present when --apply committed the batch.
	Summary *scene.Summary `json:"summary,omitempty"`
}

// NewTranslateCommand creates the translate command.
func NewTranslateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TranslateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "translate <patches-file>",
		Short: "Translate legacy v1 patches into typed ops",
		Long: `Translate a legacy v1 patch batch into typed ops against a scene.

The patches file is a JSON array; "-" reads from stdin. With --apply
the translated batch is also applied and autosaved.

Example:
  scenectl translate patches.json --scene aquarium --prompt "make the fish bloop"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.SceneID, "scene", "default", "scene id")
	cmd.Flags().StringVar(&opts.TurnID, "turn-id", "", "turn id seeding op ids (random when empty)")
	cmd.Flags().StringVar(&opts.Prompt, "prompt", "", "natural-language intent for the turn")
	cmd.Flags().BoolVar(&opts.Apply, "apply", false, "apply the translated batch and autosave")

	return cmd
}

func runTranslate(opts *TranslateOptions, patchesPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	patches, err := readPatches(cmd.InOrStdin(), patchesPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read patches", err)
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

	turnID := opts.TurnID
	if turnID == "" {
		turnID = "turn-" + uuid.NewString()
	}

	ops, warnings := translate.PatchesToOps(patches, turnID, opts.Prompt, st)
	out := TranslateOutput{TurnID: turnID, Ops: ops, Warnings: warnings}

	if opts.Apply {
		eng := engine.New(nil)
		if _, err := eng.Apply(st, ops, engine.DefaultPolicy(), false); err != nil {
			if ae, ok := engine.AsApplyError(err); ok {
				_ = formatter.Error(string(ae.Code), ae.Message, ae.Detail)
				return WrapExitError(ExitFailure, "translated batch rejected", err)
			}
			return WrapExitError(ExitCommandError, "apply failed", err)
		}
		if _, err := s.Autosave(st.SceneID); err != nil {
			return WrapExitError(ExitCommandError, "autosave failed", err)
		}
		summary := st.Summary()
		out.Summary = &summary
	}

	return formatter.Success(out, func(w io.Writer) {
		fmt.Fprintf(w, "translated %d patches into %d ops (turn %s)\n", len(patches), len(out.Ops), out.TurnID)
		for _, warning := range out.Warnings {
			fmt.Fprintf(w, "warning: %s\n", warning)
		}
		if out.Summary != nil {
			fmt.Fprintf(w, "scene %s now at revision %d\n", out.Summary.SceneID, out.Summary.Revision)
		}
	})
}

// readPatches loads a JSON patch array from a file, or stdin for "-".
func readPatches(stdin io.Reader, path string) ([]translate.Patch, error) {
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
	var patches []translate.Patch
	if err := json.Unmarshal(raw, &patches); err != nil {
		return nil, fmt.Errorf("invalid patches JSON: %w", err)
	}
	return patches, nil
}
