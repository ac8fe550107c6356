package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/opencommotion/scenekit/internal/recipe"
)

// NewRecipesCommand creates the recipes command.
func NewRecipesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "recipes",
		Short:         "List the built-in shader recipes",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}

			recipes := recipe.Default().List()
			return formatter.Success(recipes, func(w io.Writer) {
				for _, r := range recipes {
					fmt.Fprintf(w, "%s (v%s)\n", r.RecipeID, r.Version)
					names := make([]string, 0, len(r.Uniforms))
					for name := range r.Uniforms {
						names = append(names, name)
					}
					sort.Strings(names)
					for _, name := range names {
						rule := r.Uniforms[name]
						fmt.Fprintf(w, "  %s: [%g, %g] default %g, max %gHz\n",
							name, rule.Min, rule.Max, rule.Default, rule.MaxUpdateHz)
					}
				}
			})
		},
	}
}
