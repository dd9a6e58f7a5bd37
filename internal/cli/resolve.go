package cli

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/taxon/pkg/types"
)

func newResolveCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <type> [key=option...]",
		Short: "Resolve a type's label groups and suggestions",
		Long: "Resolve the label groups of a type. Each key=option argument selects an\n" +
			"option for a group, revealing nested groups and scoping suggestions.\n" +
			"Nested group keys use '/', for example work_place/hospital=royal_victoria.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := e.outputFormat()
			if err != nil {
				return err
			}
			sel, err := parseSelections(args[1:])
			if err != nil {
				return err
			}
			eng, _, err := e.openEngine()
			if err != nil {
				return err
			}

			res := eng.ResolveSchema(cmd.Context(), args[0], sel)
			return writeOutput(cmd.OutOrStdout(), format, res, func(w io.Writer) error {
				return writeResolutionText(w, res.Groups, res.Suggestions)
			})
		},
	}
}

// parseSelections turns key=option arguments into Selections.
func parseSelections(args []string) (types.Selections, error) {
	sel := types.Selections{}
	for _, arg := range args {
		key, id, ok := strings.Cut(arg, "=")
		key = strings.Trim(strings.TrimSpace(key), "/")
		id = strings.TrimSpace(id)
		if !ok || key == "" || id == "" {
			return nil, userError("invalid selection %q (want key=option)", arg)
		}
		sel[key] = types.Selection{ID: id}
	}
	return sel, nil
}
