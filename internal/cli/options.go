package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newOptionsCmd(e *env) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "options <type> <key>",
		Short: "List the options of one group",
		Long: "List the options of a property or label folder. --search filters local\n" +
			"options by id or display and is passed through to external API sources.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := e.outputFormat()
			if err != nil {
				return err
			}
			eng, _, err := e.openEngine()
			if err != nil {
				return err
			}
			opts, ok := eng.ResolveOptions(cmd.Context(), args[0], args[1], search)
			if !ok {
				return userError("no group %q for type %q", args[1], args[0])
			}
			return writeOutput(cmd.OutOrStdout(), format, opts, func(w io.Writer) error {
				return writeOptions(w, opts)
			})
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "filter term")
	return cmd
}

func newLocateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "locate <type> <option-id>",
		Short: "Find the group that offers an option",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := e.outputFormat()
			if err != nil {
				return err
			}
			eng, _, err := e.openEngine()
			if err != nil {
				return err
			}
			loc, ok := eng.LocateOption(cmd.Context(), args[0], args[1])
			if !ok {
				return userError("option %q not found in type %q", args[1], args[0])
			}
			return writeOutput(cmd.OutOrStdout(), format, loc, func(w io.Writer) error {
				if loc.ParentID == "" {
					_, err := fmt.Fprintf(w, "%s\n", loc.GroupKey)
					return err
				}
				_, err := fmt.Fprintf(w, "%s (parent %s, child %s)\n", loc.GroupKey, loc.ParentID, loc.ChildID)
				return err
			})
		},
	}
}
