package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/taxon/pkg/taxon"
)

const modulePath = "github.com/mesh-intelligence/taxon"

// versionTemplate is shared by "taxon --version" and "taxon version".
const versionTemplate = "taxon v{{.Version}}\n"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the taxon version and build details",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "taxon v%s\nmodule: %s\ngo: %s\n", taxon.Version, modulePath, runtime.Version())
			if rev := vcsRevision(); rev != "" {
				fmt.Fprintf(w, "revision: %s\n", rev)
			}
			return nil
		},
	}
}

// vcsRevision returns the commit stamped into the binary, if any.
func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return ""
}
