package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/taxon/internal/sqlite"
	"github.com/mesh-intelligence/taxon/pkg/taxon"
	"github.com/mesh-intelligence/taxon/pkg/types"
)

// importResult is printed by the import subcommands.
type importResult struct {
	Type  string   `json:"type" yaml:"type"`
	Group string   `json:"group" yaml:"group"`
	IDs   []string `json:"ids" yaml:"ids"`
}

func newImportCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Populate a label group from an external source",
	}
	cmd.AddCommand(newImportAPICmd(e))
	cmd.AddCommand(newImportSQLiteCmd(e))
	return cmd
}

func newImportAPICmd(e *env) *cobra.Command {
	var (
		api      types.ExternalAPISpec
		meta     taxon.GroupMeta
		maxItems int
	)
	cmd := &cobra.Command{
		Use:   "api <type> <group>",
		Short: "Import labels from a JSON HTTP API",
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
			ids, err := eng.ImportFromAPI(cmd.Context(), args[0], args[1], meta, api, maxItems)
			if err != nil {
				if errors.Is(err, types.ErrInvalidPath) || errors.Is(err, types.ErrInvalidType) {
					return userError("import: %v", err)
				}
				return sysError(err, "import")
			}
			return printImport(cmd.OutOrStdout(), format, importResult{Type: args[0], Group: args[1], IDs: ids})
		},
	}
	f := cmd.Flags()
	f.StringVar(&api.Endpoint, "endpoint", "", "API URL")
	f.StringVar(&api.Method, "method", "GET", "HTTP method: GET or POST")
	f.StringVar(&api.HeadersEnv, "token-secret", "", "secret name holding a bearer token")
	f.StringVar(&api.QueryTemplate, "query", "", "query string template")
	f.StringVar(&api.BodyTemplate, "body", "", "POST body template")
	f.StringVar(&api.ListPath, "list-path", "", "dotted path to the result array")
	f.StringToStringVar(&api.FieldMap, "field", nil, "field mapping, e.g. id=code,display=title")
	f.StringVar(&meta.Name, "name", "", "group display name")
	f.StringVar(&meta.Description, "description", "", "group description")
	f.IntVar(&maxItems, "max", 200, "maximum labels to import")
	_ = cmd.MarkFlagRequired("endpoint")
	return cmd
}

func newImportSQLiteCmd(e *env) *cobra.Command {
	var req sqlite.ImportRequest
	cmd := &cobra.Command{
		Use:   "sqlite <type> <group>",
		Short: "Import labels from a SQLite query",
		Long: "Run a read-only query against a SQLite database and store each row as a\n" +
			"label. Columns are matched by name, case-insensitively.",
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
			req.Type, req.Group = args[0], args[1]
			ids, err := sqlite.ImportLabels(cmd.Context(), eng.Store(), req, e.logger)
			if err != nil {
				switch {
				case errors.Is(err, sqlite.ErrDatabaseMissing), errors.Is(err, sqlite.ErrQueryEmpty),
					errors.Is(err, sqlite.ErrColumnMissing), errors.Is(err, types.ErrInvalidPath),
					errors.Is(err, types.ErrInvalidType):
					return userError("import: %v", err)
				}
				return sysError(err, "import")
			}
			return printImport(cmd.OutOrStdout(), format, importResult{Type: args[0], Group: args[1], IDs: ids})
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.DBPath, "db", "", "SQLite database file")
	f.StringVar(&req.Query, "sql", "", "SELECT statement")
	f.StringVar(&req.IDColumn, "col-id", sqlite.DefaultIDColumn, "id column")
	f.StringVar(&req.DisplayColumn, "col-display", sqlite.DefaultDisplayColumn, "display column")
	f.StringVar(&req.DescriptionColumn, "col-description", sqlite.DefaultDescriptionColumn, "description column")
	f.StringVar(&req.ImageColumn, "col-image", sqlite.DefaultImageColumn, "image column")
	f.StringVar(&req.GroupName, "name", "", "group display name")
	f.StringVar(&req.GroupDescription, "description", "", "group description")
	f.IntVar(&req.MaxItems, "max", sqlite.DefaultMaxItems, "maximum labels to import")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("sql")
	return cmd
}

func printImport(w io.Writer, format string, res importResult) error {
	return writeOutput(w, format, res, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "imported %d labels into %s/labels/%s\n", len(res.IDs), res.Type, res.Group)
		return err
	})
}
