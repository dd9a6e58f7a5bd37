package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/taxon/pkg/types"
)

// Output formats.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// outputFormat returns the effective format; --json wins over --format.
func (e *env) outputFormat() (string, error) {
	if e.flags.jsonMode {
		return formatJSON, nil
	}
	switch f := strings.ToLower(strings.TrimSpace(e.flags.format)); f {
	case "", formatText:
		return formatText, nil
	case formatJSON, formatYAML:
		return f, nil
	default:
		return "", userError("unknown format %q (want text, json or yaml)", e.flags.format)
	}
}

// writeOutput encodes v as JSON or YAML, or calls text for the text format.
func writeOutput(w io.Writer, format string, v any, text func(io.Writer) error) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return text(w)
	}
}

// writeOptions prints options as an aligned id/display/description table.
func writeOptions(w io.Writer, opts []types.Option) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDISPLAY\tDESCRIPTION")
	for _, o := range opts {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", o.ID, o.Display, o.Description)
	}
	return tw.Flush()
}

// writeResolutionText prints groups, then suggestions per group.
func writeResolutionText(w io.Writer, groups []types.Group, suggestions types.SuggestionMap) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "GROUP\tLABEL\tSOURCE\tOPTIONS")
	for _, g := range groups {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", g.Key, g.Label, groupSource(g), optionSummary(g))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(suggestions) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "SUGGESTIONS")
	for _, g := range groups {
		cands := suggestions.For(g.Key)
		if len(cands) == 0 {
			continue
		}
		names := make([]string, 0, len(cands))
		for _, c := range cands {
			names = append(names, fmt.Sprintf("%s (%s)", c.Display, c.ID))
		}
		fmt.Fprintf(w, "  %s: %s\n", g.Key, strings.Join(names, ", "))
	}
	return nil
}

func groupSource(g types.Group) string {
	if g.Source.Kind == types.SourceNone && g.Input != nil {
		return "input:" + string(g.Input.Kind)
	}
	return string(g.Source.Kind)
}

func optionSummary(g types.Group) string {
	const maxShown = 6
	ids := make([]string, 0, maxShown)
	for i, o := range g.Options {
		if i == maxShown {
			ids = append(ids, fmt.Sprintf("… +%d", len(g.Options)-maxShown))
			break
		}
		ids = append(ids, o.ID)
	}
	return strings.Join(ids, ", ")
}
