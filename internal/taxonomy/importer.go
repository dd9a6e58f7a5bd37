package taxonomy

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/mesh-intelligence/taxon/pkg/types"
)

// LabelRecord is the persisted shape of an imported label.
type LabelRecord struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	Source      string `json:"source,omitempty"`
	ImportedAt  string `json:"imported_at"`
}

// GroupMeta is the persisted shape of a label folder's _group.json.
type GroupMeta struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// WriteLabelGroup writes opts as label records under <type>/labels/<group>,
// plus the folder's _group.json. Ids are slugified; an option whose id
// slugifies to nothing gets a UUID v7. Later options whose slug collides
// with an earlier one are skipped. It returns the ids written.
func WriteLabelGroup(store types.Store, typeName, group string, meta GroupMeta, opts []types.Option, source string) ([]string, error) {
	group = strings.Trim(group, "/")
	if group == "" {
		return nil, fmt.Errorf("%w: empty group", types.ErrInvalidPath)
	}
	dir := path.Join(types.LabelsDir, group)
	if meta.Name == "" {
		meta.Name = types.TitleFromKey(group)
	}
	if err := store.Write(typeName, path.Join(dir, types.GroupMetaRecord), meta); err != nil {
		return nil, fmt.Errorf("writing group metadata: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	seen := make(map[string]bool, len(opts))
	written := make([]string, 0, len(opts))
	for _, o := range opts {
		id := Slugify(o.ID)
		if id == "" {
			id = Slugify(o.Display)
		}
		if id == "" {
			id = newID()
		}
		if seen[id] {
			continue
		}
		seen[id] = true

		name := strings.TrimSpace(o.Display)
		if name == "" {
			name = o.ID
		}
		rec := LabelRecord{
			Name:        name,
			Description: o.Description,
			ImageURL:    o.ImageRef,
			Source:      source,
			ImportedAt:  now,
		}
		if err := store.Write(typeName, path.Join(dir, id+types.RecordExt), rec); err != nil {
			return written, fmt.Errorf("writing label %s: %w", id, err)
		}
		written = append(written, id)
	}
	return written, nil
}

// ImportFromAPI fetches options from an external API and stores them as a
// label group. Unlike option resolution, failures are returned.
func (e *Engine) ImportFromAPI(ctx context.Context, typeName, group string, meta GroupMeta, api types.ExternalAPISpec, maxItems int) ([]string, error) {
	opts, err := e.callExternal(ctx, &api, "")
	if err != nil {
		return nil, err
	}
	if maxItems > 0 && len(opts) > maxItems {
		opts = opts[:maxItems]
	}
	ids, err := WriteLabelGroup(e.store, typeName, group, meta, opts, api.Endpoint)
	if err != nil {
		return ids, err
	}
	e.logger.Info("imported labels", "type", typeName, "group", group, "count", len(ids), "endpoint", api.Endpoint)
	return ids, nil
}

// Slugify lower-cases s and collapses every run of characters other than
// letters and digits into a single underscore.
func Slugify(s string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	return b.String()
}
