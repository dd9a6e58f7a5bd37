package taxonomy

import (
	"encoding/json"
	"path"
	"sort"
	"strings"

	"github.com/mesh-intelligence/taxon/pkg/types"
)

// imageExts lists the sibling image extensions probed for an option, in
// preference order.
var imageExts = []string{".png", ".jpg", ".jpeg", ".webp", ".gif"}

// LoadOptions lists the option records directly under dir of typeName.
// Records whose names start with "_" are metadata and skipped. A missing
// directory yields an empty slice. The result is sorted by lower-cased
// display, then lower-cased id.
func (e *Engine) LoadOptions(typeName, dir string) []types.Option {
	entries, err := e.store.List(typeName, dir)
	if err != nil {
		e.logger.Warn("listing option folder", "type", typeName, "dir", dir, "error", err)
		return []types.Option{}
	}

	images := siblingImages(entries)
	opts := make([]types.Option, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir || !strings.HasSuffix(entry.Name, types.RecordExt) || strings.HasPrefix(entry.Name, "_") {
			continue
		}
		id := strings.TrimSuffix(entry.Name, types.RecordExt)
		rec := e.readRecord(typeName, path.Join(dir, entry.Name))

		opt := types.Option{
			ID:          id,
			Display:     displayOf(rec, id),
			Description: descriptionOf(rec),
			ImageRef:    stringField(rec, "image", "image_url"),
		}
		if opt.ImageRef == "" {
			if img, ok := images[strings.ToLower(id)]; ok {
				opt.ImageRef = path.Join(typeName, dir, img)
			}
		}
		opts = append(opts, opt)
	}
	sortOptions(opts)
	return opts
}

// readRecord reads and decodes a JSON object record. Missing records and
// malformed ones both yield an empty map; malformed ones are logged.
func (e *Engine) readRecord(typeName, p string) map[string]any {
	data, err := e.store.Read(typeName, p)
	if err != nil {
		e.logger.Warn("reading record", "type", typeName, "path", p, "error", err)
		return map[string]any{}
	}
	if len(data) == 0 {
		return map[string]any{}
	}
	rec := map[string]any{}
	if err := json.Unmarshal(data, &rec); err != nil {
		e.logger.Warn("malformed record", "type", typeName, "path", p, "error", err)
		return map[string]any{}
	}
	return rec
}

// siblingImages maps lower-cased base names to the preferred image file
// among entries.
func siblingImages(entries []types.Entry) map[string]string {
	rank := make(map[string]int)
	out := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir {
			continue
		}
		ext := strings.ToLower(path.Ext(entry.Name))
		r := extRank(ext)
		if r < 0 {
			continue
		}
		base := strings.ToLower(strings.TrimSuffix(entry.Name, path.Ext(entry.Name)))
		if prev, ok := rank[base]; ok && prev <= r {
			continue
		}
		rank[base] = r
		out[base] = entry.Name
	}
	return out
}

func extRank(ext string) int {
	for i, e := range imageExts {
		if e == ext {
			return i
		}
	}
	return -1
}

func displayOf(rec map[string]any, id string) string {
	if s := stringField(rec, "display", "name"); s != "" {
		return s
	}
	if props, ok := rec["properties"].(map[string]any); ok {
		if s := stringField(props, "name"); s != "" {
			return s
		}
	}
	return id
}

func descriptionOf(rec map[string]any) string {
	if s := stringField(rec, "description"); s != "" {
		return s
	}
	if props, ok := rec["properties"].(map[string]any); ok {
		return stringField(props, "description")
	}
	return ""
}

// stringField returns the first non-empty string value among keys.
func stringField(rec map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := rec[k].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

func sortOptions(opts []types.Option) {
	sort.SliceStable(opts, func(i, j int) bool {
		di, dj := strings.ToLower(opts[i].Display), strings.ToLower(opts[j].Display)
		if di != dj {
			return di < dj
		}
		return strings.ToLower(opts[i].ID) < strings.ToLower(opts[j].ID)
	})
}
