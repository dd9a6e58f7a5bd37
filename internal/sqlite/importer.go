// Package sqlite imports label groups from SQLite databases. The database
// is opened read-only; each row of the query becomes one label record.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/taxon/internal/taxonomy"
	"github.com/mesh-intelligence/taxon/pkg/types"
)

// Defaults applied to an ImportRequest.
const (
	DefaultIDColumn          = "id"
	DefaultDisplayColumn     = "name"
	DefaultDescriptionColumn = "description"
	DefaultImageColumn       = "image_url"
	DefaultMaxItems          = 500
)

// Import errors.
var (
	ErrDatabaseMissing = errors.New("sqlite database not found")
	ErrQueryEmpty      = errors.New("query must not be empty")
	ErrColumnMissing   = errors.New("query result lacks id and display columns")
)

// ImportRequest describes one SQLite label import.
type ImportRequest struct {
	DBPath           string
	Query            string
	Type             string
	Group            string
	GroupName        string
	GroupDescription string

	IDColumn          string
	DisplayColumn     string
	DescriptionColumn string
	ImageColumn       string
	MaxItems          int
}

func (r ImportRequest) withDefaults() ImportRequest {
	if r.IDColumn == "" {
		r.IDColumn = DefaultIDColumn
	}
	if r.DisplayColumn == "" {
		r.DisplayColumn = DefaultDisplayColumn
	}
	if r.DescriptionColumn == "" {
		r.DescriptionColumn = DefaultDescriptionColumn
	}
	if r.ImageColumn == "" {
		r.ImageColumn = DefaultImageColumn
	}
	if r.MaxItems <= 0 {
		r.MaxItems = DefaultMaxItems
	}
	return r
}

// ImportLabels runs req.Query against the database and writes the rows as a
// label group of req.Type. It returns the ids written.
func ImportLabels(ctx context.Context, store types.Store, req ImportRequest, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	req = req.withDefaults()
	if strings.TrimSpace(req.Query) == "" {
		return nil, ErrQueryEmpty
	}
	if _, err := os.Stat(req.DBPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDatabaseMissing, req.DBPath)
		}
		return nil, fmt.Errorf("checking %s: %w", req.DBPath, err)
	}

	opts, err := queryOptions(ctx, req)
	if err != nil {
		return nil, err
	}
	meta := taxonomy.GroupMeta{Name: req.GroupName, Description: req.GroupDescription}
	ids, err := taxonomy.WriteLabelGroup(store, req.Type, req.Group, meta, opts, "sqlite:"+req.DBPath)
	if err != nil {
		return ids, err
	}
	logger.Info("imported labels", "type", req.Type, "group", req.Group, "count", len(ids), "db", req.DBPath)
	return ids, nil
}

// readOnlyDSN builds a modernc URI that refuses writes and never creates
// the file.
func readOnlyDSN(path string) string {
	u := url.URL{Scheme: "file", Opaque: path}
	q := url.Values{}
	q.Set("mode", "ro")
	u.RawQuery = q.Encode()
	return u.String()
}

func queryOptions(ctx context.Context, req ImportRequest) ([]types.Option, error) {
	db, err := sql.Open("sqlite", readOnlyDSN(req.DBPath))
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", req.DBPath, err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", req.DBPath, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}
	index := make(map[string]int, len(cols))
	for i, c := range cols {
		index[strings.ToLower(c)] = i
	}
	idIdx, hasID := index[strings.ToLower(req.IDColumn)]
	displayIdx, hasDisplay := index[strings.ToLower(req.DisplayColumn)]
	if !hasID && !hasDisplay {
		return nil, fmt.Errorf("%w: have %v", ErrColumnMissing, cols)
	}

	column := func(vals []any, name string) string {
		i, ok := index[strings.ToLower(name)]
		if !ok {
			return ""
		}
		return text(vals[i])
	}

	var opts []types.Option
	for rows.Next() && len(opts) < req.MaxItems {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		opt := types.Option{
			Description: column(vals, req.DescriptionColumn),
			ImageRef:    column(vals, req.ImageColumn),
		}
		if hasID {
			opt.ID = text(vals[idIdx])
		}
		if hasDisplay {
			opt.Display = text(vals[displayIdx])
		}
		if opt.Display == "" {
			opt.Display = opt.ID
		}
		opts = append(opts, opt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}
	return opts, nil
}

// text renders a scanned SQLite value as a trimmed string.
func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case []byte:
		return strings.TrimSpace(string(x))
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}
