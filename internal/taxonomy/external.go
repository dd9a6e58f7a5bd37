package taxonomy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mesh-intelligence/taxon/pkg/types"
)

// maxResponseBytes caps how much of an external response is decoded.
const maxResponseBytes = 4 << 20

// searchPlaceholder is substituted in query and body templates.
const searchPlaceholder = "{search}"

var (
	errNoEndpoint = errors.New("external api: no endpoint")
	errNotList    = errors.New("external api: list path does not address an array")
)

// fetchExternal calls the API and maps its response to options. Any failure
// is logged and yields an empty slice.
func (e *Engine) fetchExternal(ctx context.Context, api *types.ExternalAPISpec, search string) []types.Option {
	if api == nil || api.Endpoint == "" {
		return []types.Option{}
	}
	ctx, span := e.tracer.Start(ctx, "taxon.external_api", trace.WithAttributes(
		attribute.String("http.method", api.HTTPMethod()),
		attribute.String("taxon.endpoint", api.Endpoint),
	))
	defer span.End()

	start := time.Now()
	opts, err := e.callExternal(ctx, api, search)
	if err != nil {
		e.metrics.observeExternal(outcomeError, time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.logger.Warn("external option source failed", "endpoint", api.Endpoint, "error", err)
		return []types.Option{}
	}
	e.metrics.observeExternal(outcomeOK, time.Since(start))
	span.SetAttributes(attribute.Int("taxon.options", len(opts)))
	return opts
}

// callExternal performs one request bounded by the engine timeout.
func (e *Engine) callExternal(ctx context.Context, api *types.ExternalAPISpec, search string) ([]types.Option, error) {
	if api == nil || strings.TrimSpace(api.Endpoint) == "" {
		return nil, errNoEndpoint
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := e.buildRequest(ctx, api, search)
	if err != nil {
		return nil, err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", api.Endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, fmt.Errorf("calling %s: status %d", api.Endpoint, resp.StatusCode)
	}

	var payload any
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", api.Endpoint, err)
	}
	return mapExternal(payload, api)
}

func (e *Engine) buildRequest(ctx context.Context, api *types.ExternalAPISpec, search string) (*http.Request, error) {
	endpoint := strings.TrimSpace(api.Endpoint)
	if q := strings.TrimLeft(strings.TrimSpace(api.QueryTemplate), "?&"); q != "" {
		q = strings.ReplaceAll(q, searchPlaceholder, url.QueryEscape(search))
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		endpoint += sep + q
	}

	method := api.HTTPMethod()
	var body io.Reader
	if method == http.MethodPost {
		tmpl := api.BodyTemplate
		if strings.TrimSpace(tmpl) == "" {
			tmpl = "{}"
		}
		body = strings.NewReader(strings.ReplaceAll(tmpl, searchPlaceholder, jsonEscape(search)))
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", api.Endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if api.HeadersEnv != "" {
		if token := e.secrets.Secret(api.HeadersEnv); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

// mapExternal walks ListPath and maps each item through the field map.
// Items without an id are dropped; duplicate ids keep the first occurrence.
func mapExternal(payload any, api *types.ExternalAPISpec) ([]types.Option, error) {
	list, err := walkPath(payload, api.ListPath)
	if err != nil {
		return nil, err
	}
	items, ok := list.([]any)
	if !ok {
		return nil, errNotList
	}

	seen := make(map[string]bool, len(items))
	opts := make([]types.Option, 0, len(items))
	for _, item := range items {
		id := scalarAt(item, api.Field(types.FieldID))
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		display := scalarAt(item, api.Field(types.FieldDisplay))
		if display == "" {
			display = id
		}
		opts = append(opts, types.Option{
			ID:          id,
			Display:     display,
			Description: scalarAt(item, api.Field(types.FieldDescription)),
			ImageRef:    scalarAt(item, api.Field(types.FieldImage)),
		})
	}
	return opts, nil
}

// walkPath follows a dotted path through objects and arrays. An empty path
// addresses the value itself.
func walkPath(v any, dotted string) (any, error) {
	dotted = strings.Trim(strings.TrimSpace(dotted), ".")
	if dotted == "" {
		return v, nil
	}
	cur := v
	for _, seg := range strings.Split(dotted, ".") {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[seg]
			if !ok {
				return nil, fmt.Errorf("external api: path %q: missing %q", dotted, seg)
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("external api: path %q: bad index %q", dotted, seg)
			}
			cur = node[i]
		default:
			return nil, fmt.Errorf("external api: path %q: cannot descend into %q", dotted, seg)
		}
	}
	return cur, nil
}

// scalarAt returns the string form of the scalar at a dotted field path, or
// "" when it is missing or not a string or number.
func scalarAt(item any, field string) string {
	if field == "" {
		return ""
	}
	v, err := walkPath(item, field)
	if err != nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case json.Number:
		return s.String()
	default:
		return ""
	}
}

func jsonEscape(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return string(b[1 : len(b)-1])
}
