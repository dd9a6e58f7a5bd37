package taxonomy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/mesh-intelligence/taxon/internal/memstore"
	"github.com/mesh-intelligence/taxon/internal/secrets"
	"github.com/mesh-intelligence/taxon/pkg/types"
)

func externalSource(api types.ExternalAPISpec) types.SourceSpec {
	return types.SourceSpec{Kind: types.SourceExternalAPI, API: &api}
}

func TestExternalGetWithQueryAndToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "ro vic", r.URL.Query().Get("q"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": {"results": [
			{"code": "rv", "title": "Royal Victoria", "img": "rv.png", "meta": {"about": "Teaching hospital"}},
			{"code": "rv", "title": "Duplicate"},
			{"title": "No id"},
			{"code": 12, "title": "Numbered"},
			{"code": true, "title": "Bool id"}
		]}}`))
	}))
	defer srv.Close()

	e := newEngine(t, memstore.New(), types.Config{}, WithSecrets(secrets.Static{"HOSPITAL_API_TOKEN": "tok-123"}))
	src := externalSource(types.ExternalAPISpec{
		Endpoint:      srv.URL + "/search?limit=10",
		HeadersEnv:    "HOSPITAL_API_TOKEN",
		QueryTemplate: "q={search}",
		ListPath:      "data.results",
		FieldMap: map[string]string{
			"id":          "code",
			"display":     "title",
			"description": "meta.about",
			"image":       "img",
		},
	})

	got := e.Resolve(context.Background(), "person", src, "hospital", "ro vic")

	assert.Equal(t, []types.Option{
		{ID: "rv", Display: "Royal Victoria", Description: "Teaching hospital", ImageRef: "rv.png"},
		{ID: "12", Display: "Numbered"},
	}, got)
}

func TestExternalPostBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Authorization"))
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, `say "hi"`, body["query"])
		w.Write([]byte(`[{"id": "a", "name": "Alpha"}]`))
	}))
	defer srv.Close()

	e := newEngine(t, memstore.New(), types.Config{}, WithSecrets(secrets.Static{}))
	src := externalSource(types.ExternalAPISpec{
		Endpoint:     srv.URL,
		Method:       "post",
		HeadersEnv:   "MISSING_TOKEN",
		BodyTemplate: `{"query": "{search}"}`,
	})

	got := e.Resolve(context.Background(), "person", src, "k", `say "hi"`)

	assert.Equal(t, []types.Option{{ID: "a", Display: "Alpha"}}, got)
}

func TestScenarioExternalServerErrorIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	e := newEngine(t, memstore.New(), types.Config{}, WithMetrics(m), WithTracer(tp.Tracer("test")))

	var got []types.Option
	require.NotPanics(t, func() {
		got = e.Resolve(context.Background(), "person", externalSource(types.ExternalAPISpec{Endpoint: srv.URL}), "k", "")
	})

	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.externalRequests.WithLabelValues(outcomeError)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.externalRequests.WithLabelValues(outcomeOK)))

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "taxon.external_api", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
}

func TestExternalFailuresAreEmpty(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		api     types.ExternalAPISpec
	}{
		{
			name:    "bad json",
			handler: func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"items": [`)) },
		},
		{
			name:    "list path missing",
			handler: func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"items": []}`)) },
			api:     types.ExternalAPISpec{ListPath: "data.items"},
		},
		{
			name:    "list path not an array",
			handler: func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"items": {"id": "x"}}`)) },
			api:     types.ExternalAPISpec{ListPath: "items"},
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			e := newEngine(t, memstore.New(), types.Config{ExternalTimeout: 100 * time.Millisecond})
			api := tt.api
			api.Endpoint = srv.URL

			got := e.Resolve(context.Background(), "person", externalSource(api), "k", "")

			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestExternalUnreachableIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()
	e := newEngine(t, memstore.New(), types.Config{})

	got := e.Resolve(context.Background(), "person", externalSource(types.ExternalAPISpec{Endpoint: url}), "k", "")

	assert.Empty(t, got)
}

func TestWalkPath(t *testing.T) {
	var doc any
	require.NoError(t, json.Unmarshal([]byte(`{"a": {"b": [{"c": "x"}, {"c": "y"}]}}`), &doc))

	got, err := walkPath(doc, "a.b.1.c")
	require.NoError(t, err)
	assert.Equal(t, "y", got)

	got, err = walkPath(doc, "")
	require.NoError(t, err)
	assert.Equal(t, doc, got)

	_, err = walkPath(doc, "a.b.9")
	assert.Error(t, err)
	_, err = walkPath(doc, "a.b.0.c.d")
	assert.Error(t, err)
}

func TestJSONEscape(t *testing.T) {
	assert.Equal(t, `a\"b\\c\n`, jsonEscape("a\"b\\c\n"))
	assert.Equal(t, "plain", jsonEscape("plain"))
}
