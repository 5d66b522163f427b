package server

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/santinisystems/catalog/internal/metrics"
	"github.com/santinisystems/catalog/internal/middleware"
)

var openAPIPath = filepath.Join("..", "..", "docs", "api", "openapi.yaml")

func init() {
	if openapi3filter.RegisteredBodyDecoder("application/ld+json") == nil {
		openapi3filter.RegisterBodyDecoder("application/ld+json", openapi3filter.RegisteredBodyDecoder("application/json"))
	}
}

// loadOpenAPI loads and validates the published API description.
func loadOpenAPI(t testing.TB) *openapi3.T {
	t.Helper()

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(openAPIPath)
	require.NoError(t, err, "load %s", openAPIPath)
	require.NoError(t, doc.Validate(context.Background()), "validate %s", openAPIPath)
	return doc
}

// findRoute matches a concrete request path against the documented path
// templates.
func findRoute(doc *openapi3.T, method, path string) (*routers.Route, map[string]string, bool) {
	segments := strings.Split(path, "/")
	for template, item := range doc.Paths.Map() {
		op := item.GetOperation(method)
		if op == nil {
			continue
		}

		parts := strings.Split(template, "/")
		if len(parts) != len(segments) {
			continue
		}

		params := make(map[string]string)
		matched := true
		for i, part := range parts {
			if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
				params[strings.Trim(part, "{}")] = segments[i]
				continue
			}
			if part != segments[i] {
				matched = false
				break
			}
		}
		if !matched {
			continue
		}

		return &routers.Route{
			Spec:      doc,
			Path:      template,
			PathItem:  item,
			Method:    method,
			Operation: op,
		}, params, true
	}
	return nil, nil, false
}

// assertContract validates a response against the documented operation.
func assertContract(t testing.TB, doc *openapi3.T, req *http.Request, status int, header http.Header, body []byte) {
	t.Helper()

	route, params, ok := findRoute(doc, req.Method, req.URL.Path)
	if !ok {
		t.Errorf("%s %s is not documented", req.Method, req.URL.Path)
		return
	}

	input := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: &openapi3filter.RequestValidationInput{
			Request:    req,
			PathParams: params,
			Route:      route,
		},
		Status: status,
		Header: header,
		Body:   io.NopCloser(bytes.NewReader(body)),
		Options: &openapi3filter.Options{
			IncludeResponseStatus: true,
		},
	}
	if err := openapi3filter.ValidateResponse(context.Background(), input); err != nil {
		t.Errorf("%s %s -> %d violates the API description: %v\nbody: %s", req.Method, req.URL.Path, status, err, body)
	}
}

func newBareRouter(t testing.TB) *chi.Mux {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(RouterConfig{
		Logger:    logger,
		Metrics:   metrics.NewInMemory(),
		Auth:      middleware.AuthConfig{Logger: logger},
		RateLimit: middleware.RateLimitConfig{Logger: logger},
		CORS:      middleware.DefaultCORSConfig(),
	})
}

func TestOpenAPIDocument_Valid(t *testing.T) {
	doc := loadOpenAPI(t)
	assert.Equal(t, "Catalog API", doc.Info.Title)
}

func TestRouter_MatchesOpenAPIDocument(t *testing.T) {
	doc := loadOpenAPI(t)

	var routed []string
	err := chi.Walk(newBareRouter(t), func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		if route != "/" {
			route = strings.TrimSuffix(route, "/")
		}
		routed = append(routed, method+" "+route)
		return nil
	})
	require.NoError(t, err)

	var documented []string
	for path, item := range doc.Paths.Map() {
		for method := range item.Operations() {
			documented = append(documented, method+" "+path)
		}
	}

	sort.Strings(routed)
	sort.Strings(documented)
	assert.Equal(t, documented, routed)
}

func TestRouter_PublicResponsesMatchContract(t *testing.T) {
	doc := loadOpenAPI(t)
	router := newBareRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"liveness", http.MethodGet, "/healthz", http.StatusOK},
		{"readiness without dependencies", http.MethodGet, "/readyz", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK},
		{"products without token", http.MethodGet, "/api/products", http.StatusUnauthorized},
		{"product without token", http.MethodGet, "/api/products/1", http.StatusUnauthorized},
		{"manufacturers without token", http.MethodGet, "/api/manufacturers", http.StatusUnauthorized},
		{"manufacturer products without token", http.MethodGet, "/api/manufacturer/1/products", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, tt.want, rec.Code, "body: %s", rec.Body.String())
			assertContract(t, doc, req, rec.Code, rec.Header(), rec.Body.Bytes())
		})
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	router := newBareRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nothing-here", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/ld+json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"hydra:Error"`)
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	router := newBareRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/healthz", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), `No route found for \"DELETE /healthz\"`)
}
