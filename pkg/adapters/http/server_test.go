package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/cascade"
	httpAdapter "github.com/aretw0/cascade/pkg/adapters/http"
	"github.com/aretw0/cascade/pkg/adapters/echo"
	"github.com/aretw0/cascade/pkg/adapters/memory"
	"github.com/aretw0/cascade/pkg/domain"
	"github.com/aretw0/cascade/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	handler http.Handler
	runs    *memory.Store
	root    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.py"), []byte("print(1)"), 0644))

	runs := memory.NewStore()
	metrics := observability.NewMetrics()
	eng, err := cascade.New(
		cascade.WithFlow(map[string][]string{"doc": {"brd"}}),
		cascade.WithDefaults(map[string]any{"provider": echo.Name, "model": "none"}),
		cascade.WithGenerator(echo.Name, echo.New()),
		cascade.WithPrompts(memory.NewLoader(map[string]domain.PromptResource{
			"doc": {Template: "{{input_content}}"},
			"brd": {Template: "{{doc}}"},
		})),
		cascade.WithArtifacts(memory.NewArtifactStore()),
		cascade.WithRunStore(runs),
		cascade.WithLifecycleHooks(metrics.Hooks()),
	)
	require.NoError(t, err)

	return &fixture{
		handler: httpAdapter.NewHandler(eng,
			httpAdapter.WithRunStore(runs),
			httpAdapter.WithMetrics(metrics.Handler()),
			httpAdapter.WithRoot(root),
		),
		runs: runs,
		root: root,
	}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_Flow(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/flow", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var flow httpAdapter.FlowResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &flow))
	assert.Equal(t, []string{"brd", "doc"}, flow.Steps)
	assert.Equal(t, []string{"doc"}, flow.Entries)
	assert.Equal(t, []string{"brd"}, flow.Edges["doc"])

	rec = f.do(t, http.MethodGet, "/flow/mermaid", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "doc --> brd")
}

func TestServer_RunLifecycle(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/runs", `{"artifact":"main.py"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		RunID     string              `json:"run_id"`
		Status    string              `json:"status"`
		Completed []domain.StepResult `json:"completed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "succeeded", created.Status)
	assert.Len(t, created.Completed, 2)

	rec = f.do(t, http.MethodGet, "/runs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var ids []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ids))
	assert.Equal(t, []string{created.RunID}, ids)

	rec = f.do(t, http.MethodGet, "/runs/"+created.RunID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"artifact"`)

	rec = f.do(t, http.MethodGet, "/runs/"+created.RunID+"/mermaid", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "class brd completed;")

	rec = f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `cascade_runs_total{status="succeeded"} 1`)
}

func TestServer_RunErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		code   int
	}{
		{"Invalid Body", http.MethodPost, "/runs", `{`, http.StatusBadRequest},
		{"Escaping Path", http.MethodPost, "/runs", `{"artifact":"../etc/passwd"}`, http.StatusBadRequest},
		{"Missing Artifact", http.MethodPost, "/runs", `{"artifact":"nope.py"}`, http.StatusNotFound},
		{"Unknown Run", http.MethodGet, "/runs/unknown", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
		})
	}
}

func TestServer_NoRunStore(t *testing.T) {
	eng, err := cascade.New(
		cascade.WithFlow(map[string][]string{"doc": nil}),
		cascade.WithOverrides(map[string]map[string]any{"doc": {}}),
	)
	require.NoError(t, err)
	h := httpAdapter.NewHandler(eng)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs", nil).WithContext(context.Background()))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
