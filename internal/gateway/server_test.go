package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jarscope/jarscope/internal/pipeline"
)

// fakeService returns canned results or a canned error.
type fakeService struct {
	analysis *pipeline.AnalysisResult
	unit     *pipeline.DecompiledUnit
	combined *pipeline.CombinedResult
	err      error
}

func (f *fakeService) Analyze(ctx context.Context, req pipeline.ResolutionRequest) (*pipeline.AnalysisResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.analysis, nil
}

func (f *fakeService) DecompileOne(ctx context.Context, req pipeline.DecompileRequest) (*pipeline.DecompiledUnit, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.unit, nil
}

func (f *fakeService) FindAndDecompile(ctx context.Context, req pipeline.ResolutionRequest) (*pipeline.CombinedResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.combined, nil
}

func newTestServer(t *testing.T, svc Service, opts ...Option) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(NewServer(svc, nil, opts...).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

const analyzeBody = `{
	"dependencies": [{"groupId": "org.example", "artifactId": "lib", "version": "1.0"}],
	"target_classes": ["Target"]
}`

// ---------------------------------------------------------------------------
// TestInfoEndpoints
// ---------------------------------------------------------------------------

func TestInfoEndpoints(t *testing.T) {
	ts := newTestServer(t, &fakeService{}, WithVersion("1.2.3"))

	t.Run("health reports healthy", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodGet, ts.URL+"/health", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `"healthy"`, string(body["status"]))
	})

	t.Run("root reports service identity", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodGet, ts.URL+"/", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `"jarscope"`, string(body["service"]))
		assert.JSONEq(t, `"1.2.3"`, string(body["version"]))
	})

	t.Run("unknown path is 404", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/nope")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

// ---------------------------------------------------------------------------
// TestAnalyzeEndpoint
// ---------------------------------------------------------------------------

func TestAnalyzeEndpoint(t *testing.T) {
	t.Run("returns the pipeline result", func(t *testing.T) {
		svc := &fakeService{analysis: &pipeline.AnalysisResult{
			FoundClasses: map[string][]pipeline.ClassLocation{
				"Target": {{ClassName: "org.example.Target", JarPath: "/w/lib.jar", FilePath: "org/example/Target.class"}},
			},
			JarFiles: []string{"/w/lib.jar"},
			WorkDir:  "/w",
			Summary:  pipeline.Summary{TotalArtifacts: 1, FoundCount: 1, MissingNames: []string{}},
		}}
		ts := newTestServer(t, svc)

		resp, body := doJSON(t, http.MethodPost, ts.URL+"/analyze", analyzeBody)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body["found_classes"]), "org.example.Target")
		assert.JSONEq(t, `"/w"`, string(body["work_dir"]))
	})

	t.Run("malformed body is 400", func(t *testing.T) {
		ts := newTestServer(t, &fakeService{})
		resp, body := doJSON(t, http.MethodPost, ts.URL+"/analyze", "{not json")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, string(body["error"]), "validation_error")
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		ts := newTestServer(t, &fakeService{})
		resp, _ := doJSON(t, http.MethodPost, ts.URL+"/analyze",
			`{"dependencies": [], "target_classes": [], "surprise": true}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

// ---------------------------------------------------------------------------
// TestErrorStatusMapping
// ---------------------------------------------------------------------------

func TestErrorStatusMapping(t *testing.T) {
	cases := []struct {
		kind pipeline.ErrorKind
		want int
	}{
		{pipeline.KindValidation, http.StatusBadRequest},
		{pipeline.KindArchiveUnreadable, http.StatusNotFound},
		{pipeline.KindResolutionFailed, http.StatusUnprocessableEntity},
		{pipeline.KindDecompilationFailed, http.StatusUnprocessableEntity},
		{pipeline.KindDescriptorWrite, http.StatusUnprocessableEntity},
		{pipeline.KindNetworkUnavailable, http.StatusBadGateway},
		{pipeline.KindTimeout, http.StatusGatewayTimeout},
		{pipeline.KindToolNotFound, http.StatusInternalServerError},
		{pipeline.KindInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			svc := &fakeService{err: pipeline.NewError(tc.kind, "synthetic")}
			ts := newTestServer(t, svc)

			resp, body := doJSON(t, http.MethodPost, ts.URL+"/analyze", analyzeBody)
			assert.Equal(t, tc.want, resp.StatusCode)

			var wire pipeline.Error
			require.NoError(t, json.Unmarshal(body["error"], &wire))
			assert.Equal(t, tc.kind, wire.Kind)
		})
	}
}

// ---------------------------------------------------------------------------
// TestDecompileEndpoint
// ---------------------------------------------------------------------------

func TestDecompileEndpoint(t *testing.T) {
	svc := &fakeService{unit: &pipeline.DecompiledUnit{
		ClassName:     "org.example.Target",
		JarPath:       "/w/lib.jar",
		ClassFilePath: "org/example/Target.class",
		SourceText:    "public class Target {}",
	}}
	ts := newTestServer(t, svc)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/decompile",
		`{"jar_path": "/w/lib.jar", "class_file_path": "org/example/Target.class"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `"public class Target {}"`, string(body["decompiled_code"]))
}

// ---------------------------------------------------------------------------
// TestCleanupEndpoint
// ---------------------------------------------------------------------------

func TestCleanupEndpoint(t *testing.T) {
	t.Run("removes a directory under the work root", func(t *testing.T) {
		root := t.TempDir()
		victim := filepath.Join(root, "maven_analyze_123")
		require.NoError(t, os.MkdirAll(filepath.Join(victim, "dependencies"), 0o755))
		ts := newTestServer(t, &fakeService{}, WithWorkRoot(root))

		resp, body := doJSON(t, http.MethodDelete, ts.URL+"/cleanup?work_dir="+victim, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `"success"`, string(body["status"]))
		assert.NoDirExists(t, victim)
	})

	t.Run("missing directory reports not_found", func(t *testing.T) {
		root := t.TempDir()
		ts := newTestServer(t, &fakeService{}, WithWorkRoot(root))

		resp, body := doJSON(t, http.MethodDelete,
			ts.URL+"/cleanup?work_dir="+filepath.Join(root, "gone"), "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `"not_found"`, string(body["status"]))
	})

	t.Run("paths outside the work root are rejected", func(t *testing.T) {
		root := t.TempDir()
		outside := t.TempDir()
		ts := newTestServer(t, &fakeService{}, WithWorkRoot(root))

		resp, _ := doJSON(t, http.MethodDelete, ts.URL+"/cleanup?work_dir="+outside, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.DirExists(t, outside)
	})

	t.Run("the work root itself is not removable", func(t *testing.T) {
		root := t.TempDir()
		ts := newTestServer(t, &fakeService{}, WithWorkRoot(root))

		resp, _ := doJSON(t, http.MethodDelete, ts.URL+"/cleanup?work_dir="+root, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.DirExists(t, root)
	})

	t.Run("missing parameter is rejected", func(t *testing.T) {
		ts := newTestServer(t, &fakeService{}, WithWorkRoot(t.TempDir()))
		resp, _ := doJSON(t, http.MethodDelete, ts.URL+"/cleanup", "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

// ---------------------------------------------------------------------------
// TestIsUnder
// ---------------------------------------------------------------------------

func TestIsUnder(t *testing.T) {
	assert.True(t, isUnder("/work", "/work/maven_analyze_1"))
	assert.True(t, isUnder("/work", "/work/a/b/c"))
	assert.False(t, isUnder("/work", "/work"))
	assert.False(t, isUnder("/work", "/work/../etc"))
	assert.False(t, isUnder("/work", "/elsewhere"))
	assert.False(t, isUnder("/work", "/workother"))
}
