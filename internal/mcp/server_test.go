package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/puremark/internal/config"
)

func callTool(t *testing.T, handler func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error), params interface{}) (map[string]interface{}, *mcp.CallToolResult) {
	t.Helper()

	paramsBytes, err := json.Marshal(params)
	require.NoError(t, err)

	result, err := handler(context.Background(), &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{
		Arguments: paramsBytes,
	}})
	require.NoError(t, err)
	require.NotEmpty(t, result.Content)

	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &payload))
	return payload, result
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return NewServer(config.Default(t.TempDir()))
}

func TestAnnotateSource_RewritesEligibleCalls(t *testing.T) {
	s := newTestServer(t)

	payload, result := callTool(t, s.handleAnnotateSource, map[string]interface{}{
		"source": "foo();\nbar(1);",
	})

	assert.False(t, result.IsError)
	assert.Equal(t, true, payload["success"])
	assert.Equal(t, "/*#__PURE__*/foo();\nbar(1);", payload["source"])
	assert.Equal(t, true, payload["changed"])

	stats := payload["stats"].(map[string]interface{})
	assert.Equal(t, float64(1), stats["annotated"])
	assert.Equal(t, float64(1), stats["has_arguments"])
}

func TestAnnotateSource_DenylistExtend(t *testing.T) {
	s := newTestServer(t)

	payload, _ := callTool(t, s.handleAnnotateSource, map[string]interface{}{
		"source":          "__extends();",
		"denylist_extend": []string{"__extends"},
	})

	assert.Equal(t, "__extends();", payload["source"])
	assert.Equal(t, false, payload["changed"])
}

func TestAnnotateSource_TypeScriptFilename(t *testing.T) {
	s := newTestServer(t)

	payload, _ := callTool(t, s.handleAnnotateSource, map[string]interface{}{
		"source":   "makeStore();",
		"filename": "store.ts",
	})
	assert.Equal(t, "/*#__PURE__*/makeStore();", payload["source"])
}

func TestAnnotateSource_MissingSource(t *testing.T) {
	s := newTestServer(t)

	payload, result := callTool(t, s.handleAnnotateSource, map[string]interface{}{})
	assert.True(t, result.IsError)
	assert.Equal(t, false, payload["success"])
}

func TestClassifyCalls_ReportsVerdicts(t *testing.T) {
	s := newTestServer(t)

	payload, result := callTool(t, s.handleClassifyCalls, map[string]interface{}{
		"source": "foo();\nfunction f() { bar(); }",
	})

	assert.False(t, result.IsError)
	sites := payload["sites"].([]interface{})
	require.Len(t, sites, 2)

	first := sites[0].(map[string]interface{})
	assert.Equal(t, "foo", first["callee"])
	assert.Equal(t, "eligible", first["verdict"])

	second := sites[1].(map[string]interface{})
	assert.Equal(t, "bar", second["callee"])
	assert.Equal(t, "not-top-level", second["verdict"])
}

func TestAnnotateProject_CheckMode(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.js"), []byte("foo();"), 0644))

	s := NewServer(config.Default(root))
	payload, result := callTool(t, s.handleAnnotateProject, map[string]interface{}{
		"root":  root,
		"check": true,
	})

	assert.False(t, result.IsError)
	changed := payload["changed"].([]interface{})
	assert.Equal(t, []interface{}{"a.js"}, changed)

	// Check mode must not rewrite.
	content, err := os.ReadFile(filepath.Join(root, "a.js"))
	require.NoError(t, err)
	assert.Equal(t, "foo();", string(content))
}

func TestAnnotateProject_WritesFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.js"), []byte("new Date();"), 0644))

	s := NewServer(config.Default(root))
	payload, result := callTool(t, s.handleAnnotateProject, map[string]interface{}{"root": root})

	assert.False(t, result.IsError)
	assert.Equal(t, true, payload["success"])

	content, err := os.ReadFile(filepath.Join(root, "a.js"))
	require.NoError(t, err)
	assert.Equal(t, "/*#__PURE__*/new Date();", string(content))
}
