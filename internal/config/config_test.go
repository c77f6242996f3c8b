package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestParseKDL_FullDocument(t *testing.T) {
	content := `
project {
    root "."
    name "webapp"
}
include "src/**/*.js" "src/**/*.ts"
exclude {
    "**/fixtures/**"
}
denylist {
    extend "__decorate" "__metadata"
    use_defaults true
}
workers 4
verify true
watch {
    debounce_ms 500
}
`
	cfg, err := parseKDL(content)
	require.NoError(t, err)

	assert.Equal(t, "webapp", cfg.Project.Name)
	assert.Equal(t, []string{"src/**/*.js", "src/**/*.ts"}, cfg.Include)
	assert.Contains(t, cfg.Exclude, "**/fixtures/**")
	assert.Contains(t, cfg.Exclude, "**/node_modules/**")
	assert.Equal(t, []string{"__decorate", "__metadata"}, cfg.Denylist.Extend)
	assert.True(t, cfg.Denylist.UseDefaults)
	assert.Equal(t, 4, cfg.Workers)
	assert.True(t, cfg.Verify)
	assert.Equal(t, 500, cfg.Watch.DebounceMs)
}

func TestParseKDL_EmptyDocumentKeepsDefaults(t *testing.T) {
	cfg, err := parseKDL("")
	require.NoError(t, err)
	assert.True(t, cfg.Denylist.UseDefaults)
	assert.Greater(t, cfg.Workers, 0)
	assert.False(t, cfg.Verify)
	assert.Equal(t, 300, cfg.Watch.DebounceMs)
}

func TestParseKDL_DenylistReplace(t *testing.T) {
	content := `
denylist {
    replace "myHelper"
}
`
	cfg, err := parseKDL(content)
	require.NoError(t, err)
	assert.Equal(t, []string{"myHelper"}, cfg.Denylist.Replace)

	dl := cfg.Denylist.Resolve()
	assert.True(t, dl.Contains("myHelper"))
	assert.False(t, dl.Contains("__importStar"))
}

func TestParseKDL_InvalidSyntax(t *testing.T) {
	_, err := parseKDL(`project { root "unterminated`)
	assert.Error(t, err)
}

func TestParseTOML_FullDocument(t *testing.T) {
	content := []byte(`
include = ["src/**/*.js"]
exclude = ["**/generated/**"]
workers = 2
verify = true

[project]
root = "."
name = "webapp"

[denylist]
extend = ["__decorate"]
use_defaults = false

[watch]
debounce_ms = 250
`)
	cfg, err := parseTOML(content)
	require.NoError(t, err)

	assert.Equal(t, "webapp", cfg.Project.Name)
	assert.Equal(t, []string{"src/**/*.js"}, cfg.Include)
	assert.Contains(t, cfg.Exclude, "**/generated/**")
	assert.Equal(t, []string{"__decorate"}, cfg.Denylist.Extend)
	assert.False(t, cfg.Denylist.UseDefaults)
	assert.Equal(t, 2, cfg.Workers)
	assert.True(t, cfg.Verify)
	assert.Equal(t, 250, cfg.Watch.DebounceMs)
}

func TestDenylistConfig_Resolve(t *testing.T) {
	defaults := DenylistConfig{UseDefaults: true}
	dl := defaults.Resolve()
	assert.True(t, dl.Contains("__importStar"))

	extended := DenylistConfig{UseDefaults: true, Extend: []string{"__extends"}}
	dl = extended.Resolve()
	assert.True(t, dl.Contains("__importStar"))
	assert.True(t, dl.Contains("__extends"))

	noDefaults := DenylistConfig{UseDefaults: false, Extend: []string{"only"}}
	dl = noDefaults.Resolve()
	assert.False(t, dl.Contains("__importStar"))
	assert.True(t, dl.Contains("only"))
}

func TestLoad_NoConfigFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Project.Root)
	assert.True(t, cfg.Denylist.UseDefaults)
}

func TestLoad_KDLProjectConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	writeConfig(t, dir, ".puremark.kdl", `
project {
    name "demo"
}
workers 3
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.Project.Name)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, dir, cfg.Project.Root)
}

func TestLoad_TOMLFallback(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	writeConfig(t, dir, ".puremark.toml", "workers = 7\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Workers)
}

func TestLoad_KDLTakesPrecedenceOverTOML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	writeConfig(t, dir, ".puremark.kdl", "workers 3")
	writeConfig(t, dir, ".puremark.toml", "workers = 7\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Workers)
}

func TestLoad_GlobalConfigMergedUnderProject(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	writeConfig(t, home, ".puremark.kdl", `
exclude "**/legacy/**"
denylist {
    extend "__globalHelper"
}
workers 9
`)

	dir := t.TempDir()
	writeConfig(t, dir, ".puremark.kdl", `
denylist {
    extend "__projectHelper"
}
workers 2
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Workers)
	assert.Contains(t, cfg.Exclude, "**/legacy/**")
	assert.Contains(t, cfg.Denylist.Extend, "__globalHelper")
	assert.Contains(t, cfg.Denylist.Extend, "__projectHelper")
}

func TestNormalizeRoot_RelativeResolvedAgainstConfigDir(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{Project: Project{Root: "sub"}}
	normalizeRoot(cfg, dir)
	assert.Equal(t, filepath.Join(dir, "sub"), cfg.Project.Root)
}
