package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	// Import adapter packages to ensure adapters are registered via init()
	_ "github.com/leapstack-labs/leapload/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/leapload/pkg/adapters/sqlite"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "leapload.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("config", "", "config file")
	flags.String("project-dir", "", "project directory")
	flags.String("data-dir", "", "data directory")
	flags.String("renames", "", "renames file")
	flags.String("database", "", "target database")
	flags.String("state", "", "state database")
	flags.Int("parallelism", 0, "parallel entity loads")
	flags.String("output", "", "output format")
	flags.BoolP("verbose", "v", false, "verbose")
	return flags
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR_ONE", "value_one")
	t.Setenv("TEST_VAR_TWO", "value_two")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"single variable", "${TEST_VAR_ONE}", "value_one"},
		{"multiple variables", "${TEST_VAR_ONE}/${TEST_VAR_TWO}", "value_one/value_two"},
		{"unset variable stays as-is", "${UNSET_VARIABLE}", "${UNSET_VARIABLE}"},
		{"no variables", "plain string", "plain string"},
		{"empty string", "", ""},
		{"mixed set and unset", "${TEST_VAR_ONE}:${UNSET_VAR}", "value_one:${UNSET_VAR}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandEnvVars(tt.input))
		})
	}
}

func TestResolvePathRelativeTo(t *testing.T) {
	assert.Equal(t, "", resolvePathRelativeTo("", "/base"))
	assert.Equal(t, "/abs/x.db", resolvePathRelativeTo("/abs/x.db", "/base"))
	assert.Equal(t, filepath.Join("/base", "rel", "x.db"), resolvePathRelativeTo("rel/x.db", "/base"))
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "parallelism", envKey("LEAPLOAD_PARALLELISM"))
	assert.Equal(t, "target.database", envKey("LEAPLOAD_TARGET__DATABASE"))
	assert.Equal(t, "state_path", envKey("LEAPLOAD_STATE_PATH"))
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := t.TempDir()
	flags := testFlags()
	require.NoError(t, flags.Set("project-dir", dir))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(dir, "data"), cfg.DataDir)
	assert.Equal(t, filepath.Join(dir, "renames.json"), cfg.Renames)
	assert.Equal(t, filepath.Join(dir, ".leapload", "state.db"), cfg.StatePath)
	assert.Equal(t, 1, cfg.Parallelism)
	assert.Equal(t, "warn", cfg.Orphans)
	assert.Equal(t, "auto", cfg.OutputFormat)
	require.NotNil(t, cfg.Target)
	assert.Equal(t, "duckdb", cfg.Target.Type)
	assert.Empty(t, GetConfigFileUsed())
}

func TestLoadConfig_FileResolvesAgainstProjectRoot(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, `data_dir: snapshots
renames: maps/renames.json
orphans: fail
target:
  type: sqlite
  database: out/warehouse.db
sources:
  - name: items
    type: csv
    file: items.csv
entities:
  - table: Item
    from: items
    primary_key: ITEM_id
`)

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, cfgPath, GetConfigFileUsed())
	assert.Equal(t, filepath.Join(dir, "snapshots"), cfg.DataDir)
	assert.Equal(t, filepath.Join(dir, "maps", "renames.json"), cfg.Renames)
	assert.Equal(t, filepath.Join(dir, "out", "warehouse.db"), cfg.Target.Database)
	assert.Equal(t, "fail", cfg.Orphans)
	require.Len(t, cfg.Sources, 1)
	assert.Equal(t, ",", cfg.Sources[0].Delimiter)
	assert.Equal(t, filepath.Join(dir, "snapshots", "items.csv"), cfg.SourcePath(cfg.Sources[0]))
	require.Len(t, cfg.Entities, 1)
	assert.Equal(t, "ITEM_id", cfg.Entities[0].PrimaryKey)
}

func TestLoadConfig_MemoryDatabaseIsKept(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "target:\n  type: sqlite\n  database: \":memory:\"\n")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)
	assert.Equal(t, ":memory:", cfg.Target.Database)
}

func TestLoadConfig_FlagPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "parallelism: 2\ntarget:\n  type: sqlite\n")
	t.Setenv("LEAPLOAD_PARALLELISM", "3")

	flags := testFlags()
	require.NoError(t, flags.Set("parallelism", "4"))

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Parallelism, "flag value should override config file and env var")
}

func TestLoadConfig_EnvPrecedenceOverFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "parallelism: 2\ntarget:\n  type: sqlite\n  database: file.db\n")
	t.Setenv("LEAPLOAD_PARALLELISM", "3")
	t.Setenv("LEAPLOAD_TARGET__DATABASE", "env.db")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Parallelism, "env var should override config file")
	assert.Equal(t, filepath.Join(dir, "env.db"), cfg.Target.Database)
	assert.Equal(t, "sqlite", cfg.Target.Type)
}

func TestLoadConfig_FlagNotSetUsesEnv(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "parallelism: 2\ntarget:\n  type: sqlite\n")
	t.Setenv("LEAPLOAD_PARALLELISM", "3")

	cfg, err := LoadConfig(cfgPath, testFlags())
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Parallelism, "env var should be used when flag is not set")
}

func TestLoadConfig_FlagPathsResolveAgainstWorkingDir(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "target:\n  type: sqlite\n")

	flags := testFlags()
	require.NoError(t, flags.Set("state", "run/state.db"))
	require.NoError(t, flags.Set("database", "run/wh.db"))

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)

	cwd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cwd, "run", "state.db"), cfg.StatePath)
	assert.Equal(t, filepath.Join(cwd, "run", "wh.db"), cfg.Target.Database)
}

func TestLoadConfig_DotEnvExpansion(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "target:\n  type: sqlite\n  database: ${LEAPLOAD_TEST_DB_NAME}.db\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LEAPLOAD_TEST_DB_NAME=from_dotenv\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("LEAPLOAD_TEST_DB_NAME") })

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "from_dotenv.db"), cfg.Target.Database)
}

func TestLoadConfig_DotEnvDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "target:\n  type: sqlite\n  database: ${LEAPLOAD_TEST_DB_KEEP}.db\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LEAPLOAD_TEST_DB_KEEP=from_dotenv\n"), 0o600))
	t.Setenv("LEAPLOAD_TEST_DB_KEEP", "from_shell")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "from_shell.db"), cfg.Target.Database)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		errSubstr string
	}{
		{"unknown target", "target:\n  type: mysql\n", "unknown warehouse type"},
		{"bad output", "output: yaml\ntarget:\n  type: sqlite\n", "invalid output format"},
		{"bad yaml", "target: [\n", "error reading config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfgPath := writeConfig(t, t.TempDir(), tt.content)
			_, err := LoadConfig(cfgPath, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestLoadConfig_FindsConfigUpward(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "target:\n  type: sqlite\n")
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	t.Chdir(nested)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	// macOS temp dirs resolve through a symlink; compare evaluated paths.
	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(cfg.ProjectRoot)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, "sqlite", cfg.Target.Type)
}

func TestValidateDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{}
	cfg.DataDir = filepath.Join(dir, "missing")
	err := cfg.ValidateDirectories()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--data-dir")

	cfg.DataDir = dir
	assert.NoError(t, cfg.ValidateDirectories())
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	_, ok := FromContext(ctx)
	assert.False(t, ok)
	assert.NotNil(t, GetLogger(ctx))

	cfg := &Config{StatePath: "x"}
	got, ok := FromContext(WithConfig(ctx, cfg))
	require.True(t, ok)
	assert.Same(t, cfg, got)
}
