package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zipwarden/zipwarden/internal/config"
)

func TestDisplayVersion(t *testing.T) {
	assert.Equal(t, "1.2.0", displayVersion("v1.2"))
	assert.Equal(t, "0.4.1-rc.1", displayVersion("0.4.1-rc.1"))
	assert.Equal(t, "dev", displayVersion("dev"))
}

func TestHoldCountsDown(t *testing.T) {
	var buf bytes.Buffer
	var slept []time.Duration
	hold(&buf, 3*time.Second, func(d time.Duration) { slept = append(slept, d) })

	assert.Len(t, slept, 3)
	assert.Contains(t, buf.String(), "Closing in 3 s")
	assert.Contains(t, buf.String(), "Closing in 1 s")

	buf.Reset()
	hold(&buf, 0, func(time.Duration) { t.Fatal("unexpected sleep") })
	assert.Empty(t, buf.String())
}

func writeEnv(t *testing.T) (root, env string) {
	t.Helper()
	root = t.TempDir()
	env = filepath.Join(root, ".env")
	require.NoError(t, os.WriteFile(env, []byte("ROOT="+filepath.ToSlash(root)+"\nRETENTION_DAYS=9\n"), 0o644))
	return root, env
}

func loadTestConfig(t *testing.T) *config.Config {
	t.Helper()
	root, env := writeEnv(t)
	cfg, err := config.Load(config.LoadOptions{EnvFile: env, Executable: filepath.Join(root, "bin", "zipwarden")})
	require.NoError(t, err)
	return cfg
}

func TestDoctorReportsMissingTool(t *testing.T) {
	cfg := loadTestConfig(t)
	require.NoError(t, os.MkdirAll(cfg.LogDir, 0o755))

	var buf bytes.Buffer
	err := runDoctor(context.Background(), &buf, cfg, time.Now())
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "[ OK ] Log dir found at "+cfg.LogDir)
	assert.Contains(t, out, "[MISS] Install dir not found at "+cfg.InstallDir)
	assert.Contains(t, out, "Last check: never")
	assert.True(t, strings.Contains(out, "(absent)"), out)
}

func TestConfigGetCommand(t *testing.T) {
	_, env := writeEnv(t)
	t.Cleanup(func() { envFile = "" })

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	t.Cleanup(func() { rootCmd.SetOut(nil) })

	rootCmd.SetArgs([]string{"config", "get", "RETENTION_DAYS", "--env-file", env})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "9\n", buf.String())

	rootCmd.SetArgs([]string{"config", "get", "no_such_key", "--env-file", env})
	assert.ErrorContains(t, rootCmd.Execute(), "unknown key")
}

func TestConfigCommandListsEnvNames(t *testing.T) {
	root, env := writeEnv(t)
	t.Cleanup(func() { envFile = "" })

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	t.Cleanup(func() { rootCmd.SetOut(nil) })

	rootCmd.SetArgs([]string{"config", "--env-file", env})
	require.NoError(t, rootCmd.Execute())

	out := buf.String()
	assert.Regexp(t, `retention_days\s+ZIPWARDEN_RETENTION_DAYS\s+9`, out)
	assert.Contains(t, out, "ZIPWARDEN_ROOT")
	assert.Contains(t, out, "(overrides from "+env+")")
	assert.Contains(t, out, root)
}

func TestRotationFailureStopsRun(t *testing.T) {
	root, env := writeEnv(t)
	blocker := filepath.Join(root, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	f, err := os.OpenFile(env, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("LOG_DIR=" + filepath.ToSlash(filepath.Join(blocker, "logs")) + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	t.Cleanup(func() { envFile = "" })

	rootCmd.SetArgs([]string{"rotate", "--env-file", env})
	err = rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LogRotation")
}
