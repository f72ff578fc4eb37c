package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProcess(t *testing.T) {
	// Default config
	config, err := Process([]string{})
	require.NoError(t, err)
	require.Equal(t, 30, config.CountdownSeconds)
	require.Equal(t, 60, config.TickHz)
	require.Equal(t, 250.0, config.Arena.Radius)

	dir := t.TempDir()

	// yaml config
	{
		yaml := filepath.Join(dir, "config.yaml")
		err = os.WriteFile(yaml, []byte(`
port: 1234
arena:
  radius: 300
`), 0644)
		require.NoError(t, err)
		config, err = Process([]string{yaml})
		require.NoError(t, err)
		require.Equal(t, 1234, config.Port)
		require.Equal(t, 300.0, config.Arena.Radius)
		// Untouched values keep their defaults.
		require.Equal(t, 20.0, config.Arena.PlayerRadius)
	}

	// json config
	{
		json := filepath.Join(dir, "config.json")
		err = os.WriteFile(json, []byte(`{
  "port": 1235,
  "countdownSeconds": 60
}`), 0644)
		require.NoError(t, err)
		config, err = Process([]string{json})
		require.NoError(t, err)
		require.Equal(t, 1235, config.Port)
		require.Equal(t, 60, config.CountdownSeconds)
	}

	// later files win
	{
		yaml1 := filepath.Join(dir, "config1.yaml")
		err = os.WriteFile(yaml1, []byte("port: 1234\n"), 0644)
		require.NoError(t, err)

		yaml2 := filepath.Join(dir, "config2.yaml")
		err = os.WriteFile(yaml2, []byte("port: 4321\n"), 0644)
		require.NoError(t, err)

		config, err = Process([]string{yaml1, yaml2})
		require.NoError(t, err)
		require.Equal(t, 4321, config.Port)
	}

	// missing file
	_, err = Process([]string{filepath.Join(dir, "nope.yaml")})
	require.Error(t, err)

	// unrecognized extension
	{
		toml := filepath.Join(dir, "config.toml")
		err = os.WriteFile(toml, []byte("port = 1\n"), 0644)
		require.NoError(t, err)
		_, err = Process([]string{toml})
		require.Error(t, err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("KNIFEARENA_HOST", "127.0.0.1")
	t.Setenv("KNIFEARENA_PORT", "9999")

	config, err := Process([]string{})
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1", config.Host)
	require.Equal(t, 9999, config.Port)

	t.Setenv("KNIFEARENA_PORT", "not-a-port")
	_, err = Process([]string{})
	require.Error(t, err)
}

func TestValidation(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	err := os.WriteFile(bad, []byte("tickHz: 0\n"), 0644)
	require.NoError(t, err)

	_, err = Process([]string{bad})
	require.Error(t, err)

	t.Setenv("KNIFEARENA_PORT", "-1")
	_, err = Process([]string{})
	require.Error(t, err)
}
