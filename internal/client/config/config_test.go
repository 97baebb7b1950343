package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "client.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8080", c.ServerEndpointAddr)
	assert.Equal(t, "~/.spendkeeper", c.DataDir)
	assert.Equal(t, 10*time.Second, c.RequestTimeout)
	assert.False(t, c.Verbose)
}

func TestLoad(t *testing.T) {
	t.Setenv(EnvVar, "")
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	jsonPath := writeConfig(t, `{"server_endpoint_addr":"http://api:8080","data_dir":"/srv/sk","request_timeout":"3s"}`)

	tests := []struct {
		name string
		args []string
		env  string
		want *Config
	}{
		{
			name: "defaults",
			want: &Config{ServerEndpointAddr: "http://127.0.0.1:8080", DataDir: filepath.Join(home, ".spendkeeper"), RequestTimeout: 10 * time.Second},
		},
		{
			name: "json file",
			args: []string{"-c", jsonPath},
			want: &Config{ServerEndpointAddr: "http://api:8080", DataDir: "/srv/sk", RequestTimeout: 3 * time.Second},
		},
		{
			name: "env names the file",
			env:  jsonPath,
			want: &Config{ServerEndpointAddr: "http://api:8080", DataDir: "/srv/sk", RequestTimeout: 3 * time.Second},
		},
		{
			name: "explicit flags beat the file",
			args: []string{"--config", jsonPath, "-a", "http://other:1", "--timeout=1m", "-v"},
			want: &Config{ServerEndpointAddr: "http://other:1", DataDir: "/srv/sk", RequestTimeout: time.Minute, Verbose: true},
		},
		{
			name: "flags alone",
			args: []string{"-d", "/tmp/sk"},
			want: &Config{ServerEndpointAddr: "http://127.0.0.1:8080", DataDir: "/tmp/sk", RequestTimeout: 10 * time.Second},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvVar, tt.env)

			got, err := Load(newFlagSet(t, tt.args...))
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.want, got))
		})
	}
}

func TestLoad_BadFile(t *testing.T) {
	t.Setenv(EnvVar, "")

	_, err := Load(newFlagSet(t, "-c", filepath.Join(t.TempDir(), "missing.json")))
	assert.Error(t, err)

	_, err = Load(newFlagSet(t, "-c", writeConfig(t, `{"request_timeout":"soon"}`)))
	assert.Error(t, err)
}

func TestRegisterFlags_RejectsBadDuration(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	RegisterFlags(fs)
	assert.Error(t, fs.Parse([]string{"-t", "abc"}))
}
