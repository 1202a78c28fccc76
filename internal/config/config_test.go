package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunoabdon/abdedge/cors"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "abdedge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    *File
	}{
		{
			name:    "empty file keeps defaults",
			content: "",
			want:    Default(),
		},
		{
			name: "full file",
			content: `
listen: 127.0.0.1:9000
log:
  level: debug
  format: text
cors:
  preflight_success_status: 200
  preflight_failure_status: 403
  public_suffix_subdomains: true
`,
			want: &File{
				Listen: "127.0.0.1:9000",
				Log:    Log{Level: "debug", Format: "text"},
				CORS: CORS{
					PreflightSuccessStatus: 200,
					PreflightFailureStatus: 403,
					PublicSuffixSubdomains: true,
				},
			},
		},
		{
			name:    "partial file merges into defaults",
			content: "log:\n  level: warn\n",
			want: &File{
				Listen: DefaultListen,
				Log:    Log{Level: "warn", Format: DefaultLogFormat},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(writeFile(t, tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
	t.Run("unknown key", func(t *testing.T) {
		_, err := Load(writeFile(t, "origins: [\"https://example.com\"]\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})
	t.Run("wrong type", func(t *testing.T) {
		_, err := Load(writeFile(t, "cors:\n  preflight_success_status: yes please\n"))
		require.Error(t, err)
	})
}

func TestCORSApplyTo(t *testing.T) {
	cfg := cors.Config{Origins: []string{"https://example.com"}}
	CORS{PreflightSuccessStatus: 200, PreflightFailureStatus: 403, PublicSuffixSubdomains: true}.ApplyTo(&cfg)

	assert.Equal(t, []string{"https://example.com"}, cfg.Origins)
	assert.Equal(t, 200, cfg.PreflightSuccessStatus)
	assert.Equal(t, 403, cfg.PreflightFailureStatus)
	assert.True(t, cfg.DangerouslyTolerateSubdomainsOfPublicSuffixes)
}
