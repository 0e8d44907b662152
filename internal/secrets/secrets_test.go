// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deck-converter/pkg/types"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(t *testing.T) string
		want   map[string]string
		errMsg string
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "storage-access-key", "  AKIAEXAMPLE  \n")
				writeFile(t, dir, "storage-secret-key", "wJalrXUtnFEMI\n")
				return dir
			},
			want: map[string]string{
				"storage-access-key": "AKIAEXAMPLE",
				"storage-secret-key": "wJalrXUtnFEMI",
			},
		},
		{
			name: "returns empty map for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: map[string]string{},
		},
		{
			name: "skips empty files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "storage-access-key", "valid-key")
				writeFile(t, dir, "empty-key", "")
				writeFile(t, dir, "whitespace-only", "   \n\t  ")
				return dir
			},
			want: map[string]string{
				"storage-access-key": "valid-key",
			},
		},
		{
			name: "skips dotfiles",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".hidden-key", "secret")
				writeFile(t, dir, "storage-secret-key", "sk_real")
				return dir
			},
			want: map[string]string{
				"storage-secret-key": "sk_real",
			},
		},
		{
			name: "skips subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "storage-access-key", "ak_123")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			want: map[string]string{
				"storage-access-key": "ak_123",
			},
		},
		{
			name: "returns empty map for empty directory",
			setup: func(t *testing.T) string {
				return t.TempDir()
			},
			want: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := tt.setup(t)
			log, _ := test.NewNullLogger()
			got, err := Load(dir, log)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadUnreadableFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good-key", "value123")

	// Create a file then remove read permission.
	badPath := filepath.Join(dir, "bad-key")
	require.NoError(t, os.WriteFile(badPath, []byte("secret"), 0o000))
	t.Cleanup(func() { os.Chmod(badPath, 0o644) })

	if os.Geteuid() == 0 {
		t.Skip("root can read files without permission")
	}

	log, hook := test.NewNullLogger()
	got, err := Load(dir, log)
	require.NoError(t, err)
	// The good file should still be returned; the bad file is skipped with a warning.
	assert.Equal(t, "value123", got["good-key"])
	_, hasBad := got["bad-key"]
	assert.False(t, hasBad, "unreadable file should not appear in result")
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "bad-key", hook.LastEntry().Data["secret"])
}

func TestApplyStorage(t *testing.T) {
	secrets := map[string]string{
		StorageAccessKey: "from-file-access",
		StorageSecretKey: "from-file-secret",
	}

	cfg := types.StorageConfig{}
	ApplyStorage(&cfg, secrets)
	assert.Equal(t, "from-file-access", cfg.AccessKey)
	assert.Equal(t, "from-file-secret", cfg.SecretKey)

	cfg = types.StorageConfig{AccessKey: "from-env"}
	ApplyStorage(&cfg, secrets)
	assert.Equal(t, "from-env", cfg.AccessKey)
	assert.Equal(t, "from-file-secret", cfg.SecretKey)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
