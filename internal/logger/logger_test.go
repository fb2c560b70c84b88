package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_WritesRotatedFile(t *testing.T) {
	for _, mode := range []string{"release", "development"} {
		t.Run(mode, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "app.log")

			l, err := New(path, mode)
			require.NoError(t, err)
			l.Info("dashboard ready")
			_ = l.Sync()

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			require.True(t, strings.Contains(string(data), `"dashboard ready"`), "log file content: %s", data)
		})
	}
}

func TestNew_WithoutFile(t *testing.T) {
	l, err := New("", "development")
	require.NoError(t, err)
	require.NotNil(t, l)
}
