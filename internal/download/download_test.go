package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSave(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mp4")
		_, _ = w.Write([]byte("audio-bytes"))
	}))
	defer upstream.Close()

	dest := filepath.Join(t.TempDir(), "out", "track.m4a")
	err := Save(context.Background(), upstream.URL+"/track.m4a", dest)
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "audio-bytes", string(data))
}

func TestSaveUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer upstream.Close()

	err := Save(context.Background(), upstream.URL+"/track.m4a", filepath.Join(t.TempDir(), "x.m4a"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
