package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rantizi/infomedia-dashboard/internal/config"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestClient(baseURL string) *Client {
	return NewClient(config.StorageConfig{
		BaseURL:    baseURL,
		ServiceKey: "test-key",
		Bucket:     "imports",
	})
}

func TestClient_Download(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/storage/v1/object/imports/tenant-a/file.xlsx", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "test-key", r.Header.Get("apikey"))
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	data, err := c.Download(context.Background(), "/tenant-a/file.xlsx")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
}

func TestClient_Download_NotFoundDoesNotRetry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "object not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Download(context.Background(), "missing.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Contains(t, err.Error(), "imports/missing.csv")
	assert.Equal(t, int32(1), hits.Load())
}

func TestClient_Download_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	data, err := c.Download(context.Background(), "file.csv")
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), data)
	assert.Equal(t, int32(2), hits.Load())
}

func TestClient_Download_ExhaustsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	c.maxRetries = 2
	_, err := c.Download(context.Background(), "file.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retries exhausted")
}

func TestClient_Download_Unconfigured(t *testing.T) {
	c := NewClient(config.StorageConfig{})
	_, err := c.Download(context.Background(), "file.csv")
	assert.Error(t, err)
}
