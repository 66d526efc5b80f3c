package staging_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/driveturbo/transcriber/internal/logging"
	"github.com/driveturbo/transcriber/internal/staging"
)

func TestObjectStoreUploadAndDelete(t *testing.T) {
	var uploads, deletes int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut:
			uploads++
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"name": "upload-abc.flac"})
		case http.MethodDelete:
			deletes++
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	store, err := staging.NewObjectStore(ctx, "test-bucket", logging.NewTest(),
		option.WithEndpoint(srv.URL), option.WithoutAuthentication())
	require.NoError(t, err)

	uri, err := store.Upload(ctx, []byte("audio-bytes"), "upload-abc.flac", "audio/flac")
	require.NoError(t, err)
	assert.Equal(t, "gs://test-bucket/upload-abc.flac", uri)
	assert.Equal(t, 1, uploads)

	store.Delete(ctx, "upload-abc.flac")
	assert.Equal(t, 1, deletes)
}

func TestObjectStoreUploadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"PERMISSION_DENIED"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	ctx := context.Background()
	store, err := staging.NewObjectStore(ctx, "test-bucket", logging.NewTest(),
		option.WithEndpoint(srv.URL), option.WithoutAuthentication())
	require.NoError(t, err)

	_, err = store.Upload(ctx, []byte("audio-bytes"), "key", "audio/flac")
	assert.Error(t, err)
}
