package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownload(t *testing.T) {
	var gotHeaders http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		w.Write([]byte("artifact"))
	}))
	defer srv.Close()

	client, err := NewClient(ClientOptions{Headers: map[string]string{"X-Test": "1"}})
	require.NoError(t, err)

	body, size, err := client.Download(context.Background(), srv.URL+"/a.tar.gz")
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "artifact", string(data))
	assert.Equal(t, int64(8), size)

	assert.Equal(t, DefaultUserAgent, gotHeaders.Get(HeaderUserAgent))
	assert.Equal(t, "zstd", gotHeaders.Get(HeaderAcceptEncoding))
	assert.Equal(t, "1", gotHeaders.Get("X-Test"))
}

func TestDownloadZstd(t *testing.T) {
	var compressed bytes.Buffer
	enc, err := zstd.NewWriter(&compressed)
	require.NoError(t, err)
	_, err = enc.Write([]byte("decoded artifact"))
	require.NoError(t, err)
	require.NoError(t, enc.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(HeaderContentEncoding, "zstd")
		w.Write(compressed.Bytes())
	}))
	defer srv.Close()

	client, err := NewClient(ClientOptions{})
	require.NoError(t, err)

	body, size, err := client.Download(context.Background(), srv.URL)
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "decoded artifact", string(data))
	assert.Equal(t, int64(-1), size)
}

func TestDownloadHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/json" {
			w.Header().Set(HeaderContentType, "application/json")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"Not Found"}`))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := NewClient(ClientOptions{SkipDefaultHeaders: true})
	require.NoError(t, err)

	_, _, err = client.Download(context.Background(), srv.URL+"/json")
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	assert.Equal(t, "Not Found", httpErr.Message)
	assert.Contains(t, err.Error(), "not found")

	_, _, err = client.Download(context.Background(), srv.URL+"/plain")
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	assert.Contains(t, err.Error(), "502 bad gateway")
}

func TestDownloadVerboseLog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	var log bytes.Buffer
	client, err := NewClient(ClientOptions{Log: &log, LogVerboseHTTP: true})
	require.NoError(t, err)

	body, _, err := client.Download(context.Background(), srv.URL+"/logged")
	require.NoError(t, err)
	io.ReadAll(body)
	body.Close()

	assert.Contains(t, log.String(), "/logged")
}
