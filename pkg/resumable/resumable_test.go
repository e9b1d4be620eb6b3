package resumable

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestStartReturnsSessionLocation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/pdf", r.Header.Get("X-Upload-Content-Type"))
		require.Equal(t, "2048", r.Header.Get("X-Upload-Content-Length"))
		w.Header().Set("Location", "https://uploads.example.com/session/abc123")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(zerolog.Nop())
	location, err := client.Start(context.Background(), server.URL, FileMeta{
		Name:      "report.pdf",
		SizeBytes: 2048,
		MimeType:  "application/pdf",
	})
	require.NoError(t, err)
	require.Equal(t, "https://uploads.example.com/session/abc123", location)
}

func TestStartRejectsMissingLocation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(zerolog.Nop())
	_, err := client.Start(context.Background(), server.URL, FileMeta{Name: "report.pdf"})
	require.Error(t, err)
}

func TestQueryStatusComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "bytes */4096", r.Header.Get("Content-Range"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(zerolog.Nop())
	status, err := client.QueryStatus(context.Background(), server.URL, 4096)
	require.NoError(t, err)
	require.True(t, status.Complete)
	require.Equal(t, int64(4096), status.ReceivedBytes)
}

func TestQueryStatusIncomplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Range", "bytes=0-1023")
		w.WriteHeader(http.StatusPermanentRedirect)
	}))
	defer server.Close()

	client := NewClient(zerolog.Nop())
	status, err := client.QueryStatus(context.Background(), server.URL, 4096)
	require.NoError(t, err)
	require.False(t, status.Complete)
	require.Equal(t, int64(1024), status.ReceivedBytes)
}

func TestQueryStatusServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(zerolog.Nop())
	_, err := client.QueryStatus(context.Background(), server.URL, 4096)
	require.Error(t, err)
}

func TestParseReceivedBytes(t *testing.T) {
	require.Equal(t, int64(0), parseReceivedBytes(""))
	require.Equal(t, int64(0), parseReceivedBytes("garbage"))
	require.Equal(t, int64(512), parseReceivedBytes("bytes=0-511"))
}
