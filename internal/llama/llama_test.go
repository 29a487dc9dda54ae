package llama

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/completion", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content":" 135/85/None\n","stop":true}`))
	}))
	defer srv.Close()

	l := Init(Options{Server: srv.URL, Seed: 42, HttpClient: srv.Client()})
	assert.Equal(t, "llama", l.Name())
	assert.Equal(t, DefaultModel, l.Model())

	reply, err := l.Analyze(t.Context(), "aGVsbG8=", "read it")
	require.NoError(t, err)
	assert.Equal(t, "135/85/None", reply)

	assert.EqualValues(t, 42, got["seed"])
	assert.EqualValues(t, 300, got["n_predict"])
	assert.Equal(t, false, got["stream"])
	prompt, _ := got["prompt"].(string)
	assert.True(t, strings.Contains(prompt, "[img-10]read it"), "prompt %q", prompt)

	images, ok := got["image_data"].([]any)
	require.True(t, ok)
	require.Len(t, images, 1)
	image := images[0].(map[string]any)
	assert.Equal(t, "aGVsbG8=", image["data"])
	assert.EqualValues(t, 10, image["id"])
}

func TestAnalyzeRetriesWhileLoading(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, `{"error":"Loading model"}`, http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content":"120/80/72"}`))
	}))
	defer srv.Close()

	l := Init(Options{Server: srv.URL, MaxRetries: 3, HttpClient: srv.Client()})
	l.client.SetRetryWaitTime(time.Millisecond).SetRetryMaxWaitTime(5 * time.Millisecond)

	reply, err := l.Analyze(t.Context(), "aGVsbG8=", "read it")
	require.NoError(t, err)
	assert.Equal(t, "120/80/72", reply)
	assert.EqualValues(t, 3, calls.Load())
}

func TestAnalyzeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	l := Init(Options{Server: srv.URL, HttpClient: srv.Client()})
	_, err := l.Analyze(t.Context(), "aGVsbG8=", "read it")
	assert.ErrorContains(t, err, "400")
}

func TestIsHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"status":"ok"}`))
	}))

	l := Init(Options{Server: srv.URL + "/", HttpClient: srv.Client()})
	assert.True(t, l.IsHealthy(t.Context()))

	srv.Close()
	assert.False(t, l.IsHealthy(t.Context()))
}
