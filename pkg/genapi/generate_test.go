package genapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	return NewClient("test-token", baseURL, "sticker-maker", 10*time.Second, zap.NewNop())
}

func TestGenerateHappyPath(t *testing.T) {
	var polls int32
	imageBytes := []byte("fake-png-bytes")

	mux := http.NewServeMux()
	var serverURL string

	mux.HandleFunc("/v1/predictions", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Token test-token", r.Header.Get("Authorization"))

		var req PredictionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Version, "sticker-maker")
		assert.Equal(t, "a fox, cartoon style", req.Input["prompt"])
		assert.NotEmpty(t, req.Input["negative_prompt"])

		json.NewEncoder(w).Encode(map[string]string{"id": "pred-1", "status": "starting"})
	})
	mux.HandleFunc("/v1/predictions/pred-1", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&polls, 1)
		if n < 2 {
			json.NewEncoder(w).Encode(map[string]string{"id": "pred-1", "status": "processing"})
			return
		}
		fmt.Fprintf(w, `{"id":"pred-1","status":"succeeded","output":["%s/image.png"]}`, serverURL)
	})
	mux.HandleFunc("/image.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write(imageBytes)
	})

	server := httptest.NewServer(mux)
	defer server.Close()
	serverURL = server.URL

	c := newTestClient(t, server.URL)
	result, err := c.Generate(context.Background(), "a fox, cartoon style", "realistic, photo", 10*time.Millisecond)
	require.NoError(t, err)

	assert.Equal(t, imageBytes, result.Image)
	assert.Equal(t, "sticker-maker", result.Model)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&polls), int32(2))
}

func TestGenerateFailedPrediction(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/predictions", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "pred-2", "status": "starting"})
	})
	mux.HandleFunc("/v1/predictions/pred-2", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id": "pred-2", "status": "failed", "error": "NSFW content detected",
		})
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.Generate(context.Background(), "prompt", "", 10*time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NSFW content detected")
}

func TestGenerateSubmitRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"invalid token"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.SubmitPrediction(context.Background(), "prompt", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestGenerateUnknownModel(t *testing.T) {
	c := NewClient("tok", "http://localhost", "no-such-model", time.Second, zap.NewNop())
	_, err := c.SubmitPrediction(context.Background(), "prompt", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown model")
}

func TestPollForResultTimesOut(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/predictions/pred-3", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "pred-3", "status": "processing"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := newTestClient(t, server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.PollForResult(ctx, "pred-3", 10*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFirstOutputURL(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
		wantErr  bool
	}{
		{"string output", `"https://x/img.png"`, "https://x/img.png", false},
		{"array output", `["https://x/a.png","https://x/b.png"]`, "https://x/a.png", false},
		{"empty array", `[]`, "", true},
		{"empty", ``, "", true},
		{"object", `{"weird":true}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := firstOutputURL(json.RawMessage(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
