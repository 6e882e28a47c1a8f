package rewrite

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestClean(t *testing.T) {
	t.Parallel()

	in := "Here is the rewritten obituary:\n\n" +
		"\"John was a banker.\n" +
		"  He loved gardening.\"  \n" +
		"I've kept the formal and respectful tone.\n" +
		"`Done`"
	require.Equal(t, "John was a banker. He loved gardening. Done", Clean(in))
	require.Equal(t, "", Clean("   \n\n"))
	require.Equal(t, "She was kind.", Clean("'She was kind.'"))
}

func TestClient_Rewrite(t *testing.T) {
	t.Parallel()

	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"role": "assistant", "content": "Here's your text:\nHe was a banker."},
			"done":    true,
		})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL + "/", Model: "m1"}, zap.NewNop())
	out, err := c.Rewrite(context.Background(), "he is a banker")
	require.NoError(t, err)
	require.Equal(t, "He was a banker.", out)

	require.Equal(t, "m1", got.Model)
	require.False(t, got.Stream)
	require.Len(t, got.Messages, 2)
	require.Equal(t, "system", got.Messages[0].Role)
	require.Contains(t, got.Messages[1].Content, "he is a banker")
}

func TestClient_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "loading model", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"ok text"}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, MaxRetries: 3, RetryDelay: time.Millisecond}, zap.NewNop())
	out, err := c.Rewrite(context.Background(), "x")
	require.NoError(t, err)
	require.Equal(t, "ok text", out)
	require.EqualValues(t, 2, calls.Load())
}

func TestClient_ClientErrorsAreNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, MaxRetries: 3, RetryDelay: time.Millisecond}, zap.NewNop())
	_, err := c.Rewrite(context.Background(), "x")
	require.Error(t, err)
	require.EqualValues(t, 1, calls.Load())
}
