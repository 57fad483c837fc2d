package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Send(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"msg_123"}`))
	}))
	defer srv.Close()

	c := New("re_test", srv.URL+"/", "", time.Second)
	id, err := c.Send(context.Background(), "a@b.co", "Hello", "<p>hi</p>")
	require.NoError(t, err)
	assert.Equal(t, "msg_123", id)
	assert.Equal(t, DefaultFrom, got.From)
	assert.Equal(t, []string{"a@b.co"}, got.To)
	assert.Equal(t, "Hello", got.Subject)
	assert.Equal(t, "<p>hi</p>", got.HTML)
}

func TestClient_Send_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid to"}`))
	}))
	defer srv.Close()

	_, err := New("k", srv.URL, "Me <me@x.io>", time.Second).Send(context.Background(), "bad", "s", "h")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `Resend API error: {"message":"invalid to"}`)
}

func TestClient_Send_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := New("k", srv.URL, "", 50*time.Millisecond).Send(context.Background(), "a@b.co", "s", "h")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNew_Defaults(t *testing.T) {
	c := New("k", "", "", 0)
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, DefaultFrom, c.from)
	assert.Equal(t, 10*time.Second, c.obs.Timeout)
}
