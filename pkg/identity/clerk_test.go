package identity

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClerkClientGetMetadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/users/user_123", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"user_123","public_metadata":{"lastCompletedStep":2,"plan":"pro"}}`)
	}))
	defer srv.Close()

	c, err := NewClerkClient(srv.URL+"/v1/", "sk_test", time.Second)
	require.NoError(t, err)

	md, err := c.GetMetadata(context.Background(), "user_123")
	require.NoError(t, err)

	step, ok := md.LastCompletedStep()
	assert.True(t, ok)
	assert.Equal(t, 2, step)
	assert.Equal(t, "pro", md["plan"])
}

func TestClerkClientUpdateMetadata(t *testing.T) {
	var received map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":              "user_123",
			"public_metadata": received["public_metadata"],
		})
	}))
	defer srv.Close()

	c, err := NewClerkClient(srv.URL, "sk_test", time.Second)
	require.NoError(t, err)

	md, err := c.UpdateMetadata(context.Background(), "user_123", Metadata{KeyOnboardingComplete: true})
	require.NoError(t, err)
	assert.True(t, md.OnboardingComplete())

	sent, ok := received["public_metadata"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, sent[KeyOnboardingComplete])
}

func TestClerkClientNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"errors":[{"code":"resource_not_found"}]}`)
	}))
	defer srv.Close()

	c, err := NewClerkClient(srv.URL, "sk_test", time.Second)
	require.NoError(t, err)

	_, err = c.GetMetadata(context.Background(), "user_missing")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}
