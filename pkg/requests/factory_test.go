package requests

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactory_Get(t *testing.T) {
	rf := NewFactory()

	req := rf.Get("/hello/")

	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/hello/", req.URL.Path)
	assert.NotEmpty(t, req.Header.Get(HeaderXRequestID))
}

func TestFactory_RequestIDsAreUnique(t *testing.T) {
	rf := NewFactory()

	first := rf.Get("/a")
	second := rf.Get("/b")

	assert.NotEqual(t,
		first.Header.Get(HeaderXRequestID),
		second.Header.Get(HeaderXRequestID))
}

func TestFactory_CallerRequestIDWins(t *testing.T) {
	rf := NewFactory().WithHeader(HeaderXRequestID, "fixed-id")

	req := rf.Get("/a")
	assert.Equal(t, "fixed-id", req.Header.Get(HeaderXRequestID))
}

func TestFactory_Post(t *testing.T) {
	rf := NewFactory()

	req := rf.Post("/submit/", url.Values{"foo": {"bar"}})

	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "application/x-www-form-urlencoded", req.Header.Get("Content-Type"))

	require.NoError(t, req.ParseForm())
	assert.Equal(t, "bar", req.PostForm.Get("foo"))
}

func TestFactory_PostJSON(t *testing.T) {
	rf := NewFactory()

	req := rf.PostJSON("/api/things", map[string]any{"name": "widget"})

	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "widget", decoded["name"])
}

func TestFactory_WithHeader(t *testing.T) {
	rf := NewFactory().WithHeader("Authorization", "Bearer token")

	req := rf.Get("/private")
	assert.Equal(t, "Bearer token", req.Header.Get("Authorization"))

	// The original factory is unchanged.
	plain := NewFactory().Get("/private")
	assert.Empty(t, plain.Header.Get("Authorization"))
}

func TestDo_AndDecodeJSON(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "created"})
	})

	rec := Do(handler, NewFactory().PostJSON("/api/things", map[string]string{"name": "x"}))

	assert.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]string
	DecodeJSON(t, rec, &body)
	assert.Equal(t, "created", body["status"])
}
