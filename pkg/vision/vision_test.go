package vision

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pairRequest() Request {
	return Request{
		Model:        "gpt-4-vision-preview",
		SystemPrompt: "describe differences",
		Prompt:       "compare",
		Images: []Image{
			{Name: "a_R.png", ContentType: "image/png", Data: []byte("R")},
			{Name: "a_T.png", Data: []byte("T")},
		},
	}
}

func TestOpenAIDescribe(t *testing.T) {
	var got ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"  The cup was removed.  "}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAI(srv.URL+"/v1/", "sk-test", nil)
	text, err := c.Describe(context.Background(), pairRequest())
	require.NoError(t, err)
	assert.Equal(t, "The cup was removed.", text)

	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "describe differences", got.Messages[0].Content)

	parts, ok := got.Messages[1].Content.([]interface{})
	require.True(t, ok)
	require.Len(t, parts, 3)
	second := parts[1].(map[string]interface{})
	assert.Equal(t, "image_url", second["type"])
	url := second["image_url"].(map[string]interface{})["url"].(string)
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"))
	third := parts[2].(map[string]interface{})
	assert.True(t, strings.HasPrefix(third["image_url"].(map[string]interface{})["url"].(string), "data:image/jpeg;base64,"))
}

func TestOpenAIArrayContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":[{"type":"text","text":"changed"}]}}]}`))
	}))
	defer srv.Close()

	text, err := NewOpenAI(srv.URL, "k", nil).Describe(context.Background(), pairRequest())
	require.NoError(t, err)
	assert.Equal(t, "changed", text)
}

func TestOpenAIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided"}}`))
	}))
	defer srv.Close()

	_, err := NewOpenAI(srv.URL, "bad", nil).Describe(context.Background(), pairRequest())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Incorrect API key provided", apiErr.Message)

	_, err = NewOpenAI(srv.URL, "", nil).Describe(context.Background(), pairRequest())
	assert.ErrorIs(t, err, ErrNoAPIKey)

	req := pairRequest()
	req.Model = ""
	_, err = NewOpenAI(srv.URL, "k", nil).Describe(context.Background(), req)
	assert.ErrorIs(t, err, ErrNoModel)
}

func TestOpenAIEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewOpenAI(srv.URL, "k", nil).Describe(context.Background(), pairRequest())
	assert.Error(t, err)
}

func TestOllamaDescribe(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llava","message":{"role":"assistant","content":"a lamp is gone"},"done":true}`))
	}))
	defer srv.Close()

	c, err := NewOllama(srv.URL+"/api/chat", nil)
	require.NoError(t, err)

	req := pairRequest()
	req.Model = "llava"
	text, err := c.Describe(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "a lamp is gone", text)

	assert.Equal(t, false, got["stream"])
	messages := got["messages"].([]any)
	require.Len(t, messages, 2)
	user := messages[1].(map[string]any)
	assert.Len(t, user["images"], 2)
}

func TestNewOllamaRejectsBadURL(t *testing.T) {
	_, err := NewOllama("localhost", nil)
	assert.Error(t, err)
}
