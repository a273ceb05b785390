package vision

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

// DefaultOllamaURL is the local Ollama server
const DefaultOllamaURL = "http://localhost:11434"

// Ollama wraps the Ollama API client
type Ollama struct {
	client *api.Client
}

// NewOllama creates a client for the server at ollamaURL. Any path such as /api/chat is dropped.
func NewOllama(ollamaURL string, httpClient *http.Client) (*Ollama, error) {
	if ollamaURL == "" {
		ollamaURL = DefaultOllamaURL
	}
	parsedURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid URL: %q", ollamaURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}
	return &Ollama{client: api.NewClient(baseURL, httpClient)}, nil
}

// Describe implements Client
func (c *Ollama) Describe(ctx context.Context, req Request) (string, error) {
	if req.Model == "" {
		return "", ErrNoModel
	}
	ctx, cancel := withDefaultTimeout(ctx)
	defer cancel()

	images := make([]api.ImageData, 0, len(req.Images))
	for _, img := range req.Images {
		images = append(images, api.ImageData(img.Data))
	}

	var messages []api.Message
	if req.SystemPrompt != "" {
		messages = append(messages, api.Message{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, api.Message{
		Role:    "user",
		Content: req.Prompt,
		Images:  images,
	})

	streamFalse := false
	chat := &api.ChatRequest{
		Model:    req.Model,
		Messages: messages,
		Stream:   &streamFalse,
	}

	var responseContent strings.Builder
	err := c.client.Chat(ctx, chat, func(resp api.ChatResponse) error {
		responseContent.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat error: %w", err)
	}

	text := strings.TrimSpace(responseContent.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
