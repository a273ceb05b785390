// Package vision talks to multimodal chat models that describe images.
package vision

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultTimeout bounds a request whose context has no deadline
const DefaultTimeout = 300 * time.Second

var (
	ErrNoModel       = errors.New("请输入模型名称")
	ErrNoAPIKey      = errors.New("请输入OpenAI API Key")
	ErrEmptyResponse = errors.New("empty response from vision model")
)

// Image is one picture attached to a request
type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

// Request asks a model to describe one or more images
type Request struct {
	Model        string
	SystemPrompt string
	Prompt       string
	Images       []Image
}

// Client is a vision model backend
type Client interface {
	Describe(ctx context.Context, req Request) (string, error)
}

// APIError is a non-200 answer from a model server
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Message)
}

func withDefaultTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, DefaultTimeout)
}
