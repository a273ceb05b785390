// Package translate moves caption text between languages through named providers.
package translate

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrSameLanguage    = errors.New("源语言和目标语言不能相同")
	ErrInvalidLanguage = errors.New("invalid language code")
	ErrUnknownService  = errors.New("unknown translation service")
)

// Provider is a translation backend
type Provider interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// ProviderFunc adapts a function to Provider
type ProviderFunc func(ctx context.Context, text, source, target string) (string, error)

// Translate implements Provider
func (f ProviderFunc) Translate(ctx context.Context, text, source, target string) (string, error) {
	return f(ctx, text, source, target)
}

// Translator is what callers of the translation glue depend on
type Translator interface {
	Translate(ctx context.Context, text, source, target, service string) (string, error)
}

// Request is the /translate request body
type Request struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
	Service    string `json:"service"`
}

// Response is the /translate response body
type Response struct {
	Success        bool   `json:"success,omitempty"`
	TranslatedText string `json:"translatedText"`
}

// ServicesResponse is the /services response body
type ServicesResponse struct {
	Services []string `json:"services"`
}

// ProviderError is a failure inside a provider
type ProviderError struct {
	Service string
	Err     error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
