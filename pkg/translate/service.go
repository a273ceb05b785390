package translate

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/menta2k/labelkit/internal/logger"
)

// Service dispatches translations to registered providers by name
type Service struct {
	mu        sync.RWMutex
	providers map[string]Provider
	order     []string
}

// NewService creates a service with no providers
func NewService() *Service {
	return &Service{providers: make(map[string]Provider)}
}

// Register adds or replaces a provider. Names are case-insensitive.
func (s *Service) Register(name string, p Provider) {
	key := strings.ToLower(strings.TrimSpace(name))

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.providers[key]; !exists {
		s.order = append(s.order, key)
	}
	s.providers[key] = p
}

// Services lists provider names in registration order
func (s *Service) Services() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Has reports whether a provider is registered under name
func (s *Service) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.providers[strings.ToLower(name)]
	return ok
}

// Translate implements Translator. Empty text yields "" without calling a provider.
func (s *Service) Translate(ctx context.Context, text, source, target, service string) (string, error) {
	if text == "" {
		return "", nil
	}
	if err := ValidateLanguages(source, target); err != nil {
		return "", err
	}

	s.mu.RLock()
	p, ok := s.providers[strings.ToLower(service)]
	s.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownService, service)
	}

	log := logger.FromContext(ctx).With(
		zap.String("service", service),
		zap.String("source", source),
		zap.String("target", target),
	)
	out, err := p.Translate(ctx, text, source, target)
	if err != nil {
		log.Warn("translation failed", zap.Error(err))
		return "", &ProviderError{Service: service, Err: err}
	}
	log.Debug("translated", zap.Int("chars", len(text)))
	return out, nil
}
