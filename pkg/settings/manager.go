package settings

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/menta2k/labelkit/pkg/types"
)

// Manager holds the current settings in front of a Store.
// Nothing is written until Init has read what was saved before.
type Manager struct {
	store  Store
	logger *zap.Logger

	// OnLoad runs after Init with the effective settings
	OnLoad func(types.LabelSettings)
	// OnSave runs after every successful save
	OnSave func(types.LabelSettings)

	mu          sync.Mutex
	current     types.LabelSettings
	initialized bool
}

// NewManager starts from Defaults. A nil logger disables logging.
func NewManager(store Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, logger: logger, current: Defaults()}
}

// Init reads the saved settings over the defaults; empty saved fields keep their default.
// It never writes.
func (m *Manager) Init(ctx context.Context) error {
	saved, err := m.store.Load(ctx)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	m.mu.Lock()
	if err == nil {
		m.current = overlay(m.current, saved)
		m.logger.Debug("labeler settings loaded")
	}
	m.initialized = true
	cur := m.current
	hook := m.OnLoad
	m.mu.Unlock()

	if hook != nil {
		hook(cur)
	}
	return nil
}

// Initialized reports whether Init has completed
func (m *Manager) Initialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initialized
}

// Current returns the effective settings
func (m *Manager) Current() types.LabelSettings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Update replaces the settings and saves them once Init has run.
// It reports whether the store was written.
func (m *Manager) Update(ctx context.Context, s types.LabelSettings) (bool, error) {
	m.mu.Lock()
	m.current = s
	ready := m.initialized
	hook := m.OnSave
	m.mu.Unlock()

	if !ready {
		m.logger.Debug("settings changed before init, not saved")
		return false, nil
	}
	if err := m.store.Save(ctx, s); err != nil {
		return false, err
	}
	if hook != nil {
		hook(s)
	}
	return true, nil
}

func overlay(base, saved types.LabelSettings) types.LabelSettings {
	if saved.APIKey != "" {
		base.APIKey = saved.APIKey
	}
	if saved.BaseURL != "" {
		base.BaseURL = saved.BaseURL
	}
	if saved.Model != "" {
		base.Model = saved.Model
	}
	if saved.SystemPrompt != "" {
		base.SystemPrompt = saved.SystemPrompt
	}
	return base
}
