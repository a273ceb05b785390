package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/menta2k/labelkit/internal/logger"
	"github.com/menta2k/labelkit/pkg/kontext"
	"github.com/menta2k/labelkit/pkg/settings"
	"github.com/menta2k/labelkit/pkg/types"
)

func (s *Server) currentSettings() types.LabelSettings {
	if s.deps.Settings == nil {
		return settings.Defaults()
	}
	return s.deps.Settings.Current()
}

// settingsView is what the settings endpoints return. The API key never leaves the
// server; clients only learn whether one is set and its last characters.
type settingsView struct {
	BaseURL      string `json:"base_url"`
	Model        string `json:"model"`
	SystemPrompt string `json:"system_prompt"`
	HasAPIKey    bool   `json:"has_api_key"`
	APIKeyHint   string `json:"api_key_hint,omitempty"`
}

// minHintKeyLen is the shortest key whose last four characters are shown
const minHintKeyLen = 12

func viewSettings(ls types.LabelSettings) settingsView {
	v := settingsView{
		BaseURL:      ls.BaseURL,
		Model:        ls.Model,
		SystemPrompt: ls.SystemPrompt,
		HasAPIKey:    ls.APIKey != "",
	}
	if len(ls.APIKey) >= minHintKeyLen {
		v.APIKeyHint = "..." + ls.APIKey[len(ls.APIKey)-4:]
	}
	return v
}

// settingsUpdate is a PUT body. An omitted api_key keeps the saved one; "" clears it.
type settingsUpdate struct {
	APIKey       *string `json:"api_key"`
	BaseURL      string  `json:"base_url"`
	Model        string  `json:"model"`
	SystemPrompt string  `json:"system_prompt"`
}

func (s *Server) getSettings(c *gin.Context) {
	initialized := s.deps.Settings != nil && s.deps.Settings.Initialized()
	c.JSON(http.StatusOK, gin.H{
		"settings":    viewSettings(s.currentSettings()),
		"initialized": initialized,
	})
}

func (s *Server) putSettings(c *gin.Context) {
	if s.deps.Settings == nil {
		fail(c, fmt.Errorf("%w: settings store is not configured", errNotFound))
		return
	}
	var req settingsUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	next := types.LabelSettings{
		APIKey:       s.deps.Settings.Current().APIKey,
		BaseURL:      req.BaseURL,
		Model:        req.Model,
		SystemPrompt: req.SystemPrompt,
	}
	if req.APIKey != nil {
		next.APIKey = *req.APIKey
	}
	saved, err := s.deps.Settings.Update(c.Request.Context(), next)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": viewSettings(s.deps.Settings.Current()), "saved": saved})
}

// kontextLabel describes every _R/_T pair of the uploaded images. Form fields left
// empty fall back to the saved settings.
func (s *Server) kontextLabel(c *gin.Context) {
	if s.deps.Labeler == nil {
		fail(c, fmt.Errorf("%w: pair labeler is not configured", errNotFound))
		return
	}
	uploads, err := formUploads(c, "images")
	if err != nil {
		fail(c, err)
		return
	}
	if len(uploads) == 0 {
		fail(c, kontext.ErrNoImages)
		return
	}
	images, err := kontext.Classify(uploads)
	if err != nil {
		fail(c, err)
		return
	}

	cfg := s.currentSettings()
	override := func(dst *string, field string) {
		if v := strings.TrimSpace(c.PostForm(field)); v != "" {
			*dst = v
		}
	}
	override(&cfg.APIKey, "api_key")
	override(&cfg.BaseURL, "base_url")
	override(&cfg.Model, "model")
	override(&cfg.SystemPrompt, "system_prompt")

	ctx := logger.With(c.Request.Context(), zap.Int("images", len(images)))
	res, err := s.deps.Labeler.Label(ctx, images, cfg)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) kontextExport(c *gin.Context) {
	var req struct {
		Results []types.LabelResult `json:"results"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	var buf bytes.Buffer
	if err := kontext.ExportZip(&buf, req.Results); err != nil {
		fail(c, err)
		return
	}
	attachment(c, kontext.ArchiveName(time.Now()), "application/zip", buf.Bytes())
}
