// Package server exposes the labelkit tools over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/menta2k/labelkit/internal/config"
	"github.com/menta2k/labelkit/internal/utils"
	"github.com/menta2k/labelkit/pkg/crop"
	"github.com/menta2k/labelkit/pkg/imgio"
	"github.com/menta2k/labelkit/pkg/kontext"
	"github.com/menta2k/labelkit/pkg/labels"
	"github.com/menta2k/labelkit/pkg/poster"
	"github.com/menta2k/labelkit/pkg/raster"
	"github.com/menta2k/labelkit/pkg/settings"
	"github.com/menta2k/labelkit/pkg/translate"
	"github.com/menta2k/labelkit/pkg/types"
)

// SessionTTL is how long a label session is kept after it was created
const SessionTTL = 12 * time.Hour

// Translator is the translation service the server dispatches to
type Translator interface {
	translate.Translator
	Services() []string
}

// Deps are the components the handlers use
type Deps struct {
	Config     config.ServerConfig
	Translator Translator
	Renderer   *raster.Renderer
	Previews   *poster.PreviewRegistry
	Processor  *imgio.Processor
	Labeler    *kontext.Labeler
	Settings   *settings.Manager
	Sessions   *labels.Sessions
	// LabelDefaults are the options of new label sessions
	LabelDefaults labels.Options
	// ExportDefaults apply to crop and export requests that leave format or quality out
	ExportDefaults crop.ExportOptions
	Logger         *zap.Logger
}

// Server is the HTTP front end
type Server struct {
	deps     Deps
	engine   *gin.Engine
	progress *progressHub
	logger   *zap.Logger
}

// New builds the router. A nil logger disables logging.
func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Processor == nil {
		deps.Processor = imgio.NewProcessor()
	}
	if deps.Previews == nil {
		deps.Previews = poster.NewPreviewRegistry(nil)
	}
	if deps.Sessions == nil {
		deps.Sessions = labels.NewSessions(deps.Translator, deps.Logger)
	}
	if deps.LabelDefaults == (labels.Options{}) {
		deps.LabelDefaults = labels.DefaultOptions()
	}
	if deps.Config.MaxUploadMB <= 0 {
		deps.Config.MaxUploadMB = 64
	}

	s := &Server{
		deps:     deps,
		progress: newProgressHub(),
		logger:   deps.Logger,
	}

	maxBody := int64(deps.Config.MaxUploadMB) << 20
	r := gin.New()
	r.MaxMultipartMemory = maxBody
	r.Use(gin.Recovery(), requestLogger(s.logger), cors(deps.Config.AllowedOrigins), bodyLimit(maxBody))
	s.routes(r)
	s.engine = r
	return s
}

func (s *Server) routes(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.GET("/health", s.health)
		api.GET("/test-cors", s.testCORS)

		api.POST("/translate", s.translate)
		api.GET("/services", s.services)
		api.GET("/languages", s.languages)

		api.GET("/settings", s.getSettings)
		api.PUT("/settings", s.putSettings)

		api.POST("/kontext/label", s.kontextLabel)
		api.POST("/kontext/export", s.kontextExport)

		api.GET("/poster/styles", s.posterStyles)
		api.POST("/poster/render", s.posterRender)
		api.POST("/previews", s.createPreviews)
		api.GET("/previews/:id", s.getPreview)
		api.DELETE("/previews/:id", s.deletePreview)

		api.GET("/crop/aspects", s.cropAspects)
		api.POST("/crop", s.cropImage)
		api.POST("/images/export", s.exportImages)

		sessions := api.Group("/labels/sessions")
		sessions.POST("", s.createSession)
		sessions.GET("/:id", s.getSession)
		sessions.DELETE("/:id", s.deleteSession)
		sessions.POST("/:id/files", s.loadSessionFiles)
		sessions.PUT("/:id/files/*name", s.updateSessionFile)
		sessions.POST("/:id/batch", s.batchSession)
		sessions.PUT("/:id/options", s.sessionOptions)
		sessions.GET("/:id/export", s.exportSession)
		sessions.GET("/:id/ws", s.sessionProgress)
	}
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on the configured address until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.deps.Config.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.expireSessions(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.progress.closeAll()
	return nil
}

func (s *Server) expireSessions(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.expireBefore(now.Add(-SessionTTL))
		}
	}
}

// expireBefore drops sessions created before cutoff and ends their progress streams
func (s *Server) expireBefore(cutoff time.Time) []string {
	ids := s.deps.Sessions.Expire(cutoff)
	for _, id := range ids {
		s.progress.closeSession(id)
	}
	if len(ids) > 0 {
		s.logger.Info("expired label sessions", zap.Int("count", len(ids)))
	}
	return ids
}

func (s *Server) health(c *gin.Context) {
	created, released := s.deps.Previews.Stats()
	c.JSON(http.StatusOK, gin.H{
		"status":            "ok",
		"sessions":          s.deps.Sessions.Len(),
		"previews":          s.deps.Previews.Len(),
		"previews_created":  created,
		"previews_released": released,
	})
}

func (s *Server) testCORS(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "CORS is working correctly!"})
}

// formUploads reads every file of a multipart field into memory
func formUploads(c *gin.Context, field string) ([]types.Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	var out []types.Upload
	for _, fh := range form.File[field] {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
		}
		out = append(out, types.Upload{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return out, nil
}

// isMultipart reports whether the request carries a multipart form
func isMultipart(c *gin.Context) bool {
	return c.ContentType() == "multipart/form-data"
}

// attachment sends data as a download
func attachment(c *gin.Context, name, contentType string, data []byte) {
	name = utils.SanitizeFilename(name)
	if name == "" {
		name = "download"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, contentType, data)
}
