// Package labelkit prepares image training sets: caption translation, grid posters,
// crop and batch export, and _R/_T pair labeling with a vision model.
//
// Basic usage:
//
//	cfg := config.Default()
//	tk, err := labelkit.New(ctx, cfg, logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer tk.Close()
//
//	// translate a caption
//	out, err := tk.Translator.Translate(ctx, "a cat on a sofa", "en", "zh-CN", "google")
//
//	// render a poster
//	opts := raster.DefaultOptions()
//	opts.Images = []string{"https://example.com/a.jpg"}
//	jpeg, err := tk.Renderer.RenderJPEG(ctx, opts)
//
//	// or serve everything over HTTP
//	err = tk.Server().Run(ctx)
//
// The toolkit is made of these packages:
//
//  1. poster and raster: the poster element model and the 640x854 rasterizer
//  2. translate and labels: translation providers and the caption workspace
//  3. crop: crop, rotate and batch export
//  4. kontext and vision: pair labeling through OpenAI-compatible or Ollama backends
//  5. settings: persisted labeler settings (file, SQLite or Redis)
package labelkit

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/menta2k/labelkit/internal/config"
	"github.com/menta2k/labelkit/internal/server"
	"github.com/menta2k/labelkit/pkg/crop"
	"github.com/menta2k/labelkit/pkg/imgio"
	"github.com/menta2k/labelkit/pkg/kontext"
	"github.com/menta2k/labelkit/pkg/labels"
	"github.com/menta2k/labelkit/pkg/poster"
	"github.com/menta2k/labelkit/pkg/raster"
	"github.com/menta2k/labelkit/pkg/settings"
	"github.com/menta2k/labelkit/pkg/translate"
	"github.com/menta2k/labelkit/pkg/types"
	"github.com/menta2k/labelkit/pkg/vision"
)

// Version of the labelkit library
const Version = "1.0.0"

// Toolkit holds every component built from one Config
type Toolkit struct {
	Config     *config.Config
	Logger     *zap.Logger
	Processor  *imgio.Processor
	Translator *translate.Service
	Previews   *poster.PreviewRegistry
	Renderer   *raster.Renderer
	Labeler    *kontext.Labeler
	Settings   *settings.Manager
	Sessions   *labels.Sessions

	store settings.Store
}

// New builds the toolkit. A settings store that cannot be read leaves the manager
// uninitialized, so nothing overwrites what was saved. A nil logger disables logging.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Toolkit, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	hc := &http.Client{Timeout: vision.DefaultTimeout}
	tk := &Toolkit{
		Config:     cfg,
		Logger:     log,
		Processor:  imgio.NewProcessor(),
		Translator: NewTranslator(cfg.Translate, &http.Client{Timeout: 30 * time.Second}),
	}

	tk.Previews = poster.NewPreviewRegistry(func(id string) {
		log.Debug("preview released", zap.String("id", id))
	})

	renderer, err := raster.NewRenderer(raster.Config{
		JPEGQuality: cfg.Poster.JPEGQuality,
		FontPath:    cfg.Poster.FontPath,
	}, raster.NewLoader(tk.Processor, tk.Previews), log.Named("raster"))
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	tk.Renderer = renderer

	factory, requireKey, err := VisionFactory(cfg.Vision.Backend, hc)
	if err != nil {
		return nil, err
	}
	tk.Labeler = kontext.NewLabeler(factory, kontext.Options{
		SendMax:       cfg.Vision.SendMax,
		SendQuality:   cfg.Vision.SendQ,
		RequireAPIKey: requireKey,
	}, log.Named("kontext"))

	opts := settings.Options{
		Backend:   cfg.Settings.Backend,
		Path:      cfg.Settings.Path,
		RedisAddr: cfg.Settings.RedisAddr,
		RedisDB:   cfg.Settings.RedisDB,
	}
	if opts.Backend == "redis" {
		opts.Key = cfg.Settings.RedisKey
	}
	store, err := settings.Open(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings store: %w", err)
	}
	tk.store = store
	tk.Settings = settings.NewManager(store, log.Named("settings"))
	tk.Settings.OnSave = func(s types.LabelSettings) {
		log.Info("labeler settings saved", zap.String("model", s.Model), zap.String("base_url", s.BaseURL))
	}
	if err := tk.Settings.Init(ctx); err != nil {
		log.Warn("failed to load labeler settings, changes will not be saved", zap.Error(err))
	}

	tk.Sessions = labels.NewSessions(tk.Translator, log.Named("labels"))
	return tk, nil
}

// NewTranslator registers google, the upstream services and deepl, in that order.
// deepl uses the DeepL API when a key is configured and the upstream API otherwise.
func NewTranslator(cfg config.TranslateConfig, hc *http.Client) *translate.Service {
	svc := translate.NewService()
	svc.Register("google", translate.NewGoogle(cfg.GoogleEndpoint, hc))

	var upstream *translate.Client
	if cfg.UpstreamURL != "" {
		upstream = translate.NewClient(cfg.UpstreamURL, hc)
		for _, name := range cfg.UpstreamServices {
			svc.Register(name, translate.NewUpstream(upstream, name))
		}
	}

	switch {
	case cfg.DeepLKey != "":
		svc.Register("deepl", translate.NewDeepL(cfg.DeepLEndpoint, cfg.DeepLKey, hc))
	case upstream != nil:
		svc.Register("deepl", translate.NewUpstream(upstream, "deepl"))
	}
	return svc
}

// VisionFactory returns the client factory for a backend and whether it needs an API key
func VisionFactory(backend string, hc *http.Client) (kontext.ClientFactory, bool, error) {
	switch backend {
	case "", "openai":
		return kontext.OpenAIFactory(hc), true, nil
	case "ollama":
		return kontext.OllamaFactory(hc), false, nil
	}
	return nil, false, fmt.Errorf("unknown vision backend: %s (use 'openai' or 'ollama')", backend)
}

// LabelOptions are the options of new label sessions
func (t *Toolkit) LabelOptions() labels.Options {
	return labels.Options{
		Source:  t.Config.Translate.DefaultSource,
		Target:  t.Config.Translate.DefaultTarget,
		Service: t.Config.Translate.DefaultService,
	}
}

// ExportOptions are the crop and export defaults
func (t *Toolkit) ExportOptions() crop.ExportOptions {
	return crop.ExportOptions{
		Format:  t.Config.Export.DefaultFormat,
		Quality: t.Config.Export.Quality,
	}
}

// Server returns the HTTP front end over this toolkit
func (t *Toolkit) Server() *server.Server {
	return server.New(server.Deps{
		Config:         t.Config.Server,
		Translator:     t.Translator,
		Renderer:       t.Renderer,
		Previews:       t.Previews,
		Processor:      t.Processor,
		Labeler:        t.Labeler,
		Settings:       t.Settings,
		Sessions:       t.Sessions,
		LabelDefaults:  t.LabelOptions(),
		ExportDefaults: t.ExportOptions(),
		Logger:         t.Logger.Named("http"),
	})
}

// Close releases the settings store
func (t *Toolkit) Close() error {
	if t.store == nil {
		return nil
	}
	return t.store.Close()
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
