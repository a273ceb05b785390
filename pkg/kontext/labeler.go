package kontext

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/menta2k/labelkit/pkg/imgio"
	"github.com/menta2k/labelkit/pkg/types"
	"github.com/menta2k/labelkit/pkg/vision"
)

// DefaultSystemPrompt asks the model for the edit between the two images
const DefaultSystemPrompt = "You are an assistant that describes the differences between two images. " +
	"Focus on what objects have been removed or changed in the second image compared to the first one."

// PairPrompt accompanies every pair; the reference image is sent first
const PairPrompt = "The first image is the original. The second image is the edited version. " +
	"Describe the edit as a single instruction."

// ClientFactory builds a vision client from the settings of one request
type ClientFactory func(settings types.LabelSettings) (vision.Client, error)

// OpenAIFactory uses settings.BaseURL and settings.APIKey against an OpenAI-compatible server
func OpenAIFactory(httpClient *http.Client) ClientFactory {
	return func(s types.LabelSettings) (vision.Client, error) {
		return vision.NewOpenAI(s.BaseURL, s.APIKey, httpClient), nil
	}
}

// OllamaFactory uses settings.BaseURL as the Ollama server
func OllamaFactory(httpClient *http.Client) ClientFactory {
	return func(s types.LabelSettings) (vision.Client, error) {
		c, err := vision.NewOllama(s.BaseURL, httpClient)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// Options tunes how images are sent to the model
type Options struct {
	// SendMax is the long side images are reduced to; 0 sends them unchanged
	SendMax       int
	SendQuality   int
	RequireAPIKey bool
}

// Labeler runs the pair labeling requests
type Labeler struct {
	newClient ClientFactory
	processor *imgio.Processor
	opts      Options
	logger    *zap.Logger
}

// NewLabeler creates a labeler. A nil logger disables logging.
func NewLabeler(factory ClientFactory, opts Options, log *zap.Logger) *Labeler {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.SendQuality <= 0 {
		opts.SendQuality = 85
	}
	return &Labeler{
		newClient: factory,
		processor: imgio.NewProcessor(),
		opts:      opts,
		logger:    log,
	}
}

// Validate checks the request the way Label will
func (l *Labeler) Validate(images []Image, settings types.LabelSettings) error {
	if !l.opts.RequireAPIKey && settings.APIKey == "" {
		settings.APIKey = "-"
	}
	return Validate(images, settings)
}

// Label describes every complete pair in base name order, one at a time. A failing pair keeps
// its error on the result and the run continues. Incomplete pairs are skipped.
func (l *Labeler) Label(ctx context.Context, images []Image, settings types.LabelSettings) (types.LabelResponse, error) {
	if err := l.Validate(images, settings); err != nil {
		return types.LabelResponse{}, err
	}
	if settings.SystemPrompt == "" {
		settings.SystemPrompt = DefaultSystemPrompt
	}

	client, err := l.newClient(settings)
	if err != nil {
		return types.LabelResponse{}, fmt.Errorf("failed to create vision client: %w", err)
	}

	log := l.logger.With(zap.String("model", settings.Model))
	pairs, incomplete := Group(images)
	if len(incomplete) > 0 {
		log.Info("skipping incomplete pairs", zap.Strings("base_names", incomplete))
	}

	results := make([]types.LabelResult, 0, len(pairs))
	for _, p := range pairs {
		if err := ctx.Err(); err != nil {
			return types.LabelResponse{}, err
		}

		res := types.LabelResult{
			BaseName: p.BaseName,
			RImage:   preview(p.Reference),
			TImage:   preview(p.Target),
		}
		desc, err := l.describe(ctx, client, p, settings)
		if err != nil {
			res.Error = err.Error()
			log.Warn("pair labeling failed", zap.String("base_name", p.BaseName), zap.Error(err))
		} else {
			res.Description = desc
			log.Debug("pair labeled", zap.String("base_name", p.BaseName))
		}
		results = append(results, res)
	}

	return types.LabelResponse{Success: true, Results: results}, nil
}

func (l *Labeler) describe(ctx context.Context, client vision.Client, p Pair, settings types.LabelSettings) (string, error) {
	ref, err := l.prepare(p.Reference)
	if err != nil {
		return "", err
	}
	tgt, err := l.prepare(p.Target)
	if err != nil {
		return "", err
	}
	return client.Describe(ctx, vision.Request{
		Model:        settings.Model,
		SystemPrompt: settings.SystemPrompt,
		Prompt:       PairPrompt,
		Images:       []vision.Image{ref, tgt},
	})
}

func (l *Labeler) prepare(img Image) (vision.Image, error) {
	if l.opts.SendMax <= 0 {
		return vision.Image{Name: img.Name, ContentType: img.ContentType, Data: img.Data}, nil
	}
	data, err := l.processor.PrepareImageForModel(img.Data, l.opts.SendMax, l.opts.SendQuality)
	if err != nil {
		return vision.Image{}, fmt.Errorf("%s: %w", img.Name, err)
	}
	return vision.Image{Name: img.Name, ContentType: "image/jpeg", Data: data}, nil
}

func preview(img Image) *types.ImagePreview {
	return &types.ImagePreview{
		Name:    img.Name,
		Preview: base64.StdEncoding.EncodeToString(img.Data),
	}
}
