package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/menta2k/labelkit/pkg/imgio"
	"github.com/menta2k/labelkit/pkg/poster"
	"github.com/menta2k/labelkit/pkg/raster"
)

// Poster render outputs
const (
	outputJPEG    = "jpeg"
	outputDataURL = "dataurl"
)

type renderRequest struct {
	raster.Options
	// Style names a preset and changes the download name
	Style  string `json:"style,omitempty"`
	Output string `json:"output,omitempty"`
}

func (s *Server) posterStyles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"styles": raster.Styles()})
}

func (s *Server) posterRender(c *gin.Context) {
	if s.deps.Renderer == nil {
		fail(c, fmt.Errorf("%w: renderer is not configured", errNotFound))
		return
	}
	req := renderRequest{Options: raster.DefaultOptions()}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if req.Style != "" {
		if _, ok := raster.StyleByID(req.Style); !ok {
			fail(c, fmt.Errorf("%w: unknown style %q", errBadRequest, req.Style))
			return
		}
	}

	ctx := c.Request.Context()
	switch req.Output {
	case outputDataURL:
		url, err := s.deps.Renderer.RenderDataURL(ctx, req.Options)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"dataUrl": url, "filename": raster.FileName(req.Style, time.Now())})
	case "", outputJPEG:
		data, err := s.deps.Renderer.RenderJPEG(ctx, req.Options)
		if err != nil {
			fail(c, err)
			return
		}
		attachment(c, raster.FileName(req.Style, time.Now()), imgio.FormatJPEG.ContentType(), data)
	default:
		fail(c, fmt.Errorf("%w: unknown output %q", errBadRequest, req.Output))
	}
}

type previewInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Ref  string `json:"ref"`
}

// createPreviews keeps up to nine uploaded images for later renders
func (s *Server) createPreviews(c *gin.Context) {
	uploads, err := formUploads(c, "images")
	if err != nil {
		fail(c, err)
		return
	}
	if len(uploads) == 0 {
		fail(c, raster.ErrNoImages)
		return
	}
	accepted, err := poster.NewGrid(s.deps.Previews).Add(uploads...)
	if err != nil {
		fail(c, err)
		return
	}
	if len(accepted) == 0 {
		fail(c, poster.ErrNotImageUpload)
		return
	}

	out := make([]previewInfo, 0, len(accepted))
	for _, p := range accepted {
		out = append(out, previewInfo{ID: p.ID, Name: p.Name, Ref: raster.PreviewScheme + p.ID})
	}
	c.JSON(http.StatusCreated, gin.H{"previews": out, "skipped": len(uploads) - len(accepted)})
}

func (s *Server) getPreview(c *gin.Context) {
	p, ok := s.deps.Previews.Get(c.Param("id"))
	if !ok {
		fail(c, fmt.Errorf("%w: preview %s", errNotFound, c.Param("id")))
		return
	}
	data, err := p.Data()
	if err != nil {
		fail(c, err)
		return
	}
	contentType := p.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	c.Data(http.StatusOK, contentType, data)
}

func (s *Server) deletePreview(c *gin.Context) {
	if !s.deps.Previews.Release(c.Param("id")) {
		fail(c, fmt.Errorf("%w: preview %s", errNotFound, c.Param("id")))
		return
	}
	c.Status(http.StatusNoContent)
}
