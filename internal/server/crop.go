package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/menta2k/labelkit/pkg/crop"
)

func (s *Server) cropAspects(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"aspects": crop.CommonAspectRatios()})
}

// exportOptions reads format and quality form fields over the configured defaults
func (s *Server) exportOptions(c *gin.Context) (crop.ExportOptions, error) {
	opts := s.deps.ExportDefaults
	if v := c.PostForm("format"); v != "" {
		opts.Format = strings.ToLower(v)
	}
	if v := c.PostForm("quality"); v != "" {
		q, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, fmt.Errorf("%w: quality %q", errBadRequest, v)
		}
		opts.Quality = q
	}
	if opts.Quality == 0 {
		opts.Quality = crop.DefaultQuality
	}
	return opts, opts.Validate()
}

// cropImage applies one crop and rotation and returns the encoded image.
// Without an explicit region, aspect picks a centred crop and smart moves it to the busiest area.
func (s *Server) cropImage(c *gin.Context) {
	uploads, err := formUploads(c, "image")
	if err != nil {
		fail(c, err)
		return
	}
	if len(uploads) == 0 {
		fail(c, crop.ErrNoImages)
		return
	}
	up := uploads[0]

	opts, err := s.exportOptions(c)
	if err != nil {
		fail(c, err)
		return
	}

	var params crop.Params
	if v := c.PostForm("rotation"); v != "" {
		r, err := strconv.Atoi(v)
		if err != nil {
			fail(c, fmt.Errorf("%w: rotation %q", errBadRequest, v))
			return
		}
		params.Rotation = r
	}

	smart := c.PostForm("smart") == "true"
	switch region := c.PostForm("crop"); {
	case region != "":
		var rect crop.Rect
		if err := json.Unmarshal([]byte(region), &rect); err != nil {
			fail(c, fmt.Errorf("%w: crop: %v", errBadRequest, err))
			return
		}
		params.Crop = &rect
	case c.PostForm("aspect") != "" || smart:
		aspect, err := crop.ParseAspect(c.PostForm("aspect"))
		if err != nil {
			fail(c, err)
			return
		}
		img, err := s.deps.Processor.Decode(up.Data)
		if err != nil {
			fail(c, err)
			return
		}
		rect := crop.InitialCrop(img, aspect, smart)
		params.Crop = &rect
	}

	name, data, err := crop.Encode(s.deps.Processor, crop.Item{Name: up.Name, Data: up.Data, Edit: params}, opts)
	if err != nil {
		fail(c, err)
		return
	}
	if params.Crop != nil {
		c.Header("X-Crop-Region", fmt.Sprintf("%d,%d,%d,%d", params.Crop.X, params.Crop.Y, params.Crop.Width, params.Crop.Height))
	}
	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	attachment(c, name, contentType, data)
}

// exportImages zips the uploaded images with their edits. The edits field maps
// file names to crop params.
func (s *Server) exportImages(c *gin.Context) {
	uploads, err := formUploads(c, "images")
	if err != nil {
		fail(c, err)
		return
	}
	opts, err := s.exportOptions(c)
	if err != nil {
		fail(c, err)
		return
	}

	edits := map[string]crop.Params{}
	if v := c.PostForm("edits"); v != "" {
		if err := json.Unmarshal([]byte(v), &edits); err != nil {
			fail(c, fmt.Errorf("%w: edits: %v", errBadRequest, err))
			return
		}
	}

	batch := crop.NewBatch(s.deps.Processor)
	batch.Add(uploads...)
	for i, it := range batch.Items() {
		p, ok := edits[it.Name]
		if !ok {
			continue
		}
		if err := batch.SetEdit(i, p); err != nil {
			fail(c, fmt.Errorf("%s: %w", it.Name, err))
			return
		}
	}

	var buf bytes.Buffer
	if err := batch.Export(&buf, opts); err != nil {
		fail(c, err)
		return
	}
	attachment(c, crop.ArchiveName(time.Now()), "application/zip", buf.Bytes())
}
