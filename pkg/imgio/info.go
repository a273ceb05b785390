package imgio

import (
	"fmt"
	"image"
	"strings"
)

// Config holds the upload acceptance rules
type Config struct {
	SupportedFormats []string
	MinImageSize     int
	MaxBytes         int64
}

// DefaultConfig accepts the formats the browser tools produce
func DefaultConfig() Config {
	return Config{
		SupportedFormats: []string{"jpeg", "png", "gif", "webp"},
		MinImageSize:     1,
		MaxBytes:         32 << 20,
	}
}

// ImageInfo contains basic image metadata
type ImageInfo struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Format      string  `json:"format"`
	AspectRatio float64 `json:"aspect_ratio"`
	Area        int     `json:"area"`
}

// GetImageInfo returns basic information about an image
func GetImageInfo(img image.Image) ImageInfo {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	info := ImageInfo{
		Width:  width,
		Height: height,
		Area:   width * height,
	}
	if height > 0 {
		info.AspectRatio = float64(width) / float64(height)
	}
	return info
}

// Inspect reads the header of encoded bytes and checks them against cfg
func (p *Processor) Inspect(data []byte, cfg Config) (ImageInfo, error) {
	if cfg.MaxBytes > 0 && int64(len(data)) > cfg.MaxBytes {
		return ImageInfo{}, fmt.Errorf("image too large: %d bytes (maximum: %d)", len(data), cfg.MaxBytes)
	}

	c, format, err := p.DecodeConfig(data)
	if err != nil {
		return ImageInfo{}, err
	}
	if !isFormatSupported(cfg.SupportedFormats, format) {
		return ImageInfo{}, fmt.Errorf("unsupported image format: %s", format)
	}
	if c.Width < cfg.MinImageSize || c.Height < cfg.MinImageSize {
		return ImageInfo{}, fmt.Errorf("image too small: %dx%d (minimum: %d)", c.Width, c.Height, cfg.MinImageSize)
	}

	info := ImageInfo{
		Width:  c.Width,
		Height: c.Height,
		Format: format,
		Area:   c.Width * c.Height,
	}
	if c.Height > 0 {
		info.AspectRatio = float64(c.Width) / float64(c.Height)
	}
	return info, nil
}

func isFormatSupported(formats []string, format string) bool {
	for _, supported := range formats {
		if strings.EqualFold(format, supported) {
			return true
		}
	}
	return false
}
