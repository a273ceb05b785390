package raster

import (
	"fmt"
	"time"
)

// Style is a poster style preset shown in the style picker
type Style struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Layout       string   `json:"layout,omitempty"`
	Background   string   `json:"background"`
	TextPosition string   `json:"textPosition"`
	Effects      []string `json:"effects,omitempty"`
}

var styles = []Style{
	{ID: "ecommerce-grid", Name: "电商网格", Type: "grid", Layout: "3x3", Background: "#FF5722", TextPosition: "bottom"},
	{ID: "jewelry-elegant", Name: "珠宝优雅", Type: "single", Background: "#F8F3E9", TextPosition: "right", Effects: []string{"shadow", "reflection"}},
	{ID: "tech-modern", Name: "科技现代", Type: "single", Background: "#1A1A2E", TextPosition: "left", Effects: []string{"glow", "particles"}},
	{ID: "fashion-minimal", Name: "时尚简约", Type: "single", Background: "#FFFFFF", TextPosition: "bottom", Effects: []string{"clean"}},
	{ID: "cosmetic-luxury", Name: "化妆品奢华", Type: "single", Background: "#E0C9A6", TextPosition: "center", Effects: []string{"gold", "shine"}},
	{ID: "food-vibrant", Name: "食品鲜明", Type: "single", Background: "#4CAF50", TextPosition: "bottom", Effects: []string{"fresh"}},
	{ID: "electronics-dynamic", Name: "电子动感", Type: "single", Background: "#212121", TextPosition: "right", Effects: []string{"circuit", "glow"}},
	{ID: "perfume-elegant", Name: "香水典雅", Type: "single", Background: "linear-gradient(to right, #FFD700, #FFA500)", TextPosition: "left", Effects: []string{"mist", "glow"}},
}

// Styles returns the style presets
func Styles() []Style {
	out := make([]Style, len(styles))
	copy(out, styles)
	return out
}

// StyleByID returns the preset with the given id
func StyleByID(id string) (Style, bool) {
	for _, s := range styles {
		if s.ID == id {
			return s, true
		}
	}
	return Style{}, false
}

// FileName returns the download name of a poster rendered at t:
// grid-poster-<ms>.jpg, or poster-<style>-<ms>.jpg for a styled poster
func FileName(style string, t time.Time) string {
	if style == "" {
		return fmt.Sprintf("grid-poster-%d.jpg", t.UnixMilli())
	}
	return fmt.Sprintf("poster-%s-%d.jpg", style, t.UnixMilli())
}
