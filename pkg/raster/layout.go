package raster

import (
	"image"
	"math"

	"github.com/menta2k/labelkit/pkg/poster"
)

// Grid geometry
const (
	GridSize    = 3
	GridPadding = 20
	GridGap     = 12
	// GridTopGap separates the grid from the header band
	GridTopGap = 20
	// GridBottomMargin is kept free between the grid and the footer band
	GridBottomMargin = 30
)

// CellWidth is the fixed width of a grid cell
const CellWidth = float64(poster.CanvasWidth-GridPadding*2-GridGap*(GridSize-1)) / GridSize

// GridTop returns the y of the first grid row
func GridTop(headerTop int) float64 {
	return float64(poster.HeaderHeight + headerTop + GridTopGap)
}

// FooterTop returns the y of the footer band
func FooterTop(footerBottom int) int {
	return poster.CanvasHeight - poster.FooterHeight - footerBottom
}

// CellHeight shrinks square cells so the grid ends GridBottomMargin above the footer
func CellHeight(headerTop, footerBottom int) float64 {
	available := float64(FooterTop(footerBottom)) - GridTop(headerTop) - GridBottomMargin
	fitted := available / (GridSize + (GridSize-1)*(GridGap/CellWidth))
	return math.Min(CellWidth, fitted)
}

// GridCells returns the pixel rectangles of the first n cells in row-major order.
// n is capped at the grid capacity.
func GridCells(headerTop, footerBottom, n int) []image.Rectangle {
	n = min(n, GridSize*GridSize)
	top := GridTop(headerTop)
	h := CellHeight(headerTop, footerBottom)

	cells := make([]image.Rectangle, 0, n)
	for i := 0; i < n; i++ {
		row, col := i/GridSize, i%GridSize
		x := GridPadding + float64(col)*(CellWidth+GridGap)
		y := top + float64(row)*(h+GridGap)
		cells = append(cells, image.Rect(
			int(math.Round(x)), int(math.Round(y)),
			int(math.Round(x+CellWidth)), int(math.Round(y+h)),
		))
	}
	return cells
}
