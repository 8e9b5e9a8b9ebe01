package crop

import (
	"image"
	"math"
)

const (
	// AspectRatio is width/height of every produced slide image.
	AspectRatio = 9.0 / 16.0
	MinZoom     = 1.0
	MaxZoom     = 3.0

	aspectW = 9
	aspectH = 16
)

// Region is a crop rectangle in source-image pixels.
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

func (r Region) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

func ClampZoom(z float64) float64 {
	if math.IsNaN(z) {
		return MinZoom
	}
	return min(max(z, MinZoom), MaxZoom)
}

func clampOffset(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return min(max(v, -1), 1)
}

// Selection is the interactive crop state over one source image. OffsetX and
// OffsetY pan the window across the available slack, -1 is the left/top edge,
// 0 centered, 1 the right/bottom edge.
type Selection struct {
	SourceWidth  int     `json:"source_width"`
	SourceHeight int     `json:"source_height"`
	Zoom         float64 `json:"zoom"`
	OffsetX      float64 `json:"offset_x"`
	OffsetY      float64 `json:"offset_y"`
}

// NewSelection starts centered at zoom 1 over a source of the given size.
func NewSelection(width, height int) Selection {
	return Selection{SourceWidth: width, SourceHeight: height, Zoom: MinZoom}
}

func (s Selection) WithZoom(z float64) Selection {
	s.Zoom = ClampZoom(z)
	return s
}

func (s Selection) WithOffset(x, y float64) Selection {
	s.OffsetX = clampOffset(x)
	s.OffsetY = clampOffset(y)
	return s
}

// Region derives the pixel rectangle: the largest 9:16 window that fits the
// source, shrunk by the zoom factor and placed by the offsets. Width and height
// are whole multiples of 9 and 16 so the ratio is exact, except for sources
// smaller than 9x16 where the window degrades to the nearest fit.
func (s Selection) Region() Region {
	if s.SourceWidth <= 0 || s.SourceHeight <= 0 {
		return Region{}
	}
	zoom := ClampZoom(s.Zoom)

	unit := math.Min(float64(s.SourceWidth)/aspectW, float64(s.SourceHeight)/aspectH) / zoom
	w, h := int(unit)*aspectW, int(unit)*aspectH
	if unit < 1 {
		w = max(1, int(math.Round(unit*aspectW)))
		h = max(1, int(math.Round(unit*aspectH)))
	}
	w = min(w, s.SourceWidth)
	h = min(h, s.SourceHeight)

	slackX := s.SourceWidth - w
	slackY := s.SourceHeight - h
	x := int(math.Round(float64(slackX) / 2 * (1 + clampOffset(s.OffsetX))))
	y := int(math.Round(float64(slackY) / 2 * (1 + clampOffset(s.OffsetY))))

	return Region{
		X:      min(max(x, 0), slackX),
		Y:      min(max(y, 0), slackY),
		Width:  w,
		Height: h,
	}
}
