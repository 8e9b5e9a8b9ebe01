package viewer

import "storypanel/internal/models"

type BarState string

const (
	BarDone    BarState = "done"
	BarActive  BarState = "active"
	BarPending BarState = "pending"
)

// ProgressBar is one segment of the indicator row above the slide.
type ProgressBar struct {
	State   BarState `json:"state"`
	Percent float64  `json:"percent"`
}

type BackgroundKind string

const (
	BackgroundImage BackgroundKind = "image"
	BackgroundColor BackgroundKind = "color"
	BackgroundNone  BackgroundKind = "none"
)

const fallbackColor = "#000000"

type FrameBackground struct {
	Kind  BackgroundKind `json:"kind"`
	URL   string         `json:"url,omitempty"`
	Color string         `json:"color,omitempty"`
}

// Frame is an immutable snapshot of what the viewer shows.
type Frame struct {
	GroupIndex   int             `json:"group_index"`
	SlideIndex   int             `json:"slide_index"`
	GroupID      int             `json:"group_id"`
	GroupTitle   string          `json:"group_title"`
	GroupInitial string          `json:"group_initial"`
	GroupCover   string          `json:"group_cover,omitempty"`
	SlideID      int             `json:"slide_id"`
	Duration     int             `json:"duration"`
	Progress     float64         `json:"progress"`
	Bars         []ProgressBar   `json:"bars"`
	Background   FrameBackground `json:"background"`
	Caption      string          `json:"caption,omitempty"`
	Elements     models.Elements `json:"elements"`
}

func (s *Session) frameLocked() (Frame, bool) {
	if s.closed.Load() || s.groupIndex < 0 || s.groupIndex >= len(s.groups) {
		return Frame{}, false
	}
	g := &s.groups[s.groupIndex]
	if s.slideIndex < 0 || s.slideIndex >= len(g.Slides) {
		return Frame{}, false
	}
	slide := &g.Slides[s.slideIndex]

	bars := make([]ProgressBar, len(g.Slides))
	for i := range bars {
		switch {
		case i < s.slideIndex:
			bars[i] = ProgressBar{State: BarDone, Percent: 100}
		case i == s.slideIndex:
			bars[i] = ProgressBar{State: BarActive, Percent: s.progress()}
		default:
			bars[i] = ProgressBar{State: BarPending}
		}
	}

	return Frame{
		GroupIndex:   s.groupIndex,
		SlideIndex:   s.slideIndex,
		GroupID:      g.ID,
		GroupTitle:   g.Title,
		GroupInitial: g.Initial(),
		GroupCover:   s.assets.AssetURL(g.Cover()),
		SlideID:      slide.ID,
		Duration:     slide.DurationSeconds(),
		Progress:     s.progress(),
		Bars:         bars,
		Background:   s.background(slide),
		Caption:      slide.Caption,
		Elements:     append(models.Elements{}, slide.Elements...),
	}, true
}

func (s *Session) background(slide *models.Slide) FrameBackground {
	switch bg := slide.Background().(type) {
	case models.ImageBackground:
		return FrameBackground{Kind: BackgroundImage, URL: s.assets.AssetURL(bg.Ref)}
	case models.ColorBackground:
		return FrameBackground{Kind: BackgroundColor, Color: bg.Hex}
	}
	return FrameBackground{Kind: BackgroundNone, Color: fallbackColor}
}
