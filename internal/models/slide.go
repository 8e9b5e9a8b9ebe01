package models

import (
	"sort"
	"time"
)

const (
	DefaultDuration = 7
	MinDuration     = 1
	MaxDuration     = 30
)

type Slide struct {
	ID              int       `json:"id"`
	GroupID         int       `json:"group_id"`
	ImageURL        string    `json:"image_url"`
	ThumbnailURL    *string   `json:"thumbnail_url"`
	Caption         string    `json:"caption_fa"`
	Elements        Elements  `json:"elements"`
	SortOrder       int       `json:"sort_order"`
	OpenCount       int       `json:"open_count"`
	Duration        int       `json:"duration"`
	BackgroundColor *string   `json:"background_color"`
	CreatedAt       time.Time `json:"created_at"`
}

// Background resolves the stored pair into one variant. An image wins over a
// color when both are present; nil means neither was stored.
func (s *Slide) Background() Background {
	if s.ImageURL != "" {
		return ImageBackground{Ref: s.ImageURL}
	}
	if s.BackgroundColor != nil && *s.BackgroundColor != "" {
		return ColorBackground{Hex: *s.BackgroundColor}
	}
	return nil
}

// DurationSeconds is the playback length, 7 when unset or non-positive.
func (s *Slide) DurationSeconds() int {
	if s.Duration <= 0 {
		return DefaultDuration
	}
	return s.Duration
}

func (s *Slide) ThumbnailOrImage() string {
	if s.ThumbnailURL != nil && *s.ThumbnailURL != "" {
		return *s.ThumbnailURL
	}
	return s.ImageURL
}

func ClampDuration(seconds int) int {
	return min(max(seconds, MinDuration), MaxDuration)
}

// SortSlides orders by sort_order, ties broken by id. Gaps are fine, only the
// relative order is used.
func SortSlides(slides []Slide) {
	sort.SliceStable(slides, func(i, j int) bool {
		if slides[i].SortOrder != slides[j].SortOrder {
			return slides[i].SortOrder < slides[j].SortOrder
		}
		return slides[i].ID < slides[j].ID
	})
}
