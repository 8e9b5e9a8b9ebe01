package models

import "math"

type SlideReport struct {
	SlideID   int    `json:"slide_id"`
	SortOrder int    `json:"sort_order"`
	Thumbnail string `json:"thumbnail"`
	Caption   string `json:"caption"`
	OpenCount int    `json:"open_count"`
}

type GroupReport struct {
	GroupID        int           `json:"group_id"`
	Title          string        `json:"title"`
	CitySlug       string        `json:"city_slug"`
	Active         bool          `json:"active"`
	ViewCount      int           `json:"view_count"`
	TotalOpens     int           `json:"total_opens"`
	EngagementRate float64       `json:"engagement_rate"`
	Slides         []SlideReport `json:"slides"`
}

// NewGroupReport computes engagement as slide opens per group view, in percent
// with one decimal. A group that was never viewed reports 0.
func NewGroupReport(g *StoryGroup) *GroupReport {
	r := &GroupReport{
		GroupID:   g.ID,
		Title:     g.Title,
		CitySlug:  g.CitySlug,
		Active:    g.Active,
		ViewCount: g.ViewCount,
		Slides:    make([]SlideReport, 0, len(g.Slides)),
	}
	for i := range g.Slides {
		s := &g.Slides[i]
		r.TotalOpens += s.OpenCount
		r.Slides = append(r.Slides, SlideReport{
			SlideID:   s.ID,
			SortOrder: s.SortOrder,
			Thumbnail: s.ThumbnailOrImage(),
			Caption:   s.Caption,
			OpenCount: s.OpenCount,
		})
	}
	if g.ViewCount > 0 {
		r.EngagementRate = math.Round(float64(r.TotalOpens)/float64(g.ViewCount)*1000) / 10
	}
	return r
}
