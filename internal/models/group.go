package models

import "time"

type StoryGroup struct {
	ID         int       `json:"id"`
	CitySlug   string    `json:"city_slug"`
	Title      string    `json:"title_fa"`
	Caption    string    `json:"caption"`
	CoverURL   string    `json:"cover_url"`
	ShortCode  string    `json:"short_code"`
	Active     bool      `json:"active"`
	ViewCount  int       `json:"view_count"`
	StoryCount int64     `json:"story_count"`
	CreatedAt  time.Time `json:"created_at"`
	Slides     []Slide   `json:"slides,omitempty"`
}

// Initial is the first rune of the title, shown in the story ring avatar.
func (g *StoryGroup) Initial() string {
	for _, r := range g.Title {
		return string(r)
	}
	return ""
}

// Cover prefers the explicit cover, then the first slide's thumbnail or image.
func (g *StoryGroup) Cover() string {
	if g.CoverURL != "" {
		return g.CoverURL
	}
	if len(g.Slides) > 0 {
		return g.Slides[0].ThumbnailOrImage()
	}
	return ""
}

type GroupInput struct {
	CitySlug  string `json:"city_slug" validate:"required"`
	Title     string `json:"title_fa" validate:"required"`
	Caption   string `json:"caption,omitempty"`
	ShortCode string `json:"short_code,omitempty"`
	Active    bool   `json:"active"`
}

type DashboardStats struct {
	TotalGroups  int `json:"total_groups"`
	ActiveGroups int `json:"active_groups"`
	TotalSlides  int `json:"total_slides"`
	TotalViews   int `json:"total_views"`
	TotalCities  int `json:"total_cities"`
}

// CountSlides sums slides over groups.
func CountSlides(groups []StoryGroup) int {
	n := 0
	for i := range groups {
		n += len(groups[i].Slides)
	}
	return n
}
