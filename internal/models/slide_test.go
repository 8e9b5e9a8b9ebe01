package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func TestSlide_Background(t *testing.T) {
	s := Slide{ImageURL: "/a.jpg", BackgroundColor: ptr("#000000")}
	assert.Equal(t, ImageBackground{Ref: "/a.jpg"}, s.Background(), "image wins over color")

	s = Slide{BackgroundColor: ptr("#112233")}
	assert.Equal(t, ColorBackground{Hex: "#112233"}, s.Background())

	s = Slide{BackgroundColor: ptr("")}
	assert.Nil(t, s.Background())
}

func TestSlide_DurationAndThumbnail(t *testing.T) {
	assert.Equal(t, 7, (&Slide{}).DurationSeconds())
	assert.Equal(t, 7, (&Slide{Duration: -3}).DurationSeconds())
	assert.Equal(t, 12, (&Slide{Duration: 12}).DurationSeconds())

	assert.Equal(t, 1, ClampDuration(0))
	assert.Equal(t, 30, ClampDuration(45))

	assert.Equal(t, "/a.jpg", (&Slide{ImageURL: "/a.jpg", ThumbnailURL: ptr("")}).ThumbnailOrImage())
	assert.Equal(t, "/t.jpg", (&Slide{ImageURL: "/a.jpg", ThumbnailURL: ptr("/t.jpg")}).ThumbnailOrImage())
}

func TestSortSlides(t *testing.T) {
	slides := []Slide{{ID: 3, SortOrder: 10}, {ID: 2, SortOrder: 0}, {ID: 1, SortOrder: 10}, {ID: 4, SortOrder: 5}}

	SortSlides(slides)

	ids := make([]int, 0, len(slides))
	for _, s := range slides {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []int{2, 4, 1, 3}, ids)
}

func TestStoryGroup_InitialAndCover(t *testing.T) {
	g := StoryGroup{Title: "لابی"}
	assert.Equal(t, "ل", g.Initial())
	assert.Equal(t, "", g.Cover())
	assert.Equal(t, "", (&StoryGroup{}).Initial())

	g.Slides = []Slide{{ImageURL: "/a.jpg"}}
	assert.Equal(t, "/a.jpg", g.Cover())

	g.CoverURL = "/cover.jpg"
	assert.Equal(t, "/cover.jpg", g.Cover())

	assert.Equal(t, 3, CountSlides([]StoryGroup{{Slides: make([]Slide, 2)}, {}, {Slides: make([]Slide, 1)}}))
}

func TestNewGroupReport(t *testing.T) {
	g := &StoryGroup{ID: 5, Title: "Spa", ViewCount: 3, Active: true, Slides: []Slide{
		{ID: 1, OpenCount: 2, Caption: "a", ThumbnailURL: ptr("/t1.jpg")},
		{ID: 2, OpenCount: 0, SortOrder: 1, ImageURL: "/b.jpg"},
	}}

	r := NewGroupReport(g)

	assert.Equal(t, 2, r.TotalOpens)
	assert.Equal(t, 66.7, r.EngagementRate)
	require.Len(t, r.Slides, 2)
	assert.Equal(t, "/t1.jpg", r.Slides[0].Thumbnail)
	assert.Equal(t, "/b.jpg", r.Slides[1].Thumbnail)
}

func TestNewGroupReport_NeverViewed(t *testing.T) {
	r := NewGroupReport(&StoryGroup{ID: 1, Slides: []Slide{{ID: 1, OpenCount: 4}}})

	assert.Equal(t, 0.0, r.EngagementRate)
	assert.Equal(t, 4, r.TotalOpens)

	empty := NewGroupReport(&StoryGroup{ID: 2})
	assert.NotNil(t, empty.Slides)
	assert.Empty(t, empty.Slides)
}
