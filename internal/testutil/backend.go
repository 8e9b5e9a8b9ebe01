package testutil

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"storypanel/internal/models"
	"storypanel/internal/structures"
)

const (
	FakeToken    = "test-token"
	FakeEmail    = "admin@hotel.test"
	FakePassword = "secret123"
)

// SlideUpload is what the fake backend saw in one slide multipart request.
type SlideUpload struct {
	Method          string
	GroupID         int
	SlideID         int
	HasImage        bool
	ImageFileName   string
	ImageType       string
	ImageSize       int
	BackgroundColor *string
	Elements        string
	Duration        string
	Caption         string
	RequestID       string
}

// FakeBackend is an in-memory story backend served over httptest with the
// same routes and answers as the real one.
type FakeBackend struct {
	mu          sync.Mutex
	groups      map[int]*models.StoryGroup
	nextGroupID int
	nextSlideID int

	Uploads      []SlideUpload
	SlideOpens   map[int]int
	GroupOpens   map[int]int
	PublicHits   int
	RequestIDs   []string
	FailWrites   int
	FailTracking bool

	server *httptest.Server
}

func NewFakeBackend(t testing.TB) *FakeBackend {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &FakeBackend{
		groups:      make(map[int]*models.StoryGroup),
		nextGroupID: 1,
		nextSlideID: 1,
		SlideOpens:  make(map[int]int),
		GroupOpens:  make(map[int]int),
	}
	f.server = httptest.NewServer(f.engine())
	t.Cleanup(f.server.Close)
	return f
}

// URL is the API base, including the /api prefix.
func (f *FakeBackend) URL() string {
	return f.server.URL + "/api"
}

func (f *FakeBackend) AssetURL() string {
	return f.server.URL
}

// Config returns a configuration pointing the client at this backend.
func (f *FakeBackend) Config() *structures.Config {
	return &structures.Config{
		AppName: "StoryPanel",
		Api: structures.ApiConfig{
			BaseURL:      f.URL(),
			AssetBaseURL: f.AssetURL(),
			Timeout:      5 * time.Second,
		},
		Player: structures.PlayerConfig{
			TickInterval:    50 * time.Millisecond,
			DefaultDuration: models.DefaultDuration,
			TrackTimeout:    time.Second,
		},
		Builder: structures.BuilderConfig{JpegQuality: 90, MaxUploadMB: 10},
		Kiosk: structures.KioskConfig{
			City:            "tehran",
			RefreshInterval: time.Minute,
			TallyMaxRecords: 100,
		},
	}
}

// AddGroup stores a copy of g, assigning ids to the group and its slides
// when they are zero. The stored group is returned.
func (f *FakeBackend) AddGroup(g models.StoryGroup) models.StoryGroup {
	f.mu.Lock()
	defer f.mu.Unlock()

	if g.ID == 0 {
		g.ID = f.nextGroupID
	}
	f.nextGroupID = max(f.nextGroupID, g.ID+1)
	slides := make([]models.Slide, len(g.Slides))
	copy(slides, g.Slides)
	for i := range slides {
		if slides[i].ID == 0 {
			slides[i].ID = f.nextSlideID
		}
		f.nextSlideID = max(f.nextSlideID, slides[i].ID+1)
		slides[i].GroupID = g.ID
	}
	g.Slides = slides
	f.groups[g.ID] = &g
	return f.cloneGroup(&g)
}

func (f *FakeBackend) Group(id int) (models.StoryGroup, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[id]
	if !ok {
		return models.StoryGroup{}, false
	}
	return f.cloneGroup(g), true
}

func (f *FakeBackend) LastUpload() (SlideUpload, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Uploads) == 0 {
		return SlideUpload{}, false
	}
	return f.Uploads[len(f.Uploads)-1], true
}

func (f *FakeBackend) SlideOpenCount(id int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.SlideOpens[id]
}

func (f *FakeBackend) GroupOpenCount(id int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.GroupOpens[id]
}

func (f *FakeBackend) PublicHitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.PublicHits
}

// SetFailWrites makes slide writes answer with status until reset with 0.
func (f *FakeBackend) SetFailWrites(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FailWrites = status
}

func (f *FakeBackend) SetFailTracking(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FailTracking = fail
}

func (f *FakeBackend) cloneGroup(g *models.StoryGroup) models.StoryGroup {
	cp := *g
	cp.Slides = make([]models.Slide, len(g.Slides))
	copy(cp.Slides, g.Slides)
	cp.StoryCount = int64(len(g.Slides))
	return cp
}

func (f *FakeBackend) engine() *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		f.mu.Lock()
		f.RequestIDs = append(f.RequestIDs, c.GetHeader("X-Request-ID"))
		f.mu.Unlock()
		c.Next()
	})

	api := r.Group("/api")
	api.POST("/auth/login", f.login)

	public := api.Group("/public")
	public.GET("/stories/:city_slug", f.publicStories)
	public.POST("/stories/open/:id", f.slideOpen)
	public.POST("/groups/open/:id", f.groupOpen)

	admin := api.Group("/admin", f.authRequired)
	admin.GET("/stats", f.stats)
	admin.GET("/story-groups", f.listGroups)
	admin.POST("/story-groups", f.createGroup)
	admin.GET("/story-groups/:id", f.getGroup)
	admin.PATCH("/story-groups/:id/status", f.toggleStatus)
	admin.POST("/story-groups/:id/stories", f.createSlide)
	admin.PUT("/stories/:id", f.updateSlide)
	admin.DELETE("/stories/:id", f.deleteSlide)
	return r
}

func (f *FakeBackend) authRequired(c *gin.Context) {
	if c.GetHeader("Authorization") != "Bearer "+FakeToken {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
		return
	}
	c.Next()
}

func (f *FakeBackend) login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Email != FakeEmail || input.Password != FakePassword {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": FakeToken})
}

func (f *FakeBackend) publicStories(c *gin.Context) {
	city := c.Param("city_slug")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PublicHits++

	out := []models.StoryGroup{}
	for _, id := range f.sortedIDs() {
		g := f.groups[id]
		if g.CitySlug != city || !g.Active || len(g.Slides) == 0 {
			continue
		}
		out = append(out, f.cloneGroup(g))
	}
	c.JSON(http.StatusOK, out)
}

func (f *FakeBackend) slideOpen(c *gin.Context) {
	f.track(c, f.SlideOpens)
}

func (f *FakeBackend) groupOpen(c *gin.Context) {
	f.track(c, f.GroupOpens)
}

func (f *FakeBackend) track(c *gin.Context, counts map[int]int) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailTracking {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tracking unavailable"})
		return
	}
	counts[id]++
	c.Status(http.StatusOK)
}

func (f *FakeBackend) stats(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var s models.DashboardStats
	cities := map[string]bool{}
	for _, g := range f.groups {
		s.TotalGroups++
		if g.Active {
			s.ActiveGroups++
		}
		s.TotalSlides += len(g.Slides)
		s.TotalViews += g.ViewCount
		cities[g.CitySlug] = true
	}
	s.TotalCities = len(cities)
	c.JSON(http.StatusOK, s)
}

func (f *FakeBackend) listGroups(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.StoryGroup{}
	for _, id := range f.sortedIDs() {
		g := f.cloneGroup(f.groups[id])
		g.Slides = nil
		out = append(out, g)
	}
	c.JSON(http.StatusOK, out)
}

func (f *FakeBackend) createGroup(c *gin.Context) {
	var input models.GroupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	g := &models.StoryGroup{
		ID:        f.nextGroupID,
		CitySlug:  input.CitySlug,
		Title:     input.Title,
		Caption:   input.Caption,
		ShortCode: input.ShortCode,
		Active:    input.Active,
		CreatedAt: time.Now(),
	}
	f.nextGroupID++
	f.groups[g.ID] = g
	c.JSON(http.StatusCreated, f.cloneGroup(g))
}

func (f *FakeBackend) getGroup(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := f.lookupGroup(c.Param("id"))
	if g == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}
	c.JSON(http.StatusOK, f.cloneGroup(g))
}

// lookupGroup accepts a numeric id or a short code.
func (f *FakeBackend) lookupGroup(key string) *models.StoryGroup {
	if id, err := strconv.Atoi(key); err == nil {
		return f.groups[id]
	}
	for _, g := range f.groups {
		if g.ShortCode != "" && strings.EqualFold(g.ShortCode, key) {
			return g
		}
	}
	return nil
}

func (f *FakeBackend) toggleStatus(c *gin.Context) {
	var input struct {
		Active bool `json:"active"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	g := f.lookupGroup(c.Param("id"))
	if g == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}
	g.Active = input.Active
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (f *FakeBackend) readUpload(c *gin.Context) (SlideUpload, error) {
	up := SlideUpload{
		Method:    c.Request.Method,
		Elements:  c.PostForm("elements"),
		Duration:  c.PostForm("duration"),
		Caption:   c.PostForm("caption_fa"),
		RequestID: c.GetHeader("X-Request-ID"),
	}
	if color, ok := c.GetPostForm("background_color"); ok {
		up.BackgroundColor = &color
	}
	if fh, err := c.FormFile("image"); err == nil {
		file, err := fh.Open()
		if err != nil {
			return up, err
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return up, err
		}
		up.HasImage = true
		up.ImageFileName = fh.Filename
		up.ImageType = fh.Header.Get("Content-Type")
		up.ImageSize = len(data)
	}
	return up, nil
}

func (f *FakeBackend) applyUpload(s *models.Slide, up SlideUpload) error {
	elements, err := models.ParseElements([]byte(up.Elements))
	if err != nil {
		return err
	}
	s.Elements = elements
	s.Caption = up.Caption
	if d, err := strconv.Atoi(up.Duration); err == nil {
		s.Duration = d
	}
	if up.HasImage {
		s.ImageURL = fmt.Sprintf("/uploads/story-%d.jpg", s.ID)
		s.BackgroundColor = nil
	}
	if up.BackgroundColor != nil {
		s.ImageURL = ""
		color := *up.BackgroundColor
		s.BackgroundColor = &color
	}
	return nil
}

func (f *FakeBackend) createSlide(c *gin.Context) {
	up, err := f.readUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Uploads = append(f.Uploads, up)
	if f.FailWrites != 0 {
		c.JSON(f.FailWrites, gin.H{"error": "Failed to add slide"})
		return
	}
	g := f.lookupGroup(c.Param("id"))
	if g == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}
	if !up.HasImage && up.BackgroundColor == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image file or background color is required"})
		return
	}

	s := models.Slide{ID: f.nextSlideID, GroupID: g.ID, SortOrder: len(g.Slides), CreatedAt: time.Now()}
	f.nextSlideID++
	if err := f.applyUpload(&s, up); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	g.Slides = append(g.Slides, s)
	f.Uploads[len(f.Uploads)-1].GroupID = g.ID
	f.Uploads[len(f.Uploads)-1].SlideID = s.ID
	c.JSON(http.StatusCreated, s)
}

func (f *FakeBackend) updateSlide(c *gin.Context) {
	up, err := f.readUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, _ := strconv.Atoi(c.Param("id"))
	f.mu.Lock()
	defer f.mu.Unlock()
	up.SlideID = id
	f.Uploads = append(f.Uploads, up)
	if f.FailWrites != 0 {
		c.JSON(f.FailWrites, gin.H{"error": "Failed to update slide"})
		return
	}
	s := f.findSlide(id)
	if s == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Slide not found"})
		return
	}
	if err := f.applyUpload(s, up); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f.Uploads[len(f.Uploads)-1].GroupID = s.GroupID
	c.JSON(http.StatusOK, *s)
}

func (f *FakeBackend) deleteSlide(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("id"))
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.groups {
		for i := range g.Slides {
			if g.Slides[i].ID == id {
				g.Slides = append(g.Slides[:i], g.Slides[i+1:]...)
				c.Status(http.StatusOK)
				return
			}
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Slide not found"})
}

func (f *FakeBackend) findSlide(id int) *models.Slide {
	for _, g := range f.groups {
		for i := range g.Slides {
			if g.Slides[i].ID == id {
				return &g.Slides[i]
			}
		}
	}
	return nil
}

func (f *FakeBackend) sortedIDs() []int {
	ids := make([]int, 0, len(f.groups))
	for id := range f.groups {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
