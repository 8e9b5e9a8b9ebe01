package internal

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storypanel/internal/client"
	"storypanel/internal/models"
	"storypanel/internal/testutil"
)

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

type consoleFixture struct {
	console *Console
	backend *testutil.FakeBackend
	group   models.StoryGroup
}

func newConsoleFixture(t *testing.T) *consoleFixture {
	t.Helper()
	backend := testutil.NewFakeBackend(t)
	conf := backend.Config()
	conf.Api.TokenFile = filepath.Join(t.TempDir(), "token")
	api, err := client.NewClient(conf, nil, testutil.NewMockCache())
	require.NoError(t, err)

	g := backend.AddGroup(models.StoryGroup{
		CitySlug:  "tehran",
		Title:     "Lobby",
		ShortCode: "lobby",
		Active:    true,
		ViewCount: 4,
		Slides: []models.Slide{
			{ImageURL: "/a.jpg", Caption: "Welcome", OpenCount: 3},
			{ImageURL: "/b.jpg", OpenCount: 1, SortOrder: 1},
		},
	})
	return &consoleFixture{
		console: NewConsole(conf, &testutil.MockLogger{}, api),
		backend: backend,
		group:   g,
	}
}

func (f *consoleFixture) login(t *testing.T) {
	t.Helper()
	require.NoError(t, f.console.Login(context.Background(), testutil.FakeEmail, testutil.FakePassword))
}

func writePNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	path := filepath.Join(t.TempDir(), "lobby.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestConsole_LoginStoresToken(t *testing.T) {
	f := newConsoleFixture(t)

	f.login(t)

	data, err := os.ReadFile(f.console.Conf.Api.TokenFile)
	require.NoError(t, err)
	assert.Equal(t, testutil.FakeToken, string(data))
}

func TestConsole_LoginRejected(t *testing.T) {
	f := newConsoleFixture(t)

	err := f.console.Login(context.Background(), testutil.FakeEmail, "wrong")

	assert.Error(t, err)
	assert.NoFileExists(t, f.console.Conf.Api.TokenFile)
}

func TestConsole_CommandsNeedLogin(t *testing.T) {
	f := newConsoleFixture(t)

	err := f.console.Report(context.Background(), &bytes.Buffer{}, "lobby")
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	_, err = f.console.Slide(context.Background(), SlideOptions{GroupID: f.group.ID, Color: "#ff0000"})
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestConsole_Report(t *testing.T) {
	f := newConsoleFixture(t)
	f.login(t)

	var out bytes.Buffer
	require.NoError(t, f.console.Report(context.Background(), &out, "lobby"))

	text := out.String()
	assert.Contains(t, text, "Lobby")
	assert.Contains(t, text, "views 4  opens 4  engagement 100.0%")
	assert.Contains(t, text, strconv.Itoa(f.group.Slides[0].ID))
	assert.Contains(t, text, "Welcome")
}

func TestConsole_SlideWithColor(t *testing.T) {
	f := newConsoleFixture(t)
	f.login(t)

	slide, err := f.console.Slide(context.Background(), SlideOptions{
		GroupID:  f.group.ID,
		Color:    "#ff0000",
		Duration: 12,
		Caption:  "Spa",
		Links:    []string{"Book|https://hotel.test/book"},
		Slider:   true,
		Texts:    []string{"Open 9-21"},
	})
	require.NoError(t, err)
	assert.NotZero(t, slide.ID)

	up, ok := f.backend.LastUpload()
	require.True(t, ok)
	assert.False(t, up.HasImage)
	require.NotNil(t, up.BackgroundColor)
	assert.Equal(t, "#ff0000", *up.BackgroundColor)
	assert.Equal(t, "12", up.Duration)
	assert.Equal(t, "Spa", up.Caption)
	assert.Contains(t, up.Elements, "https://hotel.test/book")
	assert.Contains(t, up.Elements, "slider")
	assert.Contains(t, up.Elements, "Open 9-21")
}

func TestConsole_SlideWithImage(t *testing.T) {
	f := newConsoleFixture(t)
	f.login(t)

	_, err := f.console.Slide(context.Background(), SlideOptions{
		GroupID:   f.group.ID,
		ImagePath: writePNG(t, 1080, 1920),
		Zoom:      1.5,
		PanY:      0.2,
	})
	require.NoError(t, err)

	up, ok := f.backend.LastUpload()
	require.True(t, ok)
	assert.True(t, up.HasImage)
	assert.Equal(t, "image/jpeg", up.ImageType)
	assert.Nil(t, up.BackgroundColor)
}

func TestConsole_SlideUpdate(t *testing.T) {
	f := newConsoleFixture(t)
	f.login(t)
	target := f.group.Slides[1]

	_, err := f.console.Slide(context.Background(), SlideOptions{
		GroupID:  f.group.ID,
		UpdateID: target.ID,
		Caption:  "Updated",
	})
	require.NoError(t, err)

	up, ok := f.backend.LastUpload()
	require.True(t, ok)
	assert.Equal(t, "PUT", up.Method)
	assert.Equal(t, target.ID, up.SlideID)
	assert.False(t, up.HasImage, "existing image is kept")
}

func TestConsole_SlideErrors(t *testing.T) {
	f := newConsoleFixture(t)
	f.login(t)
	ctx := context.Background()

	_, err := f.console.Slide(ctx, SlideOptions{GroupID: f.group.ID, Color: "#ff0000", Links: []string{"no-separator"}})
	assert.ErrorContains(t, err, "invalid link")

	_, err = f.console.Slide(ctx, SlideOptions{GroupID: f.group.ID, UpdateID: 9999})
	assert.ErrorContains(t, err, "not found")

	_, err = f.console.Slide(ctx, SlideOptions{GroupID: f.group.ID, ImagePath: filepath.Join(t.TempDir(), "missing.png")})
	assert.Error(t, err)
}

func TestConsole_PlayQuits(t *testing.T) {
	f := newConsoleFixture(t)

	in, input := io.Pipe()
	go func() {
		// quitting closes the session, which cancels tracking still in flight
		assert.Eventually(t, func() bool {
			return f.backend.SlideOpenCount(f.group.Slides[0].ID) == 1 && f.backend.GroupOpenCount(f.group.ID) == 1
		}, 2*time.Second, 5*time.Millisecond)
		_, _ = io.WriteString(input, "q\n")
		_ = input.Close()
	}()

	var out syncBuffer
	err := f.console.Play(context.Background(), "tehran", 0, in, &out)

	require.NoError(t, err)
	assert.Contains(t, out.String(), "Lobby")
}

func TestConsole_PlayUnknownCity(t *testing.T) {
	f := newConsoleFixture(t)

	err := f.console.Play(context.Background(), "shiraz", 0, strings.NewReader(""), &bytes.Buffer{})

	assert.ErrorContains(t, err, "no stories")
}
