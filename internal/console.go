package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"storypanel/internal/builder"
	"storypanel/internal/client"
	"storypanel/internal/models"
	"storypanel/internal/providers"
	"storypanel/internal/services"
	"storypanel/internal/structures"
	"storypanel/internal/terminal"
	"storypanel/internal/viewer"
)

var ErrNotLoggedIn = errors.New("not logged in, run login first")

// Console backs the one-shot CLI commands.
type Console struct {
	Conf   *structures.Config
	Logger providers.Logger
	Client *client.Client
}

func NewConsole(conf *structures.Config, logger providers.Logger, api *client.Client) *Console {
	return &Console{Conf: conf, Logger: logger, Client: api}
}

// SlideOptions describe one builder session. Links are "text|url" pairs.
type SlideOptions struct {
	GroupID   int
	UpdateID  int
	ImagePath string
	Zoom      float64
	PanX      float64
	PanY      float64
	Color     string
	Duration  int
	Caption   string
	Links     []string
	Slider    bool
	Texts     []string
}

func (c *Console) authed() (*client.Client, error) {
	session, err := client.LoadSession(c.Conf.Api.TokenFile)
	if err != nil {
		return nil, err
	}
	if !session.Authenticated() {
		return nil, ErrNotLoggedIn
	}
	return c.Client.WithSession(session), nil
}

// Login signs in and stores the token in the configured token file.
func (c *Console) Login(ctx context.Context, email, password string) error {
	session, err := c.Client.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := session.Save(c.Conf.Api.TokenFile); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	c.Logger.Infof(providers.TypeApi, "Logged in as %s", email)
	return nil
}

func (c *Console) Report(ctx context.Context, w io.Writer, group string) error {
	api, err := c.authed()
	if err != nil {
		return err
	}
	g, err := api.FetchGroup(ctx, group)
	if err != nil {
		return err
	}
	terminal.PrintReport(w, models.NewGroupReport(g))
	return nil
}

// Play runs an interactive viewer over the public stories of city.
func (c *Console) Play(ctx context.Context, city string, startGroup int, in io.Reader, out io.Writer) error {
	groups, err := c.Client.FetchPublicStoriesForCity(ctx, city)
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		return fmt.Errorf("no stories for %s", city)
	}

	tracking := services.NewTrackingService(c.Conf, c.Client, c.Logger, providers.NewNoopMetrics())
	defer tracking.Wait()

	renderer := terminal.NewRenderer(out)
	session := viewer.NewSession(ctx, groups, viewer.Options{
		StartGroup:   startGroup,
		TickInterval: c.Conf.Player.TickInterval,
		Tracker:      tracking,
		Opener:       noticeOpener{renderer: renderer},
		Assets:       c.Client,
		Logger:       c.Logger,
	})
	return terminal.NewPlayer(session, renderer, in).Run(ctx)
}

type noticeOpener struct {
	renderer *terminal.Renderer
}

func (o noticeOpener) Open(url string) error {
	o.renderer.Notice("open " + url)
	return nil
}

// Slide runs one builder session and saves it.
func (c *Console) Slide(ctx context.Context, opts SlideOptions) (*models.Slide, error) {
	api, err := c.authed()
	if err != nil {
		return nil, err
	}

	var b *builder.Builder
	if opts.UpdateID > 0 {
		slide, err := c.findSlide(ctx, api, opts.GroupID, opts.UpdateID)
		if err != nil {
			return nil, err
		}
		b = builder.NewFromSlide(c.Conf, api, c.Logger, nil, slide)
	} else {
		b = builder.New(c.Conf, api, c.Logger, nil, opts.GroupID)
	}

	switch {
	case opts.ImagePath != "":
		if err := loadImage(b, opts); err != nil {
			return nil, err
		}
	case opts.Color != "":
		b.SelectBackgroundMode(builder.ModeColor)
		if err := b.SetColor(opts.Color); err != nil {
			return nil, err
		}
	}

	if opts.Duration > 0 {
		b.SetDuration(opts.Duration)
	}
	if opts.Caption != "" {
		b.SetCaption(opts.Caption)
	}
	for _, l := range opts.Links {
		text, url, ok := strings.Cut(l, "|")
		if !ok || !b.AddLink(strings.TrimSpace(text), strings.TrimSpace(url)) {
			return nil, fmt.Errorf("invalid link %q, want \"text|url\"", l)
		}
	}
	if opts.Slider && !b.AddSlider("") {
		return nil, errors.New("slide already has a slider")
	}
	for _, t := range opts.Texts {
		if !b.AddText(t) {
			return nil, fmt.Errorf("invalid text %q", t)
		}
	}
	return b.Save(ctx)
}

func loadImage(b *builder.Builder, opts SlideOptions) error {
	f, err := os.Open(opts.ImagePath)
	if err != nil {
		return err
	}
	defer f.Close()

	b.SelectBackgroundMode(builder.ModeImage)
	if err := b.LoadImage(filepath.Base(opts.ImagePath), f); err != nil {
		return err
	}
	if opts.Zoom > 0 {
		if err := b.SetZoom(opts.Zoom); err != nil {
			return err
		}
	}
	if opts.PanX != 0 || opts.PanY != 0 {
		return b.Pan(opts.PanX, opts.PanY)
	}
	return nil
}

func (c *Console) findSlide(ctx context.Context, api *client.Client, groupID, slideID int) (*models.Slide, error) {
	g, err := api.FetchGroup(ctx, strconv.Itoa(groupID))
	if err != nil {
		return nil, err
	}
	for i := range g.Slides {
		if g.Slides[i].ID == slideID {
			return &g.Slides[i], nil
		}
	}
	return nil, fmt.Errorf("slide %d not found in group %d", slideID, groupID)
}
