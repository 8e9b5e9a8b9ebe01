package builder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"
	"sync"

	"storypanel/internal/client"
	"storypanel/internal/crop"
	"storypanel/internal/models"
	"storypanel/internal/providers"
	"storypanel/internal/structures"
)

const (
	noDrag = -1

	defaultMaxUploadMB = 10
)

// SlideWriter persists an authored slide. *client.Client satisfies it.
type SlideWriter interface {
	CreateSlide(ctx context.Context, groupID int, payload client.SlidePayload) (*models.Slide, error)
	UpdateSlide(ctx context.Context, slideID int, payload client.SlidePayload) (*models.Slide, error)
}

// Builder is one authoring session for a single slide of a group.
type Builder struct {
	mu      sync.Mutex
	writer  SlideWriter
	engine  *crop.Engine
	logger  providers.Logger
	metrics providers.MetricsProviderInterface

	maxUpload       int64
	defaultDuration int
	groupID         int
	slideID         int
	onSaved         func(*models.Slide)

	state     State
	mode      Mode
	color     string
	source    image.Image
	imageName string
	imageMime string
	imageRef  string
	selection crop.Selection
	duration  int
	caption   string
	elements  models.Elements
	dragging  int
	lastErr   error
}

// New starts an empty session that will create a slide in groupID.
func New(conf *structures.Config, writer SlideWriter, logger providers.Logger, metrics providers.MetricsProviderInterface, groupID int) *Builder {
	if logger == nil {
		logger = providers.NewNopLogger()
	}
	if metrics == nil {
		metrics = providers.NewNoopMetrics()
	}
	maxMB := conf.Builder.MaxUploadMB
	if maxMB <= 0 {
		maxMB = defaultMaxUploadMB
	}
	duration := conf.Player.DefaultDuration
	if duration <= 0 {
		duration = models.DefaultDuration
	}

	b := &Builder{
		writer:          writer,
		engine:          crop.NewEngine(conf.Builder.JpegQuality),
		logger:          logger,
		metrics:         metrics,
		maxUpload:       int64(maxMB) << 20,
		defaultDuration: models.ClampDuration(duration),
		groupID:         groupID,
	}
	b.clear()
	return b
}

// NewFromSlide seeds a session from a persisted slide. The mode follows the
// stored background: a slide with an image keeps referencing it until a new
// image is loaded. Elements, duration and color are copied as they are.
func NewFromSlide(conf *structures.Config, writer SlideWriter, logger providers.Logger, metrics providers.MetricsProviderInterface, slide *models.Slide) *Builder {
	b := New(conf, writer, logger, metrics, slide.GroupID)
	b.slideID = slide.ID
	b.seed(slide)
	return b
}

func (b *Builder) seed(slide *models.Slide) {
	b.state = StateEditing
	b.caption = slide.Caption
	b.duration = slide.DurationSeconds()
	b.elements = append(models.Elements{}, slide.Elements...)
	if slide.BackgroundColor != nil {
		b.color = *slide.BackgroundColor
	}
	switch bg := slide.Background().(type) {
	case models.ImageBackground:
		b.mode = ModeImage
		b.imageRef = bg.Ref
	case models.ColorBackground:
		b.mode = ModeColor
	}
}

func (b *Builder) clear() {
	b.state = StateEmpty
	b.mode = ModeColor
	b.color = ""
	b.source = nil
	b.imageName = ""
	b.imageMime = ""
	b.imageRef = ""
	b.selection = crop.Selection{Zoom: crop.MinZoom}
	b.duration = b.defaultDuration
	b.caption = ""
	b.elements = models.Elements{}
	b.dragging = noDrag
	b.lastErr = nil
}

// touch marks the draft as being edited after any successful mutation.
func (b *Builder) touch() {
	if b.state != StateSaving {
		b.state = StateEditing
	}
}

// OnSaved registers the completion callback, called after each successful save.
func (b *Builder) OnSaved(fn func(*models.Slide)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onSaved = fn
}

// Reset discards the draft. The target group and slide are kept.
func (b *Builder) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateSaving {
		return
	}
	b.clear()
}

func (b *Builder) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Builder) Draft() Draft {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Draft{
		State:     b.state,
		Mode:      b.mode,
		Color:     b.color,
		HasImage:  b.source != nil,
		ImageName: b.imageName,
		ImageRef:  b.imageRef,
		Selection: b.selection,
		Region:    b.selection.Region(),
		Duration:  b.duration,
		Caption:   b.caption,
		Elements:  append(models.Elements{}, b.elements...),
		Dragging:  b.dragging,
		LastError: b.lastErr,
	}
}

// SelectBackgroundMode switches between color and image. Nothing is
// validated and the other mode's data is kept.
func (b *Builder) SelectBackgroundMode(mode Mode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateSaving {
		return
	}
	b.mode = mode
	b.touch()
}

func (b *Builder) SetColor(hex string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateSaving {
		return ErrSaveInProgress
	}
	if b.mode != ModeColor {
		return ErrWrongMode
	}
	b.color = strings.TrimSpace(hex)
	b.touch()
	return nil
}

// LoadImage reads a background image. The content must sniff as JPEG, PNG or
// GIF; anything else leaves the session untouched. A loaded image starts
// uncropped: zoom 1, centered.
func (b *Builder) LoadImage(name string, r io.Reader) error {
	b.mu.Lock()
	if b.state == StateSaving {
		b.mu.Unlock()
		return ErrSaveInProgress
	}
	if b.mode != ModeImage {
		b.mu.Unlock()
		return ErrWrongMode
	}
	limit := b.maxUpload
	b.mu.Unlock()

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if int64(len(data)) > limit {
		return fmt.Errorf("%w: %s is over %d MB", ErrImageTooLarge, name, limit>>20)
	}
	src, mime, err := crop.Decode(data)
	if err != nil {
		b.logger.Warnf(providers.TypeBuilder, "rejected image %s (%s): %v", name, mime, err)
		return fmt.Errorf("%w: %s is %s", ErrInvalidImageFormat, name, mime)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateSaving {
		return ErrSaveInProgress
	}
	bounds := src.Bounds()
	b.source = src
	b.imageName = name
	b.imageMime = mime
	b.selection = crop.NewSelection(bounds.Dx(), bounds.Dy())
	b.touch()
	b.logger.Debugf(providers.TypeBuilder, "loaded %s %dx%d (%s)", name, bounds.Dx(), bounds.Dy(), mime)
	return nil
}

// LoadImageBytes is LoadImage over an in-memory buffer.
func (b *Builder) LoadImageBytes(name string, data []byte) error {
	return b.LoadImage(name, bytes.NewReader(data))
}

func (b *Builder) SetZoom(zoom float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.cropEditable(); err != nil {
		return err
	}
	b.selection = b.selection.WithZoom(zoom)
	b.touch()
	return nil
}

// Pan shifts the crop window by a fraction of the available slack.
func (b *Builder) Pan(dx, dy float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.cropEditable(); err != nil {
		return err
	}
	b.selection = b.selection.WithOffset(b.selection.OffsetX+dx, b.selection.OffsetY+dy)
	b.touch()
	return nil
}

func (b *Builder) cropEditable() error {
	switch {
	case b.state == StateSaving:
		return ErrSaveInProgress
	case b.mode != ModeImage:
		return ErrWrongMode
	case b.source == nil:
		return ErrNoImage
	}
	return nil
}

// SetDuration stores the playback length clamped to 1..30 seconds and
// returns the stored value.
func (b *Builder) SetDuration(seconds int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateSaving {
		b.duration = models.ClampDuration(seconds)
		b.touch()
	}
	return b.duration
}

func (b *Builder) SetCaption(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateSaving {
		return
	}
	b.caption = strings.TrimSpace(text)
	b.touch()
}

// Save produces the background, sends the slide to the writer and blocks
// until it answers. The write is not cancelled with ctx: once started it runs
// to completion. On failure the draft is kept and the session is editable
// again.
func (b *Builder) Save(ctx context.Context) (*models.Slide, error) {
	b.mu.Lock()
	if b.state == StateSaving {
		b.mu.Unlock()
		return nil, ErrSaveInProgress
	}
	payload, err := b.payload()
	if err != nil {
		b.fail(err)
		b.mu.Unlock()
		return nil, err
	}
	b.state = StateSaving
	groupID, slideID := b.groupID, b.slideID
	b.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	var slide *models.Slide
	if slideID != 0 {
		slide, err = b.writer.UpdateSlide(ctx, slideID, payload)
	} else {
		slide, err = b.writer.CreateSlide(ctx, groupID, payload)
	}

	b.mu.Lock()
	if err != nil {
		b.fail(err)
		b.mu.Unlock()
		return nil, err
	}
	b.state = StateSaved
	b.lastErr = nil
	if slide.ID != 0 {
		b.slideID = slide.ID
	}
	if slide.ImageURL != "" {
		b.imageRef = slide.ImageURL
	}
	onSaved := b.onSaved
	b.mu.Unlock()

	b.metrics.IncBuilderSaves("success")
	b.logger.Infof(providers.TypeBuilder, "saved slide %d in group %d", slide.ID, groupID)
	if onSaved != nil {
		onSaved(slide)
	}
	return slide, nil
}

// fail records a failed save and returns the session to editing. Must hold mu.
func (b *Builder) fail(err error) {
	b.state = StateFailed
	b.lastErr = err
	b.metrics.IncBuilderSaves("failure")
	b.logger.Warnf(providers.TypeBuilder, "saving slide for group %d failed: %v", b.groupID, err)
	b.state = StateEditing
}

// payload builds the wire payload from the active background mode only. Must hold mu.
func (b *Builder) payload() (client.SlidePayload, error) {
	p := client.SlidePayload{
		Elements: append(models.Elements{}, b.elements...),
		Duration: models.ClampDuration(b.duration),
		Caption:  b.caption,
	}

	switch b.mode {
	case ModeColor:
		if b.color == "" {
			return p, ErrNoColor
		}
		p.Background = models.ColorBackground{Hex: b.color}
	case ModeImage:
		if b.source == nil {
			if b.imageRef == "" {
				return p, ErrNoImage
			}
			p.Background = models.ImageBackground{Ref: b.imageRef}
			return p, nil
		}
		raster, err := b.engine.Produce(b.source, b.selection.Region())
		if err != nil {
			return p, err
		}
		p.Background = models.UploadBackground{
			Data:     raster.Data,
			MimeType: raster.MimeType,
			Width:    raster.Width,
			Height:   raster.Height,
		}
	default:
		return p, errors.New("builder: unknown background mode")
	}
	return p, nil
}
