package client

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strconv"

	json "github.com/goccy/go-json"

	"storypanel/internal/models"
)

const (
	fieldImage           = "image"
	fieldElements        = "elements"
	fieldDuration        = "duration"
	fieldCaption         = "caption_fa"
	fieldBackgroundColor = "background_color"

	uploadFileName = "story.jpg"
)

// SlidePayload is what the builder hands over on save. Background is one of
// models.UploadBackground, models.ImageBackground or models.ColorBackground.
type SlidePayload struct {
	Background models.Background
	Elements   models.Elements
	Duration   int
	Caption    string
}

// encode flattens the payload into the multipart form the backend expects.
// Only the active background variant produces a field: an upload sends the
// image part, a color sends background_color, an unchanged image reference
// sends neither so the stored image is kept.
func (p SlidePayload) encode() (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	switch bg := p.Background.(type) {
	case models.UploadBackground:
		if len(bg.Data) == 0 {
			return nil, "", fmt.Errorf("encoding slide: empty image upload")
		}
		mimeType := bg.MimeType
		if mimeType == "" {
			mimeType = "image/jpeg"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fieldImage, uploadFileName))
		h.Set("Content-Type", mimeType)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("encoding slide image: %w", err)
		}
		if _, err := part.Write(bg.Data); err != nil {
			return nil, "", fmt.Errorf("encoding slide image: %w", err)
		}
	case models.ColorBackground:
		if err := w.WriteField(fieldBackgroundColor, bg.Hex); err != nil {
			return nil, "", err
		}
	case models.ImageBackground:
	case nil:
		return nil, "", fmt.Errorf("encoding slide: no background")
	default:
		return nil, "", fmt.Errorf("encoding slide: unsupported background %T", bg)
	}

	elements, err := json.Marshal(p.Elements)
	if err != nil {
		return nil, "", fmt.Errorf("encoding slide elements: %w", err)
	}
	fields := [][2]string{
		{fieldElements, string(elements)},
		{fieldDuration, strconv.Itoa(models.ClampDuration(p.Duration))},
		{fieldCaption, p.Caption},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return body, w.FormDataContentType(), nil
}
