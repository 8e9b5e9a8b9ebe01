package builder

import (
	"strings"

	"github.com/gookit/validate"

	"storypanel/internal/models"
)

// default anchors, in percent of the frame
var defaultAnchors = map[models.ElementType][2]float64{
	models.ElementLink:   {50, 80},
	models.ElementSlider: {50, 50},
	models.ElementText:   {50, 20},
}

type linkInput struct {
	Text string `validate:"required"`
	URL  string `validate:"required"`
}

type sliderInput struct {
	Emoji string `validate:"required"`
}

type textInput struct {
	Content string `validate:"required"`
}

func validElement(el models.Element) bool {
	var in interface{}
	switch el.Type {
	case models.ElementLink:
		in = &linkInput{Text: strings.TrimSpace(el.Text), URL: strings.TrimSpace(el.URL)}
	case models.ElementSlider:
		in = &sliderInput{Emoji: el.Emoji}
	case models.ElementText:
		in = &textInput{Content: strings.TrimSpace(el.Content)}
	default:
		return false
	}
	return validate.Struct(in).Validate()
}

// AddLink appends a link button at the default anchor. Empty text or URL is a no-op.
func (b *Builder) AddLink(text, url string) bool {
	return b.addAtAnchor(models.Element{Type: models.ElementLink, Text: text, URL: url})
}

// AddSlider appends the emoji slider. Only one slider per slide; a second
// call does nothing.
func (b *Builder) AddSlider(emoji string) bool {
	if emoji == "" {
		emoji = "😍"
	}
	return b.addAtAnchor(models.Element{Type: models.ElementSlider, Emoji: emoji})
}

func (b *Builder) AddText(content string) bool {
	return b.addAtAnchor(models.Element{Type: models.ElementText, Content: content})
}

func (b *Builder) addAtAnchor(el models.Element) bool {
	anchor := defaultAnchors[el.Type]
	el.X, el.Y = anchor[0], anchor[1]
	return b.AddElement(el)
}

// AddElement appends an element at its own coordinates, clamped to the frame.
func (b *Builder) AddElement(el models.Element) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateSaving || !validElement(el) {
		return false
	}
	if el.Type == models.ElementSlider && b.elements.Count(models.ElementSlider) > 0 {
		return false
	}
	el.X = models.ClampCoord(el.X)
	el.Y = models.ClampCoord(el.Y)
	b.elements = append(b.elements, el)
	b.touch()
	return true
}

// RemoveElement deletes by position. A drag on the removed element ends; a drag
// on a later element keeps following it.
func (b *Builder) RemoveElement(index int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateSaving || index < 0 || index >= len(b.elements) {
		return false
	}
	b.elements = append(b.elements[:index], b.elements[index+1:]...)
	switch {
	case b.dragging == index:
		b.dragging = noDrag
	case b.dragging > index:
		b.dragging--
	}
	b.touch()
	return true
}

// BeginDrag takes drag ownership of one element. It fails while another
// element is held.
func (b *Builder) BeginDrag(index int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateSaving || index < 0 || index >= len(b.elements) {
		return false
	}
	if b.dragging != noDrag && b.dragging != index {
		return false
	}
	b.dragging = index
	return true
}

// Drag moves the held element. Without a drag in progress it does nothing.
func (b *Builder) Drag(x, y float64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.dragging == noDrag {
		return false
	}
	return b.move(b.dragging, x, y)
}

func (b *Builder) EndDrag() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dragging = noDrag
}

// MoveElement sets a new position, clamped to [0,100]. Rejected while a
// different element is being dragged.
func (b *Builder) MoveElement(index int, x, y float64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.dragging != noDrag && b.dragging != index {
		return false
	}
	return b.move(index, x, y)
}

func (b *Builder) move(index int, x, y float64) bool {
	if b.state == StateSaving || index < 0 || index >= len(b.elements) {
		return false
	}
	b.elements[index].X = models.ClampCoord(x)
	b.elements[index].Y = models.ClampCoord(y)
	b.touch()
	return true
}
