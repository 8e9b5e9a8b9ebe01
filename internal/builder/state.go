package builder

import (
	"errors"

	"storypanel/internal/crop"
	"storypanel/internal/models"
)

type State int

const (
	StateEmpty State = iota
	StateEditing
	StateSaving
	StateSaved
	StateFailed
)

var stateNames = map[State]string{
	StateEmpty:   "empty",
	StateEditing: "editing",
	StateSaving:  "saving",
	StateSaved:   "saved",
	StateFailed:  "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

type Mode int

const (
	ModeColor Mode = iota
	ModeImage
)

func (m Mode) String() string {
	if m == ModeImage {
		return "image"
	}
	return "color"
}

var (
	ErrWrongMode          = errors.New("builder: operation not available in the current background mode")
	ErrInvalidImageFormat = errors.New("builder: invalid image format")
	ErrImageTooLarge      = errors.New("builder: image exceeds upload limit")
	ErrNoImage            = errors.New("builder: no image loaded")
	ErrNoColor            = errors.New("builder: no background color chosen")
	ErrSaveInProgress     = errors.New("builder: save already in progress")
)

// Draft is a read-only copy of the authoring state.
type Draft struct {
	State     State
	Mode      Mode
	Color     string
	HasImage  bool
	ImageName string
	ImageRef  string
	Selection crop.Selection
	Region    crop.Region
	Duration  int
	Caption   string
	Elements  models.Elements
	Dragging  int
	LastError error
}
