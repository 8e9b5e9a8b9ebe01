package models

// Background is the mutually exclusive slide backdrop. Exactly one variant is
// carried at a time; the optional image/background_color pair only exists on
// the wire.
type Background interface {
	isBackground()
}

// ImageBackground references an already uploaded image, relative to the asset base.
type ImageBackground struct {
	Ref string
}

// UploadBackground is a freshly produced raster that still has to be uploaded.
type UploadBackground struct {
	Data     []byte
	MimeType string
	Width    int
	Height   int
}

type ColorBackground struct {
	Hex string
}

func (ImageBackground) isBackground()  {}
func (UploadBackground) isBackground() {}
func (ColorBackground) isBackground()  {}
